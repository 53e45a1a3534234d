// Package catalog serves static stock reference data.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"twstock-advisor/internal/domain"
)

//go:embed stocks.yaml
var embeddedStocks []byte

type file struct {
	Stocks []domain.StockMetadata `yaml:"stocks"`
}

type Industry struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Catalog is immutable after construction and safe for concurrent reads.
type Catalog struct {
	stocks []domain.StockMetadata
	byCode map[string]domain.StockMetadata
}

// Load reads the catalog at path, or the embedded catalog when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Parse(embeddedStocks)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return New(f.Stocks)
}

func New(stocks []domain.StockMetadata) (*Catalog, error) {
	c := &Catalog{
		stocks: make([]domain.StockMetadata, 0, len(stocks)),
		byCode: make(map[string]domain.StockMetadata, len(stocks)),
	}
	for _, s := range stocks {
		s.Code = strings.TrimSpace(s.Code)
		s.Name = strings.TrimSpace(s.Name)
		s.Industry = strings.TrimSpace(s.Industry)
		if s.Code == "" || s.Name == "" {
			return nil, fmt.Errorf("catalog entry %+v: code and name are required", s)
		}
		if s.Market != domain.MarketListed && s.Market != domain.MarketOTC {
			return nil, fmt.Errorf("catalog entry %s: unknown market %q", s.Code, s.Market)
		}
		if _, dup := c.byCode[s.Code]; dup {
			return nil, fmt.Errorf("catalog entry %s: duplicate code", s.Code)
		}
		c.byCode[s.Code] = s
		c.stocks = append(c.stocks, s)
	}
	sort.Slice(c.stocks, func(i, j int) bool {
		return c.stocks[i].Code < c.stocks[j].Code
	})
	return c, nil
}

func (c *Catalog) Len() int {
	return len(c.stocks)
}

func (c *Catalog) Lookup(code string) (domain.StockMetadata, bool) {
	s, ok := c.byCode[strings.TrimSpace(code)]
	return s, ok
}

// Search matches keyword case-insensitively against code and name.
func (c *Catalog) Search(keyword string) []domain.StockMetadata {
	needle := strings.ToLower(strings.TrimSpace(keyword))
	out := make([]domain.StockMetadata, 0)
	if needle == "" {
		return out
	}
	for _, s := range c.stocks {
		if strings.Contains(strings.ToLower(s.Code), needle) || strings.Contains(strings.ToLower(s.Name), needle) {
			out = append(out, s)
		}
	}
	return out
}

// FilterByIndustry returns the stocks whose industry equals industry exactly.
func (c *Catalog) FilterByIndustry(industry string) []domain.StockMetadata {
	industry = strings.TrimSpace(industry)
	out := make([]domain.StockMetadata, 0)
	for _, s := range c.stocks {
		if s.Industry == industry {
			out = append(out, s)
		}
	}
	return out
}

func (c *Catalog) Industries() []Industry {
	counts := make(map[string]int)
	for _, s := range c.stocks {
		counts[s.Industry]++
	}
	out := make([]Industry, 0, len(counts))
	for name, n := range counts {
		out = append(out, Industry{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}
