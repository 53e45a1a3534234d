package bot

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v3"

	"twstock-advisor/internal/domain"
)

const commandTimeout = 45 * time.Second

// StockAnalyzer is the part of the analysis service the bot talks to.
type StockAnalyzer interface {
	GetStockMetadata(ctx context.Context, stockID string) (domain.StockMetadata, error)
	AnalyzeStock(ctx context.Context, stockID string, months int) (domain.Recommendation, error)
	GetRecommendationSummary(ctx context.Context, stockIDs []string, months int) (domain.RecommendationSummary, error)
	SearchStocksByKeyword(ctx context.Context, keyword string) ([]domain.StockMetadata, error)
	FilterStocksByIndustry(ctx context.Context, industry string) ([]domain.StockMetadata, error)
	RenderChart(ctx context.Context, stockID string, months int) (domain.ChartImage, error)
	MonthsOrDefault(months *int) int
}

// StartTelegramBot registers the command handlers and starts long polling.
// It returns nil when TELEGRAM_BOT_TOKEN is unset. A nil store keeps
// subscriptions in memory only.
func StartTelegramBot(svc StockAnalyzer, store SubscriberStore) *AlertDispatcher {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return nil
	}
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		log.Fatalf("failed to create Telegram bot: %v", err)
	}
	restoreCtx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	alerts, err := NewAlertDispatcher(b).WithStore(restoreCtx, store)
	cancel()
	if err != nil {
		log.Printf("Warning: %v, starting with no subscribers", err)
	}
	cmds := &commands{svc: svc, alerts: alerts}

	b.Handle("/start", func(c tele.Context) error {
		return c.Send(helpText)
	})
	b.Handle("/help", func(c tele.Context) error {
		return c.Send(helpText)
	})
	b.Handle("/info", func(c tele.Context) error {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		return c.Send(cmds.info(ctx, c.Args()))
	})
	b.Handle("/analyze", func(c tele.Context) error {
		_ = c.Notify(tele.Typing)
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		return c.Send(cmds.analyze(ctx, c.Args()))
	})
	b.Handle("/summary", func(c tele.Context) error {
		_ = c.Notify(tele.Typing)
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		return c.Send(cmds.summary(ctx, c.Args()))
	})
	b.Handle("/search", func(c tele.Context) error {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		return c.Send(cmds.search(ctx, c.Message().Payload))
	})
	b.Handle("/industry", func(c tele.Context) error {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		return c.Send(cmds.industry(ctx, c.Message().Payload))
	})
	b.Handle("/chart", func(c tele.Context) error {
		_ = c.Notify(tele.UploadingPhoto)
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		img, caption, err := cmds.chart(ctx, c.Args())
		if err != nil {
			return c.Send(caption)
		}
		return c.Send(&tele.Photo{
			File:    tele.FromReader(bytes.NewReader(img.Bytes)),
			Caption: caption,
		})
	})
	b.Handle("/watch", func(c tele.Context) error {
		if c.Chat() == nil {
			return c.Send("Unable to detect chat")
		}
		return c.Send(cmds.watch(c.Chat().ID))
	})
	b.Handle("/unwatch", func(c tele.Context) error {
		if c.Chat() == nil {
			return c.Send("Unable to detect chat")
		}
		return c.Send(cmds.unwatch(c.Chat().ID))
	})

	log.Println("Telegram bot started")
	go b.Start()
	return alerts
}

const helpText = `Taiwan stock analysis bot

/info <code> - name, industry and market
/analyze <code> [months] - trend, buy/sell/hold and indicators
/summary <code> <code> ... - buy/sell/hold groups for several stocks
/search <keyword> - find stocks by code or name
/industry <name> - list stocks in an industry
/chart <code> [months] - price chart with indicators
/watch - receive the scheduled watchlist summary
/unwatch - stop watchlist summaries

months defaults to 3 (1-24). Analysis is technical only and not investment advice.`

// commands produces the reply text for each bot command.
type commands struct {
	svc    StockAnalyzer
	alerts *AlertDispatcher
}

func (c *commands) info(ctx context.Context, args []string) string {
	if len(args) == 0 {
		return "Usage: /info 2330"
	}
	meta, err := c.svc.GetStockMetadata(ctx, args[0])
	if err != nil {
		return fmt.Sprintf("Lookup failed: %v", err)
	}
	return formatMetadata(meta)
}

func (c *commands) analyze(ctx context.Context, args []string) string {
	code, months, err := parseCodeMonths(args)
	if err != nil {
		return "Usage: /analyze 2330 [months]"
	}
	rec, err := c.svc.AnalyzeStock(ctx, code, c.svc.MonthsOrDefault(months))
	if err != nil {
		return fmt.Sprintf("Could not analyze %s: %v", code, err)
	}
	return truncate(formatRecommendation(rec))
}

func (c *commands) summary(ctx context.Context, args []string) string {
	codes := make([]string, 0, len(args))
	for _, a := range args {
		if a = strings.TrimSpace(a); a != "" {
			codes = append(codes, a)
		}
	}
	if len(codes) == 0 {
		return "Usage: /summary 2330 2317 2454"
	}
	summary, err := c.svc.GetRecommendationSummary(ctx, codes, c.svc.MonthsOrDefault(nil))
	if err != nil {
		return fmt.Sprintf("Summary failed: %v", err)
	}
	return truncate(formatSummary("Summary", summary))
}

func (c *commands) search(ctx context.Context, keyword string) string {
	if strings.TrimSpace(keyword) == "" {
		return "Usage: /search 台積"
	}
	stocks, err := c.svc.SearchStocksByKeyword(ctx, keyword)
	if err != nil {
		return fmt.Sprintf("Search failed: %v", err)
	}
	if len(stocks) == 0 {
		return fmt.Sprintf("No stocks match %q.", strings.TrimSpace(keyword))
	}
	return truncate(formatStockList(stocks))
}

func (c *commands) industry(ctx context.Context, name string) string {
	if strings.TrimSpace(name) == "" {
		return "Usage: /industry 半導體業"
	}
	stocks, err := c.svc.FilterStocksByIndustry(ctx, name)
	if err != nil {
		return fmt.Sprintf("Industry lookup failed: %v", err)
	}
	if len(stocks) == 0 {
		return fmt.Sprintf("No stocks in industry %q.", strings.TrimSpace(name))
	}
	return truncate(formatStockList(stocks))
}

// chart returns the rendered image with its caption. On error the caption
// holds the message to send instead.
func (c *commands) chart(ctx context.Context, args []string) (domain.ChartImage, string, error) {
	code, months, err := parseCodeMonths(args)
	if err != nil {
		return domain.ChartImage{}, "Usage: /chart 2330 [months]", err
	}
	n := c.svc.MonthsOrDefault(months)
	img, err := c.svc.RenderChart(ctx, code, n)
	if err != nil {
		return domain.ChartImage{}, fmt.Sprintf("Could not render chart for %s: %v", code, err), err
	}
	return img, fmt.Sprintf("%s, last %d months", img.StockID, n), nil
}

func (c *commands) watch(chatID int64) string {
	if c.alerts.Subscribe(chatID) {
		return "Watchlist summaries enabled for this chat."
	}
	return "Watchlist summaries are already enabled for this chat."
}

func (c *commands) unwatch(chatID int64) string {
	if c.alerts.Unsubscribe(chatID) {
		return "Watchlist summaries disabled for this chat."
	}
	return "Watchlist summaries are already disabled for this chat."
}

// parseCodeMonths reads "<code> [months]".
func parseCodeMonths(args []string) (string, *int, error) {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return "", nil, fmt.Errorf("missing stock code")
	}
	if len(args) > 2 {
		return "", nil, fmt.Errorf("too many arguments")
	}
	code := strings.TrimSpace(args[0])
	if len(args) == 1 {
		return code, nil, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(args[1]))
	if err != nil {
		return "", nil, fmt.Errorf("months must be an integer: %w", err)
	}
	return code, &n, nil
}

func truncate(msg string) string {
	if len(msg) > 4000 {
		return msg[:4000] + "\n\n[truncated]"
	}
	return msg
}
