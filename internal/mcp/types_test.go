package mcp

import (
	"encoding/json"
	"strings"
	"testing"

	"twstock-advisor/internal/domain"
)

func TestOKResponseCarriesData(t *testing.T) {
	resp := okResponse(domain.StockMetadata{Code: "2330"})
	if !resp.Success || resp.Data == nil || resp.Data.Code != "2330" {
		t.Fatalf("unexpected response %+v", resp)
	}

	body, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(body), `"error"`) {
		t.Fatalf("expected error fields omitted, got %s", body)
	}
}

func TestErrResponseClassifies(t *testing.T) {
	resp := errResponse[domain.Recommendation](domain.NotFoundf("stock %s is not in the catalog", "9999"))
	if resp.Success || resp.Data != nil {
		t.Fatalf("expected failure without data, got %+v", resp)
	}
	if resp.ErrorKind != domain.KindNotFound || !strings.Contains(resp.Error, "9999") {
		t.Fatalf("unexpected error fields %+v", resp)
	}
}

func TestNewStockListOutputNeverNil(t *testing.T) {
	out := newStockListOutput(nil)
	if out.Stocks == nil || out.Count != 0 {
		t.Fatalf("expected empty list, got %+v", out)
	}

	body, _ := json.Marshal(out)
	if !strings.Contains(string(body), `"stocks":[]`) {
		t.Fatalf("expected empty JSON array, got %s", body)
	}
}
