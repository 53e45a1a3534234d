package bot

import (
	"context"
	"fmt"
	"strings"
	"testing"

	tele "gopkg.in/telebot.v3"

	"twstock-advisor/internal/domain"
)

func TestAlertDispatcherNotifySummary(t *testing.T) {
	sender := &fakeSender{}
	dispatcher := NewAlertDispatcher(sender)

	if !dispatcher.Subscribe(10) {
		t.Fatal("expected initial subscribe to return true")
	}
	if !dispatcher.Subscribe(20) {
		t.Fatal("expected initial subscribe to return true")
	}
	if dispatcher.Subscribe(10) {
		t.Fatal("expected duplicate subscribe to return false")
	}

	if err := dispatcher.NotifySummary(context.Background(), sampleSummary()); err != nil {
		t.Fatalf("unexpected notify error: %v", err)
	}
	if len(sender.messages[10]) != 1 || len(sender.messages[20]) != 1 {
		t.Fatalf("expected one message per subscriber, got %+v", sender.messages)
	}
	body := sender.messages[10][0]
	for _, want := range []string{"Watchlist update: 2 analyzed, 1 failed", "BUY: 2330 台積電 (45)", "SELL: none", "! 9999: not_found"} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in alert body:\n%s", want, body)
		}
	}
}

func TestAlertDispatcherUnsubscribe(t *testing.T) {
	sender := &fakeSender{}
	dispatcher := NewAlertDispatcher(sender)

	dispatcher.Subscribe(10)
	if !dispatcher.Unsubscribe(10) {
		t.Fatal("expected unsubscribe to return true")
	}
	if dispatcher.Unsubscribe(10) {
		t.Fatal("expected second unsubscribe to return false")
	}

	if err := dispatcher.NotifySummary(context.Background(), sampleSummary()); err != nil {
		t.Fatalf("unexpected notify error: %v", err)
	}
	if len(sender.messages) != 0 {
		t.Fatalf("expected zero outgoing messages, got %+v", sender.messages)
	}
}

func TestAlertDispatcherReportsSendFailures(t *testing.T) {
	sender := &fakeSender{fail: map[int64]bool{20: true}}
	dispatcher := NewAlertDispatcher(sender)
	dispatcher.Subscribe(10)
	dispatcher.Subscribe(20)

	err := dispatcher.NotifySummary(context.Background(), sampleSummary())
	if err == nil || !strings.Contains(err.Error(), "chat 20") {
		t.Fatalf("expected failure for chat 20, got %v", err)
	}
	if len(sender.messages[10]) != 1 {
		t.Fatal("expected chat 10 to still receive the summary")
	}
}

func TestNilDispatcherIsNoop(t *testing.T) {
	var d *AlertDispatcher
	if err := d.NotifySummary(context.Background(), sampleSummary()); err != nil {
		t.Fatalf("expected nil dispatcher to be a no-op, got %v", err)
	}
}

func sampleSummary() domain.RecommendationSummary {
	buy := domain.Recommendation{StockID: "2330", Name: "台積電", Action: domain.ActionBuy, Confidence: 45}
	hold := domain.Recommendation{StockID: "2317", Name: "鴻海", Action: domain.ActionHold, Confidence: 30}
	return domain.RecommendationSummary{
		TotalAnalyzed:       2,
		BuyCount:            1,
		HoldCount:           1,
		BuyRecommendations:  []domain.Recommendation{buy},
		SellRecommendations: []domain.Recommendation{},
		HoldRecommendations: []domain.Recommendation{hold},
		AllResults:          []domain.Recommendation{buy, hold},
		Errors:              []domain.BatchError{{StockID: "9999", Error: "not found: stock 9999 is not in the catalog", Kind: domain.KindNotFound}},
		TotalErrors:         1,
	}
}

type fakeSender struct {
	messages map[int64][]string
	fail     map[int64]bool
}

func (f *fakeSender) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	if f.messages == nil {
		f.messages = make(map[int64][]string)
	}

	chat, ok := to.(*tele.Chat)
	if !ok {
		return nil, fmt.Errorf("unexpected recipient type %T", to)
	}
	if f.fail[chat.ID] {
		return nil, fmt.Errorf("blocked by user")
	}
	f.messages[chat.ID] = append(f.messages[chat.ID], fmt.Sprint(what))
	return &tele.Message{}, nil
}

func TestAlertDispatcherRestoresAndPersists(t *testing.T) {
	store := &memoryStore{ids: map[int64]bool{30: true}}
	dispatcher, err := NewAlertDispatcher(&fakeSender{}).WithStore(context.Background(), store)
	if err != nil {
		t.Fatalf("unexpected restore error: %v", err)
	}
	if !dispatcher.IsSubscribed(30) {
		t.Fatal("expected stored chat to be restored")
	}

	dispatcher.Subscribe(40)
	dispatcher.Unsubscribe(30)
	if !store.ids[40] || store.ids[30] {
		t.Fatalf("expected store to follow subscriptions, got %v", store.ids)
	}
}

func TestAlertDispatcherStoreFailures(t *testing.T) {
	store := &memoryStore{err: fmt.Errorf("redis down")}
	dispatcher, err := NewAlertDispatcher(&fakeSender{}).WithStore(context.Background(), store)
	if err == nil {
		t.Fatal("expected restore error")
	}
	if !dispatcher.Subscribe(50) || !dispatcher.IsSubscribed(50) {
		t.Fatal("expected in-memory subscription despite store failure")
	}
}

type memoryStore struct {
	ids map[int64]bool
	err error
}

func (m *memoryStore) Add(_ context.Context, chatID int64) error {
	if m.err != nil {
		return m.err
	}
	m.ids[chatID] = true
	return nil
}

func (m *memoryStore) Remove(_ context.Context, chatID int64) error {
	if m.err != nil {
		return m.err
	}
	delete(m.ids, chatID)
	return nil
}

func (m *memoryStore) Members(context.Context) ([]int64, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]int64, 0, len(m.ids))
	for id := range m.ids {
		out = append(out, id)
	}
	return out, nil
}
