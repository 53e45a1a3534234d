package bot

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	tele "gopkg.in/telebot.v3"

	"twstock-advisor/internal/domain"
)

const storeTimeout = 3 * time.Second

type messageSender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// SubscriberStore persists subscribed chat ids across restarts.
type SubscriberStore interface {
	Add(ctx context.Context, chatID int64) error
	Remove(ctx context.Context, chatID int64) error
	Members(ctx context.Context) ([]int64, error)
}

// AlertDispatcher broadcasts the scheduled watchlist summary to subscribed chats.
// The in-memory set is authoritative; store writes are best effort.
type AlertDispatcher struct {
	sender messageSender
	store  SubscriberStore

	mu          sync.RWMutex
	subscribers map[int64]struct{}
}

func NewAlertDispatcher(sender messageSender) *AlertDispatcher {
	return &AlertDispatcher{
		sender:      sender,
		subscribers: make(map[int64]struct{}),
	}
}

// WithStore restores the subscribers saved in store and persists later changes to it.
func (d *AlertDispatcher) WithStore(ctx context.Context, store SubscriberStore) (*AlertDispatcher, error) {
	d.store = store
	if store == nil {
		return d, nil
	}
	ids, err := store.Members(ctx)
	if err != nil {
		return d, fmt.Errorf("restore subscribers: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for _, id := range ids {
		d.subscribers[id] = struct{}{}
	}
	return d, nil
}

func (d *AlertDispatcher) Subscribe(chatID int64) bool {
	d.mu.Lock()
	if _, exists := d.subscribers[chatID]; exists {
		d.mu.Unlock()
		return false
	}
	d.subscribers[chatID] = struct{}{}
	d.mu.Unlock()

	d.persist("subscribe", chatID, func(ctx context.Context) error { return d.store.Add(ctx, chatID) })
	return true
}

func (d *AlertDispatcher) Unsubscribe(chatID int64) bool {
	d.mu.Lock()
	if _, exists := d.subscribers[chatID]; !exists {
		d.mu.Unlock()
		return false
	}
	delete(d.subscribers, chatID)
	d.mu.Unlock()

	d.persist("unsubscribe", chatID, func(ctx context.Context) error { return d.store.Remove(ctx, chatID) })
	return true
}

func (d *AlertDispatcher) persist(op string, chatID int64, write func(ctx context.Context) error) {
	if d.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := write(ctx); err != nil {
		log.Printf("alerts: %s chat %d not persisted: %v", op, chatID, err)
	}
}

func (d *AlertDispatcher) IsSubscribed(chatID int64) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	_, exists := d.subscribers[chatID]
	return exists
}

func (d *AlertDispatcher) SubscriberCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.subscribers)
}

// NotifySummary sends one message per subscriber. A nil dispatcher or an
// empty summary is a no-op.
func (d *AlertDispatcher) NotifySummary(ctx context.Context, summary domain.RecommendationSummary) error {
	if d == nil || d.sender == nil || summary.TotalAnalyzed+summary.TotalErrors == 0 {
		return nil
	}

	chatIDs := d.snapshotSubscribers()
	if len(chatIDs) == 0 {
		return nil
	}

	msg := truncate(formatSummary("Watchlist update", summary))
	var failures []string
	for _, chatID := range chatIDs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := d.sender.Send(&tele.Chat{ID: chatID}, msg); err != nil {
			failures = append(failures, fmt.Sprintf("chat %d: %v", chatID, err))
		}
	}
	if len(failures) > 0 {
		return fmt.Errorf("failed sending %d alerts: %s", len(failures), strings.Join(failures, "; "))
	}
	return nil
}

func (d *AlertDispatcher) snapshotSubscribers() []int64 {
	d.mu.RLock()
	defer d.mu.RUnlock()

	chatIDs := make([]int64, 0, len(d.subscribers))
	for chatID := range d.subscribers {
		chatIDs = append(chatIDs, chatID)
	}
	sort.Slice(chatIDs, func(i, j int) bool { return chatIDs[i] < chatIDs[j] })
	return chatIDs
}
