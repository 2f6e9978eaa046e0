package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopcurated/catalog-platform/internal/catalog"
)

type fakeInvalidator struct {
	calls int
	err   error
}

func (f *fakeInvalidator) Invalidate(ctx context.Context) error {
	f.calls++
	return f.err
}

func TestHandleUpdatesInvalidatesCache(t *testing.T) {
	inv := &fakeInvalidator{}
	handler := HandleUpdates(inv)

	event := catalog.UpdateEvent{
		SourceURL:  "https://example.com/feed.json",
		SKUs:       []string{"a", "b"},
		Count:      2,
		IngestedAt: time.Now().UTC(),
	}
	value, _ := json.Marshal(event)

	if err := handler(context.Background(), []byte(event.SourceURL), value); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inv.calls != 1 {
		t.Errorf("expected one invalidation, got %d", inv.calls)
	}
}

func TestHandleUpdatesBadPayload(t *testing.T) {
	inv := &fakeInvalidator{}
	handler := HandleUpdates(inv)

	if err := handler(context.Background(), nil, []byte(`{not json`)); err == nil {
		t.Fatal("expected decode error")
	}
	if inv.calls != 0 {
		t.Error("undecodable event must not trigger invalidation")
	}
}

func TestHandleUpdatesPropagatesInvalidationError(t *testing.T) {
	inv := &fakeInvalidator{err: errors.New("redis: connection refused")}
	handler := HandleUpdates(inv)

	value, _ := json.Marshal(catalog.UpdateEvent{Count: 1})
	if err := handler(context.Background(), nil, value); err == nil {
		t.Fatal("expected invalidation error to propagate")
	}
}
