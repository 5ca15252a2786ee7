// Package events 行程內的領域事件匯流排
package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackyeh168/gym_crm/src/internal/domain/shared"
	"github.com/jackyeh168/gym_crm/src/internal/infrastructure/logger"
	"github.com/jackyeh168/gym_crm/src/internal/infrastructure/metrics"
)

// InProcessBus 同步呼叫已訂閱的 handler
//
// 事件在事務提交後發布，handler 失敗只記錄日誌與指標，
// 不回傳給發布者：已提交的狀態不因通知失敗而改變。
type InProcessBus struct {
	mu       sync.RWMutex
	handlers map[string][]shared.EventHandler
	log      logger.Logger
}

var (
	_ shared.EventPublisher  = (*InProcessBus)(nil)
	_ shared.EventSubscriber = (*InProcessBus)(nil)
)

func NewInProcessBus(log logger.Logger) *InProcessBus {
	return &InProcessBus{
		handlers: make(map[string][]shared.EventHandler),
		log:      log,
	}
}

// Subscribe 依 handler.EventType() 登記
func (b *InProcessBus) Subscribe(handler shared.EventHandler) error {
	if handler == nil || handler.EventType() == "" {
		return fmt.Errorf("event handler must declare an event type")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[handler.EventType()] = append(b.handlers[handler.EventType()], handler)
	return nil
}

// Publish 依序呼叫 handler，永遠回傳 nil
func (b *InProcessBus) Publish(ctx context.Context, event shared.DomainEvent) error {
	b.mu.RLock()
	handlers := append([]shared.EventHandler(nil), b.handlers[event.EventType()]...)
	b.mu.RUnlock()

	for _, h := range handlers {
		if err := h.Handle(ctx, event); err != nil {
			metrics.EventHandlerFailures.WithLabelValues(event.EventType()).Inc()
			b.log.WithError(err).Error("event handler failed", map[string]interface{}{
				"event_id":     event.EventID(),
				"event_type":   event.EventType(),
				"aggregate_id": event.AggregateID(),
			})
		}
	}
	return nil
}

func (b *InProcessBus) PublishBatch(ctx context.Context, events []shared.DomainEvent) error {
	for _, e := range events {
		if err := b.Publish(ctx, e); err != nil {
			return err
		}
	}
	return nil
}
