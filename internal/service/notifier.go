package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/olumide-dev/bankledger/internal/models"
	"github.com/olumide-dev/bankledger/internal/observability"
)

// Notifier delivers fire-and-forget notifications. Failures are logged, never
// surfaced: a committed ledger mutation must not be rolled back because a
// notification could not be delivered.
type Notifier interface {
	Notify(ctx context.Context, accountID uuid.UUID, kind, title, message string)
}

// NotificationService persists in-app notifications through a small worker
// pool fed by a buffered queue.
type NotificationService struct {
	store    QueryStore
	queue    chan models.Notification
	workers  int
	wg       sync.WaitGroup
	stopOnce sync.Once
	stopCh   chan struct{}
}

func NewNotificationService(store QueryStore, workers int) *NotificationService {
	if workers <= 0 {
		workers = 2
	}
	s := &NotificationService{
		store:   store,
		queue:   make(chan models.Notification, 256),
		workers: workers,
		stopCh:  make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		go s.worker()
	}
	return s
}

// Notify enqueues a notification. When the queue is full the notification is
// dropped rather than blocking the ledger operation.
func (s *NotificationService) Notify(ctx context.Context, accountID uuid.UUID, kind, title, message string) {
	n := models.Notification{
		ID:        uuid.New(),
		AccountID: accountID,
		Kind:      kind,
		Title:     title,
		Message:   message,
		CreatedAt: time.Now(),
	}
	select {
	case s.queue <- n:
		observability.IncrementNotification("queued")
	default:
		observability.IncrementNotification("dropped")
		zap.L().Warn("notification queue full, dropping",
			zap.String("account_id", accountID.String()),
			zap.String("kind", kind))
	}
}

func (s *NotificationService) worker() {
	defer s.wg.Done()
	for {
		select {
		case n := <-s.queue:
			s.deliver(n)
		case <-s.stopCh:
			// Drain what is already queued before exiting.
			for {
				select {
				case n := <-s.queue:
					s.deliver(n)
				default:
					return
				}
			}
		}
	}
}

func (s *NotificationService) deliver(n models.Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.store.Queries().CreateNotification(ctx, &n); err != nil {
		observability.IncrementNotification("failed")
		zap.L().Error("notification write failed",
			zap.Error(err),
			zap.String("account_id", n.AccountID.String()),
			zap.String("kind", n.Kind))
		return
	}
	observability.IncrementNotification("delivered")
}

// Shutdown stops the workers after draining the queue.
func (s *NotificationService) Shutdown(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.stopCh) })

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NopNotifier discards notifications. Used where no notifier is wired.
type NopNotifier struct{}

func (NopNotifier) Notify(ctx context.Context, accountID uuid.UUID, kind, title, message string) {}
