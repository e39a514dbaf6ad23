package scheduler

import (
	"context"
	"errors"
	"fmt"

	"cleanops_backend/internal/bookings/domain"
	"cleanops_backend/internal/bookings/repository"
	"cleanops_backend/internal/events"
	"cleanops_backend/platform/config"
	"cleanops_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Worker consumes deferred booking tasks from redis.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	repo   *repository.Repository
	bus    events.Bus
	log    *logger.Logger
}

// NewWorker creates an asynq worker wired to the bookings repository.
func NewWorker(cfg config.SchedulerConfig, pool *pgxpool.Pool, bus events.Bus, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		repo:   repository.New(pool),
		bus:    bus,
		log:    log,
	}

	mux.HandleFunc(TaskServiceReminder, w.handleServiceReminder)

	return w, nil
}

// Run serves tasks until the context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

// handleServiceReminder re-checks the booking before publishing. A booking
// that was cancelled or rescheduled after the task was enqueued produces no
// reminder.
func (w *Worker) handleServiceReminder(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseServiceReminderPayload(task)
	if err != nil {
		return err
	}

	bookingID, err := uuid.Parse(payload.BookingID)
	if err != nil {
		return err
	}

	booking, err := w.repo.GetBooking(ctx, bookingID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if domain.Status(booking.Status) != domain.StatusScheduled {
		return nil
	}

	if w.bus == nil {
		return nil
	}
	return w.bus.PublishSync(ctx, events.ServiceReminderDue{
		BaseEvent:   events.NewBaseEvent(),
		BookingID:   booking.ID,
		CustomerID:  booking.CustomerID,
		ServiceDate: booking.ServiceDate,
	})
}
