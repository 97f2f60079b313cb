package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/seedshop-backend/pkg/config"
	"github.com/angelmondragon/seedshop-backend/pkg/db/models"
	"github.com/angelmondragon/seedshop-backend/pkg/enums"
	"github.com/angelmondragon/seedshop-backend/pkg/logger"
	"github.com/angelmondragon/seedshop-backend/pkg/metrics"
	"github.com/angelmondragon/seedshop-backend/pkg/outbox/registry"
)

const (
	defaultBatchSize     = 50
	defaultPoll          = 500 * time.Millisecond
	defaultMaxAttempts   = 10
	defaultRetentionDays = 30
	publishTimeout       = 15 * time.Second
	maxIdleBackoff       = 10 * time.Second
	jitterWindow         = 250 * time.Millisecond
)

var jitterSource = rand.New(rand.NewSource(time.Now().UnixNano()))

type dbClient interface {
	Ping(context.Context) error
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type outboxRepository interface {
	FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error
	MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error
	MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error, terminalAttempts int) error
}

type dlqRepository interface {
	InsertTx(tx *gorm.DB, entry models.OutboxDLQ) error
}

type registryResolver interface {
	Resolve(models.OutboxEvent) (*registry.ResolvedEvent, error)
}

type publishObserver interface {
	ObservePublish(eventType, result string)
}

type ServiceParams struct {
	Config           *config.Config
	Logger           *logger.Logger
	DB               dbClient
	PubSub           pubSubClient
	Repository       outboxRepository
	Registry         registryResolver
	PublisherFactory publisherFactory
	DLQRepository    dlqRepository
	Metrics          publishObserver
	Now              func() time.Time
}

// settings are the tunables read from config.Outbox with defaults applied.
type settings struct {
	batchSize   int
	maxAttempts int
	poll        time.Duration
	// staleAfter matches the retention window; an unpublished row older than
	// this is dead-lettered before the retention job can purge it.
	staleAfter time.Duration
}

func settingsFrom(cfg config.OutboxConfig) settings {
	s := settings{
		batchSize:   cfg.BatchSize,
		maxAttempts: cfg.MaxAttempts,
		poll:        time.Duration(cfg.PollIntervalMS) * time.Millisecond,
		staleAfter:  time.Duration(cfg.RetentionDays) * 24 * time.Hour,
	}
	if s.batchSize <= 0 {
		s.batchSize = defaultBatchSize
	}
	if s.maxAttempts <= 0 {
		s.maxAttempts = defaultMaxAttempts
	}
	if s.poll <= 0 {
		s.poll = defaultPoll
	}
	if s.staleAfter <= 0 {
		s.staleAfter = defaultRetentionDays * 24 * time.Hour
	}
	return s
}

// Service drains outbox_events into Pub/Sub. Events of one order share an
// ordering key, and once one of them fails the rest of that order's events
// wait for the next poll so subscribers see them in write order.
type Service struct {
	logg       *logger.Logger
	db         dbClient
	pubsub     pubSubClient
	repo       outboxRepository
	registry   registryResolver
	dlq        dlqRepository
	metrics    publishObserver
	publishers *publisherCache
	settings   settings
	now        func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	switch {
	case params.Config == nil:
		return nil, errors.New("config is required")
	case params.Logger == nil:
		return nil, errors.New("logger is required")
	case params.DB == nil:
		return nil, errors.New("database client is required")
	case params.PubSub == nil:
		return nil, errors.New("pubsub client is required")
	case params.Repository == nil:
		return nil, errors.New("outbox repository is required")
	case params.Registry == nil:
		return nil, errors.New("event registry is required")
	case params.DLQRepository == nil:
		return nil, errors.New("dlq repository is required")
	}

	factory := params.PublisherFactory
	if factory == nil {
		factory = orderedPublisherFactory(params.PubSub)
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		logg:       params.Logger,
		db:         params.DB,
		pubsub:     params.PubSub,
		repo:       params.Repository,
		registry:   params.Registry,
		dlq:        params.DLQRepository,
		metrics:    params.Metrics,
		publishers: newPublisherCache(factory),
		settings:   settingsFrom(params.Config.Outbox),
		now:        now,
	}, nil
}

func (s *Service) Run(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		s.logg.Error(ctx, "database ping failed", err)
		return fmt.Errorf("database ping failed: %w", err)
	}
	if err := s.pubsub.Ping(ctx); err != nil {
		s.logg.Error(ctx, "pubsub ping failed", err)
		return fmt.Errorf("pubsub ping failed: %w", err)
	}
	defer s.publishers.stopAll()

	wait := s.settings.poll
	for {
		if err := ctx.Err(); err != nil {
			s.logg.Info(ctx, "outbox publisher context canceled")
			return err
		}

		drained, err := s.drain(ctx)
		switch {
		case err != nil:
			s.logg.Error(ctx, "outbox publisher batch error", err)
			wait = min(wait*2, maxIdleBackoff)
		case drained > 0:
			wait = s.settings.poll
			continue
		default:
			wait = s.settings.poll
		}
		if err := sleep(ctx, wait+jitter()); err != nil {
			return err
		}
	}
}

type outcome string

const (
	outcomePublished outcome = metrics.OutboxResultPublished
	outcomeRetry     outcome = metrics.OutboxResultRetry
	outcomeDead      outcome = metrics.OutboxResultDead
	outcomeHeld      outcome = "held"
)

// drain publishes one locked batch and reports how many rows it looked at.
func (s *Service) drain(ctx context.Context) (int, error) {
	var seen int
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		events, err := s.repo.FetchUnpublishedForPublish(tx, s.settings.batchSize, s.settings.maxAttempts)
		if err != nil {
			return err
		}
		seen = len(events)

		blocked := map[uuid.UUID]struct{}{}
		for _, event := range events {
			result, err := s.dispatch(ctx, tx, event, blocked)
			if err != nil {
				return err
			}
			if result == outcomeRetry {
				blocked[event.AggregateID] = struct{}{}
			}
			if result != outcomeHeld && s.metrics != nil {
				s.metrics.ObservePublish(string(event.EventType), string(result))
			}
		}
		return nil
	})
	return seen, err
}

func (s *Service) dispatch(ctx context.Context, tx *gorm.DB, event models.OutboxEvent, blocked map[uuid.UUID]struct{}) (outcome, error) {
	ctx = s.logg.WithFields(ctx, map[string]any{
		"outbox_id":     event.ID.String(),
		"event_type":    event.EventType,
		"order_id":      event.AggregateID.String(),
		"attempt_count": event.AttemptCount,
	})

	if _, ok := blocked[event.AggregateID]; ok {
		s.logg.Info(ctx, "outbox event held behind failed event of same order")
		return outcomeHeld, nil
	}
	if age := s.now().Sub(event.CreatedAt); !event.CreatedAt.IsZero() && age > s.settings.staleAfter {
		return outcomeDead, s.deadLetter(ctx, tx, event, enums.OutboxDLQReasonStale,
			fmt.Errorf("unpublished for %s, past retention", age.Round(time.Hour)))
	}

	resolved, err := s.registry.Resolve(event)
	if err != nil {
		return outcomeDead, s.deadLetter(ctx, tx, event, enums.OutboxDLQReasonNonRetryable, err)
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"topic":       resolved.Descriptor.Topic,
		"event_id":    resolved.Envelope.EventID,
		"occurred_at": resolved.Envelope.OccurredAt.Format(time.RFC3339Nano),
	})

	pubErr := s.publish(ctx, event, resolved)
	var nonRetry registry.NonRetryableError
	switch {
	case pubErr == nil:
		if err := s.repo.MarkPublishedTx(tx, event.ID); err != nil {
			return "", fmt.Errorf("mark published %s: %w", event.ID, err)
		}
		s.logg.Info(ctx, "outbox event published")
		return outcomePublished, nil
	case errors.As(pubErr, &nonRetry):
		return outcomeDead, s.deadLetter(ctx, tx, event, enums.OutboxDLQReasonNonRetryable, pubErr)
	case event.AttemptCount+1 >= s.settings.maxAttempts:
		return outcomeDead, s.deadLetter(ctx, tx, event, enums.OutboxDLQReasonMaxAttempts,
			fmt.Errorf("max publish attempts reached: %w", pubErr))
	}

	s.logg.Warn(s.logg.WithField(ctx, "error", pubErr.Error()), "outbox publish failed, will retry")
	if err := s.repo.MarkFailedTx(tx, event.ID, pubErr); err != nil {
		return "", fmt.Errorf("mark failure %s: %w", event.ID, err)
	}
	return outcomeRetry, nil
}

// deadLetter copies the row into outbox_dlq and stops further attempts.
func (s *Service) deadLetter(ctx context.Context, tx *gorm.DB, event models.OutboxEvent, reason enums.OutboxDLQErrorReason, cause error) error {
	msg := cause.Error()
	s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"error_reason": reason, "error": msg}), "outbox event dead-lettered")

	entry := models.OutboxDLQ{
		EventID:       event.ID,
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       event.Payload,
		ErrorReason:   reason,
		ErrorMessage:  &msg,
		AttemptCount:  event.AttemptCount,
		FailedAt:      s.now().UTC(),
	}
	if err := s.dlq.InsertTx(tx, entry); err != nil {
		return fmt.Errorf("insert dlq %s: %w", event.ID, err)
	}
	if err := s.repo.MarkTerminalTx(tx, event.ID, cause, s.settings.maxAttempts); err != nil {
		return fmt.Errorf("mark terminal %s: %w", event.ID, err)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func jitter() time.Duration {
	return time.Duration(jitterSource.Int63n(int64(jitterWindow)))
}
