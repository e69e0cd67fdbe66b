// Package core wraps a user store with the service concerns shared by every
// transport: logging, metrics, and tracing around each operation.
package core

import (
	"context"
	"time"

	"usersapi/internal/infra/persistence/memory"
	"usersapi/pkg/domain"
)

var _ domain.UserStore = (*Service)(nil)

const (
	opListUsers  = "list_users"
	opGetUser    = "get_user"
	opCreateUser = "create_user"
	opUpdateUser = "update_user"
)

// Service exposes the user operations of a store, observing each call.
type Service struct {
	store   domain.UserStore
	now     func() time.Time
	logger  Logger
	metrics MetricsRecorder
	tracer  Tracer
}

// ServiceOption configures optional collaborators of a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	clock   Clock
	logger  Logger
	metrics MetricsRecorder
	tracer  Tracer
}

func defaultServiceOptions() serviceOptions {
	return serviceOptions{
		clock:   ClockFunc(func() time.Time { return time.Now().UTC() }),
		logger:  noopLogger{},
		metrics: noopMetricsRecorder{},
		tracer:  noopTracer{},
	}
}

// WithClock overrides the clock used to time operations.
func WithClock(clock Clock) ServiceOption {
	return func(o *serviceOptions) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithLogger sets the logger. A *slog.Logger satisfies Logger.
func WithLogger(logger Logger) ServiceOption {
	return func(o *serviceOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetricsRecorder sets the recorder observing every operation.
func WithMetricsRecorder(recorder MetricsRecorder) ServiceOption {
	return func(o *serviceOptions) {
		if recorder != nil {
			o.metrics = recorder
		}
	}
}

// WithTracer sets the tracer opening a span per operation.
func WithTracer(tracer Tracer) ServiceOption {
	return func(o *serviceOptions) {
		if tracer != nil {
			o.tracer = tracer
		}
	}
}

// NewService constructs a service backed by the supplied store.
func NewService(store domain.UserStore, opts ...ServiceOption) *Service {
	options := defaultServiceOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	return &Service{
		store:   store,
		now:     options.clock.Now,
		logger:  options.logger,
		metrics: options.metrics,
		tracer:  options.tracer,
	}
}

// NewInMemoryService creates a service over a fresh in-memory store.
func NewInMemoryService(opts ...ServiceOption) *Service {
	return NewService(memory.NewStore(), opts...)
}

// Store returns the wrapped store.
func (s *Service) Store() domain.UserStore { return s.store }

func (s *Service) run(ctx context.Context, op string, fn func(context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, op)
	start := s.now()
	err := fn(ctx)
	elapsed := s.now().Sub(start)
	s.metrics.Observe(ctx, op, err == nil, elapsed)
	span.End(err)
	if err != nil {
		s.logger.Error("user operation failed", "operation", op, "duration", elapsed, "error", err)
		return err
	}
	s.logger.Debug("user operation completed", "operation", op, "duration", elapsed)
	return nil
}

// ListUsers returns every stored user.
func (s *Service) ListUsers(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	err := s.run(ctx, opListUsers, func(ctx context.Context) error {
		var err error
		users, err = s.store.ListUsers(ctx)
		return err
	})
	return users, err
}

// GetUser looks up a user by id. A missing user is not an error.
func (s *Service) GetUser(ctx context.Context, id string) (domain.User, bool, error) {
	var (
		user  domain.User
		found bool
	)
	err := s.run(ctx, opGetUser, func(ctx context.Context) error {
		var err error
		user, found, err = s.store.GetUser(ctx, id)
		return err
	})
	return user, found, err
}

// CreateUser stores a new user under a generated id.
func (s *Service) CreateUser(ctx context.Context, in domain.UserInput) (domain.User, error) {
	var created domain.User
	err := s.run(ctx, opCreateUser, func(ctx context.Context) error {
		var err error
		created, err = s.store.CreateUser(ctx, in)
		return err
	})
	return created, err
}

// UpdateUser merges patch into the user with the given id.
func (s *Service) UpdateUser(ctx context.Context, id string, patch domain.UserPatch) (domain.User, bool, error) {
	var (
		updated domain.User
		found   bool
	)
	err := s.run(ctx, opUpdateUser, func(ctx context.Context) error {
		var err error
		updated, found, err = s.store.UpdateUser(ctx, id, patch)
		return err
	})
	return updated, found, err
}
