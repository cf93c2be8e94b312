package core

import (
	"context"
	"time"

	"splitcore/internal/infra/persistence/memory"
	"splitcore/internal/infra/persistence/postgres"
	"splitcore/internal/infra/persistence/sqlite"
	"splitcore/pkg/domain"
)

// Clock abstracts time acquisition for deterministic tests.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a plain function into a Clock.
type ClockFunc func() time.Time

// Now returns the function's time, or the current UTC time for a nil func.
func (f ClockFunc) Now() time.Time {
	if f == nil {
		return time.Now().UTC()
	}
	return f()
}

// Option customizes service construction.
type Option func(*serviceOptions)

type serviceOptions struct {
	clock   Clock
	logger  Logger
	metrics MetricsRecorder
}

// WithClock overrides the time source used for generated titles and stamps.
func WithClock(clock Clock) Option {
	return func(o *serviceOptions) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithLogger attaches a structured logger to the service.
func WithLogger(logger Logger) Option {
	return func(o *serviceOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetricsRecorder attaches a metrics recorder observing each operation.
func WithMetricsRecorder(recorder MetricsRecorder) Option {
	return func(o *serviceOptions) {
		if recorder != nil {
			o.metrics = recorder
		}
	}
}

func buildOptions(opts []Option) serviceOptions {
	options := serviceOptions{
		clock:   ClockFunc(nil),
		logger:  noopLogger{},
		metrics: nil,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	return options
}

// Service validates envelopes and applies the resulting commands against the
// backing store.
type Service struct {
	store   PersistentStore
	clock   Clock
	logger  Logger
	metrics MetricsRecorder
}

// NewService constructs a service backed by the supplied store.
func NewService(store PersistentStore, opts ...Option) *Service {
	options := buildOptions(opts)
	return &Service{
		store:   store,
		clock:   options.clock,
		logger:  options.logger,
		metrics: options.metrics,
	}
}

// NewInMemoryService creates a service and in-memory store with the given
// rules engine.
func NewInMemoryService(engine *RulesEngine, opts ...Option) *Service {
	return NewService(memory.NewStore(engine), opts...)
}

// NewSQLiteService creates a service backed by a SQLite snapshot store.
func NewSQLiteService(path string, engine *RulesEngine, opts ...Option) (*Service, error) {
	store, err := sqlite.NewStore(path, engine)
	if err != nil {
		return nil, err
	}
	return NewService(store, opts...), nil
}

// NewPostgresService creates a service backed by a PostgreSQL snapshot store.
func NewPostgresService(dsn string, engine *RulesEngine, opts ...Option) (*Service, error) {
	store, err := postgres.NewStore(dsn, engine)
	if err != nil {
		return nil, err
	}
	return NewService(store, opts...), nil
}

// Store returns the underlying storage implementation.
func (s *Service) Store() PersistentStore {
	return s.store
}

// run executes one named operation, recording duration and outcome.
func (s *Service) run(ctx context.Context, operation string, fn func(ctx context.Context) Result) Result {
	start := s.clock.Now()
	res := fn(ctx)
	duration := s.clock.Now().Sub(start)
	if s.metrics != nil {
		s.metrics.Observe(ctx, operation, res.OK, duration)
	}
	if res.OK {
		s.logger.Info("operation applied", "operation", operation, "session_id", res.SessionID, "duration_ms", duration.Milliseconds())
	} else {
		s.logger.Warn("operation rejected", "operation", operation, "message", res.Message, "errors", len(res.Errors))
	}
	return res
}

// Execute validates the envelope and dispatches to the intent's executor. It
// never returns an error; every outcome is a Result the caller can relay
// verbatim.
func (s *Service) Execute(ctx context.Context, env Envelope) Result {
	intent := Intent(env.Intent)
	if !KnownIntent(env.Intent) {
		return failure("Unknown intent.")
	}
	return s.run(ctx, env.Intent, func(ctx context.Context) Result {
		switch intent {
		case IntentCreateSession:
			cmd, errs := normalizeCreateSession(env.AIData, s.clock.Now())
			if len(errs) > 0 {
				return validationFailure(errs)
			}
			return s.executeCreateSession(ctx, cmd)
		case IntentEditSession:
			cmd, errs := normalizeEditSession(env.AIData)
			if len(errs) > 0 {
				return validationFailure(errs)
			}
			return s.executeEditSession(ctx, cmd)
		case IntentEditPerson:
			cmd, errs := normalizeEditPerson(env.AIData)
			if len(errs) > 0 {
				return validationFailure(errs)
			}
			return s.executeEditPerson(ctx, cmd)
		case IntentEditItem:
			cmd, errs := normalizeEditItem(env.AIData)
			if len(errs) > 0 {
				return validationFailure(errs)
			}
			return s.executeEditItem(ctx, cmd, nil)
		case IntentEditSessionEntities:
			cmd, errs := normalizeBatch(env.AIData)
			if len(errs) > 0 {
				return validationFailure(errs)
			}
			return s.executeBatch(ctx, cmd)
		case IntentGeneralInquiry:
			cmd, errs := normalizeGeneralInquiry(env.AIData)
			if len(errs) > 0 {
				return validationFailure(errs)
			}
			return s.executeGeneralInquiry(cmd)
		default:
			return failure("Unknown intent.")
		}
	})
}

// SessionContext assembles the people/items tree for a session. Unknown
// sessions yield a context with the requested id and an empty people list.
func (s *Service) SessionContext(ctx context.Context, sessionID int64) (SessionContext, error) {
	var sc SessionContext
	err := s.store.View(ctx, func(view domain.TransactionView) error {
		sc = domain.BuildSessionContext(view, sessionID)
		return nil
	})
	return sc, err
}
