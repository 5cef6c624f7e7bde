package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/kirillkom/resume-rag/internal/core/ports"
)

const defaultCallTimeout = 30 * time.Second

type options struct {
	logger      *slog.Logger
	callTimeout time.Duration
	observer    ports.QueryObserver
}

// Option configures the query and ingestion use cases.
type Option func(*options)

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithCallTimeout bounds every call to an external collaborator.
func WithCallTimeout(timeout time.Duration) Option {
	return func(o *options) {
		if timeout > 0 {
			o.callTimeout = timeout
		}
	}
}

func WithObserver(observer ports.QueryObserver) Option {
	return func(o *options) {
		if observer != nil {
			o.observer = observer
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		logger:      slog.Default(),
		callTimeout: defaultCallTimeout,
		observer:    ports.NopQueryObserver{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, o.callTimeout)
}
