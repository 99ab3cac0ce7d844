package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-calendar-portlet/internal/adapter"
	"github.com/noah-isme/sma-calendar-portlet/internal/models"
	appErrors "github.com/noah-isme/sma-calendar-portlet/pkg/errors"
	"github.com/noah-isme/sma-calendar-portlet/pkg/interval"
)

// AdapterResolver looks adapters up by the name stored on calendar definitions.
type AdapterResolver interface {
	Resolve(name string) (adapter.Adapter, error)
}

const (
	operationLink   = "link"
	operationEvents = "events"
)

// adapterInvoker runs adapter calls under a per-call timeout and records
// their outcome. Failures never abort the surrounding request.
type adapterInvoker struct {
	adapters AdapterResolver
	timeout  time.Duration
	metrics  *MetricsService
	logger   *zap.Logger
}

type callResult[T any] struct {
	value T
	err   error
}

// callWithTimeout returns as soon as fn finishes or ctx expires. fn receives
// the timed context, which is cancelled on return, so an overrunning call is
// expected to stop on its own; its result is dropped.
func callWithTimeout[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan callResult[T], 1)
	go func() {
		value, err := fn(ctx)
		done <- callResult[T]{value: value, err: err}
	}()

	select {
	case res := <-done:
		return res.value, res.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (i *adapterInvoker) resolve(cfg models.CalendarConfiguration, operation string) (adapter.Adapter, error) {
	a, err := i.adapters.Resolve(cfg.Definition.ClassName)
	if err != nil {
		i.metrics.ObserveAdapterCall(cfg.Definition.ClassName, operation, AdapterOutcomeNotFound, 0)
		i.logger.Error("calendar adapter not found",
			zap.Int64("calendar_id", cfg.ID),
			zap.String("adapter", cfg.Definition.ClassName),
			zap.Error(err),
		)
		return nil, err
	}
	return a, nil
}

func failureOutcome(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return AdapterOutcomeTimeout
	}
	return AdapterOutcomeError
}

// link returns the deep link of cfg, or false when there is none to show.
func (i *adapterInvoker) link(ctx context.Context, cfg models.CalendarConfiguration, iv interval.Interval) (string, bool) {
	a, err := i.resolve(cfg, operationLink)
	if err != nil {
		return "", false
	}

	started := time.Now()
	res, err := callWithTimeout(ctx, i.timeout, func(ctx context.Context) (adapter.LinkResult, error) {
		return a.Link(ctx, cfg, iv)
	})
	elapsed := time.Since(started)
	if err != nil {
		i.metrics.ObserveAdapterCall(cfg.Definition.ClassName, operationLink, failureOutcome(err), elapsed)
		i.logger.Error("calendar link resolution failed",
			zap.Int64("calendar_id", cfg.ID),
			zap.String("adapter", cfg.Definition.ClassName),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return "", false
	}

	switch res.State {
	case adapter.LinkAvailable:
		i.metrics.ObserveAdapterCall(cfg.Definition.ClassName, operationLink, AdapterOutcomeLink, elapsed)
		return res.URL, true
	case adapter.LinkUnavailable:
		i.metrics.ObserveAdapterCall(cfg.Definition.ClassName, operationLink, AdapterOutcomeUnavailable, elapsed)
	default:
		i.metrics.ObserveAdapterCall(cfg.Definition.ClassName, operationLink, AdapterOutcomeAbsent, elapsed)
	}
	return "", false
}

// events returns the occurrences of cfg. The returned error is already logged.
func (i *adapterInvoker) events(ctx context.Context, cfg models.CalendarConfiguration, iv interval.Interval) ([]models.Occurrence, error) {
	a, err := i.resolve(cfg, operationEvents)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	occurrences, err := callWithTimeout(ctx, i.timeout, func(ctx context.Context) ([]models.Occurrence, error) {
		return a.Events(ctx, cfg, iv)
	})
	elapsed := time.Since(started)
	if err != nil {
		i.metrics.ObserveAdapterCall(cfg.Definition.ClassName, operationEvents, failureOutcome(err), elapsed)
		i.logger.Error("calendar event retrieval failed",
			zap.Int64("calendar_id", cfg.ID),
			zap.String("adapter", cfg.Definition.ClassName),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, appErrors.CloneWrap(appErrors.ErrAdapterTimeout, err, fmt.Sprintf("calendar %d timed out", cfg.ID))
		}
		return nil, appErrors.CloneWrap(appErrors.ErrAdapterFailure, err, fmt.Sprintf("calendar %d could not be retrieved", cfg.ID))
	}
	i.metrics.ObserveAdapterCall(cfg.Definition.ClassName, operationEvents, AdapterOutcomeEvents, elapsed)
	return occurrences, nil
}
