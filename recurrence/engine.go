package recurrence

import (
	"io"
	"log/slog"
	"strconv"
	"time"
)

// Engine validates recurrence rules and expands them into occurrences.
// An Engine is safe for concurrent use.
type Engine struct {
	cache  *ExpansionCache
	config EngineConfig
	logger *slog.Logger
	now    func() time.Time
}

// Option represents a configuration option for the Engine
type Option func(*Engine)

// WithLogger sets the logger for the engine
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClock replaces time.Now as the source of the implicit start time
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates an engine with DefaultEngineConfig
func NewEngine(opts ...Option) *Engine {
	return NewEngineWithConfig(DefaultEngineConfig, opts...)
}

// NewEngineWithConfig creates a new recurrence engine with custom configuration
func NewEngineWithConfig(config EngineConfig, opts ...Option) *Engine {
	if config.Location == nil {
		config.Location = time.UTC
	}

	e := &Engine{
		config: config,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	if config.CacheEnabled {
		e.cache = NewExpansionCache(config.CacheConfig)
	}

	return e
}

// Close releases the engine's cache, if any
func (e *Engine) Close() {
	if e.cache != nil {
		e.cache.Close()
	}
}

// CacheStats reports cache statistics; ok is false when caching is off
func (e *Engine) CacheStats() (stats CacheStats, ok bool) {
	if e.cache == nil {
		return CacheStats{}, false
	}
	return e.cache.Stats(), true
}

// Run expands spec into its ordered occurrences. spec is validated first and
// nothing is generated when validation fails; the error is then a
// *ValidationError.
func (e *Engine) Run(spec Spec) ([]time.Time, error) {
	if err := spec.Validate(); err != nil {
		e.logger.Debug("rejected recurrence rule", "error", err)
		return nil, err
	}

	s := spec.Normalize(e.now().In(e.config.Location))

	if err := e.checkBounds(s); err != nil {
		e.logger.Warn("recurrence rule exceeds bounds",
			"cadence", s.Cadence.String(),
			"start", s.Start,
			"limit", s.Limit,
			"error", err)
		return nil, err
	}

	if e.cache != nil {
		if dates, ok := e.cache.Get(s); ok {
			e.logger.Debug("expansion cache hit", "cadence", s.Cadence.String(), "count", len(dates))
			return dates, nil
		}
	}

	var dates []time.Time
	switch s.Cadence {
	case Daily:
		dates = expandDaily(s)
	case Weekly:
		dates = expandWeekly(s)
	case Monthly:
		dates = expandMonthly(s)
	}

	e.logger.Debug("expanded recurrence rule",
		"cadence", s.Cadence.String(),
		"interval", s.Interval,
		"start", s.Start,
		"limit", s.Limit,
		"count", len(dates))

	if e.cache != nil {
		e.cache.Set(s, dates)
	}

	return dates, nil
}

// checkBounds rejects rules whose span or projected occurrence count exceed
// the configured caps. s must be normalized.
func (e *Engine) checkBounds(s Spec) error {
	if e.config.MaxSpan > 0 && s.Limit.Sub(s.Start) > e.config.MaxSpan {
		return newValidationError(KindUnboundedGeneration, "limit", s.Limit.Format(time.RFC3339), nil)
	}

	if e.config.MaxOccurrences > 0 {
		if projected := ProjectedCount(s); projected > e.config.MaxOccurrences {
			return newValidationError(KindUnboundedGeneration, "occurrences", strconv.Itoa(projected), nil)
		}
	}

	return nil
}

// ProjectedCount estimates how many occurrences a normalized rule yields
// without expanding it. The daily figure is exact; weekly and monthly
// figures are upper bounds.
func ProjectedCount(s Spec) int {
	days := civilDaysBetween(s.Start, s.Limit)
	if days <= 0 {
		return 0
	}
	interval := max(s.Interval, 1)

	switch s.Cadence {
	case Daily:
		return days / interval
	case Weekly:
		return (days/(7*interval) + 2) * len(s.Weekdays)
	case Monthly:
		return monthsBetween(s.Start, s.Limit)/interval + 1
	}
	return 0
}

var defaultEngine = NewEngine()

// Run expands spec with a default engine. See Engine.Run.
func Run(spec Spec) ([]time.Time, error) {
	return defaultEngine.Run(spec)
}
