package pipeline

import (
	"errors"
	"fmt"
	"iter"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/thoth-station/adviser/pkg/telemetry"
)

// Lifecycle hook names.
const (
	HookPreRun        = "pre_run"
	HookPostRun       = "post_run"
	HookPostRunReport = "post_run_report"
)

// Config is an executable pipeline: one ordered sequence per kind plus a
// pseudonym registry keyed by package name. Its structure does not change
// after construction; unit configurations may.
type Config struct {
	boots      []Boot
	pseudonyms []Pseudonym
	sieves     []Sieve
	steps      []Step
	strides    []Stride
	wraps      []Wrap

	pseudonymIndex map[string][]Pseudonym

	logger  zerolog.Logger
	metrics *telemetry.Metrics
	tracer  *telemetry.Tracer
}

// NewConfig assembles a pipeline from units in the given order. Units of
// different kinds may be interleaved; each lands in its kind's sequence.
func NewConfig(units []Unit, opts ...Option) (*Config, error) {
	o := newOptions(opts)
	c := &Config{
		pseudonymIndex: make(map[string][]Pseudonym),
		logger:         o.logger.With().Str("component", "pipeline").Logger(),
		metrics:        o.metrics,
		tracer:         o.tracer,
	}
	for _, u := range units {
		if err := c.add(u); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Config) add(u Unit) error {
	var ok bool
	switch u.Kind() {
	case KindBoot:
		var b Boot
		if b, ok = u.(Boot); ok {
			c.boots = append(c.boots, b)
		}
	case KindPseudonym:
		var p Pseudonym
		if p, ok = u.(Pseudonym); ok {
			c.pseudonyms = append(c.pseudonyms, p)
			c.pseudonymIndex[p.PackageName()] = append(c.pseudonymIndex[p.PackageName()], p)
		}
	case KindSieve:
		var s Sieve
		if s, ok = u.(Sieve); ok {
			c.sieves = append(c.sieves, s)
		}
	case KindStep:
		var s Step
		if s, ok = u.(Step); ok {
			c.steps = append(c.steps, s)
		}
	case KindStride:
		var s Stride
		if s, ok = u.(Stride); ok {
			c.strides = append(c.strides, s)
		}
	case KindWrap:
		var w Wrap
		if w, ok = u.(Wrap); ok {
			c.wraps = append(c.wraps, w)
		}
	default:
		return NewInternalError("cannot add unit", fmt.Errorf("unknown unit kind %q", u.Kind())).
			WithCode(ErrCodeUnknownKind).WithUnit(u.Name(), u.Kind())
	}
	if !ok {
		return NewInternalError(fmt.Sprintf("%T does not implement the %s contract", u, u.Kind()), nil).
			WithCode(ErrCodeKindMismatch).WithUnit(u.Name(), u.Kind())
	}
	return nil
}

// Boots returns the boots in inclusion order.
func (c *Config) Boots() []Boot { return slices.Clone(c.boots) }

// Sieves returns the sieves in inclusion order.
func (c *Config) Sieves() []Sieve { return slices.Clone(c.sieves) }

// Steps returns the steps in inclusion order.
func (c *Config) Steps() []Step { return slices.Clone(c.steps) }

// Strides returns the strides in inclusion order.
func (c *Config) Strides() []Stride { return slices.Clone(c.strides) }

// Wraps returns the wraps in inclusion order.
func (c *Config) Wraps() []Wrap { return slices.Clone(c.wraps) }

// Pseudonyms returns the pseudonyms registered for a package, in inclusion
// order.
func (c *Config) Pseudonyms(packageName string) []Pseudonym {
	return slices.Clone(c.pseudonymIndex[packageName])
}

// AllPseudonyms returns every pseudonym in inclusion order.
func (c *Config) AllPseudonyms() []Pseudonym { return slices.Clone(c.pseudonyms) }

// forward lists boots, sieves, steps, strides and wraps in execution order.
func (c *Config) forward() []Unit {
	out := make([]Unit, 0, len(c.boots)+len(c.sieves)+len(c.steps)+len(c.strides)+len(c.wraps))
	for _, u := range c.boots {
		out = append(out, u)
	}
	for _, u := range c.sieves {
		out = append(out, u)
	}
	for _, u := range c.steps {
		out = append(out, u)
	}
	for _, u := range c.strides {
		out = append(out, u)
	}
	for _, u := range c.wraps {
		out = append(out, u)
	}
	return out
}

// Units yields boots, sieves, steps, strides and wraps, in that kind order,
// each kind in inclusion order. Pseudonyms live in their own registry.
func (c *Config) Units() iter.Seq[Unit] {
	units := c.forward()
	return func(yield func(Unit) bool) {
		for _, u := range units {
			if !yield(u) {
				return
			}
		}
	}
}

// UnitsReversed yields exactly the reverse of Units.
func (c *Config) UnitsReversed() iter.Seq[Unit] {
	units := c.forward()
	return func(yield func(Unit) bool) {
		for i := len(units) - 1; i >= 0; i-- {
			if !yield(units[i]) {
				return
			}
		}
	}
}

// Len returns the number of units including pseudonyms.
func (c *Config) Len() int {
	return len(c.boots) + len(c.pseudonyms) + len(c.sieves) + len(c.steps) + len(c.strides) + len(c.wraps)
}

// lifecycleUnits is the pre-run order: Units followed by the pseudonyms.
func (c *Config) lifecycleUnits() []Unit {
	units := c.forward()
	for _, p := range c.pseudonyms {
		units = append(units, p)
	}
	return units
}

// CallPreRun calls PreRun on every unit in forward order, pseudonyms last.
// The first failure aborts the broadcast.
func (c *Config) CallPreRun(rc *RunContext) error {
	return c.broadcast(rc, HookPreRun, c.lifecycleUnits(), func(u Unit) error {
		return u.PreRun(rc)
	})
}

// CallPostRun calls PostRun on every unit in the reverse of the pre-run
// order. The first failure aborts the broadcast.
func (c *Config) CallPostRun(rc *RunContext) error {
	units := c.lifecycleUnits()
	slices.Reverse(units)
	return c.broadcast(rc, HookPostRun, units, func(u Unit) error {
		return u.PostRun(rc)
	})
}

// CallPostRunReport calls PostRunReport on every unit in the reverse of the
// pre-run order. The first failure aborts the broadcast.
func (c *Config) CallPostRunReport(rc *RunContext, summary Summary) error {
	units := c.lifecycleUnits()
	slices.Reverse(units)
	return c.broadcast(rc, HookPostRunReport, units, func(u Unit) error {
		return u.PostRunReport(rc, summary)
	})
}

func (c *Config) broadcast(rc *RunContext, hook string, units []Unit, call func(Unit) error) error {
	start := time.Now()
	_, span := c.tracer.StartHookSpan(rc.Context(), hook, len(units))
	defer span.End()

	for i, u := range units {
		if err := callHook(u, hook, call); err != nil {
			c.logger.Error().Err(err).
				Str("unit", u.Name()).
				Str("kind", string(u.Kind())).
				Str("hook", hook).
				Msg("Unit hook failed, aborting broadcast")
			c.metrics.RecordHookBroadcast(hook, "failed", i+1, time.Since(start))
			c.metrics.RecordError(string(ErrorClassUnit))
			telemetry.RecordError(span, err)
			return err
		}
	}

	c.metrics.RecordHookBroadcast(hook, "succeeded", len(units), time.Since(start))
	c.logger.Debug().Str("hook", hook).Int("units", len(units)).Msg("Hook broadcast complete")
	return nil
}

// callHook runs one hook, turning errors and panics into unit errors. Reading
// a released run context is a contract violation and keeps panicking.
func callHook(u Unit, hook string, call func(Unit) error) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if e, ok := r.(error); ok && errors.Is(e, ErrContextReleased) {
			panic(r)
		}
		err = NewUnitError(u.Name(), u.Kind(), hook, fmt.Errorf("panic: %v", r)).
			WithCode(ErrCodeHookPanicked)
	}()

	if err := call(u); err != nil {
		return NewUnitError(u.Name(), u.Kind(), hook, err)
	}
	return nil
}
