package testgen

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/casegen-backend/internal/platform/audit"
	"github.com/yungbote/casegen-backend/internal/platform/llm"
	"github.com/yungbote/casegen-backend/internal/platform/logger"
)

var (
	// ErrRecoveryFailed means neither attempt produced JSON of the required shape.
	ErrRecoveryFailed = errors.New("model output could not be recovered as JSON")
	// ErrGeneration wraps transport or provider failures from the generator.
	ErrGeneration = errors.New("generation request failed")
)

// Outcomes reported to the Observer for each attempt.
const (
	OutcomeOK            = "ok"
	OutcomeUnparseable   = "unparseable"
	OutcomeShapeMismatch = "shape_mismatch"
	OutcomeUpstreamError = "upstream_error"
)

type Observer interface {
	ObserveAttempt(attempt int, outcome string)
}

type Request struct {
	RequirementID string
	Parts         []llm.Part
	Shape         Shape
}

type Result struct {
	Value     any
	Attempts  int
	AuditRefs []string
}

type attemptState int

const (
	stateFirstAttempt attemptState = iota
	stateRetryAttempt
	stateFailed
)

// Engine runs the generate, audit, extract cycle with exactly one stricter
// retry. It holds no per-request state.
type Engine struct {
	log      *logger.Logger
	gen      llm.Generator
	composer *Composer
	audit    audit.Sink
	observer Observer
	now      func() time.Time
}

type EngineOption func(*Engine)

func WithObserver(o Observer) EngineOption {
	return func(e *Engine) { e.observer = o }
}

func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

func NewEngine(log *logger.Logger, gen llm.Generator, composer *Composer, sink audit.Sink, opts ...EngineOption) *Engine {
	if sink == nil {
		sink = audit.Nop()
	}
	e := &Engine{
		log:      log.With("service", "RecoveryEngine"),
		gen:      gen,
		composer: composer,
		audit:    sink,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Recover(ctx context.Context, req Request) (Result, error) {
	res := Result{}
	parts := req.Parts
	state := stateFirstAttempt

	for state != stateFailed {
		res.Attempts++
		raw, err := e.gen.Generate(ctx, parts)
		if err != nil {
			e.observe(res.Attempts, OutcomeUpstreamError)
			return res, fmt.Errorf("%w: %v", ErrGeneration, err)
		}
		if ref := e.record(ctx, req.RequirementID, res.Attempts, raw); ref != "" {
			res.AuditRefs = append(res.AuditRefs, ref)
		}

		v := Extract(raw, req.Shape)
		switch {
		case v != nil && matchesShape(v, req.Shape):
			e.observe(res.Attempts, OutcomeOK)
			res.Value = v
			return res, nil
		case v == nil:
			e.observe(res.Attempts, OutcomeUnparseable)
		default:
			e.observe(res.Attempts, OutcomeShapeMismatch)
		}

		switch state {
		case stateFirstAttempt:
			e.log.Warn("Model output not recoverable, retrying with strict prompt",
				"req_id", req.RequirementID, "shape", req.Shape, "raw_chars", len(raw))
			parts = e.composer.StrictRetry(req.Parts, req.Shape)
			state = stateRetryAttempt
		case stateRetryAttempt:
			state = stateFailed
		}
	}

	e.log.Error("Model output not recoverable after retry", "req_id", req.RequirementID, "audit", res.AuditRefs)
	return res, fmt.Errorf("%w after %d attempts; raw responses in audit log: %s",
		ErrRecoveryFailed, res.Attempts, strings.Join(res.AuditRefs, ", "))
}

// record never fails the request; audit problems are only logged.
func (e *Engine) record(ctx context.Context, reqID string, attempt int, raw string) string {
	ref, err := e.audit.Record(ctx, audit.Entry{
		RequirementID: reqID,
		Attempt:       attempt,
		Raw:           raw,
		At:            e.now(),
	})
	if err != nil {
		e.log.Warn("Audit write failed", "req_id", reqID, "attempt", attempt, "error", err)
		return ""
	}
	return ref
}

func (e *Engine) observe(attempt int, outcome string) {
	if e.observer != nil {
		e.observer.ObserveAttempt(attempt, outcome)
	}
}
