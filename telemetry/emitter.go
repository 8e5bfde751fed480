// Package telemetry records sign-in lifecycle events for diagnostics.
package telemetry

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/passflow/passflow/internal/platform/id"
)

// Kind identifies a sign-in lifecycle event.
type Kind string

const (
	KindAttempt            Kind = "ATTEMPT"
	KindSuccess            Kind = "SUCCESS"
	KindFallback           Kind = "FALLBACK"
	KindFailure            Kind = "FAILURE"
	KindConditionalStart   Kind = "CONDITIONAL_START"
	KindConditionalIgnored Kind = "CONDITIONAL_IGNORED"
	KindSignOut            Kind = "SIGN_OUT"
)

// Event is one recorded sign-in lifecycle event. FlowID groups all events
// emitted by one Emitter, so a full sign-in journey can be correlated.
type Event struct {
	ID        string
	FlowID    string
	Kind      Kind
	Method    string
	ErrorCode string
	Timestamp time.Time
}

// Sink receives telemetry events. Implementations must be safe for
// concurrent use.
type Sink interface {
	RecordAuthEvent(ctx context.Context, evt Event) error
}

// Emitter records sign-in telemetry events.
type Emitter struct {
	sink   Sink
	flowID string
	clock  func() time.Time
}

// NewEmitter creates a new telemetry emitter with a fresh flow identifier.
func NewEmitter(sink Sink) *Emitter {
	flowID, err := id.NewID()
	if err != nil {
		flowID = ""
	}
	return &Emitter{sink: sink, flowID: flowID, clock: time.Now}
}

// WithClock returns a copy of the emitter using the given clock.
func (e *Emitter) WithClock(clock func() time.Time) *Emitter {
	if e == nil {
		return nil
	}
	return &Emitter{sink: e.sink, flowID: e.flowID, clock: clock}
}

// Emit records a telemetry event. It is a no-op when the emitter or its sink
// is nil, so callers never need to guard the call.
func (e *Emitter) Emit(ctx context.Context, kind Kind, method string, errorCode string) {
	if e == nil || e.sink == nil {
		return
	}
	now := time.Now().UTC()
	if e.clock != nil {
		now = e.clock().UTC()
	}
	_ = e.sink.RecordAuthEvent(ctx, Event{
		ID:        uuid.NewString(),
		FlowID:    e.flowID,
		Kind:      kind,
		Method:    method,
		ErrorCode: errorCode,
		Timestamp: now,
	})
}
