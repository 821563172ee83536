package logger

import (
	"context"
	"time"
)

// contextKey is a private type for context keys to avoid collisions
type contextKey struct{}

// logContextKey is the key for LogContext in context.Context
var logContextKey = contextKey{}

// LogContext holds request-scoped logging context for one dispatched
// command APDU: which instruction it was, which key slot (if any) it
// addressed, and which transport peer sent it.
type LogContext struct {
	TraceID     string    // OpenTelemetry trace ID
	SpanID      string    // OpenTelemetry span ID
	Instruction string    // APDU instruction mnemonic (VERIFY, PSO:CDS, etc.)
	Slot        string    // Key slot the command addressed, if any
	ClientID    string    // Transport peer identifier (socket path, reader name)
	StartTime   time.Time // For duration calculation
}

// WithContext returns a new context with the given LogContext
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext from context, or nil if not present
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext creates a new LogContext for a command received from clientID.
func NewLogContext(clientID string) *LogContext {
	return &LogContext{
		ClientID:  clientID,
		StartTime: time.Now(),
	}
}

// Clone creates a copy of the LogContext
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	return &LogContext{
		TraceID:     lc.TraceID,
		SpanID:      lc.SpanID,
		Instruction: lc.Instruction,
		Slot:        lc.Slot,
		ClientID:    lc.ClientID,
		StartTime:   lc.StartTime,
	}
}

// WithInstruction returns a copy with the instruction set
func (lc *LogContext) WithInstruction(instruction string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Instruction = instruction
	}
	return clone
}

// WithSlot returns a copy with the key slot set
func (lc *LogContext) WithSlot(slot string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Slot = slot
	}
	return clone
}

// WithTrace returns a copy with trace info set
func (lc *LogContext) WithTrace(traceID, spanID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.TraceID = traceID
		clone.SpanID = spanID
	}
	return clone
}

// DurationMs returns the duration since StartTime in milliseconds
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}
