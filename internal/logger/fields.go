package logger

import "log/slog"

// Standard field keys for structured logging. Use these keys
// consistently across all log statements for log aggregation and
// querying.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// ========================================================================
	// Command APDU
	// ========================================================================
	KeyInstruction = "instruction" // APDU instruction mnemonic: VERIFY, PSO:CDS, GENERATE ASYMMETRIC KEY PAIR, etc.
	KeyP1          = "p1"          // Command APDU P1 byte
	KeyP2          = "p2"          // Command APDU P2 byte
	KeyStatusWord  = "sw"          // Response APDU status word

	// ========================================================================
	// Card Session
	// ========================================================================
	KeySlot      = "slot"      // Key slot a command addresses: sign, decrypt, auth
	KeyReference = "reference" // Reference data a VERIFY/CHANGE REFERENCE DATA targets: PW1, PW3, RC
	KeyAuthLevel = "auth_level"
	KeyLifecycle = "lifecycle" // Application lifecycle state

	// ========================================================================
	// Transport
	// ========================================================================
	KeyClientID = "client_id" // Transport peer identifier (Unix-socket path, PC/SC reader name)
	KeyReader   = "reader"    // PC/SC reader name

	// ========================================================================
	// Key Generation
	// ========================================================================
	KeyAlgorithm  = "algorithm"   // Algorithm family/curve a candidate key was generated under
	KeyQueueDepth = "queue_depth" // Pump candidate queue depth after the last refill/take

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
	KeyErrorCode  = "error_code"  // Numeric error code
)

// ----------------------------------------------------------------------------
// Distributed Tracing
// ----------------------------------------------------------------------------

// TraceID returns a slog.Attr for the trace ID.
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for the span ID.
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// ----------------------------------------------------------------------------
// Command APDU
// ----------------------------------------------------------------------------

// Instruction returns a slog.Attr for the APDU instruction mnemonic.
func Instruction(name string) slog.Attr {
	return slog.String(KeyInstruction, name)
}

// P1 returns a slog.Attr for the command APDU's P1 byte.
func P1(p1 byte) slog.Attr {
	return slog.Any(KeyP1, p1)
}

// P2 returns a slog.Attr for the command APDU's P2 byte.
func P2(p2 byte) slog.Attr {
	return slog.Any(KeyP2, p2)
}

// StatusWord returns a slog.Attr for the response APDU's status word,
// formatted as a four-digit hex string matching ISO 7816-4 convention.
func StatusWord(sw uint16) slog.Attr {
	return slog.String(KeyStatusWord, formatSW(sw))
}

func formatSW(sw uint16) string {
	const hexDigits = "0123456789ABCDEF"
	return string([]byte{
		hexDigits[sw>>12&0xF],
		hexDigits[sw>>8&0xF],
		hexDigits[sw>>4&0xF],
		hexDigits[sw&0xF],
	})
}

// ----------------------------------------------------------------------------
// Card Session
// ----------------------------------------------------------------------------

// Slot returns a slog.Attr for a key slot name.
func Slot(name string) slog.Attr {
	return slog.String(KeySlot, name)
}

// Reference returns a slog.Attr for a PW1/PW3/RC reference name.
func Reference(name string) slog.Attr {
	return slog.String(KeyReference, name)
}

// AuthLevel returns a slog.Attr for an authentication level name.
func AuthLevel(level string) slog.Attr {
	return slog.String(KeyAuthLevel, level)
}

// Lifecycle returns a slog.Attr for the application lifecycle state.
func Lifecycle(state string) slog.Attr {
	return slog.String(KeyLifecycle, state)
}

// ----------------------------------------------------------------------------
// Transport
// ----------------------------------------------------------------------------

// ClientID returns a slog.Attr for the transport peer identifier.
func ClientID(id string) slog.Attr {
	return slog.String(KeyClientID, id)
}

// Reader returns a slog.Attr for a PC/SC reader name.
func Reader(name string) slog.Attr {
	return slog.String(KeyReader, name)
}

// ----------------------------------------------------------------------------
// Key Generation
// ----------------------------------------------------------------------------

// Algorithm returns a slog.Attr for an algorithm family/curve name.
func Algorithm(name string) slog.Attr {
	return slog.String(KeyAlgorithm, name)
}

// QueueDepth returns a slog.Attr for the pump's candidate queue depth.
func QueueDepth(n int) slog.Attr {
	return slog.Int(KeyQueueDepth, n)
}

// ----------------------------------------------------------------------------
// Operation Metadata
// ----------------------------------------------------------------------------

// DurationMs returns a slog.Attr for a duration in milliseconds.
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorCode returns a slog.Attr for a numeric error code.
func ErrorCode(code int) slog.Attr {
	return slog.Int(KeyErrorCode, code)
}
