package card

import (
	"context"

	"github.com/marmos91/openpgpcard/internal/cardio"
	"github.com/marmos91/openpgpcard/internal/logger"
)

// handler processes one parsed command APDU against Card state and
// produces the response to serialize back to the transport.
type handler func(c *Card, apdu *CommandAPDU) ResponseAPDU

var dispatchTable = map[byte]handler{
	InsVerify:                   (*Card).handleVerify,
	InsChangeReferenceData:      (*Card).handleChangeReferenceData,
	InsResetRetryCounter:        (*Card).handleResetRetryCounter,
	InsPerformSecurityOperation: (*Card).handlePerformSecurityOperation,
	InsInternalAuthenticate:     (*Card).handleInternalAuthenticate,
	InsGenerateAsymmetricKeyPair: (*Card).handleGenerateAsymmetricKeyPair,
	InsGetData:                  (*Card).handleGetData,
	InsGetDataOdd:               (*Card).handleGetData,
	InsPutData:                  (*Card).handlePutData,
	InsPutDataOdd:               (*Card).handlePutData,
	InsManageSecurityEnv:        (*Card).handleManageSecurityEnvironment,
	InsSelect:                   (*Card).handleSelect,
	InsActivateFile:             (*Card).handleActivateFile,
	InsTerminateDF:              (*Card).handleTerminateDF,
	InsDeactivateFile:           (*Card).handleDeactivateFile,
}

// instructionNames labels the instruction byte for DispatchCtx's
// logging; unlisted instructions log their raw byte value instead.
var instructionNames = map[byte]string{
	InsVerify:                   "VERIFY",
	InsChangeReferenceData:      "CHANGE REFERENCE DATA",
	InsResetRetryCounter:        "RESET RETRY COUNTER",
	InsPerformSecurityOperation: "PERFORM SECURITY OPERATION",
	InsInternalAuthenticate:     "INTERNAL AUTHENTICATE",
	InsGenerateAsymmetricKeyPair: "GENERATE ASYMMETRIC KEY PAIR",
	InsGetData:                  "GET DATA",
	InsGetDataOdd:               "GET DATA",
	InsPutData:                  "PUT DATA",
	InsPutDataOdd:               "PUT DATA",
	InsManageSecurityEnv:        "MANAGE SECURITY ENVIRONMENT",
	InsSelect:                   "SELECT",
	InsActivateFile:             "ACTIVATE FILE",
	InsTerminateDF:              "TERMINATE DF",
	InsDeactivateFile:           "DEACTIVATE FILE",
}

// Dispatch parses raw as a command APDU, routes it to the matching
// handler by instruction byte, and returns the serialized response
// APDU (data plus status word). It logs each dispatched command under
// a background context; use DispatchCtx to carry a transport-scoped
// LogContext (client identity, trace/span IDs) instead.
func (c *Card) Dispatch(raw []byte) []byte {
	return c.DispatchCtx(context.Background(), raw)
}

// DispatchCtx is Dispatch with an explicit context, so a transport can
// attach its own LogContext (e.g. the PC/SC reader name or Unix-socket
// peer) before the command is processed.
func (c *Card) DispatchCtx(ctx context.Context, raw []byte) []byte {
	apdu, err := ParseCommandAPDU(raw)
	if err != nil {
		return EncodeResponseAPDU(statusResponse(cardio.ErrWrongParameterInCommandData("malformed command APDU")))
	}

	lc := logger.FromContext(ctx)
	if lc == nil {
		lc = logger.NewLogContext("")
	}
	ctx = logger.WithContext(ctx, lc.WithInstruction(instructionNames[apdu.INS]))

	if c.Metrics != nil {
		c.Metrics.RecordAPDU(apdu.INS)
	}

	if apdu.INS != InsSelect && apdu.INS != InsActivateFile {
		if terminated, terr := c.isTerminated(); terr != nil {
			return c.logAndEncode(ctx, statusResponse(terr))
		} else if terminated {
			return c.logAndEncode(ctx, statusResponse(cardio.ErrConditionsNotSatisfied()))
		}
	}

	h, ok := dispatchTable[apdu.INS]
	if !ok {
		return c.logAndEncode(ctx, ResponseAPDU{SW: cardio.SWInstructionNotSupported})
	}
	return c.logAndEncode(ctx, h(c, apdu))
}

func (c *Card) logAndEncode(ctx context.Context, resp ResponseAPDU) []byte {
	lc := logger.FromContext(ctx)
	logger.DebugCtx(ctx, "dispatched APDU", logger.StatusWord(uint16(resp.SW)), logger.DurationMs(lc.DurationMs()))
	return EncodeResponseAPDU(resp)
}
