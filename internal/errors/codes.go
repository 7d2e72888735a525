// Package errors provides structured error handling for worldforge services.
package errors

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Session errors
	CodeSessionNotFound Code = "SESSION_NOT_FOUND"
	CodeSessionConsumed Code = "SESSION_CONSUMED"
	CodeStreamBusy      Code = "STREAM_BUSY"
	CodeInvalidRequest  Code = "INVALID_REQUEST"
	CodeInvalidMode     Code = "INVALID_MODE"
	CodeModeDisallowsOp Code = "MODE_DISALLOWS_OPERATION"

	// Finalization errors
	CodeFinalizeNotReady Code = "FINALIZE_NOT_READY"
	CodeValidation       Code = "VALIDATION_ERROR"

	// Step errors
	CodeStepUnknown Code = "STEP_UNKNOWN"

	// Streaming/transport errors
	CodeNetwork       Code = "NETWORK_ERROR"
	CodeStreamAborted Code = "STREAM_ABORTED"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
	CodeConflict Code = "CONFLICT"

	// Auth errors
	CodeUnauthenticated  Code = "UNAUTHENTICATED"
	CodePermissionDenied Code = "PERMISSION_DENIED"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeInvalidRequest,
		CodeInvalidMode,
		CodeStepUnknown,
		CodeValidation:
		return codes.InvalidArgument

	// FailedPrecondition - state doesn't allow operation
	case CodeStreamBusy,
		CodeModeDisallowsOp,
		CodeFinalizeNotReady,
		CodeSessionConsumed,
		CodeConflict:
		return codes.FailedPrecondition

	// NotFound - resource doesn't exist
	case CodeNotFound,
		CodeSessionNotFound:
		return codes.NotFound

	case CodeStreamAborted:
		return codes.Canceled

	case CodeNetwork:
		return codes.Unavailable

	case CodeUnauthenticated:
		return codes.Unauthenticated

	case CodePermissionDenied:
		return codes.PermissionDenied

	default:
		return codes.Internal
	}
}

// HTTPStatus maps domain codes to HTTP status codes for web responses.
func (c Code) HTTPStatus() int {
	switch c.GRPCCode() {
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.FailedPrecondition:
		return http.StatusConflict
	case codes.NotFound:
		return http.StatusNotFound
	case codes.Canceled:
		return 499
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.PermissionDenied:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
