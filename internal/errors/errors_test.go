package errors

import (
	stderrors "errors"
	"net/http"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestGRPCCodeMapping(t *testing.T) {
	cases := []struct {
		code Code
		want codes.Code
	}{
		{CodeInvalidRequest, codes.InvalidArgument},
		{CodeValidation, codes.InvalidArgument},
		{CodeStepUnknown, codes.InvalidArgument},
		{CodeStreamBusy, codes.FailedPrecondition},
		{CodeFinalizeNotReady, codes.FailedPrecondition},
		{CodeSessionConsumed, codes.FailedPrecondition},
		{CodeSessionNotFound, codes.NotFound},
		{CodeNotFound, codes.NotFound},
		{CodeStreamAborted, codes.Canceled},
		{CodeNetwork, codes.Unavailable},
		{CodeUnknown, codes.Internal},
	}
	for _, tc := range cases {
		if got := tc.code.GRPCCode(); got != tc.want {
			t.Fatalf("code %s mapped to %v, want %v", tc.code, got, tc.want)
		}
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	if got := CodeSessionNotFound.HTTPStatus(); got != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", got)
	}
	if got := CodeStreamBusy.HTTPStatus(); got != http.StatusConflict {
		t.Fatalf("expected 409, got %d", got)
	}
	if got := CodeInvalidRequest.HTTPStatus(); got != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", got)
	}
	if got := CodeUnknown.HTTPStatus(); got != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", got)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("connection reset")
	err := Wrap(CodeNetwork, "stream interrupted", cause)

	if !stderrors.Is(err, cause) {
		t.Fatal("expected wrapped cause to satisfy errors.Is")
	}
	if GetCode(err) != CodeNetwork {
		t.Fatalf("expected NETWORK_ERROR code, got %s", GetCode(err))
	}
	if err.Error() != "stream interrupted: connection reset" {
		t.Fatalf("unexpected error text %q", err.Error())
	}
}

func TestGetCodeUnknownForPlainErrors(t *testing.T) {
	if got := GetCode(stderrors.New("boom")); got != CodeUnknown {
		t.Fatalf("expected UNKNOWN, got %s", got)
	}
	if got := GetCode(nil); got != CodeUnknown {
		t.Fatalf("expected UNKNOWN for nil, got %s", got)
	}
}

func TestToGRPCStatus(t *testing.T) {
	err := New(CodeFinalizeNotReady, "required steps incomplete")
	st, ok := status.FromError(err.ToGRPCStatus())
	if !ok {
		t.Fatal("expected grpc status error")
	}
	if st.Code() != codes.FailedPrecondition {
		t.Fatalf("expected FailedPrecondition, got %v", st.Code())
	}
	if st.Message() != "required steps incomplete" {
		t.Fatalf("unexpected message %q", st.Message())
	}
}
