package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := New(CodeSupplyExceeded, "would exceed max supply")
	if !stderrors.Is(err, New(CodeSupplyExceeded, "different message")) {
		t.Fatal("expected errors with the same code to match")
	}
	if stderrors.Is(err, New(CodeInvalidQuantity, "would exceed max supply")) {
		t.Fatal("expected errors with different codes not to match")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("disk full")
	err := Wrap(CodeUnknown, "persist issuance", cause)
	if !stderrors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be found in chain")
	}
}

func TestCodeOf(t *testing.T) {
	inner := New(CodeTokenNotFound, "token 7 does not exist")
	wrapped := fmt.Errorf("resolve metadata: %w", inner)

	if got := CodeOf(wrapped); got != CodeTokenNotFound {
		t.Fatalf("expected TOKEN_NOT_FOUND, got %s", got)
	}
	if got := CodeOf(stderrors.New("plain")); got != CodeUnknown {
		t.Fatalf("expected UNKNOWN for foreign error, got %s", got)
	}
	if got := CodeOf(nil); got != CodeUnknown {
		t.Fatalf("expected UNKNOWN for nil error, got %s", got)
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeInvalidQuantity, http.StatusBadRequest},
		{CodeRoyaltyOutOfRange, http.StatusBadRequest},
		{CodeInvalidArgument, http.StatusBadRequest},
		{CodeInsufficientPayment, http.StatusPaymentRequired},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeTokenNotFound, http.StatusNotFound},
		{CodeNotFound, http.StatusNotFound},
		{CodeSupplyExceeded, http.StatusConflict},
		{CodeTokenNotOwned, http.StatusConflict},
		{CodeTransferFailed, http.StatusBadGateway},
		{CodeUnknown, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := tt.code.HTTPStatus(); got != tt.want {
			t.Fatalf("%s: expected status %d, got %d", tt.code, tt.want, got)
		}
	}
}
