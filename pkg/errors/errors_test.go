package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeInsufficientFields, status: http.StatusBadRequest, publicMsg: "payout details incomplete", detailsOK: true},
		{code: CodeInsufficientStock, status: http.StatusConflict, publicMsg: "insufficient stock", detailsOK: true},
		{code: CodeInsufficientBalance, status: http.StatusUnprocessableEntity, publicMsg: "insufficient balance", detailsOK: true},
		{code: CodeInvalidTransition, status: http.StatusUnprocessableEntity, publicMsg: "state transition disallowed", detailsOK: true},
		{code: CodePersistence, status: http.StatusServiceUnavailable, publicMsg: "an error occurred", retryable: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required"},
		{code: CodeForbidden, status: http.StatusForbidden, publicMsg: "access denied"},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected"},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
		{code: CodeMaintenance, status: http.StatusServiceUnavailable, publicMsg: "marketplace is under maintenance", retryable: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeInsufficientStock, "only 2 left")
	if base.Code() != CodeInsufficientStock {
		t.Fatalf("expected stock code, got %s", base.Code())
	}
	if base.Message() != "only 2 left" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	base.WithDetails(map[string]any{"available": 2})
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "ctx")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
}

func TestIsCodeFollowsWrapping(t *testing.T) {
	err := fmt.Errorf("checkout: %w", New(CodeInsufficientStock, "sold out"))
	if !IsCode(err, CodeInsufficientStock) {
		t.Fatalf("expected wrapped code to be found")
	}
	if IsCode(err, CodeValidation) {
		t.Fatalf("unexpected code match")
	}
}

func TestPersistenceKeepsTypedErrors(t *testing.T) {
	typed := New(CodeNotFound, "order not found")
	if got := Persistence(typed, "load order"); got.Code() != CodeNotFound {
		t.Fatalf("expected typed error to pass through, got %s", got.Code())
	}
	raw := stdErrors.New("connection reset")
	got := Persistence(raw, "load order")
	if got.Code() != CodePersistence || !stdErrors.Is(got, raw) {
		t.Fatalf("expected persistence wrap, got %v", got)
	}
}

func TestDumpCollectsChain(t *testing.T) {
	err := Wrap(CodePersistence, stdErrors.New("disk full"), "insert order")
	d := Dump(err)
	if d.Code != CodePersistence {
		t.Fatalf("expected code in dump, got %s", d.Code)
	}
	if len(d.Chain) != 2 {
		t.Fatalf("expected 2 chain entries, got %d", len(d.Chain))
	}
}

func TestIsMatchesByCode(t *testing.T) {
	errNotFound := New(CodeNotFound, "")
	err := fmt.Errorf("load product: %w", New(CodeNotFound, "product not found"))
	if !stdErrors.Is(err, errNotFound) {
		t.Fatalf("expected code match through wrapping")
	}
	if stdErrors.Is(err, New(CodeConflict, "")) {
		t.Fatalf("did not expect match on a different code")
	}
}
