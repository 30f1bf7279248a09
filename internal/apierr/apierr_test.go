package apierr

import (
	"errors"
	"net/http"
	"testing"
)

func TestCreditsErrorIsAnError(t *testing.T) {
	var err error = InsufficientCredits(5, 2)

	if got := err.Error(); got != "insufficient credits: required 5, available 2" {
		t.Fatalf("unexpected message: %q", got)
	}

	var ce *CreditsError
	if !errors.As(err, &ce) {
		t.Fatalf("errors.As failed to recover *CreditsError from %T", err)
	}
	if ce.Required != 5 || ce.Available != 2 {
		t.Fatalf("required/available lost: %#v", ce)
	}

	// The shortfall must unwrap to the base type so the generic status
	// and code mapping still applies.
	if StatusOf(err) != http.StatusPaymentRequired {
		t.Fatalf("StatusOf = %d", StatusOf(err))
	}
	if CodeOf(err) != "insufficient_credits" {
		t.Fatalf("CodeOf = %q", CodeOf(err))
	}
}

func TestStatusAndCodeDefaults(t *testing.T) {
	plain := errors.New("boom")
	if StatusOf(plain) != http.StatusInternalServerError {
		t.Fatalf("StatusOf(plain) = %d", StatusOf(plain))
	}
	if CodeOf(plain) != "internal_error" {
		t.Fatalf("CodeOf(plain) = %q", CodeOf(plain))
	}

	nf := NotFound("video abc")
	if StatusOf(nf) != http.StatusNotFound || CodeOf(nf) != "not_found" {
		t.Fatalf("unexpected mapping: %d %q", StatusOf(nf), CodeOf(nf))
	}
	if nf.Error() != "video abc not found" {
		t.Fatalf("unexpected message: %q", nf.Error())
	}
}
