package apperr

import (
	"errors"
	"net/http"
	"testing"
)

func TestHTTPStatusMapsKinds(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{NotFound("session missing"), http.StatusNotFound},
		{BadRequest("bad input"), http.StatusBadRequest},
		{Unauthorized("bad signature"), http.StatusUnauthorized},
		{Expired("offer expired"), http.StatusGone},
		{Internal(errors.New("boom")), http.StatusInternalServerError},
		{errors.New("plain error"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := HTTPStatus(c.err); got != c.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", c.err, got, c.want)
		}
	}
}

func TestErrorIsMatchesByKindOnly(t *testing.T) {
	a := NotFound("session x missing")
	b := NotFound("session y missing")
	if !errors.Is(a, b) {
		t.Fatal("expected two NotFound errors with different messages to match via errors.Is")
	}
	if errors.Is(a, BadRequest("nope")) {
		t.Fatal("expected different kinds not to match")
	}
}

func TestWrapPreservesCauseForUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	wrapped := Wrap(KindTransientIO, "write failed", cause)
	if !errors.Is(wrapped, cause) {
		t.Fatal("expected errors.Is to find the wrapped cause")
	}
}
