package daemon

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"meetnotes/internal/jobs"
	"meetnotes/internal/recorder"
	"meetnotes/internal/services"
	"meetnotes/internal/workflow"
)

func TestStatusForError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", fmt.Errorf("get: %w", jobs.ErrNotFound), http.StatusNotFound},
		{"invalid audio", fmt.Errorf("%w: bad", ErrInvalidAudio), http.StatusBadRequest},
		{"active job", workflow.ErrJobActive, http.StatusConflict},
		{"retry conflict", jobs.ErrConflict, http.StatusConflict},
		{"recording", recorder.ErrAlreadyRecording, http.StatusConflict},
		{"idle recorder", recorder.ErrNotRecording, http.StatusConflict},
		{"not running", workflow.ErrNotRunning, http.StatusServiceUnavailable},
		{"other", errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := statusForError(tc.err); got != tc.want {
				t.Fatalf("statusForError(%v) = %d, want %d", tc.err, got, tc.want)
			}
		})
	}
}

func TestAuthMiddleware(t *testing.T) {
	next := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }

	open := authMiddleware("", next)
	w := httptest.NewRecorder()
	open(w, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected passthrough without token, got %d", w.Code)
	}

	guarded := authMiddleware("s3cret", next)
	for header, want := range map[string]int{
		"":               http.StatusUnauthorized,
		"Bearer wrong":   http.StatusUnauthorized,
		"s3cret":         http.StatusUnauthorized,
		"Bearer s3cret":  http.StatusNoContent,
		"Basic czNjcmV0": http.StatusUnauthorized,
	} {
		req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		guarded(w, req)
		if w.Code != want {
			t.Fatalf("Authorization %q: got %d, want %d", header, w.Code, want)
		}
	}
}

func TestRequestIDMiddlewareTagsContext(t *testing.T) {
	var seen string
	handler := requestIDMiddleware(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = services.RequestIDFromContext(r.Context())
	})

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/jobs", nil))
	if seen == "" || w.Header().Get(requestIDHeader) != seen {
		t.Fatalf("expected generated id in context and header, got %q / %q", seen, w.Header().Get(requestIDHeader))
	}
}
