package mailer

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandler_HandleSend(t *testing.T) {
	h, err := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("failed to create handler: %v", err)
	}

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantError  string
	}{
		{"valid", `{"to":"c1@example.com","subject":"Order delivered","body":"hi"}`, http.StatusOK, ""},
		{"named recipient", `{"to":"Wanjiku <wanjiku@example.com>","subject":"s"}`, http.StatusOK, ""},
		{"missing recipient", `{"subject":"s"}`, http.StatusBadRequest, "invalid recipient"},
		{"invalid recipient", `{"to":"not-an-email","subject":"s"}`, http.StatusBadRequest, "invalid recipient"},
		{"missing subject", `{"to":"c1@example.com"}`, http.StatusBadRequest, "missing subject"},
		{"malformed body", `{"to":`, http.StatusBadRequest, "invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/send", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			h.HandleSend(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			var body map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if tt.wantError != "" && body["error"] != tt.wantError {
				t.Errorf("expected error %q, got %q", tt.wantError, body["error"])
			}
			if tt.wantError == "" && body["status"] != "sent" {
				t.Errorf("expected status sent, got %v", body)
			}
		})
	}
}
