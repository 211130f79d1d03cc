package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestFactories_StatusAndCode(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		code   string
		status int
	}{
		{"validation", NewValidation("bad"), CodeValidation, http.StatusBadRequest},
		{"not found", NewNotFound("budget", "42"), CodeNotFound, http.StatusNotFound},
		{"forbidden", NewForbidden("no"), CodeForbidden, http.StatusForbidden},
		{"transition", NewInvalidTransition("budget", "draft", "approved"), CodeInvalidTransition, http.StatusConflict},
		{"concurrent", NewConcurrentModification("budget", "42"), CodeConcurrentModification, http.StatusConflict},
		{"not editable", NewNotEditable("budget", "submitted"), CodeRecordLocked, http.StatusUnprocessableEntity},
		{"internal", NewInternal(errors.New("boom")), CodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Code = %q, want %q", tt.err.Code, tt.code)
			}
			if tt.err.HTTPStatus != tt.status {
				t.Errorf("HTTPStatus = %d, want %d", tt.err.HTTPStatus, tt.status)
			}
		})
	}
}

func TestPredicates_SeeThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("transition: %w", NewInvalidTransition("budget", "draft", "approved"))

	if !IsInvalidTransition(wrapped) {
		t.Fatal("IsInvalidTransition() = false for wrapped error")
	}
	if IsForbidden(wrapped) {
		t.Fatal("IsForbidden() = true for invalid transition")
	}
	if GetHTTPStatus(wrapped) != http.StatusConflict {
		t.Errorf("GetHTTPStatus() = %d, want 409", GetHTTPStatus(wrapped))
	}
	if GetHTTPStatus(errors.New("plain")) != http.StatusInternalServerError {
		t.Error("plain errors must map to 500")
	}
}

func TestWithDetail(t *testing.T) {
	err := NewValidation("percentages must sum to 100").WithDetail("sum", "99.5")
	if err.Details["sum"] != "99.5" {
		t.Errorf("Details[sum] = %v", err.Details["sum"])
	}
}
