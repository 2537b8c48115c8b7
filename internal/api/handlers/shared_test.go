package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// TestParseJSON tests the parseJSON helper.
// This is an internal test (package handlers, not handlers_test) because
// parseJSON is unexported.
func TestParseJSON(t *testing.T) {
	type body struct {
		Name string `json:"name"`
	}

	t.Run("decodes a valid body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x"}`))

		got, err := parseJSON[body](req)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if got.Name != "x" {
			t.Errorf("Expected name 'x', got '%s'", got.Name)
		}
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":`))

		if _, err := parseJSON[body](req); err == nil {
			t.Error("Expected an error for malformed JSON")
		}
	})

	t.Run("rejects bodies over the size limit", func(t *testing.T) {
		big := `{"name":"` + strings.Repeat("a", maxBodyBytes) + `"}`
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big))

		if _, err := parseJSON[body](req); err == nil {
			t.Error("Expected an error for an oversized body")
		}
	})
}
