package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGenerateUserIDStable(t *testing.T) {
	first := GenerateUserID()
	if first == "" {
		t.Fatal("user ID should never be empty")
	}
	if len(first) != 16 {
		t.Errorf("user ID length = %d, want 16 hex chars", len(first))
	}
	if again := GenerateUserID(); again != first {
		t.Errorf("user ID not stable: %s vs %s", first, again)
	}
}

func TestSearchFillsUserID(t *testing.T) {
	var got SearchRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/search" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(SearchResponse{RequestID: "r1", SessionID: "s1", Response: "ok"})
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, UserID: "u-test"})
	resp, err := c.Search(context.Background(), SearchRequest{Query: "shoes"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if got.UserID != "u-test" {
		t.Errorf("request user_id = %q, want filled from client", got.UserID)
	}
	if resp.Response != "ok" {
		t.Errorf("response = %q", resp.Response)
	}
}

func TestClientSendsAPIKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-Key") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(HealthResponse{Status: "healthy"})
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, APIKey: "secret"})
	resp, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if resp.Status != "healthy" {
		t.Errorf("status = %q", resp.Status)
	}
}

func TestClientDecodesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(APIError{Code: "VALIDATION_ERROR", Message: "query is required"})
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	_, err := c.Search(context.Background(), SearchRequest{})
	if err == nil {
		t.Fatal("expected error")
	}
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("error type %T: %v", err, err)
	}
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("code = %q", apiErr.Code)
	}
}

func TestClientRawErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	err := c.SubmitFeedback(context.Background(), FeedbackRequest{SessionID: "s1", Rating: 5})
	if err == nil {
		t.Fatal("expected error")
	}
	if _, ok := err.(*APIError); ok {
		t.Error("non-JSON error body should not decode as APIError")
	}
}
