package game

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSubmissionToken(t *testing.T) {
	// sha256("p1" + "180" + "50" + "12" + "secret")
	token := SubmissionToken("p1", 180, 50, 12, "secret")
	if len(token) != 64 {
		t.Fatalf("token length = %d, want 64 hex chars", len(token))
	}
	if token != strings.ToLower(token) {
		t.Error("token must be lowercase hex")
	}
	if token != SubmissionToken("p1", 180, 50, 12, "secret") {
		t.Error("token must be deterministic")
	}
	if token == SubmissionToken("p1", 181, 50, 12, "secret") {
		t.Error("token must depend on the score")
	}
	if token == SubmissionToken("p1", 180, 50, 12, "other") {
		t.Error("token must depend on the secret")
	}
}

func TestSinkClientSubmit(t *testing.T) {
	var got Submission
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/scores" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewSinkClient(srv.URL, "secret", nil)
	sub := Submission{PlayerID: "p1", DisplayName: "Storm Chaser", Score: 180, SecondsRemaining: 50, QuestionsAsked: 12}
	if err := c.Submit(context.Background(), sub); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	want := SubmissionToken("p1", 180, 50, 12, "secret")
	if got.Token != want {
		t.Errorf("token = %q, want %q", got.Token, want)
	}
}

func TestSinkClientStructuredError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"error": "token mismatch"})
	}))
	defer srv.Close()

	c := NewSinkClient(srv.URL, "secret", nil)
	err := c.Submit(context.Background(), Submission{PlayerID: "p1"})
	if err == nil || !strings.Contains(err.Error(), "token mismatch") {
		t.Fatalf("err = %v, want the structured message", err)
	}
}

func TestSinkClientRawBodyError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewSinkClient(srv.URL, "secret", nil)
	err := c.Submit(context.Background(), Submission{PlayerID: "p1"})
	if err == nil || !strings.Contains(err.Error(), "502") || !strings.Contains(err.Error(), "upstream exploded") {
		t.Fatalf("err = %v, want status and raw body", err)
	}
}

func TestSinkClientSingleAttempt(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewSinkClient(srv.URL, "secret", nil)
	if err := c.Submit(context.Background(), Submission{PlayerID: "p1"}); err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, scores are never retried automatically", attempts)
	}
}
