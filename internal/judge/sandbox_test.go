package judge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPSandboxRunnerExecute(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req runnerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Language != "python" || len(req.Files) != 1 {
			t.Errorf("unexpected request: %+v", req)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(runnerResponse{
			Run: &runnerStage{Stdout: "hi\n", Code: 0},
		})
	}))
	defer server.Close()

	runner := NewHTTPSandboxRunner(server.URL, 2*time.Second)
	result, err := runner.Execute(context.Background(), ExecuteParams{
		Source:    "print('hi')",
		Language:  LanguagePython,
		TimeLimit: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.Stdout != "hi\n" {
		t.Errorf("Stdout = %q, want %q", result.Stdout, "hi\n")
	}
}

func TestHTTPSandboxRunnerTimeoutSignal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(runnerResponse{
			Run: &runnerStage{Code: 137, Signal: "SIGKILL"},
		})
	}))
	defer server.Close()

	runner := NewHTTPSandboxRunner(server.URL, time.Second)
	result, err := runner.Execute(context.Background(), ExecuteParams{
		Source: "while True: pass", Language: LanguagePython, TimeLimit: time.Second,
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !result.TimedOut {
		t.Error("expected TimedOut true on SIGKILL signal")
	}
}

func TestHTTPSandboxRunnerNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	runner := NewHTTPSandboxRunner(server.URL, time.Second)
	_, err := runner.Execute(context.Background(), ExecuteParams{
		Source: "x", Language: LanguagePython, TimeLimit: time.Second,
	})
	if err == nil {
		t.Fatal("expected error on non-2xx response")
	}
}
