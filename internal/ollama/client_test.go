package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestClient(url string) *Client {
	return NewClient(&ClientConfig{URL: url, Model: "test-model"}, zap.NewNop())
}

func TestGenerate_AccumulatesStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if req.Model != "test-model" || req.Prompt != "hello?" {
			t.Errorf("unexpected request: %+v", req)
		}
		w.Write([]byte(`{"response":"Hi","done":false}` + "\n"))
		w.Write([]byte(`{"response":" there","done":true}` + "\n"))
	}))
	defer srv.Close()

	st := newTestClient(srv.URL).Generate(context.Background(), "hello?")
	snap, err := st.Wait(context.Background())
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if !snap.Finished || snap.Err {
		t.Fatalf("unexpected terminal state: %+v", snap)
	}
	if snap.Text != "Hi there" {
		t.Errorf("accumulated text = %q, want %q", snap.Text, "Hi there")
	}
}

func TestGenerate_StopsAtDoneMarker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response":"answer","done":true}` + "\n"))
		w.Write([]byte(`{"response":" ignored","done":false}` + "\n"))
	}))
	defer srv.Close()

	snap, _ := newTestClient(srv.URL).Generate(context.Background(), "q").Wait(context.Background())
	if snap.Text != "answer" {
		t.Errorf("text after done marker = %q, want %q", snap.Text, "answer")
	}
}

func TestGenerate_HTTPErrorCarriesStatusAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("overloaded"))
	}))
	defer srv.Close()

	snap, _ := newTestClient(srv.URL).Generate(context.Background(), "q").Wait(context.Background())
	if !snap.Err || snap.Finished {
		t.Fatalf("expected error state, got %+v", snap)
	}
	if snap.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", snap.StatusCode)
	}
	if !strings.Contains(snap.Detail, "500") || !strings.Contains(snap.Detail, "overloaded") {
		t.Errorf("detail missing diagnostics: %q", snap.Detail)
	}
}

func TestGenerate_MalformedLinePreservesPartialText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response":"partial","done":false}` + "\n"))
		w.Write([]byte("not json at all\n"))
	}))
	defer srv.Close()

	snap, _ := newTestClient(srv.URL).Generate(context.Background(), "q").Wait(context.Background())
	if !snap.Err {
		t.Fatalf("expected error state, got %+v", snap)
	}
	if snap.Text != "partial" {
		t.Errorf("partial text = %q, want %q", snap.Text, "partial")
	}
}

func TestGenerate_ConnectionFailure(t *testing.T) {
	// Closed server: connection refused.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	snap, _ := newTestClient(url).Generate(context.Background(), "q").Wait(context.Background())
	if !snap.Err || snap.Detail == "" {
		t.Fatalf("expected connection error with detail, got %+v", snap)
	}
}

func TestGenerate_IsNonBlocking(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Write([]byte(`{"response":"ok","done":true}` + "\n"))
	}))
	defer srv.Close()
	defer close(release)

	start := time.Now()
	st := newTestClient(srv.URL).Generate(context.Background(), "q")
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("Generate blocked for %v", elapsed)
	}
	if snap := st.Snapshot(); snap.Terminal() {
		t.Errorf("stream terminal before backend responded: %+v", snap)
	}
}
