package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/smbops/invoice-copilot/internal/models"
)

func ndjsonServer(t *testing.T, status int, lines ...string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(status)
		for _, l := range lines {
			fmt.Fprintln(w, l)
		}
	}))
}

func TestOllama_ConcatenatesStream(t *testing.T) {
	srv := ndjsonServer(t, http.StatusOK,
		`{"response":"Hello"}`,
		`not json at all`,
		``,
		`{"response":", world"}`,
		`{"response":"","done":true}`,
	)
	defer srv.Close()

	p := NewOllamaProvider(srv.URL+"/", "mistral:latest", srv.Client())
	got, err := p.Generate(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "Hello, world" {
		t.Fatalf("got %q", got)
	}
}

func TestOllama_Non2xxIsUnavailable(t *testing.T) {
	srv := ndjsonServer(t, http.StatusInternalServerError, `{"error":"model not found"}`)
	defer srv.Close()

	_, err := NewOllamaProvider(srv.URL, "m", srv.Client()).Generate(context.Background(), "x")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestOllama_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewOllamaProvider(url, "m", nil).Generate(context.Background(), "x")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestAdapter_EmptyOnFailure(t *testing.T) {
	srv := ndjsonServer(t, http.StatusBadGateway)
	defer srv.Close()

	a := NewAdapter(NewOllamaProvider(srv.URL, "m", srv.Client()), time.Second, nil)
	if got := a.Complete(context.Background(), "x"); got != "" {
		t.Fatalf("got %q, want empty", got)
	}
}

func TestAdapter_TrimsOutput(t *testing.T) {
	srv := ndjsonServer(t, http.StatusOK, `{"response":"  answer \n"}`)
	defer srv.Close()

	a := NewAdapter(NewOllamaProvider(srv.URL, "m", srv.Client()), time.Second, nil)
	if got := a.Complete(context.Background(), "x"); got != "answer" {
		t.Fatalf("got %q", got)
	}
}

func TestAdapter_TimeoutReturnsEmptyPromptly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()

	a := NewAdapter(NewOllamaProvider(srv.URL, "m", srv.Client()), 100*time.Millisecond, nil)
	start := time.Now()
	got := a.Complete(context.Background(), "x")
	if got != "" {
		t.Fatalf("got %q, want empty", got)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("Complete took %v", elapsed)
	}
}

type stuckProvider struct{ release chan struct{} }

func (stuckProvider) Name() string { return "stuck" }

func (s stuckProvider) Generate(context.Context, string) (string, error) {
	<-s.release
	return "late", nil
}

func TestAdapter_ProviderIgnoringContext(t *testing.T) {
	p := stuckProvider{release: make(chan struct{})}
	defer close(p.release)

	a := NewAdapter(p, 50*time.Millisecond, nil)
	start := time.Now()
	if got := a.Complete(context.Background(), "x"); got != "" {
		t.Fatalf("got %q", got)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("adapter did not enforce its timeout")
	}
}

func TestAdapter_NilIsSafe(t *testing.T) {
	var a *Adapter
	if a.Complete(context.Background(), "x") != "" || a.Provider() != "" {
		t.Fatalf("nil adapter returned content")
	}
}

func TestBuildChatPrompt(t *testing.T) {
	empty := BuildChatPrompt("what is owed?", nil)
	if !strings.Contains(empty, `"""what is owed?"""`) || !strings.Contains(empty, "No invoices uploaded yet.") {
		t.Fatalf("empty prompt:\n%s", empty)
	}

	var recs []models.Invoice
	for i := 1; i <= 7; i++ {
		recs = append(recs, models.Invoice{
			Vendor:    fmt.Sprintf("V%d", i),
			InvoiceNo: fmt.Sprintf("INV-%03d", i),
			Total:     decimal.NewFromInt(int64(i * 10)),
			Currency:  "USD",
			DueDate:   "2024-05-15",
		})
	}
	p := BuildChatPrompt("q", recs)
	if strings.Contains(p, "V1 |") || strings.Contains(p, "V2 |") {
		t.Fatalf("prompt carries more than five records:\n%s", p)
	}
	if !strings.Contains(p, "V7 | INV-007 | total 70.00 USD | due 2024-05-15") {
		t.Fatalf("newest record missing:\n%s", p)
	}
	if strings.Index(p, "V3 |") > strings.Index(p, "V7 |") {
		t.Fatalf("context not in upload order")
	}
}

func TestNewProvider(t *testing.T) {
	cfg := models.AIConfig{DefaultProvider: "ollama"}
	p, err := NewProvider(cfg, "")
	if err != nil || p.Name() != "ollama" {
		t.Fatalf("default provider: %v %v", p, err)
	}
	if _, err := NewProvider(cfg, "openai"); err == nil {
		t.Fatalf("openai without key should fail")
	}
	cfg.OpenAI.APIKey = "sk-test"
	if p, err := NewProvider(cfg, "openai"); err != nil || p.Name() != "openai" {
		t.Fatalf("openai: %v %v", p, err)
	}
	cfg.Gemini.APIKey = "g-test"
	if p, err := NewProvider(cfg, "gemini"); err != nil || p.Name() != "gemini" {
		t.Fatalf("gemini: %v %v", p, err)
	}
	if _, err := NewProvider(cfg, "bard"); err == nil {
		t.Fatalf("unknown provider accepted")
	}
}
