package ollama_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/memcord/memcord/internal/ollama"
)

// newGenerateServer returns a test server answering /api/generate with the
// given model response and /api/tags with 200.
func newGenerateServer(t *testing.T, response string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"models":[]}`))
	})
	mux.HandleFunc("/api/generate", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model  string `json:"model"`
			Prompt string `json:"prompt"`
			Stream bool   `json:"stream"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad generate request: %v", err)
		}
		if req.Stream {
			t.Error("generate requests must set stream=false")
		}
		json.NewEncoder(w).Encode(map[string]string{"response": response})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestProbe(t *testing.T) {
	srv := newGenerateServer(t, "")
	c := ollama.New(srv.URL, "test-model")

	if err := c.Probe(context.Background()); err != nil {
		t.Fatalf("Probe error: %v", err)
	}
}

func TestProbe_Unreachable(t *testing.T) {
	srv := newGenerateServer(t, "")
	srv.Close()
	c := ollama.New(srv.URL, "test-model")

	if err := c.Probe(context.Background()); err == nil {
		t.Fatal("expected probe failure against a closed server")
	}
}

func TestEnhance(t *testing.T) {
	srv := newGenerateServer(t, "  Rewritten: the cache TTL is five minutes.  ")
	c := ollama.New(srv.URL, "test-model")

	res := c.Enhance(context.Background(), "cache ttl 5m")
	if !res.Enhanced {
		t.Fatal("expected Enhanced=true")
	}
	if res.Text != "Rewritten: the cache TTL is five minutes." {
		t.Errorf("Text = %q, want trimmed model output", res.Text)
	}
}

func TestEnhance_FallbackOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()
	c := ollama.New(srv.URL, "test-model")

	res := c.Enhance(context.Background(), "cache ttl 5m")
	if res.Enhanced {
		t.Fatal("expected Enhanced=false on server error")
	}
	if res.Text != "cache ttl 5m" {
		t.Errorf("Text = %q, want the untouched input", res.Text)
	}
}

func TestEnhance_FallbackOnEmptyResponse(t *testing.T) {
	srv := newGenerateServer(t, "   ")
	c := ollama.New(srv.URL, "test-model")

	res := c.Enhance(context.Background(), "keep me")
	if res.Enhanced {
		t.Fatal("blank model output must not count as an enhancement")
	}
	if res.Text != "keep me" {
		t.Errorf("Text = %q, want the untouched input", res.Text)
	}
}

func TestExtract(t *testing.T) {
	srv := newGenerateServer(t, "Here are the facts:\n```json\n"+
		`[{"content":"retries use exponential backoff","context":"backend","importance":6},`+
		`{"content":"the staging DB resets nightly"}]`+
		"\n```")
	c := ollama.New(srv.URL, "test-model")

	facts := c.Extract(context.Background(), "a long transcript")
	if len(facts) != 2 {
		t.Fatalf("expected 2 facts, got %d", len(facts))
	}
	if facts[0].Context != "backend" || facts[0].Importance != 6 {
		t.Errorf("fact metadata lost: %+v", facts[0])
	}
}

func TestExtract_SkipsBlankFacts(t *testing.T) {
	srv := newGenerateServer(t, `[{"content":"real fact"},{"content":"   "}]`)
	c := ollama.New(srv.URL, "test-model")

	facts := c.Extract(context.Background(), "text")
	if len(facts) != 1 {
		t.Fatalf("expected blank facts to be dropped, got %d", len(facts))
	}
}

func TestExtract_FallbackTruncates(t *testing.T) {
	srv := newGenerateServer(t, "no json here")
	c := ollama.New(srv.URL, "test-model")

	long := strings.Repeat("word ", 100)
	facts := c.Extract(context.Background(), long)
	if len(facts) != 1 {
		t.Fatalf("expected a single fallback fact, got %d", len(facts))
	}
	if !strings.HasSuffix(facts[0].Content, "...") {
		t.Errorf("long fallback fact should be truncated, got %q", facts[0].Content)
	}
	if len(facts[0].Content) > 210 {
		t.Errorf("fallback fact too long: %d chars", len(facts[0].Content))
	}
}

func TestRank(t *testing.T) {
	srv := newGenerateServer(t, `[0.9, 0.1, 2.5]`)
	c := ollama.New(srv.URL, "test-model")

	scores := c.Rank(context.Background(), "query", []string{"a", "b", "c"})
	if len(scores) != 3 {
		t.Fatalf("expected 3 scores, got %d", len(scores))
	}
	if scores[0] != 0.9 || scores[1] != 0.1 {
		t.Errorf("scores = %v", scores)
	}
	if scores[2] != 1.0 {
		t.Errorf("out-of-range score should be clamped to 1.0, got %v", scores[2])
	}
}

func TestRank_FallbackIsLexical(t *testing.T) {
	srv := newGenerateServer(t, "not a score list")
	c := ollama.New(srv.URL, "test-model")

	scores := c.Rank(context.Background(), "alpha beta", []string{"alpha beta", "gamma"})
	if len(scores) != 2 {
		t.Fatalf("expected 2 scores, got %d", len(scores))
	}
	if scores[0] != 1.0 {
		t.Errorf("identical text should score 1.0 lexically, got %v", scores[0])
	}
	if scores[1] != 0 {
		t.Errorf("disjoint text should score 0 lexically, got %v", scores[1])
	}
}
