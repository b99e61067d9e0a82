package rewrite

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
)

func TestOllamaRewrite(t *testing.T) {
	var gotReq generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			w.WriteHeader(404)
			return
		}
		json.NewDecoder(r.Body).Decode(&gotReq)
		w.Write([]byte(`{"response": " The quick brown fox jumps. \n"}`))
	}))
	defer srv.Close()

	os.Setenv("OLLAMA_URL", srv.URL)
	defer os.Unsetenv("OLLAMA_URL")

	o := NewOllama("llama3.2")
	out, err := o.Rewrite(context.Background(), "quick brown fox jump")
	if err != nil {
		t.Fatal(err)
	}
	if out != "The quick brown fox jumps." {
		t.Errorf("expected trimmed rewrite, got %q", out)
	}
	if gotReq.Model != "llama3.2" {
		t.Errorf("unexpected model %q", gotReq.Model)
	}
	if gotReq.Prompt != "quick brown fox jump" {
		t.Errorf("unexpected prompt %q", gotReq.Prompt)
	}
	if gotReq.Stream {
		t.Error("streaming must be disabled")
	}
	if gotReq.System == "" {
		t.Error("system prompt missing")
	}
}

func TestOllamaRewriteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": "model not found"}`))
	}))
	defer srv.Close()

	os.Setenv("OLLAMA_URL", srv.URL)
	defer os.Unsetenv("OLLAMA_URL")

	if _, err := NewOllama("missing").Rewrite(context.Background(), "text"); err == nil {
		t.Fatal("expected error from ollama error field")
	}
}

func TestOllamaModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			w.WriteHeader(404)
			return
		}
		w.Write([]byte(`{"models": [{"name": "llama3.2"}, {"name": "mistral"}]}`))
	}))
	defer srv.Close()

	os.Setenv("OLLAMA_URL", srv.URL)
	defer os.Unsetenv("OLLAMA_URL")

	names, err := NewOllama("").Models(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 || names[0] != "llama3.2" || names[1] != "mistral" {
		t.Errorf("unexpected models %v", names)
	}
}
