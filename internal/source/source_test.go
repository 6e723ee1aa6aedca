package source

import (
	"context"
	"iter"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"bulbank-notification-parser/pkg/errors"
)

func writeFiles(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("<table>"+name+"</table>"), 0o644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
	return dir
}

func TestDirectoryProviderListsDocuments(t *testing.T) {
	dir := writeFiles(t, "b.html", "a.HTM", "notes.txt", "c.htm")
	if err := os.Mkdir(filepath.Join(dir, "nested.html"), 0o755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}

	p, err := NewDirectoryProvider(dir)
	if err != nil {
		t.Fatalf("NewDirectoryProvider() error = %v", err)
	}

	ids, err := Collect(context.Background(), p)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	want := []string{"a.HTM", "b.html", "c.htm"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("DocumentIDs() = %v, want %v", ids, want)
	}

	again, _ := Collect(context.Background(), p)
	if !reflect.DeepEqual(again, want) {
		t.Errorf("Second walk = %v, want %v", again, want)
	}
}

func TestDirectoryProviderStopsEarly(t *testing.T) {
	p, err := NewDirectoryProvider(writeFiles(t, "a.html", "b.html", "c.html"))
	if err != nil {
		t.Fatalf("NewDirectoryProvider() error = %v", err)
	}

	var seen []string
	for id, err := range p.DocumentIDs(context.Background()) {
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		seen = append(seen, id)
		if len(seen) == 2 {
			break
		}
	}
	if len(seen) != 2 {
		t.Errorf("Expected to stop after 2 ids, got %v", seen)
	}
}

func TestDirectoryProviderDocument(t *testing.T) {
	p, err := NewDirectoryProvider(writeFiles(t, "a.html", "notes.txt"))
	if err != nil {
		t.Fatalf("NewDirectoryProvider() error = %v", err)
	}
	ctx := context.Background()

	raw, err := p.Document(ctx, "a.html")
	if err != nil {
		t.Fatalf("Document() error = %v", err)
	}
	if string(raw) != "<table>a.html</table>" {
		t.Errorf("Document() = %q", raw)
	}

	for _, id := range []string{"missing.html", "../a.html", "notes.txt", ""} {
		t.Run(id, func(t *testing.T) {
			_, err := p.Document(ctx, id)
			appErr, ok := errors.AsAppError(err)
			if !ok || appErr.Code != errors.CodeDocumentNotFound {
				t.Errorf("Expected document_not_found, got %v", err)
			}
		})
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = p.Document(cancelled, "a.html")
	if appErr, ok := errors.AsAppError(err); !ok || appErr.Code != errors.CodeSourceUnavailable {
		t.Errorf("Expected source_unavailable on cancelled context, got %v", err)
	}
}

func TestDirectoryProviderCancelledListing(t *testing.T) {
	p, err := NewDirectoryProvider(writeFiles(t, "a.html"))
	if err != nil {
		t.Fatalf("NewDirectoryProvider() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Collect(ctx, p); err == nil {
		t.Error("Expected error when listing with a cancelled context")
	}
}

func TestNewDirectoryProviderRejectsFiles(t *testing.T) {
	dir := writeFiles(t, "a.html")

	if _, err := NewDirectoryProvider(filepath.Join(dir, "a.html")); err == nil {
		t.Error("Expected error for a regular file")
	}
	if _, err := NewDirectoryProvider(filepath.Join(dir, "missing")); err == nil {
		t.Error("Expected error for a missing directory")
	}
}

type countingProvider struct {
	mu    sync.Mutex
	calls map[string]int
}

func (p *countingProvider) DocumentIDs(ctx context.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, id := range []string{"a", "b"} {
			if !yield(id, nil) {
				return
			}
		}
	}
}

func (p *countingProvider) Document(ctx context.Context, id string) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.calls == nil {
		p.calls = make(map[string]int)
	}
	p.calls[id]++
	if id == "missing" {
		return nil, errors.SourceError(errors.CodeDocumentNotFound, id, nil)
	}
	return []byte(id), nil
}

func TestCachedProvider(t *testing.T) {
	next := &countingProvider{}
	p := NewCachedProvider(next, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		raw, err := p.Document(ctx, "a")
		if err != nil || string(raw) != "a" {
			t.Fatalf("Document() = %q, %v", raw, err)
		}
	}
	if next.calls["a"] != 1 {
		t.Errorf("Expected 1 upstream fetch, got %d", next.calls["a"])
	}
	if p.Len() != 1 {
		t.Errorf("Len() = %d, want 1", p.Len())
	}

	for i := 0; i < 2; i++ {
		if _, err := p.Document(ctx, "missing"); err == nil {
			t.Error("Expected error for missing document")
		}
	}
	if next.calls["missing"] != 2 {
		t.Errorf("Errors must not be cached, got %d fetches", next.calls["missing"])
	}

	p.Invalidate("a")
	if _, err := p.Document(ctx, "a"); err != nil {
		t.Fatalf("Document() error = %v", err)
	}
	if next.calls["a"] != 2 {
		t.Errorf("Expected refetch after Invalidate, got %d fetches", next.calls["a"])
	}

	ids, err := Collect(ctx, p)
	if err != nil || !reflect.DeepEqual(ids, []string{"a", "b"}) {
		t.Errorf("DocumentIDs() = %v, %v", ids, err)
	}
}

func TestRateLimitedProvider(t *testing.T) {
	next := &countingProvider{}
	p := NewRateLimitedProvider(next, 0, 1)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := p.Document(ctx, "a"); err != nil {
			t.Fatalf("Document() error = %v", err)
		}
	}
	if next.calls["a"] != 5 {
		t.Errorf("Expected 5 fetches, got %d", next.calls["a"])
	}

	slow := NewRateLimitedProvider(next, 0.001, 1)
	if _, err := slow.Document(ctx, "b"); err != nil {
		t.Fatalf("First fetch should use the burst token: %v", err)
	}

	timeout, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	_, err := slow.Document(timeout, "b")
	if appErr, ok := errors.AsAppError(err); !ok || appErr.Code != errors.CodeSourceUnavailable {
		t.Errorf("Expected source_unavailable once the quota is spent, got %v", err)
	}
	if next.calls["b"] != 1 {
		t.Errorf("Expected 1 upstream fetch, got %d", next.calls["b"])
	}

	ids, err := Collect(ctx, NewRateLimitedProvider(next, 0, 1))
	if err != nil || len(ids) != 2 {
		t.Errorf("DocumentIDs() = %v, %v", ids, err)
	}
}
