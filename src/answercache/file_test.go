package answercache

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/quizsentry/quizsentry/src/types"
)

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "questions.json")

	store, err := OpenFileStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := store.Put(ctx, "What is the capital of France?", types.LetterB, "Paris"); err != nil {
		t.Fatalf("put: %v", err)
	}

	// Lookup is normalized, and every hit bumps the usage counter.
	entry, ok, err := store.Get(ctx, "  what is the capital of france?  ")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if entry.Letter != types.LetterB || entry.OptionText != "Paris" {
		t.Fatalf("entry = %+v", entry)
	}
	if entry.UsageCount != 2 {
		t.Fatalf("usage = %d, want 2", entry.UsageCount)
	}
	if entry, _, _ := store.Get(ctx, "what is the capital of france?"); entry.UsageCount != 3 {
		t.Fatalf("usage = %d, want 3", entry.UsageCount)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// Usage counters survive a restart because Close flushes them.
	reopened, err := OpenFileStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	entry, ok, err = reopened.Get(ctx, "What is the capital of France?")
	if err != nil || !ok {
		t.Fatalf("get after reopen: ok=%v err=%v", ok, err)
	}
	if entry.Letter != types.LetterB || entry.UsageCount != 4 {
		t.Fatalf("entry after reopen = %+v", entry)
	}
}

func TestFileStoreOverwriteKeepsUsage(t *testing.T) {
	ctx := context.Background()
	store, err := OpenFileStore(filepath.Join(t.TempDir(), "questions.json"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	if err := store.Put(ctx, "q", types.LetterB, "old"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, _, err := store.Get(ctx, "q"); err != nil {
		t.Fatalf("get: %v", err)
	}
	if err := store.Put(ctx, "q", types.LetterC, "new"); err != nil {
		t.Fatalf("second put: %v", err)
	}

	entry, ok, _ := store.Get(ctx, "q")
	if !ok || entry.Letter != types.LetterC || entry.OptionText != "new" {
		t.Fatalf("entry = %+v", entry)
	}
	if entry.UsageCount != 3 {
		t.Fatalf("usage = %d, want 3", entry.UsageCount)
	}
}

func TestFileStoreMiss(t *testing.T) {
	store, err := OpenFileStore(filepath.Join(t.TempDir(), "questions.json"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, ok, err := store.Get(context.Background(), "never seen"); ok || err != nil {
		t.Fatalf("get = ok=%v err=%v, want miss", ok, err)
	}
}

func TestFileStoreRejectsInvalidLetter(t *testing.T) {
	store, err := OpenFileStore(filepath.Join(t.TempDir(), "questions.json"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := store.Put(context.Background(), "q", "Z", "nope"); err == nil {
		t.Fatal("put accepted letter Z")
	}
}
