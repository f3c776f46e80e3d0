package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
)

func TestRunKeepsOrder(t *testing.T) {
	files := []string{"a.SchLib", "b.PcbLib", "c.PcbDoc", "d.SchDoc"}
	bad := errors.New("bad file")

	var calls, active, peak int32
	results := Run(context.Background(), files, 2, func(ctx context.Context, path string) error {
		atomic.AddInt32(&calls, 1)
		n := atomic.AddInt32(&active, 1)
		defer atomic.AddInt32(&active, -1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		if path == "b.PcbLib" {
			return bad
		}
		return nil
	})

	if calls != 4 {
		t.Errorf("Expected 4 calls, got %d", calls)
	}
	if peak > 2 {
		t.Errorf("Expected at most 2 concurrent calls, got %d", peak)
	}
	if len(results) != len(files) {
		t.Fatalf("Expected %d results, got %d", len(files), len(results))
	}
	for i, r := range results {
		if r.Path != files[i] {
			t.Errorf("Result %d: expected path %s, got %s", i, files[i], r.Path)
		}
	}
	failed := Failed(results)
	if len(failed) != 1 || !errors.Is(failed[0].Err, bad) {
		t.Errorf("Expected one failure for b.PcbLib, got %+v", failed)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := Run(ctx, []string{"x.SchLib"}, 0, func(ctx context.Context, path string) error {
		t.Errorf("Expected no call after cancellation")
		return nil
	})
	if !errors.Is(results[0].Err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", results[0].Err)
	}
}

func TestCollect(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"one.PcbLib", "sub/two.schdoc", "notes.txt"} {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, nil, 0644); err != nil {
			t.Fatal(err)
		}
	}

	files, err := Collect([]string{dir})
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	want := []string{filepath.Join(dir, "one.PcbLib"), filepath.Join(dir, "sub", "two.schdoc")}
	if len(files) != len(want) {
		t.Fatalf("Expected %v, got %v", want, files)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("Expected %s, got %s", want[i], files[i])
		}
	}

	if _, err := Collect([]string{filepath.Join(dir, "missing")}); err == nil {
		t.Errorf("Expected error for missing path")
	}
}
