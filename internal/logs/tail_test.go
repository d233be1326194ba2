package logs_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"ratingsync/internal/logs"
)

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ratingsync.log")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

func TestReadLastLines(t *testing.T) {
	path := writeLog(t, "a\nb\nc\n")

	lines, offset, err := logs.ReadLast(path, 2, logs.Filter{})
	if err != nil {
		t.Fatalf("ReadLast: %v", err)
	}
	if len(lines) != 2 || lines[0] != "b" || lines[1] != "c" {
		t.Fatalf("unexpected lines: %#v", lines)
	}
	if offset != 6 {
		t.Fatalf("expected offset 6, got %d", offset)
	}
}

func TestReadLastMissingFile(t *testing.T) {
	lines, offset, err := logs.ReadLast(filepath.Join(t.TempDir(), "missing.log"), 10, logs.Filter{})
	if err != nil {
		t.Fatalf("ReadLast: %v", err)
	}
	if len(lines) != 0 || offset != 0 {
		t.Fatalf("expected empty result, got %#v at %d", lines, offset)
	}
}

func TestReadLastFiltersByRunAndItem(t *testing.T) {
	path := writeLog(t, `INFO item updated run_id=r1 item_id=m1
INFO item updated run_id=r2 item_id=m1
{"level":"INFO","msg":"item skipped","run_id":"r1","item_id":"m2"}
INFO batch finished run_id=r1
`)

	lines, _, err := logs.ReadLast(path, 10, logs.Filter{RunID: "r1"})
	if err != nil {
		t.Fatalf("ReadLast: %v", err)
	}
	if len(lines) != 3 {
		t.Fatalf("expected 3 run lines, got %#v", lines)
	}

	lines, _, err = logs.ReadLast(path, 10, logs.Filter{RunID: "r1", ItemID: "m2"})
	if err != nil {
		t.Fatalf("ReadLast: %v", err)
	}
	if len(lines) != 1 || lines[0][0] != '{' {
		t.Fatalf("expected the json line, got %#v", lines)
	}
}

func TestReadFromKeepsPartialLine(t *testing.T) {
	path := writeLog(t, "one\ntw")

	lines, offset, err := logs.ReadFrom(path, 0, logs.Filter{})
	if err != nil {
		t.Fatalf("ReadFrom: %v", err)
	}
	if len(lines) != 1 || lines[0] != "one" || offset != 4 {
		t.Fatalf("unexpected result %#v at %d", lines, offset)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := f.WriteString("o\n"); err != nil {
		t.Fatalf("append: %v", err)
	}
	f.Close()

	lines, _, err = logs.ReadFrom(path, offset, logs.Filter{})
	if err != nil {
		t.Fatalf("ReadFrom: %v", err)
	}
	if len(lines) != 1 || lines[0] != "two" {
		t.Fatalf("unexpected lines: %#v", lines)
	}
}

func TestReadFromRestartsAfterTruncation(t *testing.T) {
	path := writeLog(t, "fresh\n")

	lines, _, err := logs.ReadFrom(path, 1000, logs.Filter{})
	if err != nil {
		t.Fatalf("ReadFrom: %v", err)
	}
	if len(lines) != 1 || lines[0] != "fresh" {
		t.Fatalf("expected read from start, got %#v", lines)
	}
}

func TestFollowEmitsAppendedLines(t *testing.T) {
	path := writeLog(t, "start\n")
	_, offset, err := logs.ReadLast(path, 1, logs.Filter{})
	if err != nil {
		t.Fatalf("ReadLast: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var got []string
	done := make(chan error, 1)
	go func() {
		done <- logs.Follow(ctx, path, offset, 10*time.Millisecond, logs.Filter{}, func(line string) {
			mu.Lock()
			got = append(got, line)
			mu.Unlock()
		})
	}()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := f.WriteString("later\n"); err != nil {
		t.Fatalf("append: %v", err)
	}
	f.Close()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(got)
		mu.Unlock()
		if n > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Follow: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0] != "later" {
		t.Fatalf("unexpected follow lines: %#v", got)
	}
}
