package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"ratingsync/internal/logging"
)

const (
	scanBufferInitial = 64 * 1024
	scanBufferMax     = 1024 * 1024
	defaultPoll       = 250 * time.Millisecond
)

// Filter narrows log lines. Empty fields match everything.
type Filter struct {
	RunID  string
	ItemID string
}

// Match reports whether line carries every requested field value. Both
// console (key=value) and JSON ("key":"value") layouts are recognised.
func (f Filter) Match(line string) bool {
	return hasField(line, logging.FieldRunID, f.RunID) && hasField(line, logging.FieldItemID, f.ItemID)
}

func hasField(line, key, value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return true
	}
	return strings.Contains(line, key+"="+value) ||
		strings.Contains(line, fmt.Sprintf("%s=%q", key, value)) ||
		strings.Contains(line, fmt.Sprintf("%q:%q", key, value))
}

// ReadLast returns up to limit matching lines from the end of path and the
// offset just past the last byte read. A missing file yields no lines.
func ReadLast(path string, limit int, filter Filter) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, 0, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return nil, 0, fmt.Errorf("log path %q is a directory", path)
	}
	if limit <= 0 {
		return nil, info.Size(), nil
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, scanBufferInitial), scanBufferMax)

	ring := make([]string, limit)
	count, next := 0, 0
	var offset int64
	for scanner.Scan() {
		line := scanner.Text()
		offset += int64(len(line)) + 1
		if !filter.Match(line) {
			continue
		}
		ring[next] = line
		next = (next + 1) % limit
		if count < limit {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("read log file: %w", err)
	}
	if offset > info.Size() {
		offset = info.Size()
	}

	lines := make([]string, count)
	if count == limit {
		for i := range count {
			lines[i] = ring[(next+i)%limit]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, offset, nil
}

// ReadFrom returns complete matching lines written after offset and the new
// offset. A trailing partial line is left for the next call. When the file
// shrank below offset it is treated as rotated and read from the start.
func ReadFrom(path string, offset int64, filter Filter) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, offset, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, offset, fmt.Errorf("stat log file: %w", err)
	}
	if offset < 0 || offset > info.Size() {
		offset = 0
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return nil, offset, fmt.Errorf("seek log file: %w", err)
	}

	reader := bufio.NewReaderSize(file, scanBufferInitial)
	var lines []string
	for {
		chunk, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return lines, offset, fmt.Errorf("read log file: %w", err)
		}
		offset += int64(len(chunk))
		line := strings.TrimRight(chunk, "\r\n")
		if filter.Match(line) {
			lines = append(lines, line)
		}
	}
	return lines, offset, nil
}

// Follow emits matching lines appended after offset until ctx is done. It
// returns nil on cancellation.
func Follow(ctx context.Context, path string, offset int64, poll time.Duration, filter Filter, emit func(string)) error {
	if poll <= 0 {
		poll = defaultPoll
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		lines, next, err := ReadFrom(path, offset, filter)
		if err != nil {
			return err
		}
		offset = next
		for _, line := range lines {
			emit(line)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
