// Package series persists per-broadcast viewer-count samples as append-only
// plain-text logs: one `<epoch-seconds> <count>` line per poll tick. Records are
// written with a single flushed write so a reader can always resume after a
// partial write of a later record. There is no update or delete; the store is
// write-once-per-tick, read-many.
package series

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Sample is one (instant, concurrent viewers) observation.
type Sample struct {
	Time  time.Time
	Count uint64
}

// Store owns the per-broadcast log files under a single directory.
type Store struct {
	dir string
}

func NewStore(dir string) *Store { return &Store{dir: dir} }

// Path returns the log file path for a broadcast id.
func (s *Store) Path(videoID string) string {
	return filepath.Join(s.dir, videoID+".txt")
}

// Log is an open, append-only sample log for one broadcast.
type Log struct {
	f    *os.File
	path string
}

// Open creates (or reopens for append) the sample log for a broadcast.
func (s *Store) Open(videoID string) (*Log, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir series dir: %w", err)
	}
	p := s.Path(videoID)
	f, err := os.OpenFile(p, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open series log: %w", err)
	}
	return &Log{f: f, path: p}, nil
}

// Append writes one record as a single newline-terminated write and syncs it,
// so an interrupt between ticks never leaves a truncated record behind.
func (l *Log) Append(at time.Time, count uint64) error {
	rec := strconv.FormatInt(at.Unix(), 10) + " " + strconv.FormatUint(count, 10) + "\n"
	if _, err := l.f.WriteString(rec); err != nil {
		return fmt.Errorf("append sample: %w", err)
	}
	if err := l.f.Sync(); err != nil {
		return fmt.Errorf("sync sample log: %w", err)
	}
	return nil
}

func (l *Log) Path() string { return l.path }

func (l *Log) Close() error { return l.f.Close() }

// ReadAll returns every complete record of a broadcast's log in append order.
func (s *Store) ReadAll(videoID string) ([]Sample, error) {
	return ReadFile(s.Path(videoID))
}

// ReadFile parses a sample log. A trailing partial line (no terminating newline,
// or fewer than two fields) is ignored rather than treated as corruption.
func ReadFile(path string) ([]Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open series log: %w", err)
	}
	defer f.Close()

	var out []Sample
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 {
			continue
		}
		sec, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			continue
		}
		count, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			continue
		}
		out = append(out, Sample{Time: time.Unix(sec, 0).UTC(), Count: count})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read series log: %w", err)
	}
	return out, nil
}
