package series

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestAppendReadRoundTrip(t *testing.T) {
	st := NewStore(t.TempDir())
	l, err := st.Open("vid123")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	base := time.Unix(1700000000, 0)
	want := []Sample{
		{Time: base, Count: 10},
		{Time: base.Add(60 * time.Second), Count: 50},
		{Time: base.Add(120 * time.Second), Count: 30},
	}
	for _, s := range want {
		if err := l.Append(s.Time, s.Count); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got, err := st.ReadAll("vid123")
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d samples, want %d", len(got), len(want))
	}
	for i := range want {
		if !got[i].Time.Equal(want[i].Time) || got[i].Count != want[i].Count {
			t.Errorf("sample %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestAppendOnlyAcrossReopen(t *testing.T) {
	st := NewStore(t.TempDir())
	l, err := st.Open("vid123")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := l.Append(time.Unix(100, 0), 1); err != nil {
		t.Fatalf("Append: %v", err)
	}
	_ = l.Close()

	// Reopening must append, never truncate a prior series.
	l2, err := st.Open("vid123")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if err := l2.Append(time.Unix(160, 0), 2); err != nil {
		t.Fatalf("Append: %v", err)
	}
	_ = l2.Close()

	got, err := st.ReadAll("vid123")
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(got) != 2 || got[0].Count != 1 || got[1].Count != 2 {
		t.Fatalf("unexpected samples after reopen: %v", got)
	}
}

func TestReadFileIgnoresPartialTrailingRecord(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "vid.txt")
	if err := os.WriteFile(p, []byte("100 5\n160 7\n220"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := ReadFile(p)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d samples, want 2 (partial record dropped)", len(got))
	}
	if got[1].Count != 7 {
		t.Errorf("got[1].Count = %d, want 7", got[1].Count)
	}
}

func TestReadAllMissingFile(t *testing.T) {
	st := NewStore(t.TempDir())
	if _, err := st.ReadAll("nope"); err == nil {
		t.Error("expected error for missing log")
	}
}
