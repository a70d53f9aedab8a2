package store

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/LeeJaeHaeng/voiceshield/internal/voiceid"
)

func openTestStore(t *testing.T) *Badger {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestFingerprintRoundtrip(t *testing.T) {
	s := openTestStore(t)

	fp := []float64{1.5, -2.25, 0, 40}
	if err := s.UpsertFingerprint("alice", fp); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetFingerprint("alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(fp) {
		t.Fatalf("length = %d", len(got))
	}
	for i := range fp {
		if got[i] != fp[i] {
			t.Fatalf("coefficient %d = %v, want %v", i, got[i], fp[i])
		}
	}
}

func TestGetFingerprintMissing(t *testing.T) {
	s := openTestStore(t)
	_, err := s.GetFingerprint("nobody")
	if !errors.Is(err, voiceid.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestUpsertOverwrites(t *testing.T) {
	s := openTestStore(t)
	if err := s.UpsertFingerprint("alice", []float64{1}); err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertFingerprint("alice", []float64{2}); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetFingerprint("alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != 2 {
		t.Fatalf("got %v", got)
	}
}

func TestListNames(t *testing.T) {
	s := openTestStore(t)
	for _, name := range []string{"bob", "alice"} {
		if err := s.UpsertFingerprint(name, []float64{1}); err != nil {
			t.Fatal(err)
		}
	}
	names, err := s.ListNames()
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 {
		t.Fatalf("names = %v", names)
	}
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)
	if err := s.UpsertFingerprint("alice", []float64{1}); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete("alice"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetFingerprint("alice"); !errors.Is(err, voiceid.ErrNotFound) {
		t.Fatalf("err = %v after delete", err)
	}
	if err := s.Delete("missing"); err != nil {
		t.Fatalf("deleting a missing name = %v, want nil", err)
	}
}

func TestLogsNewestFirst(t *testing.T) {
	s := openTestStore(t)

	type record struct {
		N int `json:"n"`
	}
	for i := 0; i < 5; i++ {
		if err := s.AppendLog(record{N: i}); err != nil {
			t.Fatal(err)
		}
	}

	logs, err := s.RecentLogs(3)
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 3 {
		t.Fatalf("logs = %d, want limit 3", len(logs))
	}

	var first record
	if err := json.Unmarshal(logs[0], &first); err != nil {
		t.Fatal(err)
	}
	if first.N != 4 {
		t.Fatalf("first record = %d, want most recent (4)", first.N)
	}
}

func TestLogsEmpty(t *testing.T) {
	s := openTestStore(t)
	logs, err := s.RecentLogs(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 0 {
		t.Fatalf("logs = %d", len(logs))
	}
}
