package output

import (
	"bufio"
	"os"
	"strings"
	"testing"
)

func TestParseModeValid(t *testing.T) {
	cases := map[string]Mode{"console": Console, "file": File, "both": Both, "quiet": Quiet}
	for s, want := range cases {
		got, err := ParseMode(s)
		if err != nil || got != want {
			t.Fatalf("ParseMode(%q) = %v, %v; want %v", s, got, err, want)
		}
	}
}

func TestParseModeInvalid(t *testing.T) {
	if _, err := ParseMode("bogus"); err == nil {
		t.Fatal("ParseMode should reject an unknown mode")
	}
}

func TestQuietModeWritesNothing(t *testing.T) {
	path := t.TempDir() + "/out.log"
	s, err := New(Quiet, path)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer s.Close()
	s.Event("should not appear anywhere")
	if _, err := os.Stat(path); err == nil {
		t.Fatal("quiet mode should never create a log file")
	}
}

func TestFileModeWritesSummaryLine(t *testing.T) {
	path := t.TempDir() + "/out.log"
	s, err := New(File, path)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer s.Close()

	st := Stats{LimitsGenerated: 10, MarketsGenerated: 2, CancelsExpired: 1, CancelsRegime: 3, MessagesSent: 16}
	s.Summary(12.3, 101.2345, "CALM", 40, st, 5.0)
	s.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := strings.TrimSpace(string(data))
	want := "SUMMARY|t=12.3|mid=101.2345|regime=CALM|active=40|limits=10|markets=2|cancels_exp=1|cancels_reg=3|msgs=16"
	if line != want {
		t.Fatalf("summary line = %q, want %q", line, want)
	}
}

func TestBothModeWritesBoxToFileLines(t *testing.T) {
	path := t.TempDir() + "/out.log"
	s, err := New(Both, path)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer s.Close()

	s.Event("test event line")
	s.Close()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	found := false
	for scanner.Scan() {
		if scanner.Text() == "test event line" {
			found = true
		}
	}
	if !found {
		t.Fatal("event line not found in log file")
	}
}

func TestStatsResetAndTotals(t *testing.T) {
	st := Stats{LimitsGenerated: 5, MarketsGenerated: 3, CancelsExpired: 2, CancelsRegime: 1, MessagesSent: 8}
	if st.TotalOrders() != 8 {
		t.Fatalf("TotalOrders = %d, want 8", st.TotalOrders())
	}
	if st.TotalCancels() != 3 {
		t.Fatalf("TotalCancels = %d, want 3", st.TotalCancels())
	}
	st.Reset()
	if st.TotalOrders() != 0 || st.TotalCancels() != 0 || st.MessagesSent != 0 {
		t.Fatalf("Reset left nonzero fields: %+v", st)
	}
}

func TestConsoleModeNeverOpensFile(t *testing.T) {
	path := t.TempDir() + "/out.log"
	s, err := New(Console, path)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer s.Close()
	if _, err := os.Stat(path); err == nil {
		t.Fatal("console mode should never create a log file")
	}
}
