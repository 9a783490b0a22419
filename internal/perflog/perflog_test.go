package perflog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"photodedup/internal/models"
)

func TestNew_CreatesFileWithHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "performance_log.txt")
	if _, err := New(path); err != nil {
		t.Fatalf("New failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "--- Performance Log for Duplicate Check ---") {
		t.Errorf("missing header: %q", string(data))
	}
}

func TestLogRun_AppendsFormattedBlock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "performance_log.txt")
	l, err := New(path)
	if err != nil {
		t.Fatal(err)
	}

	rec := Record{
		Timestamp: time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC),
		Folder:    "/pics",
		Mode:      "Automatic selection",
		Strategy:  "KEEP_BEST_QUALITY",
		Threshold: 5,
		Stats: models.Stats{
			FilesProcessed: 120,
			FailedFiles:    2,
			ImagesHashed:   118,
			GroupsFound:    7,
			ScanTime:       1500 * time.Millisecond,
			HashingTime:    10 * time.Second,
			ComparisonTime: 2 * time.Second,
			SelectionTime:  300 * time.Millisecond,
		},
		TotalTime:      14 * time.Second,
		MarkedRemoval:  12,
		BytesReclaimed: 5 << 20,
		Discarded:      []string{"/pics/a.jpg", "/pics/b.jpg"},
	}
	if err := l.LogRun(rec); err != nil {
		t.Fatalf("LogRun failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	got := string(data)
	for _, want := range []string{
		"--- Run: 2024-06-01 10:30:00 ---",
		"Folder: /pics",
		"Total time: 14.00 seconds",
		"Mode: Automatic selection",
		"Strategy: KEEP_BEST_QUALITY",
		"Sensitivity (threshold): 5",
		"Images found for check: 120",
		"Images that failed hashing: 2",
		"Images hashed: 118",
		"Scanning folder:         1.50",
		"Automatic selection:     0.30",
		"Duplicate groups found: 7",
		"Files marked for removal: 12",
		"Space reclaimable: 5.0 MiB",
		"- a.jpg",
		"- b.jpg",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("log block missing %q\nfull block:\n%s", want, got)
		}
	}
}

func TestLogRun_TruncatesDiscardList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "performance_log.txt")
	l, err := New(path)
	if err != nil {
		t.Fatal(err)
	}

	discarded := make([]string, discardSample+5)
	for i := range discarded {
		discarded[i] = fmt.Sprintf("/pics/img_%02d.jpg", i)
	}
	rec := Record{
		Timestamp: time.Now(),
		Folder:    "/pics",
		Mode:      "Manual review",
		Discarded: discarded,
	}
	if err := l.LogRun(rec); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	got := string(data)
	if !strings.Contains(got, "... and 5 more.") {
		t.Errorf("missing truncation line:\n%s", got)
	}
	if strings.Contains(got, fmt.Sprintf("img_%02d.jpg", discardSample)) {
		t.Error("entries beyond the sample cap were listed")
	}
	// Manual review runs carry no strategy line.
	if strings.Contains(got, "Strategy:") {
		t.Error("strategy line present for a manual review run")
	}
}

func TestNew_PreservesExistingLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "performance_log.txt")
	l, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := l.LogRun(Record{Timestamp: time.Now(), Folder: "/first", Mode: "Manual review"}); err != nil {
		t.Fatal(err)
	}

	// Reopening must not truncate previous runs.
	if _, err := New(path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Folder: /first") {
		t.Error("existing run block lost after reopen")
	}
	if n := strings.Count(string(data), "--- Performance Log for Duplicate Check ---"); n != 1 {
		t.Errorf("header written %d times, want 1", n)
	}
}
