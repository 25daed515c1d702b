package pipeline

import (
	"testing"
	"time"
)

func TestNewJob(t *testing.T) {
	job := NewJob("report.pdf", "/tmp/report.pdf.log")
	if job.Status != StatusQueued {
		t.Errorf("expected status %q, got %q", StatusQueued, job.Status)
	}
	if len(job.ID) != 26 {
		t.Errorf("expected 26-char ULID job ID, got %q", job.ID)
	}
	if job.Filename != "report.pdf" || job.LogPath != "/tmp/report.pdf.log" {
		t.Errorf("unexpected job fields %+v", job.Snapshot())
	}
}

func TestJob_StateTransitions(t *testing.T) {
	job := &Job{
		ID:        "test-1",
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	transitions := []struct {
		status JobStatus
		phase  string
	}{
		{StatusUnpacking, "unpacking"},
		{StatusConverting, "converting a.pdf"},
		{StatusOutlining, "outlining a.html"},
		{StatusCompleted, "done"},
	}

	for _, tr := range transitions {
		before := job.UpdatedAt
		// Small sleep to ensure time difference is detectable.
		time.Sleep(time.Millisecond)
		job.SetStatus(tr.status, tr.phase)

		if job.Status != tr.status {
			t.Errorf("expected status %q, got %q", tr.status, job.Status)
		}
		if job.Phase != tr.phase {
			t.Errorf("expected phase %q, got %q", tr.phase, job.Phase)
		}
		if !job.UpdatedAt.After(before) {
			t.Errorf("expected UpdatedAt to advance after SetStatus(%q)", tr.status)
		}
	}
}

func TestJobStatus_Done(t *testing.T) {
	for status, want := range map[JobStatus]bool{
		StatusQueued:     false,
		StatusUnpacking:  false,
		StatusConverting: false,
		StatusOutlining:  false,
		StatusCompleted:  true,
		StatusFailed:     true,
	} {
		if status.Done() != want {
			t.Errorf("expected %q Done()=%v", status, want)
		}
	}
}

func TestJob_AddError(t *testing.T) {
	job := &Job{ID: "err-test", UpdatedAt: time.Now()}
	job.AddError("convert a.pdf: exit status 1")
	job.AddError("convert b.pdf: exit status 1")

	snap := job.Snapshot()
	if len(snap.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(snap.Errors))
	}
	if snap.Errors[0] != "convert a.pdf: exit status 1" {
		t.Errorf("expected first error %q, got %q", "convert a.pdf: exit status 1", snap.Errors[0])
	}
}

func TestJob_AddOutput(t *testing.T) {
	job := &Job{ID: "out-test", UpdatedAt: time.Now()}
	job.AddOutput("a.html", 12)
	job.AddOutput("b.html", 0)

	snap := job.Snapshot()
	if len(snap.Outputs) != 2 {
		t.Fatalf("expected 2 outputs, got %d", len(snap.Outputs))
	}
	if snap.Outputs[0].Name != "a.html" || snap.Outputs[0].Headings != 12 {
		t.Errorf("unexpected first output %+v", snap.Outputs[0])
	}

	// Snapshot must not alias internal state.
	snap.Outputs[0].Headings = 99
	if job.Snapshot().Outputs[0].Headings != 12 {
		t.Error("expected snapshot to be a copy")
	}
}

func TestJob_SnapshotSlicesNotNil(t *testing.T) {
	job := &Job{ID: "snap-test", UpdatedAt: time.Now()}
	snap := job.Snapshot()
	if snap.Errors == nil || snap.Outputs == nil {
		t.Error("expected non-nil slices in snapshot")
	}
}

func TestJobStore_PutGet(t *testing.T) {
	store := NewJobStore(time.Hour)
	job := &Job{ID: "store-1", UpdatedAt: time.Now()}
	store.Put(job)

	got := store.Get("store-1")
	if got == nil {
		t.Fatal("expected to get job back")
	}
	if got.ID != "store-1" {
		t.Errorf("expected ID %q, got %q", "store-1", got.ID)
	}
}

func TestJobStore_GetMissing(t *testing.T) {
	store := NewJobStore(time.Hour)
	if store.Get("nonexistent") != nil {
		t.Error("expected nil for missing job")
	}
}

func TestJobStore_TTLCleanup(t *testing.T) {
	store := NewJobStore(50 * time.Millisecond)

	expired := &Job{ID: "old", Status: StatusCompleted, UpdatedAt: time.Now()}
	running := &Job{ID: "busy", Status: StatusConverting, UpdatedAt: time.Now()}
	store.Put(expired)
	store.Put(running)

	// Wait for the TTL to pass.
	time.Sleep(100 * time.Millisecond)

	fresh := &Job{ID: "new", Status: StatusFailed, UpdatedAt: time.Now()}
	store.Put(fresh)

	store.Cleanup()

	if store.Get("old") != nil {
		t.Error("expected expired job to be cleaned up")
	}
	if store.Get("busy") == nil {
		t.Error("expected running job to survive cleanup")
	}
	if store.Get("new") == nil {
		t.Error("expected fresh job to survive cleanup")
	}
}

func TestJobStore_CleanupEmpty(t *testing.T) {
	store := NewJobStore(time.Hour)
	// Should not panic on empty store.
	store.Cleanup()
}
