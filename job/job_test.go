package job_test

import (
	"testing"
	"time"

	"github.com/teacurran/WireTuner/worker-export/job"
)

func newTestJob() *job.Job {
	return job.New("doc-123", "<svg></svg>", "/tmp/out.pdf", job.Metadata{
		ArtboardIDs:   []string{"ab-1"},
		ExportScope:   "current",
		ClientVersion: "0.1.0",
	})
}

func TestNew_Defaults(t *testing.T) {
	j := newTestJob()

	if j.ID.IsNil() {
		t.Error("new job has nil ID")
	}
	if j.Status != job.StatusQueued {
		t.Errorf("status = %q, want %q", j.Status, job.StatusQueued)
	}
	if j.RetryCount != 0 {
		t.Errorf("retry count = %d, want 0", j.RetryCount)
	}
	if j.Error != "" {
		t.Errorf("error = %q, want empty", j.Error)
	}
	if j.UpdatedAt.Before(j.CreatedAt) {
		t.Error("updated_at before created_at")
	}
}

func TestStartProcessing(t *testing.T) {
	j := newTestJob()
	created := j.CreatedAt

	j.StartProcessing()

	if j.Status != job.StatusProcessing {
		t.Errorf("status = %q, want %q", j.Status, job.StatusProcessing)
	}
	if j.UpdatedAt.Before(created) {
		t.Error("updated_at not advanced")
	}
}

func TestMarkComplete_ClearsError(t *testing.T) {
	j := newTestJob()
	j.MarkFailed("svg parse error")

	j.MarkComplete()

	if j.Status != job.StatusComplete {
		t.Errorf("status = %q, want %q", j.Status, job.StatusComplete)
	}
	if j.Error != "" {
		t.Errorf("error = %q, want cleared", j.Error)
	}
}

func TestMarkFailed(t *testing.T) {
	j := newTestJob()

	j.MarkFailed("invalid dimensions")

	if j.Status != job.StatusFailed {
		t.Errorf("status = %q, want %q", j.Status, job.StatusFailed)
	}
	if j.Error != "invalid dimensions" {
		t.Errorf("error = %q, want %q", j.Error, "invalid dimensions")
	}
}

func TestRetry_Ceiling(t *testing.T) {
	j := newTestJob()

	// First three retries are accepted and return the job to queued.
	for want := 1; want <= job.MaxRetries; want++ {
		j.MarkFailed("transient")
		if !j.Retry() {
			t.Fatalf("retry %d refused, want accepted", want)
		}
		if j.RetryCount != want {
			t.Errorf("retry count = %d, want %d", j.RetryCount, want)
		}
		if j.Status != job.StatusQueued {
			t.Errorf("status after retry %d = %q, want %q", want, j.Status, job.StatusQueued)
		}
	}

	// The fourth is refused and the job is terminally failed.
	j.MarkFailed("transient")
	if j.Retry() {
		t.Fatal("retry beyond ceiling accepted, want refused")
	}
	if j.RetryCount != job.MaxRetries {
		t.Errorf("retry count = %d, want unchanged at %d", j.RetryCount, job.MaxRetries)
	}
	if j.Status != job.StatusFailed {
		t.Errorf("status = %q, want %q", j.Status, job.StatusFailed)
	}
	if j.Error != job.MaxRetriesReason {
		t.Errorf("error = %q, want %q", j.Error, job.MaxRetriesReason)
	}
}

func TestProcessingDuration(t *testing.T) {
	j := newTestJob()

	if _, ok := j.ProcessingDuration(); ok {
		t.Error("duration defined for queued job")
	}

	j.StartProcessing()
	if _, ok := j.ProcessingDuration(); ok {
		t.Error("duration defined for processing job")
	}

	time.Sleep(time.Millisecond)
	j.MarkComplete()
	d, ok := j.ProcessingDuration()
	if !ok {
		t.Fatal("duration undefined for complete job")
	}
	if d < 0 {
		t.Errorf("duration = %v, want >= 0", d)
	}

	j2 := newTestJob()
	j2.MarkFailed("boom")
	if _, ok := j2.ProcessingDuration(); !ok {
		t.Error("duration undefined for failed job")
	}
}

func TestStatus_Terminal(t *testing.T) {
	cases := []struct {
		status job.Status
		want   bool
	}{
		{job.StatusQueued, false},
		{job.StatusProcessing, false},
		{job.StatusComplete, true},
		{job.StatusFailed, true},
	}
	for _, tc := range cases {
		if got := tc.status.Terminal(); got != tc.want {
			t.Errorf("%s.Terminal() = %v, want %v", tc.status, got, tc.want)
		}
	}
}
