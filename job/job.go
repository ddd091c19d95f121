package job

import (
	"time"

	"github.com/teacurran/WireTuner/worker-export/id"
)

// MaxRetries is the retry ceiling: the number of automatic re-enqueues
// before a job is marked permanently failed.
const MaxRetries = 3

// MaxRetriesReason is the terminal error recorded when the ceiling is hit.
const MaxRetriesReason = "max retries exceeded"

// Status represents the lifecycle state of a job.
type Status string

const (
	// StatusQueued means the job is waiting in the queue.
	StatusQueued Status = "queued"
	// StatusProcessing means a worker is currently converting the job.
	StatusProcessing Status = "processing"
	// StatusComplete means the conversion finished successfully.
	StatusComplete Status = "complete"
	// StatusFailed means the conversion failed. Non-terminal until the
	// retry ceiling is reached.
	StatusFailed Status = "failed"
)

// String returns the lowercase wire representation of the status.
func (s Status) String() string { return string(s) }

// Terminal reports whether the status ends an attempt's lifecycle.
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusFailed
}

// Metadata is an open bag of scope and versioning fields attached by the
// producer at creation. The worker never mutates it; it is passed through
// unchanged to observers.
type Metadata struct {
	ArtboardIDs   []string `json:"artboard_ids"`
	ExportScope   string   `json:"export_scope"`
	ClientVersion string   `json:"client_version"`
	UserID        string   `json:"user_id,omitempty"`
}

// Job is one unit of deferred export work: a document's SVG content to be
// converted and written to an output path, plus lifecycle bookkeeping.
type Job struct {
	ID         id.JobID  `json:"job_id"`
	DocumentID string    `json:"document_id"`
	SVGContent string    `json:"svg_content"`
	OutputPath string    `json:"output_path"`
	Metadata   Metadata  `json:"metadata"`
	Status     Status    `json:"status"`
	RetryCount int       `json:"retry_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Error      string    `json:"error,omitempty"`
}

// New creates a queued job with a fresh ID and zero retries.
func New(documentID, svgContent, outputPath string, meta Metadata) *Job {
	now := time.Now().UTC()
	return &Job{
		ID:         id.NewJobID(),
		DocumentID: documentID,
		SVGContent: svgContent,
		OutputPath: outputPath,
		Metadata:   meta,
		Status:     StatusQueued,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// StartProcessing transitions the job to processing. The caller must be
// the single worker that dequeued it.
func (j *Job) StartProcessing() {
	j.Status = StatusProcessing
	j.UpdatedAt = time.Now().UTC()
}

// MarkComplete transitions the job to complete and clears any error.
func (j *Job) MarkComplete() {
	j.Status = StatusComplete
	j.UpdatedAt = time.Now().UTC()
	j.Error = ""
}

// MarkFailed transitions the job to failed with the given reason.
func (j *Job) MarkFailed(reason string) {
	j.Status = StatusFailed
	j.UpdatedAt = time.Now().UTC()
	j.Error = reason
}

// Retry returns the job to queued if the ceiling allows, incrementing the
// retry count. If the ceiling is reached, the job is marked permanently
// failed instead and Retry reports false.
func (j *Job) Retry() bool {
	if j.RetryCount < MaxRetries {
		j.RetryCount++
		j.Status = StatusQueued
		j.UpdatedAt = time.Now().UTC()
		return true
	}

	j.MarkFailed(MaxRetriesReason)
	return false
}

// ProcessingDuration returns the elapsed time from creation to the last
// transition. It is only defined for terminal statuses; ok is false
// while the job is queued or processing.
func (j *Job) ProcessingDuration() (d time.Duration, ok bool) {
	if !j.Status.Terminal() {
		return 0, false
	}
	return j.UpdatedAt.Sub(j.CreatedAt), true
}
