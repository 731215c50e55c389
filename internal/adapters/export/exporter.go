// Package export runs asynchronous application snapshot exports: a worker
// composes the full view tree of an application and stores it as a JSON
// artifact, with an audit trail of every request.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"appstudio/internal/core"
	"appstudio/internal/infra/artifact"
	artifactfs "appstudio/internal/infra/artifact/fs"
	artifactmem "appstudio/internal/infra/artifact/memory"
	artifacts3 "appstudio/internal/infra/artifact/s3"
)

// Status describes the lifecycle stage of an export request.
type Status string

// Export lifecycle states.
const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Input is an enqueue request.
type Input struct {
	ApplicationID string
	RequestedBy   string
	Reason        string
}

// Record tracks one export request and its resulting artifact.
type Record struct {
	ID            string         `json:"id"`
	ApplicationID string         `json:"application_id"`
	Status        Status         `json:"status"`
	Error         string         `json:"error,omitempty"`
	Artifact      *artifact.Info `json:"artifact,omitempty"`
	RequestedBy   string         `json:"requested_by,omitempty"`
	Reason        string         `json:"reason,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	CompletedAt   *time.Time     `json:"completed_at,omitempty"`
}

func (r *Record) copy() Record {
	out := *r
	if r.Artifact != nil {
		a := *r.Artifact
		out.Artifact = &a
	}
	if r.CompletedAt != nil {
		ts := *r.CompletedAt
		out.CompletedAt = &ts
	}
	return out
}

// Composer produces the composed view of an application.
type Composer interface {
	ComposeApplication(ctx context.Context, applicationID string) (*core.ApplicationView, bool, error)
}

// ServiceComposer adapts a studio service to the Composer interface.
type ServiceComposer struct {
	Service *core.Service
}

// ComposeApplication composes from the service's fully hydrated store.
func (c ServiceComposer) ComposeApplication(ctx context.Context, applicationID string) (*core.ApplicationView, bool, error) {
	var view *core.ApplicationView
	var ok bool
	err := c.Service.View(ctx, func(tv core.TransactionView) error {
		view, ok = core.ComposeApplication(tv, core.AllLoaded(), applicationID)
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return view, ok, nil
}

// AuditEntry captures the trail of one export state change.
type AuditEntry struct {
	ID            string    `json:"id"`
	ExportID      string    `json:"export_id"`
	ApplicationID string    `json:"application_id"`
	Status        Status    `json:"status"`
	Actor         string    `json:"actor,omitempty"`
	Reason        string    `json:"reason,omitempty"`
	Detail        string    `json:"detail,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// AuditLogger records export audit entries.
type AuditLogger interface {
	Record(ctx context.Context, entry AuditEntry)
}

// LoggerAudit writes audit entries through a structured logger.
type LoggerAudit struct {
	Logger core.Logger
}

// Record implements AuditLogger.
func (l LoggerAudit) Record(_ context.Context, entry AuditEntry) {
	if l.Logger == nil {
		return
	}
	l.Logger.Info("application export",
		"export_id", entry.ExportID,
		"application_id", entry.ApplicationID,
		"status", string(entry.Status),
		"actor", entry.Actor,
		"detail", entry.Detail,
	)
}

// Worker executes application exports asynchronously. Jobs are processed one
// at a time off a bounded queue; enqueueing fails when the queue is full
// rather than blocking the caller.
type Worker struct {
	composer Composer
	store    artifact.Store
	audit    AuditLogger

	queue chan string
	mu    sync.RWMutex
	jobs  map[string]*Record

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

const queueCapacity = 32

// NewWorker constructs an export worker. The audit logger may be nil.
func NewWorker(composer Composer, store artifact.Store, audit AuditLogger) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		composer: composer,
		store:    store,
		audit:    audit,
		queue:    make(chan string, queueCapacity),
		jobs:     make(map[string]*Record),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins processing queued exports.
func (w *Worker) Start() {
	w.wg.Add(1)
	go w.loop()
}

// Stop halts processing and waits for the in-flight job, bounded by ctx.
func (w *Worker) Stop(ctx context.Context) error {
	w.cancel()
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case id := <-w.queue:
			w.process(id)
		}
	}
}

// Enqueue schedules an export and returns the queued record snapshot.
func (w *Worker) Enqueue(ctx context.Context, input Input) (Record, error) {
	if w.composer == nil || w.store == nil {
		return Record{}, fmt.Errorf("export worker not configured")
	}
	if input.ApplicationID == "" {
		return Record{}, fmt.Errorf("application id required")
	}

	now := time.Now().UTC()
	record := Record{
		ID:            uuid.NewString(),
		ApplicationID: input.ApplicationID,
		Status:        StatusQueued,
		RequestedBy:   input.RequestedBy,
		Reason:        input.Reason,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	w.mu.Lock()
	w.jobs[record.ID] = &record
	snapshot := record.copy()
	w.mu.Unlock()

	w.recordAudit(ctx, snapshot, "")

	select {
	case w.queue <- record.ID:
	default:
		w.fail(record.ID, "export queue full")
		return Record{}, fmt.Errorf("export queue full")
	}
	return snapshot, nil
}

// Get returns a snapshot of the export record.
func (w *Worker) Get(id string) (Record, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	record, ok := w.jobs[id]
	if !ok {
		return Record{}, false
	}
	return record.copy(), true
}

func (w *Worker) process(id string) {
	record, ok := w.Get(id)
	if !ok {
		return
	}
	w.setStatus(id, StatusRunning, "")

	view, found, err := w.composer.ComposeApplication(w.ctx, record.ApplicationID)
	if err != nil {
		w.fail(id, fmt.Sprintf("compose failed: %v", err))
		return
	}
	if !found {
		w.fail(id, fmt.Sprintf("application %s not found", record.ApplicationID))
		return
	}

	payload, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		w.fail(id, fmt.Sprintf("encode failed: %v", err))
		return
	}

	key := "exports/" + record.ApplicationID + ".json"
	info, err := w.store.Put(w.ctx, key, bytes.NewReader(payload), artifact.PutOptions{
		ContentType: "application/json",
		Metadata: map[string]string{
			"application_id": record.ApplicationID,
			"export_id":      id,
		},
	})
	if err != nil {
		w.fail(id, fmt.Sprintf("store artifact failed: %v", err))
		return
	}

	now := time.Now().UTC()
	w.mu.Lock()
	if job, ok := w.jobs[id]; ok {
		job.Status = StatusSucceeded
		job.Artifact = &info
		job.UpdatedAt = now
		job.CompletedAt = &now
	}
	snapshot, _ := w.snapshotLocked(id)
	w.mu.Unlock()
	w.recordAudit(w.ctx, snapshot, "")
}

func (w *Worker) fail(id, detail string) {
	now := time.Now().UTC()
	w.mu.Lock()
	if job, ok := w.jobs[id]; ok {
		job.Status = StatusFailed
		job.Error = detail
		job.UpdatedAt = now
		job.CompletedAt = &now
	}
	snapshot, ok := w.snapshotLocked(id)
	w.mu.Unlock()
	if ok {
		w.recordAudit(w.ctx, snapshot, detail)
	}
}

func (w *Worker) setStatus(id string, status Status, detail string) {
	w.mu.Lock()
	if job, ok := w.jobs[id]; ok {
		job.Status = status
		job.Error = detail
		job.UpdatedAt = time.Now().UTC()
	}
	w.mu.Unlock()
}

func (w *Worker) snapshotLocked(id string) (Record, bool) {
	record, ok := w.jobs[id]
	if !ok {
		return Record{}, false
	}
	return record.copy(), true
}

func (w *Worker) recordAudit(ctx context.Context, record Record, detail string) {
	if w.audit == nil {
		return
	}
	w.audit.Record(ctx, AuditEntry{
		ID:            uuid.NewString(),
		ExportID:      record.ID,
		ApplicationID: record.ApplicationID,
		Status:        record.Status,
		Actor:         record.RequestedBy,
		Reason:        record.Reason,
		Detail:        detail,
		OccurredAt:    time.Now().UTC(),
	})
}

// OpenArtifactStore selects an artifact backend from the environment:
//
//	APPSTUDIO_ARTIFACT_DRIVER: fs|s3|memory (default fs)
//	APPSTUDIO_ARTIFACT_FS_ROOT: directory when driver=fs (default ./artifacts)
//	(S3 variables documented in the s3 backend)
func OpenArtifactStore(ctx context.Context) (artifact.Store, error) {
	driver := os.Getenv("APPSTUDIO_ARTIFACT_DRIVER")
	if driver == "" {
		driver = string(artifact.DriverFilesystem)
	}
	switch artifact.Driver(driver) {
	case artifact.DriverFilesystem:
		return artifactfs.New(os.Getenv("APPSTUDIO_ARTIFACT_FS_ROOT"))
	case artifact.DriverS3:
		return artifacts3.OpenFromEnv(ctx)
	case artifact.DriverMemory:
		return artifactmem.New(), nil
	default:
		return nil, fmt.Errorf("unknown artifact driver %s", driver)
	}
}
