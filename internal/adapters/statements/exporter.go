// Package statements renders per-person settlement statements for a session
// and archives them in blob storage. Exports run asynchronously: callers
// enqueue a request, poll the returned record, and fetch artifacts through
// the blob layer once the job succeeds.
package statements

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	blobcore "splitcore/internal/blob/core"
	"splitcore/internal/core"
)

// Format selects a statement rendering.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// Status describes the lifecycle stage of an export request.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Artifact captures one stored statement rendering.
type Artifact struct {
	Key         string    `json:"key"`
	Format      Format    `json:"format"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	URL         string    `json:"url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Record tracks an export request and its resulting artifacts.
type Record struct {
	ID          string     `json:"id"`
	SessionID   int64      `json:"session_id"`
	Formats     []Format   `json:"formats"`
	Status      Status     `json:"status"`
	Error       string     `json:"error,omitempty"`
	Artifacts   []Artifact `json:"artifacts,omitempty"`
	RequestedBy string     `json:"requested_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Input represents an enqueue request for the worker.
type Input struct {
	SessionID   int64
	Formats     []Format
	RequestedBy string
}

// Scheduler queues statement export requests and exposes status.
type Scheduler interface {
	Enqueue(ctx context.Context, input Input) (Record, error)
	Get(id string) (Record, bool)
}

// ContextSource supplies the session tree a statement is rendered from.
type ContextSource interface {
	SessionContext(ctx context.Context, sessionID int64) (core.SessionContext, error)
}

// AuditLogger records export audit entries.
type AuditLogger interface {
	Record(ctx context.Context, entry AuditEntry)
}

// AuditEntry captures audit trail metadata for statement exports.
type AuditEntry struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	Actor      string    `json:"actor,omitempty"`
	SessionID  int64     `json:"session_id"`
	Status     Status    `json:"status"`
	Note       string    `json:"note,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Worker renders statement exports asynchronously.
type Worker struct {
	source ContextSource
	store  blobcore.Store
	audit  AuditLogger

	queue chan task
	mu    sync.RWMutex
	jobs  map[string]*Record

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type task struct {
	id    string
	input Input
}

// NewWorker constructs a statement export worker. audit may be nil.
func NewWorker(source ContextSource, store blobcore.Store, audit AuditLogger) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		source: source,
		store:  store,
		audit:  audit,
		queue:  make(chan task, 32),
		jobs:   make(map[string]*Record),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins processing export requests.
func (w *Worker) Start() {
	w.wg.Add(1)
	go w.loop()
}

// Stop signals the worker to halt and waits for completion.
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
		case t := <-w.queue:
			w.process(t)
		}
	}
}

// Enqueue schedules an export job and returns the queued record.
func (w *Worker) Enqueue(ctx context.Context, input Input) (Record, error) {
	if w.source == nil {
		return Record{}, fmt.Errorf("context source not configured")
	}
	if input.SessionID < 1 {
		return Record{}, fmt.Errorf("session id required")
	}

	formats := input.Formats
	if len(formats) == 0 {
		formats = []Format{FormatJSON, FormatCSV}
	}
	uniq := make([]Format, 0, len(formats))
	seen := make(map[Format]struct{})
	for _, format := range formats {
		if _, dup := seen[format]; dup {
			continue
		}
		if format != FormatJSON && format != FormatCSV {
			return Record{}, fmt.Errorf("unsupported statement format %s", format)
		}
		uniq = append(uniq, format)
		seen[format] = struct{}{}
	}

	id := newID()
	now := time.Now().UTC()
	record := Record{
		ID:          id,
		SessionID:   input.SessionID,
		Formats:     uniq,
		Status:      StatusQueued,
		RequestedBy: input.RequestedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	w.mu.Lock()
	w.jobs[id] = &record
	queued := record.copy()
	w.mu.Unlock()

	w.recordAudit(ctx, AuditEntry{
		Action:    "statement_export",
		Actor:     input.RequestedBy,
		SessionID: input.SessionID,
		Status:    StatusQueued,
	})

	select {
	case w.queue <- task{id: id, input: input}:
	default:
		return Record{}, fmt.Errorf("export queue full")
	}
	return queued, nil
}

func (w *Worker) recordAudit(ctx context.Context, entry AuditEntry) {
	if w.audit == nil {
		return
	}
	entry.ID = newID()
	entry.OccurredAt = time.Now().UTC()
	w.audit.Record(ctx, entry)
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

func (w *Worker) process(t task) {
	record, ok := w.Get(t.id)
	if !ok {
		return
	}
	w.updateStatus(t.id, StatusRunning, "")

	sc, err := w.source.SessionContext(w.ctx, t.input.SessionID)
	if err != nil {
		w.fail(t.id, fmt.Sprintf("load session context: %v", err))
		return
	}
	if len(sc.People) == 0 && sc.Title == "" {
		w.fail(t.id, fmt.Sprintf("session %d not found", t.input.SessionID))
		return
	}

	artifacts := make([]Artifact, 0, len(record.Formats))
	for _, format := range record.Formats {
		payload, contentType, err := render(format, sc)
		if err != nil {
			w.fail(t.id, err.Error())
			return
		}
		artifact := Artifact{
			Key:         fmt.Sprintf("statements/%d/%s.%s", sc.SessionID, t.id, format),
			Format:      format,
			ContentType: contentType,
			SizeBytes:   int64(len(payload)),
			CreatedAt:   time.Now().UTC(),
		}
		if w.store != nil {
			info, err := w.store.Put(w.ctx, artifact.Key, bytes.NewReader(payload), blobcore.PutOptions{
				ContentType: contentType,
				Metadata:    map[string]string{"session_id": strconv.FormatInt(sc.SessionID, 10)},
			})
			if err != nil {
				w.fail(t.id, fmt.Sprintf("store artifact: %v", err))
				return
			}
			if url, err := w.store.PresignURL(w.ctx, info.Key, blobcore.SignedURLOptions{Method: "GET"}); err == nil {
				artifact.URL = url
			}
		}
		artifacts = append(artifacts, artifact)
	}
	w.complete(t.id, artifacts)
}

// render produces the statement payload for one format.
func render(format Format, sc core.SessionContext) ([]byte, string, error) {
	switch format {
	case FormatJSON:
		payload, err := json.MarshalIndent(sc, "", "  ")
		if err != nil {
			return nil, "", fmt.Errorf("marshal statement: %w", err)
		}
		return payload, "application/json", nil
	case FormatCSV:
		buf := &bytes.Buffer{}
		writer := csv.NewWriter(buf)
		if err := writer.Write([]string{"person", "item", "price", "quantity", "total", "amount", "taxed_amount"}); err != nil {
			return nil, "", err
		}
		for _, person := range sc.People {
			if len(person.Items) == 0 {
				if err := writer.Write([]string{person.Name, "", "", "", "", money(person.Amount), money(person.TaxedAmount)}); err != nil {
					return nil, "", err
				}
				continue
			}
			for i, item := range person.Items {
				row := []string{person.Name, item.Name, money(item.Price), strconv.Itoa(item.Quantity), money(item.Total), "", ""}
				if i == 0 {
					row[5] = money(person.Amount)
					row[6] = money(person.TaxedAmount)
				}
				if err := writer.Write(row); err != nil {
					return nil, "", err
				}
			}
		}
		if err := writer.Write([]string{"TOTAL", "", "", "", "", money(sc.Subtotal), money(sc.Total)}); err != nil {
			return nil, "", err
		}
		writer.Flush()
		if err := writer.Error(); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "text/csv", nil
	default:
		return nil, "", fmt.Errorf("unsupported statement format %s", format)
	}
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func (w *Worker) updateStatus(id string, status Status, message string) {
	now := time.Now().UTC()
	w.mu.Lock()
	if record, ok := w.jobs[id]; ok {
		record.Status = status
		record.Error = message
		record.UpdatedAt = now
	}
	w.mu.Unlock()
}

func (w *Worker) complete(id string, artifacts []Artifact) {
	now := time.Now().UTC()
	var sessionID int64
	var actor string
	w.mu.Lock()
	if record, ok := w.jobs[id]; ok {
		record.Status = StatusSucceeded
		record.Error = ""
		record.Artifacts = artifacts
		record.UpdatedAt = now
		record.CompletedAt = &now
		sessionID = record.SessionID
		actor = record.RequestedBy
	}
	w.mu.Unlock()
	w.recordAudit(w.ctx, AuditEntry{
		Action:    "statement_export",
		Actor:     actor,
		SessionID: sessionID,
		Status:    StatusSucceeded,
	})
}

func (w *Worker) fail(id, reason string) {
	now := time.Now().UTC()
	var sessionID int64
	var actor string
	w.mu.Lock()
	if record, ok := w.jobs[id]; ok {
		record.Status = StatusFailed
		record.Error = reason
		record.UpdatedAt = now
		record.CompletedAt = &now
		sessionID = record.SessionID
		actor = record.RequestedBy
	}
	w.mu.Unlock()
	w.recordAudit(w.ctx, AuditEntry{
		Action:    "statement_export",
		Actor:     actor,
		SessionID: sessionID,
		Status:    StatusFailed,
		Note:      reason,
	})
}

func (r Record) copy() Record {
	dup := r
	dup.Formats = append([]Format(nil), r.Formats...)
	if len(r.Artifacts) > 0 {
		dup.Artifacts = append([]Artifact(nil), r.Artifacts...)
	}
	return dup
}

func newID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return fmt.Sprintf("%x", b[:])
}

// MemoryAuditLog captures audit entries in memory for assertions.
type MemoryAuditLog struct {
	mu      sync.Mutex
	entries []AuditEntry
}

// Record stores an audit entry.
func (l *MemoryAuditLog) Record(_ context.Context, entry AuditEntry) {
	l.mu.Lock()
	l.entries = append(l.entries, entry)
	l.mu.Unlock()
}

// Entries returns a copy of recorded audit entries.
func (l *MemoryAuditLog) Entries() []AuditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]AuditEntry, len(l.entries))
	copy(out, l.entries)
	return out
}
