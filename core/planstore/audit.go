package planstore

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Audit actions.
const (
	ActionProposed  = "proposed"
	ActionApproved  = "approved"
	ActionRejected  = "rejected"
	ActionDispatch  = "signal_dispatched"
	ActionResponse  = "signal_response"
	ActionCompleted = "completed"
)

// AuditRecord captures one lifecycle action.
type AuditRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	PlanID    string    `json:"plan_id"`
	SignalID  string    `json:"signal_id,omitempty"`
	Actor     string    `json:"actor,omitempty"`
	Status    string    `json:"status,omitempty"`
	Detail    string    `json:"detail,omitempty"`
}

// AuditQuery filters audit records. Zero fields match everything.
type AuditQuery struct {
	Start  time.Time
	End    time.Time
	PlanID string
	Action string
}

func (q AuditQuery) match(r AuditRecord) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.PlanID != "" && r.PlanID != q.PlanID {
		return false
	}
	return q.Action == "" || r.Action == q.Action
}

// AuditLog appends lifecycle records and supports querying them.
type AuditLog interface {
	Append(ctx context.Context, rec AuditRecord) error
	Query(ctx context.Context, q AuditQuery) ([]AuditRecord, error)
	Close() error
}

// NopAudit drops every record.
type NopAudit struct{}

func (NopAudit) Append(context.Context, AuditRecord) error                { return nil }
func (NopAudit) Query(context.Context, AuditQuery) ([]AuditRecord, error) { return nil, nil }
func (NopAudit) Close() error                                             { return nil }

// RotatingAuditLog stores records in a JSONL file with automatic rotation.
type RotatingAuditLog struct {
	mu     sync.Mutex
	logger *lumberjack.Logger
	path   string
}

// NewRotatingAuditLog creates the log with rotation options in megabytes and
// days.
func NewRotatingAuditLog(path string, maxSizeMB, maxBackups, maxAgeDays int) (*RotatingAuditLog, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	lj := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
	}
	return &RotatingAuditLog{logger: lj, path: path}, nil
}

// Append writes the record and triggers rotation if needed.
func (a *RotatingAuditLog) Append(_ context.Context, rec AuditRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return json.NewEncoder(a.logger).Encode(rec)
}

// Query reads the current and rotated files and returns matching records
// in timestamp order.
func (a *RotatingAuditLog) Query(_ context.Context, q AuditQuery) ([]AuditRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	ext := filepath.Ext(a.path)
	base := a.path[:len(a.path)-len(ext)]
	files, err := filepath.Glob(base + "*" + ext)
	if err != nil {
		return nil, err
	}
	var res []AuditRecord
	for _, f := range files {
		file, err := os.Open(f)
		if err != nil {
			continue
		}
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			var r AuditRecord
			if err := json.Unmarshal(scanner.Bytes(), &r); err != nil {
				continue
			}
			if q.match(r) {
				res = append(res, r)
			}
		}
		_ = file.Close()
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].Timestamp.Before(res[j].Timestamp) })
	return res, nil
}

// Close closes the underlying writer.
func (a *RotatingAuditLog) Close() error {
	return a.logger.Close()
}
