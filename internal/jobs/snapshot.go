package jobs

import (
	"context"
	"sync"
	"time"

	"ecopoweratlas/internal/apperrors"
	"ecopoweratlas/internal/models"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// Job states as reported by the poll endpoint.
const (
	StatePending   = "pending"
	StateCompleted = "completed"
	StateFailed    = "failed"
)

// SnapshotRequest asks for a point-in-time metric summary, optionally
// scoped to one country.
type SnapshotRequest struct {
	CountryISO3 string `json:"country_iso3"`
}

// SnapshotResult is the computed payload for a finished job.
type SnapshotResult struct {
	TaskID        string              `json:"task_id"`
	CountryISO3   string              `json:"country_iso3"`
	TotalMetrics  int                 `json:"total_metrics"`
	ResourceTypes []ResourceTypeCount `json:"resource_types"`
	GeneratedAt   time.Time           `json:"generated_at"`
}

type ResourceTypeCount struct {
	ResourceType string `json:"resource_type"`
	Count        int64  `json:"count"`
}

// JobStatus is what a poll returns.
type JobStatus struct {
	TaskID string          `json:"task_id"`
	State  string          `json:"state"`
	Result *SnapshotResult `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// Queue accepts snapshot work and answers status polls.
type Queue interface {
	Enqueue(req SnapshotRequest) (string, error)
	Status(taskID string) (*JobStatus, error)
}

type job struct {
	id  string
	req SnapshotRequest
}

// Dispatcher runs snapshot jobs on a single worker goroutine and keeps
// results in memory. It stands in for an external task broker.
type Dispatcher struct {
	db   *bun.DB
	logr *zap.Logger

	queue chan job
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
	jobs   map[string]*JobStatus
}

func NewDispatcher(db *bun.DB, queueSize int, logr *zap.Logger) *Dispatcher {
	if queueSize < 1 {
		queueSize = 1
	}
	return &Dispatcher{
		db:    db,
		logr:  logr,
		queue: make(chan job, queueSize),
		done:  make(chan struct{}),
		jobs:  make(map[string]*JobStatus),
	}
}

// Start launches the worker goroutine. Stop waits for it to drain.
func (d *Dispatcher) Start(ctx context.Context) {
	go func() {
		defer close(d.done)
		for {
			select {
			case <-ctx.Done():
				return
			case j, ok := <-d.queue:
				if !ok {
					return
				}
				d.run(ctx, j)
			}
		}
	}()
}

func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.mu.Unlock()

	close(d.queue)
	<-d.done
}

func (d *Dispatcher) Enqueue(req SnapshotRequest) (string, error) {
	id := uuid.New().String()

	// the send happens under the same lock Stop uses to mark the queue
	// closed, so Enqueue never races the channel close
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return "", apperrors.Conflict("snapshot queue is stopped")
	}

	select {
	case d.queue <- job{id: id, req: req}:
		d.jobs[id] = &JobStatus{TaskID: id, State: StatePending}
		return id, nil
	default:
		return "", apperrors.Conflict("snapshot queue is full")
	}
}

func (d *Dispatcher) Status(taskID string) (*JobStatus, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	status, ok := d.jobs[taskID]
	if !ok {
		return nil, apperrors.NotFound("snapshot task %s not found", taskID)
	}
	copied := *status
	return &copied, nil
}

func (d *Dispatcher) run(ctx context.Context, j job) {
	result, err := d.compute(ctx, j.id, j.req)

	d.mu.Lock()
	defer d.mu.Unlock()
	status := d.jobs[j.id]
	if status == nil {
		return
	}
	if err != nil {
		d.logr.Error("snapshot job failed", zap.String("task_id", j.id), zap.Error(err))
		status.State = StateFailed
		status.Error = err.Error()
		return
	}
	status.State = StateCompleted
	status.Result = result
}

func (d *Dispatcher) compute(ctx context.Context, taskID string, req SnapshotRequest) (*SnapshotResult, error) {
	base := d.db.NewSelect().Model((*models.ResourceMetric)(nil))
	if req.CountryISO3 != "" {
		base = base.
			Join("JOIN countries AS cty ON cty.id = rm.country_id").
			Where("UPPER(cty.iso3) = UPPER(?)", req.CountryISO3)
	}

	total, err := base.Count(ctx)
	if err != nil {
		return nil, err
	}

	byType := d.db.NewSelect().
		Model((*models.ResourceMetric)(nil)).
		ColumnExpr("rm.resource_type").
		ColumnExpr("COUNT(*) AS count").
		GroupExpr("rm.resource_type").
		OrderExpr("rm.resource_type ASC")
	if req.CountryISO3 != "" {
		byType = byType.
			Join("JOIN countries AS cty ON cty.id = rm.country_id").
			Where("UPPER(cty.iso3) = UPPER(?)", req.CountryISO3)
	}

	types := []ResourceTypeCount{}
	if err := byType.Scan(ctx, &types); err != nil {
		return nil, err
	}

	return &SnapshotResult{
		TaskID:        taskID,
		CountryISO3:   req.CountryISO3,
		TotalMetrics:  total,
		ResourceTypes: types,
		GeneratedAt:   time.Now().UTC(),
	}, nil
}
