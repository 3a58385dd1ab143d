package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/staykit/subscout/models"
	"github.com/staykit/subscout/pipeline"
	"github.com/staykit/subscout/webhook"
)

const maxBatchURLs = 200

// jobEntry guards one job's state. The background run goroutine mutates the
// job while handlers marshal it, so every access goes through the entry lock.
type jobEntry struct {
	mu  sync.Mutex
	job models.BatchJob
}

// JobStore holds in-flight and completed batch jobs in memory. Jobs expire
// one hour after creation so an unattended server does not accumulate
// finished batches forever.
type JobStore struct {
	jobs sync.Map // job ID -> *jobEntry
}

func NewJobStore() *JobStore {
	s := &JobStore{}
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			cutoff := time.Now().Add(-1 * time.Hour).Unix()
			s.jobs.Range(func(key, value any) bool {
				e := value.(*jobEntry)
				e.mu.Lock()
				expired := e.job.CreatedAt < cutoff
				e.mu.Unlock()
				if expired {
					s.jobs.Delete(key)
				}
				return true
			})
		}
	}()
	return s
}

func (s *JobStore) Put(job models.BatchJob) {
	s.jobs.Store(job.ID, &jobEntry{job: job})
}

// Get returns a snapshot of the job, safe to marshal while the run
// goroutine keeps writing. Records and Summary are only ever assigned once,
// on completion, and never mutated afterwards, so sharing them is safe.
func (s *JobStore) Get(id string) (models.BatchJob, bool) {
	v, ok := s.jobs.Load(id)
	if !ok {
		return models.BatchJob{}, false
	}
	e := v.(*jobEntry)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.job, true
}

// Update applies fn to the job under its lock. Unknown IDs are a no-op.
func (s *JobStore) Update(id string, fn func(*models.BatchJob)) {
	v, ok := s.jobs.Load(id)
	if !ok {
		return
	}
	e := v.(*jobEntry)
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(&e.job)
}

// Batch wires the pipeline and job store behind the batch endpoints.
type Batch struct {
	pipe     *pipeline.Pipeline
	store    *JobStore
	notifier *webhook.Notifier
}

func NewBatch(pipe *pipeline.Pipeline, store *JobStore, notifier *webhook.Notifier) *Batch {
	return &Batch{pipe: pipe, store: store, notifier: notifier}
}

// Post returns a handler for POST /api/v1/batch.
// It validates the request, registers a job, and runs the pipeline in the
// background; the response carries the job ID for polling.
func (b *Batch) Post() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.BatchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}

		if len(req.URLs) > maxBatchURLs {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: "maximum 200 URLs per batch",
				},
			})
			return
		}

		jobID := "batch-" + randomID()
		b.store.Put(models.BatchJob{
			ID:        jobID,
			Status:    "processing",
			Total:     len(req.URLs),
			CreatedAt: time.Now().Unix(),
		})

		go b.run(jobID, req)

		c.JSON(http.StatusAccepted, models.BatchResponse{
			ID:     jobID,
			Status: "processing",
			Total:  len(req.URLs),
		})
	}
}

// Get returns a handler for GET /api/v1/batch/:id.
func (b *Batch) Get() gin.HandlerFunc {
	return func(c *gin.Context) {
		job, ok := b.store.Get(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{
				"error": models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: "batch job not found",
				},
			})
			return
		}
		c.JSON(http.StatusOK, job)
	}
}

// run executes the batch and publishes its completion.
func (b *Batch) run(jobID string, req models.BatchRequest) {
	records, summary := b.pipe.Run(context.Background(), req.URLs, req.Concurrency,
		func(done, total int) {
			b.store.Update(jobID, func(j *models.BatchJob) { j.Completed = done })
		})

	b.store.Update(jobID, func(j *models.BatchJob) {
		j.Records = records
		j.Summary = &summary
		j.Completed = summary.Total
		j.Status = "completed"
	})

	slog.Info("batch job finished",
		"id", jobID,
		"succeeded", summary.Succeeded,
		"partial", summary.Partial,
		"failed", summary.Failed,
		"customers", summary.Customers,
		"total", summary.Total,
	)

	b.notifier.DeliverAsync(&webhook.Event{
		Type:      webhook.EventBatchCompleted,
		JobID:     jobID,
		Timestamp: time.Now().Unix(),
		Data:      summary,
	})
}

// randomID generates a short random hex string for job IDs.
func randomID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
