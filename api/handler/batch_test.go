package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/staykit/subscout/config"
	"github.com/staykit/subscout/fetcher"
	"github.com/staykit/subscout/models"
	"github.com/staykit/subscout/pipeline"
	"github.com/staykit/subscout/webhook"
)

const tenantPage = `<html><head><title>Seaside Stays</title></head><body>
<a href="mailto:book@seasidestays.example">book@seasidestays.example</a>
<form><input type="email" name="email"></form>
</body></html>`

// testBatch builds a Batch over a stub fetch that succeeds after delay.
func testBatch(t *testing.T, delay time.Duration) *Batch {
	t.Helper()
	fetch := func(ctx context.Context, targetURL string, seq int) *fetcher.Result {
		time.Sleep(delay)
		return &fetcher.Result{
			URL:        targetURL,
			Outcome:    fetcher.OutcomeSuccess,
			StatusCode: http.StatusOK,
			HTML:       tenantPage,
			Method:     "http",
			Attempts:   1,
		}
	}
	pipe := pipeline.New(fetch, config.PipelineConfig{
		Concurrency: 3,
		UnitTimeout: 5 * time.Second,
	})
	return NewBatch(pipe, NewJobStore(), webhook.NewNotifier(config.WebhookConfig{}))
}

func testRouter(b *Batch) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/v1/batch", b.Post())
	r.GET("/api/v1/batch/:id", b.Get())
	return r
}

func postBatch(t *testing.T, r *gin.Engine, urls []string) models.BatchResponse {
	t.Helper()
	body, _ := json.Marshal(models.BatchRequest{URLs: urls})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/batch", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusAccepted {
		t.Fatalf("POST /batch = %d, want %d: %s", w.Code, http.StatusAccepted, w.Body.String())
	}
	var resp models.BatchResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode batch response: %v", err)
	}
	return resp
}

func getJob(t *testing.T, r *gin.Engine, id string) models.BatchJob {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/batch/"+id, nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /batch/%s = %d: %s", id, w.Code, w.Body.String())
	}
	var job models.BatchJob
	if err := json.Unmarshal(w.Body.Bytes(), &job); err != nil {
		t.Fatalf("decode job: %v", err)
	}
	return job
}

// Polling a job while its run goroutine is still updating progress must be
// safe: Get hands out a locked snapshot, never the live job the run mutates.
func TestBatch_PollDuringRunIsSafe(t *testing.T) {
	b := testBatch(t, 10*time.Millisecond)
	r := testRouter(b)

	urls := make([]string, 6)
	for i := range urls {
		urls[i] = fmt.Sprintf("https://tenant%d.lodgify.com", i)
	}
	resp := postBatch(t, r, urls)

	deadline := time.Now().Add(5 * time.Second)
	for {
		job := getJob(t, r, resp.ID)
		if job.Completed < 0 || job.Completed > job.Total {
			t.Fatalf("Completed = %d out of range [0, %d]", job.Completed, job.Total)
		}
		if job.Status == "completed" {
			if len(job.Records) != len(urls) {
				t.Fatalf("len(Records) = %d, want %d", len(job.Records), len(urls))
			}
			if job.Summary == nil || job.Summary.Total != len(urls) {
				t.Fatalf("Summary = %+v, want Total %d", job.Summary, len(urls))
			}
			if job.Completed != len(urls) {
				t.Fatalf("Completed = %d, want %d", job.Completed, len(urls))
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("job never completed: %+v", job)
		}
		time.Sleep(time.Millisecond)
	}
}

// Store-level counterpart: concurrent Update and Get on the same job must
// not touch shared state outside the entry lock.
func TestJobStore_ConcurrentUpdateAndGet(t *testing.T) {
	s := NewJobStore()
	s.Put(models.BatchJob{ID: "batch-test", Status: "processing", Total: 100})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 1; i <= 100; i++ {
			s.Update("batch-test", func(j *models.BatchJob) { j.Completed = i })
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			job, ok := s.Get("batch-test")
			if !ok {
				t.Error("job disappeared mid-run")
				return
			}
			if _, err := json.Marshal(job); err != nil {
				t.Errorf("marshal snapshot: %v", err)
				return
			}
		}
	}()
	wg.Wait()

	job, _ := s.Get("batch-test")
	if job.Completed != 100 {
		t.Fatalf("Completed = %d, want 100", job.Completed)
	}
}

func TestJobStore_UpdateUnknownIDIsNoop(t *testing.T) {
	s := NewJobStore()
	s.Update("batch-missing", func(j *models.BatchJob) { j.Status = "completed" })
	if _, ok := s.Get("batch-missing"); ok {
		t.Fatal("Update created a job for an unknown ID")
	}
}

func TestBatch_GetUnknownJobIs404(t *testing.T) {
	b := testBatch(t, 0)
	r := testRouter(b)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/batch/batch-deadbeef", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("GET unknown job = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestBatch_PostRejectsOversizedBatch(t *testing.T) {
	b := testBatch(t, 0)
	r := testRouter(b)

	urls := make([]string, maxBatchURLs+1)
	for i := range urls {
		urls[i] = fmt.Sprintf("https://tenant%d.lodgify.com", i)
	}
	body, _ := json.Marshal(models.BatchRequest{URLs: urls})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/batch", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("oversized batch = %d, want %d", w.Code, http.StatusBadRequest)
	}
}
