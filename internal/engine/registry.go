package engine

import (
	"fmt"
	"sync"

	"github.com/finsift/finsift/internal/common"
	"github.com/finsift/finsift/internal/model"
)

// jobRegistry tracks batch jobs in memory. Jobs do not survive process
// restarts; callers that need history query the transaction store instead.
type jobRegistry struct {
	jobs map[string]*model.BatchJob
	mu   sync.RWMutex
}

func newJobRegistry() *jobRegistry {
	return &jobRegistry{jobs: make(map[string]*model.BatchJob)}
}

func (r *jobRegistry) add(job *model.BatchJob) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = job
}

// snapshot returns a deep copy so pollers never observe a job mid-update.
func (r *jobRegistry) snapshot(jobID string) (*model.BatchJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("%w: job %s", common.ErrNotFound, jobID)
	}

	copied := *job
	copied.Items = make([]model.ItemOutcome, len(job.Items))
	copy(copied.Items, job.Items)
	return &copied, nil
}

// update mutates a job under the write lock.
func (r *jobRegistry) update(jobID string, fn func(*model.BatchJob)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job, ok := r.jobs[jobID]; ok {
		fn(job)
	}
}
