package matching

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"recruit-backend/internal/catalog"
	"recruit-backend/internal/shared/auth"
)

type pairKey struct {
	resumeID int64
	jobID    int64
}

// MemoryRepo is an in-memory Repo with the same one-row-per-pair rule as the
// unique constraint in Postgres.
type MemoryRepo struct {
	// FailUpsert, when set, makes every upsert return it.
	FailUpsert error

	mu   sync.RWMutex
	rows map[pairKey]Evaluation
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{rows: make(map[pairKey]Evaluation)}
}

// UpsertLLM writes the LLM opinion, keeping any rule-based columns.
func (r *MemoryRepo) UpsertLLM(ctx context.Context, p auth.Principal, resumeID, jobID int64, res Result) (Evaluation, error) {
	return r.upsert(ctx, resumeID, jobID, func(e *Evaluation) {
		score, reason := res.Score, res.Reason
		e.LLMScore = &score
		e.LLMReason = &reason
	})
}

// UpsertCalculated writes the rule-based opinion, keeping any LLM columns.
func (r *MemoryRepo) UpsertCalculated(ctx context.Context, p auth.Principal, resumeID, jobID int64, res Result) (Evaluation, error) {
	return r.upsert(ctx, resumeID, jobID, func(e *Evaluation) {
		score, reason := res.Score, res.Reason
		e.CalculateScore = &score
		e.CalculateReason = &reason
	})
}

func (r *MemoryRepo) upsert(ctx context.Context, resumeID, jobID int64, apply func(*Evaluation)) (Evaluation, error) {
	if err := ctx.Err(); err != nil {
		return Evaluation{}, err
	}
	if r.FailUpsert != nil {
		return Evaluation{}, r.FailUpsert
	}
	if resumeID <= 0 || jobID <= 0 {
		return Evaluation{}, errors.New("invalid pair")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := pairKey{resumeID: resumeID, jobID: jobID}
	e, ok := r.rows[key]
	if !ok {
		e = Evaluation{ResumeID: resumeID, JobID: jobID}
	}
	apply(&e)
	e.Score, e.Reason = Display(e)
	e.UpdatedAt = time.Now().UTC()
	r.rows[key] = e
	return e, nil
}

// Get returns the evaluation of one pair.
func (r *MemoryRepo) Get(ctx context.Context, p auth.Principal, resumeID, jobID int64) (Evaluation, error) {
	if err := ctx.Err(); err != nil {
		return Evaluation{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.rows[pairKey{resumeID: resumeID, jobID: jobID}]
	if !ok {
		return Evaluation{}, catalog.ErrNotFound
	}
	return e, nil
}

// ListByJob returns a job's evaluations, best first.
func (r *MemoryRepo) ListByJob(ctx context.Context, p auth.Principal, jobID int64) ([]Evaluation, error) {
	return r.list(ctx, func(e Evaluation) bool { return e.JobID == jobID })
}

// ListByResume returns a resume's evaluations, best first.
func (r *MemoryRepo) ListByResume(ctx context.Context, p auth.Principal, resumeID int64) ([]Evaluation, error) {
	return r.list(ctx, func(e Evaluation) bool { return e.ResumeID == resumeID })
}

func (r *MemoryRepo) list(ctx context.Context, keep func(Evaluation) bool) ([]Evaluation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	var out []Evaluation
	for _, e := range r.rows {
		if keep(e) {
			out = append(out, e)
		}
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		si, sj := scoreOrMin(out[i].Score), scoreOrMin(out[j].Score)
		if si != sj {
			return si > sj
		}
		if out[i].ResumeID != out[j].ResumeID {
			return out[i].ResumeID < out[j].ResumeID
		}
		return out[i].JobID < out[j].JobID
	})
	return out, nil
}

// EvaluatedJobIDs returns the jobs that already have a row with resumeID.
func (r *MemoryRepo) EvaluatedJobIDs(ctx context.Context, p auth.Principal, resumeID int64) ([]int64, error) {
	rows, err := r.list(ctx, func(e Evaluation) bool { return e.ResumeID == resumeID })
	if err != nil {
		return nil, err
	}
	out := make([]int64, 0, len(rows))
	for _, e := range rows {
		out = append(out, e.JobID)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// EvaluatedResumeIDs returns the resumes that already have a row with jobID.
func (r *MemoryRepo) EvaluatedResumeIDs(ctx context.Context, p auth.Principal, jobID int64) ([]int64, error) {
	rows, err := r.list(ctx, func(e Evaluation) bool { return e.JobID == jobID })
	if err != nil {
		return nil, err
	}
	out := make([]int64, 0, len(rows))
	for _, e := range rows {
		out = append(out, e.ResumeID)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// Count returns the number of rows.
func (r *MemoryRepo) Count(ctx context.Context, p auth.Principal) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rows), nil
}

func scoreOrMin(score *int) int {
	if score == nil {
		return -1
	}
	return *score
}

var _ Repo = (*MemoryRepo)(nil)
