package matching

import (
	"context"
	"fmt"
	"time"

	"recruit-backend/internal/catalog"
	"recruit-backend/internal/shared/auth"
	"recruit-backend/internal/shared/metrics"
	"recruit-backend/internal/shared/telemetry"
)

// PairEvaluator evaluates one (resume, job) pair.
type PairEvaluator interface {
	Evaluate(ctx context.Context, p auth.Principal, resumeID, jobID int64) (Result, error)
}

// Anchor names the side a backfill pass is anchored on.
type Anchor string

const (
	AnchorResume Anchor = "resume"
	AnchorJob    Anchor = "job"
)

// PairFailure is one pair a backfill pass could not evaluate.
type PairFailure struct {
	ResumeID int64  `json:"resume_id"`
	JobID    int64  `json:"job_id"`
	Error    string `json:"error"`
}

// Report summarises one backfill pass.
type Report struct {
	Anchor           Anchor        `json:"anchor"`
	AnchorID         int64         `json:"anchor_id"`
	Candidates       int           `json:"candidates"`
	AlreadyEvaluated int           `json:"already_evaluated"`
	Missing          int           `json:"missing"`
	Evaluated        int           `json:"evaluated"`
	Failed           []PairFailure `json:"failed"`
}

// Backfill evaluates every pair of an anchor that has no row yet.
type Backfill struct {
	Catalog   catalog.Reader
	Repo      Repo
	Evaluator PairEvaluator
}

// NewBackfill constructs a Backfill.
func NewBackfill(reader catalog.Reader, repo Repo, evaluator PairEvaluator) *Backfill {
	return &Backfill{Catalog: reader, Repo: repo, Evaluator: evaluator}
}

// ForResume evaluates resumeID against every job visible to p that has no
// evaluation with it.
func (b *Backfill) ForResume(ctx context.Context, p auth.Principal, resumeID int64) (Report, error) {
	if resumeID <= 0 {
		return Report{}, ErrInvalidPair
	}
	if _, err := b.Catalog.GetResume(ctx, p, resumeID); err != nil {
		return Report{}, err
	}
	candidates, err := b.Catalog.JobIDs(ctx, p)
	if err != nil {
		return Report{}, fmt.Errorf("list jobs: %w", err)
	}
	evaluated, err := b.Repo.EvaluatedJobIDs(ctx, auth.Service(), resumeID)
	if err != nil {
		return Report{}, fmt.Errorf("list evaluated jobs: %w", err)
	}
	return b.run(ctx, p, AnchorResume, resumeID, candidates, evaluated, func(jobID int64) (int64, int64) {
		return resumeID, jobID
	}), nil
}

// ForJob evaluates jobID against every resume visible to p that has no
// evaluation with it.
func (b *Backfill) ForJob(ctx context.Context, p auth.Principal, jobID int64) (Report, error) {
	if jobID <= 0 {
		return Report{}, ErrInvalidPair
	}
	if _, err := b.Catalog.GetJob(ctx, p, jobID); err != nil {
		return Report{}, err
	}
	candidates, err := b.Catalog.ResumeIDs(ctx, p)
	if err != nil {
		return Report{}, fmt.Errorf("list resumes: %w", err)
	}
	evaluated, err := b.Repo.EvaluatedResumeIDs(ctx, auth.Service(), jobID)
	if err != nil {
		return Report{}, fmt.Errorf("list evaluated resumes: %w", err)
	}
	return b.run(ctx, p, AnchorJob, jobID, candidates, evaluated, func(resumeID int64) (int64, int64) {
		return resumeID, jobID
	}), nil
}

func (b *Backfill) run(ctx context.Context, p auth.Principal, anchor Anchor, anchorID int64, candidates, evaluated []int64, pair func(int64) (int64, int64)) Report {
	start := time.Now()
	missing := Missing(candidates, evaluated)
	report := Report{
		Anchor:           anchor,
		AnchorID:         anchorID,
		Candidates:       len(candidates),
		AlreadyEvaluated: len(candidates) - len(missing),
		Missing:          len(missing),
		Failed:           []PairFailure{},
	}

	for _, id := range missing {
		resumeID, jobID := pair(id)
		if err := ctx.Err(); err != nil {
			report.Failed = append(report.Failed, PairFailure{ResumeID: resumeID, JobID: jobID, Error: err.Error()})
			continue
		}
		if _, err := b.Evaluator.Evaluate(ctx, p, resumeID, jobID); err != nil {
			report.Failed = append(report.Failed, PairFailure{ResumeID: resumeID, JobID: jobID, Error: err.Error()})
			continue
		}
		report.Evaluated++
	}

	metrics.AddBackfillPairs(report.Evaluated)
	telemetry.Info("backfill.completed", map[string]any{
		"anchor":            string(anchor),
		"anchor_id":         anchorID,
		"candidates":        report.Candidates,
		"already_evaluated": report.AlreadyEvaluated,
		"evaluated":         report.Evaluated,
		"failed":            len(report.Failed),
		"duration_ms":       time.Since(start).Milliseconds(),
	})
	return report
}

// Missing returns the candidates not present in evaluated, in candidate order.
func Missing(candidates, evaluated []int64) []int64 {
	done := make(map[int64]struct{}, len(evaluated))
	for _, id := range evaluated {
		done[id] = struct{}{}
	}
	out := []int64{}
	seen := make(map[int64]struct{}, len(candidates))
	for _, id := range candidates {
		if _, ok := done[id]; ok {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
