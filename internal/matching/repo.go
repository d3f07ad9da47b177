package matching

import (
	"context"

	"recruit-backend/internal/shared/auth"
)

// Repo stores match evaluations. Writes are upserts keyed by (resume, job);
// nothing else ever creates a row.
type Repo interface {
	UpsertLLM(ctx context.Context, p auth.Principal, resumeID, jobID int64, r Result) (Evaluation, error)
	UpsertCalculated(ctx context.Context, p auth.Principal, resumeID, jobID int64, r Result) (Evaluation, error)
	Get(ctx context.Context, p auth.Principal, resumeID, jobID int64) (Evaluation, error)
	ListByJob(ctx context.Context, p auth.Principal, jobID int64) ([]Evaluation, error)
	ListByResume(ctx context.Context, p auth.Principal, resumeID int64) ([]Evaluation, error)
	EvaluatedJobIDs(ctx context.Context, p auth.Principal, resumeID int64) ([]int64, error)
	EvaluatedResumeIDs(ctx context.Context, p auth.Principal, jobID int64) ([]int64, error)
	Count(ctx context.Context, p auth.Principal) (int, error)
}
