package matching

import (
	"context"
	"time"

	"recruit-backend/internal/catalog"
	"recruit-backend/internal/extract"
	"recruit-backend/internal/llm"
	"recruit-backend/internal/prompts"
	"recruit-backend/internal/shared/auth"
	"recruit-backend/internal/shared/metrics"
	"recruit-backend/internal/shared/telemetry"
)

// Temperature is used for every match call.
const Temperature = 0.2

// Evaluator forms the LLM opinion of one pair and stores it.
type Evaluator struct {
	Catalog catalog.Reader
	LLM     llm.Gateway
	Repo    Repo
}

// NewEvaluator constructs an Evaluator.
func NewEvaluator(reader catalog.Reader, gateway llm.Gateway, repo Repo) *Evaluator {
	return &Evaluator{Catalog: reader, LLM: gateway, Repo: repo}
}

// Evaluate reads the pair with p, asks the model, and upserts the result with
// the service principal. Rule-based columns of an existing row are kept.
// A store failure after a successful model call is returned as *PersistError.
func (e *Evaluator) Evaluate(ctx context.Context, p auth.Principal, resumeID, jobID int64) (Result, error) {
	if resumeID <= 0 || jobID <= 0 {
		return Result{}, ErrInvalidPair
	}
	start := time.Now()

	job, err := e.Catalog.GetJob(ctx, p, jobID)
	if err != nil {
		return Result{}, e.fail("match.load_failed", resumeID, jobID, err)
	}
	resume, err := e.Catalog.GetResume(ctx, p, resumeID)
	if err != nil {
		return Result{}, e.fail("match.load_failed", resumeID, jobID, err)
	}

	content, err := llm.Text(ctx, e.LLM, []llm.Message{
		{Role: llm.RoleSystem, Content: prompts.SystemMatch},
		{Role: llm.RoleUser, Content: prompts.BuildMatch(job, resume)},
	}, Temperature)
	if err != nil {
		return Result{}, e.fail("match.llm_failed", resumeID, jobID, err)
	}

	parsed := extract.Match(content)
	result := Result{Score: parsed.Score, Reason: parsed.Reason}

	if _, err := e.Repo.UpsertLLM(ctx, auth.Service(), resumeID, jobID, result); err != nil {
		return result, e.fail("match.persist_failed", resumeID, jobID, &PersistError{Result: result, Err: err})
	}

	metrics.IncMatchEvaluations()
	telemetry.Info("match.evaluated", map[string]any{
		"resume_id":   resumeID,
		"job_id":      jobID,
		"score":       result.Score,
		"user_id":     p.UserID,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return result, nil
}

func (e *Evaluator) fail(event string, resumeID, jobID int64, err error) error {
	metrics.IncMatchEvaluationFailures()
	telemetry.Error(event, map[string]any{
		"resume_id": resumeID,
		"job_id":    jobID,
		"error":     err,
	})
	return err
}

// Calculator stores the rule-based opinion of one pair.
type Calculator struct {
	Catalog catalog.Reader
	Repo    Repo
}

// NewCalculator constructs a Calculator.
func NewCalculator(reader catalog.Reader, repo Repo) *Calculator {
	return &Calculator{Catalog: reader, Repo: repo}
}

// Calculate scores the pair with Calculate and upserts calculate_score and
// calculate_reason, leaving any LLM opinion in place.
func (c *Calculator) Calculate(ctx context.Context, p auth.Principal, resumeID, jobID int64) (Evaluation, error) {
	if resumeID <= 0 || jobID <= 0 {
		return Evaluation{}, ErrInvalidPair
	}
	job, err := c.Catalog.GetJob(ctx, p, jobID)
	if err != nil {
		return Evaluation{}, err
	}
	resume, err := c.Catalog.GetResume(ctx, p, resumeID)
	if err != nil {
		return Evaluation{}, err
	}
	result := Calculate(job, resume)
	row, err := c.Repo.UpsertCalculated(ctx, auth.Service(), resumeID, jobID, result)
	if err != nil {
		return Evaluation{}, &PersistError{Result: result, Err: err}
	}
	telemetry.Info("match.calculated", map[string]any{
		"resume_id": resumeID,
		"job_id":    jobID,
		"score":     result.Score,
	})
	return row, nil
}
