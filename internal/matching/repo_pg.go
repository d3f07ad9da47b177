package matching

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"recruit-backend/internal/catalog"
	"recruit-backend/internal/shared/auth"
	"recruit-backend/internal/shared/storage/db"
)

// PGRepo implements Repo on Postgres.
type PGRepo struct {
	Scope *db.Scope
}

const (
	evaluationColumns = `resume_id, job_id, calculate_score, calculate_reason, llm_score, llm_reason, score, reason, updated_at`

	upsertLLMSQL = `INSERT INTO match_evaluations (resume_id, job_id, llm_score, llm_reason, score, reason, updated_at)
VALUES ($1, $2, $3, $4, $3, $4, now())
ON CONFLICT (resume_id, job_id) DO UPDATE SET
  llm_score = EXCLUDED.llm_score,
  llm_reason = EXCLUDED.llm_reason,
  score = EXCLUDED.llm_score,
  reason = EXCLUDED.llm_reason,
  updated_at = EXCLUDED.updated_at
RETURNING ` + evaluationColumns

	upsertCalculatedSQL = `INSERT INTO match_evaluations (resume_id, job_id, calculate_score, calculate_reason, score, reason, updated_at)
VALUES ($1, $2, $3, $4, $3, $4, now())
ON CONFLICT (resume_id, job_id) DO UPDATE SET
  calculate_score = EXCLUDED.calculate_score,
  calculate_reason = EXCLUDED.calculate_reason,
  score = COALESCE(match_evaluations.llm_score, EXCLUDED.calculate_score),
  reason = COALESCE(match_evaluations.llm_reason, EXCLUDED.calculate_reason),
  updated_at = EXCLUDED.updated_at
RETURNING ` + evaluationColumns

	selectEvaluationSQL = `SELECT ` + evaluationColumns + `
FROM match_evaluations
WHERE resume_id = $1 AND job_id = $2`
	listByJobSQL = `SELECT ` + evaluationColumns + `
FROM match_evaluations
WHERE job_id = $1
ORDER BY score DESC NULLS LAST, resume_id`
	listByResumeSQL = `SELECT ` + evaluationColumns + `
FROM match_evaluations
WHERE resume_id = $1
ORDER BY score DESC NULLS LAST, job_id`
	evaluatedJobIDsSQL    = `SELECT job_id FROM match_evaluations WHERE resume_id = $1 ORDER BY job_id`
	evaluatedResumeIDsSQL = `SELECT resume_id FROM match_evaluations WHERE job_id = $1 ORDER BY resume_id`
	countSQL              = `SELECT count(*) FROM match_evaluations`
)

// UpsertLLM writes the LLM opinion, keeping any rule-based columns.
func (r *PGRepo) UpsertLLM(ctx context.Context, p auth.Principal, resumeID, jobID int64, res Result) (Evaluation, error) {
	return r.upsert(ctx, p, upsertLLMSQL, resumeID, jobID, res)
}

// UpsertCalculated writes the rule-based opinion, keeping any LLM columns.
func (r *PGRepo) UpsertCalculated(ctx context.Context, p auth.Principal, resumeID, jobID int64, res Result) (Evaluation, error) {
	return r.upsert(ctx, p, upsertCalculatedSQL, resumeID, jobID, res)
}

func (r *PGRepo) upsert(ctx context.Context, p auth.Principal, query string, resumeID, jobID int64, res Result) (Evaluation, error) {
	var e Evaluation
	err := r.Scope.Run(ctx, p, func(q db.Queryer) error {
		var err error
		e, err = scanEvaluation(q.QueryRowContext(ctx, query, resumeID, jobID, res.Score, res.Reason))
		return err
	})
	if err != nil {
		return Evaluation{}, fmt.Errorf("upsert match evaluation: %w", err)
	}
	return e, nil
}

// Get returns the evaluation of one pair.
func (r *PGRepo) Get(ctx context.Context, p auth.Principal, resumeID, jobID int64) (Evaluation, error) {
	var e Evaluation
	err := r.Scope.Run(ctx, p, func(q db.Queryer) error {
		var err error
		e, err = scanEvaluation(q.QueryRowContext(ctx, selectEvaluationSQL, resumeID, jobID))
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return Evaluation{}, catalog.ErrNotFound
	}
	if err != nil {
		return Evaluation{}, fmt.Errorf("get match evaluation: %w", err)
	}
	return e, nil
}

// ListByJob returns a job's evaluations, best first.
func (r *PGRepo) ListByJob(ctx context.Context, p auth.Principal, jobID int64) ([]Evaluation, error) {
	return r.list(ctx, p, listByJobSQL, jobID)
}

// ListByResume returns a resume's evaluations, best first.
func (r *PGRepo) ListByResume(ctx context.Context, p auth.Principal, resumeID int64) ([]Evaluation, error) {
	return r.list(ctx, p, listByResumeSQL, resumeID)
}

func (r *PGRepo) list(ctx context.Context, p auth.Principal, query string, id int64) ([]Evaluation, error) {
	var out []Evaluation
	err := r.Scope.Run(ctx, p, func(q db.Queryer) error {
		rows, err := q.QueryContext(ctx, query, id)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			e, err := scanEvaluation(rows)
			if err != nil {
				return err
			}
			out = append(out, e)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list match evaluations: %w", err)
	}
	return out, nil
}

// EvaluatedJobIDs returns the jobs that already have a row with resumeID.
func (r *PGRepo) EvaluatedJobIDs(ctx context.Context, p auth.Principal, resumeID int64) ([]int64, error) {
	return r.ids(ctx, p, evaluatedJobIDsSQL, resumeID)
}

// EvaluatedResumeIDs returns the resumes that already have a row with jobID.
func (r *PGRepo) EvaluatedResumeIDs(ctx context.Context, p auth.Principal, jobID int64) ([]int64, error) {
	return r.ids(ctx, p, evaluatedResumeIDsSQL, jobID)
}

func (r *PGRepo) ids(ctx context.Context, p auth.Principal, query string, id int64) ([]int64, error) {
	var out []int64
	err := r.Scope.Run(ctx, p, func(q db.Queryer) error {
		rows, err := q.QueryContext(ctx, query, id)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var v int64
			if err := rows.Scan(&v); err != nil {
				return err
			}
			out = append(out, v)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("select evaluated ids: %w", err)
	}
	return out, nil
}

// Count returns the number of evaluation rows visible to p.
func (r *PGRepo) Count(ctx context.Context, p auth.Principal) (int, error) {
	var n int
	err := r.Scope.Run(ctx, p, func(q db.Queryer) error {
		return q.QueryRowContext(ctx, countSQL).Scan(&n)
	})
	if err != nil {
		return 0, fmt.Errorf("count match evaluations: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvaluation(row rowScanner) (Evaluation, error) {
	var (
		e                             Evaluation
		calcScore, llmScore, score    sql.NullInt64
		calcReason, llmReason, reason sql.NullString
	)
	if err := row.Scan(
		&e.ResumeID,
		&e.JobID,
		&calcScore,
		&calcReason,
		&llmScore,
		&llmReason,
		&score,
		&reason,
		&e.UpdatedAt,
	); err != nil {
		return Evaluation{}, err
	}
	e.CalculateScore = intPtr(calcScore)
	e.CalculateReason = stringPtr(calcReason)
	e.LLMScore = intPtr(llmScore)
	e.LLMReason = stringPtr(llmReason)
	e.Score = intPtr(score)
	e.Reason = stringPtr(reason)
	return e, nil
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	out := int(v.Int64)
	return &out
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	out := v.String
	return &out
}

var _ Repo = (*PGRepo)(nil)
