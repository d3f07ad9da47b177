package matching

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"recruit-backend/internal/catalog"
	"recruit-backend/internal/shared/auth"
	"recruit-backend/internal/shared/storage/db"
)

var evaluationCols = []string{
	"resume_id", "job_id", "calculate_score", "calculate_reason", "llm_score", "llm_reason", "score", "reason", "updated_at",
}

func newPGRepo(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return &PGRepo{Scope: db.NewScope(sqlDB, nil)}, mock
}

func TestPGRepoUpsertLLMUsesConflictKey(t *testing.T) {
	repo, mock := newPGRepo(t)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (resume_id, job_id) DO UPDATE SET")).
		WithArgs(int64(3), int64(9), 85, "Strong Go").
		WillReturnRows(sqlmock.NewRows(evaluationCols).
			AddRow(int64(3), int64(9), 40, "rule", 85, "Strong Go", 85, "Strong Go", now))

	e, err := repo.UpsertLLM(context.Background(), auth.Service(), 3, 9, Result{Score: 85, Reason: "Strong Go"})
	if err != nil {
		t.Fatalf("UpsertLLM: %v", err)
	}
	if e.CalculateScore == nil || *e.CalculateScore != 40 {
		t.Fatalf("expected calculate score kept, got %+v", e.CalculateScore)
	}
	if e.Score == nil || *e.Score != 85 || *e.Reason != "Strong Go" {
		t.Fatalf("unexpected display values: %+v", e)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpsertCalculatedKeepsLLMDisplay(t *testing.T) {
	repo, mock := newPGRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("score = COALESCE(match_evaluations.llm_score, EXCLUDED.calculate_score)")).
		WithArgs(int64(3), int64(9), 40, "rule").
		WillReturnRows(sqlmock.NewRows(evaluationCols).
			AddRow(int64(3), int64(9), 40, "rule", nil, nil, 40, "rule", time.Now()))

	e, err := repo.UpsertCalculated(context.Background(), auth.Service(), 3, 9, Result{Score: 40, Reason: "rule"})
	if err != nil {
		t.Fatalf("UpsertCalculated: %v", err)
	}
	if e.LLMScore != nil || e.LLMReason != nil {
		t.Fatalf("expected no llm columns, got %+v", e)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetNotFound(t *testing.T) {
	repo, mock := newPGRepo(t)
	mock.ExpectQuery("SELECT resume_id, job_id").
		WithArgs(int64(1), int64(2)).
		WillReturnRows(sqlmock.NewRows(evaluationCols))

	_, err := repo.Get(context.Background(), auth.Service(), 1, 2)
	if !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoCallerReadsRunInsideClaimsTx(t *testing.T) {
	repo, mock := newPGRepo(t)
	p := auth.Principal{UserID: "user-1", Role: auth.RoleAuthenticated}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("set_config('request.jwt.claims'")).
		WithArgs(p.ClaimsJSON(), auth.RoleAuthenticated).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT job_id FROM match_evaluations").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"job_id"}).AddRow(int64(1)).AddRow(int64(4)))
	mock.ExpectCommit()

	ids, err := repo.EvaluatedJobIDs(context.Background(), p, 5)
	if err != nil {
		t.Fatalf("EvaluatedJobIDs: %v", err)
	}
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 4 {
		t.Fatalf("unexpected ids: %v", ids)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoListByJobOrdersByScore(t *testing.T) {
	repo, mock := newPGRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY score DESC NULLS LAST")).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows(evaluationCols).
			AddRow(int64(2), int64(9), nil, nil, 90, "great", 90, "great", time.Now()).
			AddRow(int64(1), int64(9), 30, "rule", nil, nil, 30, "rule", time.Now()))

	rows, err := repo.ListByJob(context.Background(), auth.Service(), 9)
	if err != nil {
		t.Fatalf("ListByJob: %v", err)
	}
	if len(rows) != 2 || rows[0].ResumeID != 2 || *rows[1].Score != 30 {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}
