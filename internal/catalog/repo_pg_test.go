package catalog

import (
	"context"
	"database/sql/driver"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"recruit-backend/internal/shared/auth"
	"recruit-backend/internal/shared/storage/db"
)

var jobCols = []string{
	"id", "user_id", "title", "city_id", "min_years", "level_id", "degree_required_id", "industry_id",
	"salary_min", "salary_max", "created_at", "city", "level", "degree", "industry",
}

// int8Array lets []int64 reach the mock driver the way pgx receives it.
type int8Array struct{}

func (int8Array) ConvertValue(v any) (driver.Value, error) {
	if ids, ok := v.([]int64); ok {
		return ids, nil
	}
	return driver.DefaultParameterConverter.ConvertValue(v)
}

// idArray matches a single []int64 query argument.
type idArray []int64

func (want idArray) Match(v driver.Value) bool {
	got, ok := v.([]int64)
	return ok && reflect.DeepEqual([]int64(want), got)
}

func newPGRepo(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.ValueConverterOption(int8Array{}))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return &PGRepo{Scope: db.NewScope(sqlDB, nil)}, mock
}

func TestPGRepoCreateJobPassesNullReferences(t *testing.T) {
	repo, mock := newPGRepo(t)
	cityID := int64(4)
	minYears := 3
	now := time.Now().UTC()

	mock.ExpectQuery("INSERT INTO jobs").
		WithArgs("user-1", "Backend Engineer", cityID, minYears, nil, nil, nil, nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(11), now))

	job, err := repo.CreateJob(context.Background(), auth.Service(), NewJob{
		UserID:   "user-1",
		Title:    "Backend Engineer",
		CityID:   &cityID,
		MinYears: &minYears,
	})
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	if job.ID != 11 || !job.CreatedAt.Equal(now) {
		t.Fatalf("unexpected job: %+v", job)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoCallerWritesRunInsideClaimsTx(t *testing.T) {
	repo, mock := newPGRepo(t)
	p := auth.Principal{UserID: "user-1", Role: auth.RoleAuthenticated}

	mock.ExpectBegin()
	mock.ExpectExec("SELECT set_config").
		WithArgs(p.ClaimsJSON(), auth.RoleAuthenticated).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO resume_skills").
		WithArgs(int64(7), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.AddResumeSkill(context.Background(), p, 7, 2); err != nil {
		t.Fatalf("AddResumeSkill: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetJobLoadsSkills(t *testing.T) {
	repo, mock := newPGRepo(t)
	now := time.Now().UTC()

	mock.ExpectQuery("FROM jobs j").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(jobCols).
			AddRow(int64(5), "user-1", "SRE", int64(1), 2, nil, int64(3), nil, 100, 200, now, "Beijing", nil, "Bachelor", nil))
	mock.ExpectQuery(`FROM job_skills js\s+JOIN skills s ON s.id = js.skill_id\s+WHERE js.job_id = ANY\(\$1\)`).
		WithArgs(idArray{5}).
		WillReturnRows(sqlmock.NewRows([]string{"job_id", "skill_id", "name", "is_required"}).
			AddRow(int64(5), int64(1), "Go", true).
			AddRow(int64(5), int64(7), "Kubernetes", false))

	job, err := repo.GetJob(context.Background(), auth.Service(), 5)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if job.City != "Beijing" || job.Level != "" || job.Degree != "Bachelor" {
		t.Fatalf("unexpected names: %+v", job)
	}
	if job.LevelID != nil || job.CityID == nil || *job.CityID != 1 {
		t.Fatalf("unexpected ids: city=%v level=%v", job.CityID, job.LevelID)
	}
	if got := job.RequiredSkills(); len(got) != 1 || got[0] != "Go" {
		t.Fatalf("unexpected required skills: %v", got)
	}
	if got := job.NiceToHaveSkills(); len(got) != 1 || got[0] != "Kubernetes" {
		t.Fatalf("unexpected optional skills: %v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetJobNotFound(t *testing.T) {
	repo, mock := newPGRepo(t)
	mock.ExpectQuery("FROM jobs j").
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows(jobCols))

	_, err := repo.GetJob(context.Background(), auth.Service(), 9)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoListJobsFiltersAndCounts(t *testing.T) {
	repo, mock := newPGRepo(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT count\(\*\) FROM jobs j`).
		WithArgs("Shanghai").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("INNER JOIN cities c").
		WithArgs("Shanghai", 20, 0).
		WillReturnRows(sqlmock.NewRows(jobCols).
			AddRow(int64(2), "user-2", "Data Analyst", int64(2), nil, nil, nil, nil, nil, nil, now, "Shanghai", nil, nil, nil))
	mock.ExpectQuery("FROM job_skills js").
		WithArgs(idArray{2}).
		WillReturnRows(sqlmock.NewRows([]string{"job_id", "skill_id", "name", "is_required"}))

	page, err := repo.ListJobs(context.Background(), auth.Service(), JobFilter{City: "Shanghai"})
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if page.Total != 1 || len(page.Items) != 1 || page.Items[0].Title != "Data Analyst" {
		t.Fatalf("unexpected page: %+v", page)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoSetAvatarMissingResume(t *testing.T) {
	repo, mock := newPGRepo(t)
	mock.ExpectExec("UPDATE resumes SET avatar_key").
		WithArgs(int64(3), "avatars/3.png").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetAvatar(context.Background(), auth.Service(), 3, "avatars/3.png")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoResumeIDs(t *testing.T) {
	repo, mock := newPGRepo(t)
	mock.ExpectQuery("SELECT id FROM resumes").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)).AddRow(int64(4)))

	ids, err := repo.ResumeIDs(context.Background(), auth.Service())
	if err != nil {
		t.Fatalf("ResumeIDs: %v", err)
	}
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 4 {
		t.Fatalf("unexpected ids: %v", ids)
	}
}

func TestPGRepoJobsByIDsBindsOneArray(t *testing.T) {
	repo, mock := newPGRepo(t)
	now := time.Now().UTC()
	want := []int64{3, 8, 21, 34, 55}

	mock.ExpectQuery(`WHERE j.id = ANY\(\$1\)`).
		WithArgs(idArray(want)).
		WillReturnRows(sqlmock.NewRows(jobCols).
			AddRow(int64(8), "user-1", "SRE", nil, nil, nil, nil, nil, nil, nil, now, nil, nil, nil, nil).
			AddRow(int64(34), "user-2", "QA", nil, nil, nil, nil, nil, nil, nil, now, nil, nil, nil, nil))
	mock.ExpectQuery(`WHERE js.job_id = ANY\(\$1\)`).
		WithArgs(idArray{8, 34}).
		WillReturnRows(sqlmock.NewRows([]string{"job_id", "skill_id", "name", "is_required"}).
			AddRow(int64(34), int64(2), "Python", true))

	jobs, err := repo.JobsByIDs(context.Background(), auth.Service(), want)
	if err != nil {
		t.Fatalf("JobsByIDs: %v", err)
	}
	if len(jobs) != 2 || len(jobs[0].Skills) != 0 || len(jobs[1].Skills) != 1 {
		t.Fatalf("unexpected jobs: %+v", jobs)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
