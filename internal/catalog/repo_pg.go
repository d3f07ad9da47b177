package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"recruit-backend/internal/shared/auth"
	"recruit-backend/internal/shared/storage/db"
)

// PGRepo implements Repo on Postgres. Every call runs under the given principal.
type PGRepo struct {
	Scope *db.Scope
}

const (
	insertJobSQL = `INSERT INTO jobs (user_id, title, city_id, min_years, level_id, degree_required_id, industry_id, salary_min, salary_max)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id, created_at`
	insertJobSkillSQL = `INSERT INTO job_skills (job_id, skill_id, is_required)
VALUES ($1, $2, $3)
ON CONFLICT (job_id, skill_id) DO NOTHING`
	insertResumeSQL = `INSERT INTO resumes (user_id, candidate_name, gender, expected_city_id, years_of_experience, current_level_id,
  expected_title, expected_salary_min, expected_salary_max)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id, created_at`
	insertResumeSkillSQL = `INSERT INTO resume_skills (resume_id, skill_id)
VALUES ($1, $2)
ON CONFLICT (resume_id, skill_id) DO NOTHING`
	insertEducationSQL = `INSERT INTO educations (resume_id, school, major_industry_id, degree_id)
VALUES ($1, $2, $3, $4)`
	insertExperienceSQL = `INSERT INTO experiences (resume_id, company_name, industry_id, description)
VALUES ($1, $2, $3, $4)`
	updateAvatarSQL = `UPDATE resumes SET avatar_key = $2 WHERE id = $1`

	selectJobIDsSQL    = `SELECT id FROM jobs ORDER BY id`
	selectResumeIDsSQL = `SELECT id FROM resumes ORDER BY id`

	selectJobSkillsSQL = `SELECT js.job_id, js.skill_id, s.name, js.is_required
FROM job_skills js
JOIN skills s ON s.id = js.skill_id
WHERE js.job_id = ANY($1)
ORDER BY js.job_id, js.is_required DESC, s.name`
	selectResumeSkillsSQL = `SELECT rs.resume_id, rs.skill_id, s.name
FROM resume_skills rs
JOIN skills s ON s.id = rs.skill_id
WHERE rs.resume_id = ANY($1)
ORDER BY rs.resume_id, s.name`
	selectEducationsSQL = `SELECT e.resume_id, e.id, COALESCE(e.school, ''), e.major_industry_id, e.degree_id,
       COALESCE(i.name, ''), COALESCE(d.name, '')
FROM educations e
LEFT JOIN industries i ON i.id = e.major_industry_id
LEFT JOIN degrees d ON d.id = e.degree_id
WHERE e.resume_id = ANY($1)
ORDER BY e.resume_id, e.id`
	selectExperiencesSQL = `SELECT x.resume_id, x.id, COALESCE(x.company_name, ''), x.industry_id, COALESCE(i.name, ''),
       COALESCE(x.description, '')
FROM experiences x
LEFT JOIN industries i ON i.id = x.industry_id
WHERE x.resume_id = ANY($1)
ORDER BY x.resume_id, x.id`
)

// CreateJob inserts a job parent row.
func (r *PGRepo) CreateJob(ctx context.Context, p auth.Principal, in NewJob) (Job, error) {
	job := Job{
		UserID:           in.UserID,
		Title:            in.Title,
		CityID:           in.CityID,
		MinYears:         in.MinYears,
		LevelID:          in.LevelID,
		DegreeRequiredID: in.DegreeRequiredID,
		IndustryID:       in.IndustryID,
		SalaryMin:        in.SalaryMin,
		SalaryMax:        in.SalaryMax,
	}
	err := r.Scope.Run(ctx, p, func(q db.Queryer) error {
		return q.QueryRowContext(ctx, insertJobSQL,
			in.UserID,
			in.Title,
			in.CityID,
			in.MinYears,
			in.LevelID,
			in.DegreeRequiredID,
			in.IndustryID,
			in.SalaryMin,
			in.SalaryMax,
		).Scan(&job.ID, &job.CreatedAt)
	})
	if err != nil {
		return Job{}, fmt.Errorf("insert job: %w", err)
	}
	return job, nil
}

// AddJobSkill links a skill to a job.
func (r *PGRepo) AddJobSkill(ctx context.Context, p auth.Principal, jobID, skillID int64, required bool) error {
	return r.exec(ctx, p, "insert job skill", insertJobSkillSQL, jobID, skillID, required)
}

// CreateResume inserts a resume parent row.
func (r *PGRepo) CreateResume(ctx context.Context, p auth.Principal, in NewResume) (Resume, error) {
	resume := Resume{
		UserID:            in.UserID,
		CandidateName:     in.CandidateName,
		Gender:            in.Gender,
		ExpectedCityID:    in.ExpectedCityID,
		YearsOfExperience: in.YearsOfExperience,
		CurrentLevelID:    in.CurrentLevelID,
		ExpectedTitle:     in.ExpectedTitle,
		ExpectedSalaryMin: in.ExpectedSalaryMin,
		ExpectedSalaryMax: in.ExpectedSalaryMax,
	}
	err := r.Scope.Run(ctx, p, func(q db.Queryer) error {
		return q.QueryRowContext(ctx, insertResumeSQL,
			in.UserID,
			in.CandidateName,
			nullString(in.Gender),
			in.ExpectedCityID,
			in.YearsOfExperience,
			in.CurrentLevelID,
			nullString(in.ExpectedTitle),
			in.ExpectedSalaryMin,
			in.ExpectedSalaryMax,
		).Scan(&resume.ID, &resume.CreatedAt)
	})
	if err != nil {
		return Resume{}, fmt.Errorf("insert resume: %w", err)
	}
	return resume, nil
}

// AddResumeSkill links a skill to a resume.
func (r *PGRepo) AddResumeSkill(ctx context.Context, p auth.Principal, resumeID, skillID int64) error {
	return r.exec(ctx, p, "insert resume skill", insertResumeSkillSQL, resumeID, skillID)
}

// AddEducation inserts an education row.
func (r *PGRepo) AddEducation(ctx context.Context, p auth.Principal, resumeID int64, in NewEducation) error {
	return r.exec(ctx, p, "insert education", insertEducationSQL, resumeID, nullString(in.School), in.MajorIndustryID, in.DegreeID)
}

// AddExperience inserts an experience row.
func (r *PGRepo) AddExperience(ctx context.Context, p auth.Principal, resumeID int64, in NewExperience) error {
	return r.exec(ctx, p, "insert experience", insertExperienceSQL, resumeID, nullString(in.CompanyName), in.IndustryID, nullString(in.Description))
}

// SetAvatar stores the object key of a resume's avatar.
func (r *PGRepo) SetAvatar(ctx context.Context, p auth.Principal, resumeID int64, key string) error {
	return r.Scope.Run(ctx, p, func(q db.Queryer) error {
		res, err := q.ExecContext(ctx, updateAvatarSQL, resumeID, key)
		if err != nil {
			return fmt.Errorf("update avatar: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("update avatar rows affected: %w", err)
		}
		if affected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *PGRepo) exec(ctx context.Context, p auth.Principal, label, query string, args ...any) error {
	err := r.Scope.Run(ctx, p, func(q db.Queryer) error {
		_, err := q.ExecContext(ctx, query, args...)
		return err
	})
	if err != nil {
		return fmt.Errorf("%s: %w", label, err)
	}
	return nil
}

// GetJob loads a job with its reference names and skills.
func (r *PGRepo) GetJob(ctx context.Context, p auth.Principal, id int64) (Job, error) {
	var job Job
	err := r.Scope.Run(ctx, p, func(q db.Queryer) error {
		var err error
		job, err = scanJob(q.QueryRowContext(ctx, selectOne(jobEntity), id))
		if err != nil {
			return err
		}
		jobs := []Job{job}
		if err := loadJobSkills(ctx, q, jobs); err != nil {
			return err
		}
		job = jobs[0]
		return nil
	})
	if errors.Is(err, sql.ErrNoRows) {
		return Job{}, ErrNotFound
	}
	if err != nil {
		return Job{}, fmt.Errorf("get job %d: %w", id, err)
	}
	return job, nil
}

// GetResume loads a resume with its reference names and children.
func (r *PGRepo) GetResume(ctx context.Context, p auth.Principal, id int64) (Resume, error) {
	var resume Resume
	err := r.Scope.Run(ctx, p, func(q db.Queryer) error {
		var err error
		resume, err = scanResume(q.QueryRowContext(ctx, selectOne(resumeEntity), id))
		if err != nil {
			return err
		}
		resumes := []Resume{resume}
		if err := loadResumeChildren(ctx, q, resumes); err != nil {
			return err
		}
		resume = resumes[0]
		return nil
	})
	if errors.Is(err, sql.ErrNoRows) {
		return Resume{}, ErrNotFound
	}
	if err != nil {
		return Resume{}, fmt.Errorf("get resume %d: %w", id, err)
	}
	return resume, nil
}

// JobsByIDs loads the visible jobs among ids.
func (r *PGRepo) JobsByIDs(ctx context.Context, p auth.Principal, ids []int64) ([]Job, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var jobs []Job
	err := r.Scope.Run(ctx, p, func(q db.Queryer) error {
		var err error
		jobs, err = queryJobs(ctx, q, selectMany(jobEntity), ids)
		if err != nil {
			return err
		}
		return loadJobSkills(ctx, q, jobs)
	})
	if err != nil {
		return nil, fmt.Errorf("jobs by ids: %w", err)
	}
	return jobs, nil
}

// ResumesByIDs loads the visible resumes among ids.
func (r *PGRepo) ResumesByIDs(ctx context.Context, p auth.Principal, ids []int64) ([]Resume, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var resumes []Resume
	err := r.Scope.Run(ctx, p, func(q db.Queryer) error {
		var err error
		resumes, err = queryResumes(ctx, q, selectMany(resumeEntity), ids)
		if err != nil {
			return err
		}
		return loadResumeChildren(ctx, q, resumes)
	})
	if err != nil {
		return nil, fmt.Errorf("resumes by ids: %w", err)
	}
	return resumes, nil
}

// ListJobs returns one filtered page of jobs.
func (r *PGRepo) ListJobs(ctx context.Context, p auth.Principal, f JobFilter) (Page[Job], error) {
	lq := buildJobList(f)
	var page Page[Job]
	err := r.Scope.Run(ctx, p, func(q db.Queryer) error {
		if err := q.QueryRowContext(ctx, lq.count, lq.countArgs()...).Scan(&page.Total); err != nil {
			return err
		}
		var err error
		page.Items, err = queryJobs(ctx, q, lq.sql, lq.args...)
		if err != nil {
			return err
		}
		return loadJobSkills(ctx, q, page.Items)
	})
	if err != nil {
		return Page[Job]{}, fmt.Errorf("list jobs: %w", err)
	}
	return page, nil
}

// ListResumes returns one filtered page of resumes.
func (r *PGRepo) ListResumes(ctx context.Context, p auth.Principal, f ResumeFilter) (Page[Resume], error) {
	lq := buildResumeList(f)
	var page Page[Resume]
	err := r.Scope.Run(ctx, p, func(q db.Queryer) error {
		if err := q.QueryRowContext(ctx, lq.count, lq.countArgs()...).Scan(&page.Total); err != nil {
			return err
		}
		var err error
		page.Items, err = queryResumes(ctx, q, lq.sql, lq.args...)
		if err != nil {
			return err
		}
		return loadResumeChildren(ctx, q, page.Items)
	})
	if err != nil {
		return Page[Resume]{}, fmt.Errorf("list resumes: %w", err)
	}
	return page, nil
}

// JobIDs returns every visible job id.
func (r *PGRepo) JobIDs(ctx context.Context, p auth.Principal) ([]int64, error) {
	return r.ids(ctx, p, selectJobIDsSQL)
}

// ResumeIDs returns every visible resume id.
func (r *PGRepo) ResumeIDs(ctx context.Context, p auth.Principal) ([]int64, error) {
	return r.ids(ctx, p, selectResumeIDsSQL)
}

func (r *PGRepo) ids(ctx context.Context, p auth.Principal, query string) ([]int64, error) {
	var out []int64
	err := r.Scope.Run(ctx, p, func(q db.Queryer) error {
		rows, err := q.QueryContext(ctx, query)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				return err
			}
			out = append(out, id)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("select ids: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (Job, error) {
	var (
		job                                   Job
		cityID, levelID, degreeID, industryID sql.NullInt64
		minYears, salaryMin, salaryMax        sql.NullInt64
		city, level, degree, industry         sql.NullString
	)
	if err := row.Scan(
		&job.ID,
		&job.UserID,
		&job.Title,
		&cityID,
		&minYears,
		&levelID,
		&degreeID,
		&industryID,
		&salaryMin,
		&salaryMax,
		&job.CreatedAt,
		&city,
		&level,
		&degree,
		&industry,
	); err != nil {
		return Job{}, err
	}
	job.CityID = int64Ptr(cityID)
	job.LevelID = int64Ptr(levelID)
	job.DegreeRequiredID = int64Ptr(degreeID)
	job.IndustryID = int64Ptr(industryID)
	job.MinYears = intPtr(minYears)
	job.SalaryMin = intPtr(salaryMin)
	job.SalaryMax = intPtr(salaryMax)
	job.City = city.String
	job.Level = level.String
	job.Degree = degree.String
	job.Industry = industry.String
	return job, nil
}

func scanResume(row rowScanner) (Resume, error) {
	var (
		resume                      Resume
		gender, title, avatar       sql.NullString
		cityID, levelID             sql.NullInt64
		years, salaryMin, salaryMax sql.NullInt64
		city, level                 sql.NullString
	)
	if err := row.Scan(
		&resume.ID,
		&resume.UserID,
		&resume.CandidateName,
		&gender,
		&cityID,
		&years,
		&levelID,
		&title,
		&salaryMin,
		&salaryMax,
		&avatar,
		&resume.CreatedAt,
		&city,
		&level,
	); err != nil {
		return Resume{}, err
	}
	resume.Gender = gender.String
	resume.ExpectedTitle = title.String
	resume.AvatarKey = avatar.String
	resume.ExpectedCityID = int64Ptr(cityID)
	resume.CurrentLevelID = int64Ptr(levelID)
	resume.YearsOfExperience = intPtr(years)
	resume.ExpectedSalaryMin = intPtr(salaryMin)
	resume.ExpectedSalaryMax = intPtr(salaryMax)
	resume.City = city.String
	resume.Level = level.String
	return resume, nil
}

func queryJobs(ctx context.Context, q db.Queryer, query string, args ...any) ([]Job, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

func queryResumes(ctx context.Context, q db.Queryer, query string, args ...any) ([]Resume, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Resume
	for rows.Next() {
		resume, err := scanResume(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, resume)
	}
	return out, rows.Err()
}

func loadJobSkills(ctx context.Context, q db.Queryer, jobs []Job) error {
	if len(jobs) == 0 {
		return nil
	}
	index := make(map[int64]int, len(jobs))
	ids := make([]int64, len(jobs))
	for i, job := range jobs {
		index[job.ID] = i
		ids[i] = job.ID
	}
	rows, err := q.QueryContext(ctx, selectJobSkillsSQL, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var jobID int64
		var skill JobSkill
		if err := rows.Scan(&jobID, &skill.SkillID, &skill.Name, &skill.Required); err != nil {
			return err
		}
		if i, ok := index[jobID]; ok {
			jobs[i].Skills = append(jobs[i].Skills, skill)
		}
	}
	return rows.Err()
}

func loadResumeChildren(ctx context.Context, q db.Queryer, resumes []Resume) error {
	if len(resumes) == 0 {
		return nil
	}
	index := make(map[int64]int, len(resumes))
	ids := make([]int64, len(resumes))
	for i, resume := range resumes {
		index[resume.ID] = i
		ids[i] = resume.ID
	}
	args := []any{ids}

	if err := eachRow(ctx, q, selectResumeSkillsSQL, args, func(rows *sql.Rows) error {
		var resumeID int64
		var skill ResumeSkill
		if err := rows.Scan(&resumeID, &skill.SkillID, &skill.Name); err != nil {
			return err
		}
		if i, ok := index[resumeID]; ok {
			resumes[i].Skills = append(resumes[i].Skills, skill)
		}
		return nil
	}); err != nil {
		return err
	}

	if err := eachRow(ctx, q, selectEducationsSQL, args, func(rows *sql.Rows) error {
		var resumeID int64
		var edu Education
		var majorID sql.NullInt64
		if err := rows.Scan(&resumeID, &edu.ID, &edu.School, &majorID, &edu.DegreeID, &edu.Major, &edu.Degree); err != nil {
			return err
		}
		edu.MajorIndustryID = int64Ptr(majorID)
		if i, ok := index[resumeID]; ok {
			resumes[i].Educations = append(resumes[i].Educations, edu)
		}
		return nil
	}); err != nil {
		return err
	}

	return eachRow(ctx, q, selectExperiencesSQL, args, func(rows *sql.Rows) error {
		var resumeID int64
		var exp Experience
		var industryID sql.NullInt64
		if err := rows.Scan(&resumeID, &exp.ID, &exp.CompanyName, &industryID, &exp.Industry, &exp.Description); err != nil {
			return err
		}
		exp.IndustryID = int64Ptr(industryID)
		if i, ok := index[resumeID]; ok {
			resumes[i].Experiences = append(resumes[i].Experiences, exp)
		}
		return nil
	})
}

func eachRow(ctx context.Context, q db.Queryer, query string, args []any, fn func(*sql.Rows) error) error {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := fn(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	out := v.Int64
	return &out
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	out := int(v.Int64)
	return &out
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

var _ Repo = (*PGRepo)(nil)
