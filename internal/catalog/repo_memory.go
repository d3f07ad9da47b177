package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"recruit-backend/internal/shared/auth"
	"recruit-backend/internal/vocabulary"
)

// ErrForeignKey is returned by MemoryRepo for references that do not exist.
var ErrForeignKey = errors.New("foreign key violation")

type memoryResume struct {
	row         Resume
	skills      []int64
	educations  []Education
	experiences []Experience
}

type memoryJob struct {
	row    Job
	skills []JobSkill
}

// MemoryRepo is an in-memory Repo. Reference names are resolved from Dims at
// read time, the way a join would.
type MemoryRepo struct {
	Dims *vocabulary.MemorySource
	// FailInsert, when set, is consulted before each insert with the table name.
	FailInsert func(table string) error

	mu      sync.RWMutex
	nextID  int64
	jobs    map[int64]*memoryJob
	resumes map[int64]*memoryResume
}

// NewMemoryRepo constructs a MemoryRepo backed by dims.
func NewMemoryRepo(dims *vocabulary.MemorySource) *MemoryRepo {
	return &MemoryRepo{
		Dims:    dims,
		jobs:    make(map[int64]*memoryJob),
		resumes: make(map[int64]*memoryResume),
	}
}

func (r *MemoryRepo) check(ctx context.Context, table string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.FailInsert != nil {
		if err := r.FailInsert(table); err != nil {
			return fmt.Errorf("insert %s: %w", table, err)
		}
	}
	return nil
}

func (r *MemoryRepo) refExists(d vocabulary.Dimension, id *int64) bool {
	if id == nil || r.Dims == nil {
		return true
	}
	_, ok := r.Dims.NameOf(d, *id)
	return ok
}

func (r *MemoryRepo) name(d vocabulary.Dimension, id *int64) string {
	if id == nil || r.Dims == nil {
		return ""
	}
	name, _ := r.Dims.NameOf(d, *id)
	return name
}

// CreateJob stores a job parent row.
func (r *MemoryRepo) CreateJob(ctx context.Context, p auth.Principal, in NewJob) (Job, error) {
	if err := r.check(ctx, "jobs"); err != nil {
		return Job{}, err
	}
	if !r.refExists(vocabulary.City, in.CityID) || !r.refExists(vocabulary.Level, in.LevelID) ||
		!r.refExists(vocabulary.Degree, in.DegreeRequiredID) || !r.refExists(vocabulary.Industry, in.IndustryID) {
		return Job{}, fmt.Errorf("insert jobs: %w", ErrForeignKey)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	job := Job{
		ID:               r.nextID,
		UserID:           firstNonEmpty(in.UserID, p.UserID),
		Title:            in.Title,
		CityID:           in.CityID,
		MinYears:         in.MinYears,
		LevelID:          in.LevelID,
		DegreeRequiredID: in.DegreeRequiredID,
		IndustryID:       in.IndustryID,
		SalaryMin:        in.SalaryMin,
		SalaryMax:        in.SalaryMax,
		CreatedAt:        time.Now().UTC(),
	}
	r.jobs[job.ID] = &memoryJob{row: job}
	return job, nil
}

// AddJobSkill links a skill to a job.
func (r *MemoryRepo) AddJobSkill(ctx context.Context, p auth.Principal, jobID, skillID int64, required bool) error {
	if err := r.check(ctx, "job_skills"); err != nil {
		return err
	}
	if !r.refExists(vocabulary.Skill, &skillID) {
		return fmt.Errorf("insert job_skills: %w", ErrForeignKey)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return fmt.Errorf("insert job_skills: %w", ErrForeignKey)
	}
	for _, s := range job.skills {
		if s.SkillID == skillID {
			return nil
		}
	}
	job.skills = append(job.skills, JobSkill{SkillID: skillID, Required: required})
	return nil
}

// CreateResume stores a resume parent row.
func (r *MemoryRepo) CreateResume(ctx context.Context, p auth.Principal, in NewResume) (Resume, error) {
	if err := r.check(ctx, "resumes"); err != nil {
		return Resume{}, err
	}
	if !r.refExists(vocabulary.City, in.ExpectedCityID) || !r.refExists(vocabulary.Level, in.CurrentLevelID) {
		return Resume{}, fmt.Errorf("insert resumes: %w", ErrForeignKey)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	resume := Resume{
		ID:                r.nextID,
		UserID:            firstNonEmpty(in.UserID, p.UserID),
		CandidateName:     in.CandidateName,
		Gender:            in.Gender,
		ExpectedCityID:    in.ExpectedCityID,
		YearsOfExperience: in.YearsOfExperience,
		CurrentLevelID:    in.CurrentLevelID,
		ExpectedTitle:     in.ExpectedTitle,
		ExpectedSalaryMin: in.ExpectedSalaryMin,
		ExpectedSalaryMax: in.ExpectedSalaryMax,
		CreatedAt:         time.Now().UTC(),
	}
	r.resumes[resume.ID] = &memoryResume{row: resume}
	return resume, nil
}

// AddResumeSkill links a skill to a resume.
func (r *MemoryRepo) AddResumeSkill(ctx context.Context, p auth.Principal, resumeID, skillID int64) error {
	if err := r.check(ctx, "resume_skills"); err != nil {
		return err
	}
	if !r.refExists(vocabulary.Skill, &skillID) {
		return fmt.Errorf("insert resume_skills: %w", ErrForeignKey)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	resume, ok := r.resumes[resumeID]
	if !ok {
		return fmt.Errorf("insert resume_skills: %w", ErrForeignKey)
	}
	for _, id := range resume.skills {
		if id == skillID {
			return nil
		}
	}
	resume.skills = append(resume.skills, skillID)
	return nil
}

// AddEducation stores an education row.
func (r *MemoryRepo) AddEducation(ctx context.Context, p auth.Principal, resumeID int64, in NewEducation) error {
	if err := r.check(ctx, "educations"); err != nil {
		return err
	}
	degreeID := in.DegreeID
	if !r.refExists(vocabulary.Degree, &degreeID) || !r.refExists(vocabulary.Industry, in.MajorIndustryID) {
		return fmt.Errorf("insert educations: %w", ErrForeignKey)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	resume, ok := r.resumes[resumeID]
	if !ok {
		return fmt.Errorf("insert educations: %w", ErrForeignKey)
	}
	r.nextID++
	resume.educations = append(resume.educations, Education{
		ID:              r.nextID,
		School:          in.School,
		MajorIndustryID: in.MajorIndustryID,
		DegreeID:        in.DegreeID,
	})
	return nil
}

// AddExperience stores an experience row.
func (r *MemoryRepo) AddExperience(ctx context.Context, p auth.Principal, resumeID int64, in NewExperience) error {
	if err := r.check(ctx, "experiences"); err != nil {
		return err
	}
	if !r.refExists(vocabulary.Industry, in.IndustryID) {
		return fmt.Errorf("insert experiences: %w", ErrForeignKey)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	resume, ok := r.resumes[resumeID]
	if !ok {
		return fmt.Errorf("insert experiences: %w", ErrForeignKey)
	}
	r.nextID++
	resume.experiences = append(resume.experiences, Experience{
		ID:          r.nextID,
		CompanyName: in.CompanyName,
		IndustryID:  in.IndustryID,
		Description: in.Description,
	})
	return nil
}

// SetAvatar stores the avatar key of a resume.
func (r *MemoryRepo) SetAvatar(ctx context.Context, p auth.Principal, resumeID int64, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	resume, ok := r.resumes[resumeID]
	if !ok {
		return ErrNotFound
	}
	resume.row.AvatarKey = key
	return nil
}

// GetJob returns a job with names resolved.
func (r *MemoryRepo) GetJob(ctx context.Context, p auth.Principal, id int64) (Job, error) {
	if err := ctx.Err(); err != nil {
		return Job{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return Job{}, ErrNotFound
	}
	return r.viewJob(job), nil
}

// GetResume returns a resume with names and children resolved.
func (r *MemoryRepo) GetResume(ctx context.Context, p auth.Principal, id int64) (Resume, error) {
	if err := ctx.Err(); err != nil {
		return Resume{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	resume, ok := r.resumes[id]
	if !ok {
		return Resume{}, ErrNotFound
	}
	return r.viewResume(resume), nil
}

// JobsByIDs returns the jobs among ids, ordered by id.
func (r *MemoryRepo) JobsByIDs(ctx context.Context, p auth.Principal, ids []int64) ([]Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Job
	for _, id := range sortedUnique(ids) {
		if job, ok := r.jobs[id]; ok {
			out = append(out, r.viewJob(job))
		}
	}
	return out, nil
}

// ResumesByIDs returns the resumes among ids, ordered by id.
func (r *MemoryRepo) ResumesByIDs(ctx context.Context, p auth.Principal, ids []int64) ([]Resume, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Resume
	for _, id := range sortedUnique(ids) {
		if resume, ok := r.resumes[id]; ok {
			out = append(out, r.viewResume(resume))
		}
	}
	return out, nil
}

// ListJobs filters by reference names and pages by id.
func (r *MemoryRepo) ListJobs(ctx context.Context, p auth.Principal, f JobFilter) (Page[Job], error) {
	if err := ctx.Err(); err != nil {
		return Page[Job]{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var all []Job
	for _, id := range sortedKeys(r.jobs) {
		job := r.viewJob(r.jobs[id])
		if matches(f.City, job.City) && matches(f.Level, job.Level) && matches(f.Industry, job.Industry) {
			all = append(all, job)
		}
	}
	return paginate(all, f.Page), nil
}

// ListResumes filters by reference names and pages by id.
func (r *MemoryRepo) ListResumes(ctx context.Context, p auth.Principal, f ResumeFilter) (Page[Resume], error) {
	if err := ctx.Err(); err != nil {
		return Page[Resume]{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var all []Resume
	for _, id := range sortedKeys(r.resumes) {
		resume := r.viewResume(r.resumes[id])
		if matches(f.City, resume.City) && matches(f.Level, resume.Level) {
			all = append(all, resume)
		}
	}
	return paginate(all, f.Page), nil
}

// JobIDs returns every job id.
func (r *MemoryRepo) JobIDs(ctx context.Context, p auth.Principal) ([]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.jobs), nil
}

// ResumeIDs returns every resume id.
func (r *MemoryRepo) ResumeIDs(ctx context.Context, p auth.Principal) ([]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.resumes), nil
}

func (r *MemoryRepo) viewJob(m *memoryJob) Job {
	job := m.row
	job.City = r.name(vocabulary.City, job.CityID)
	job.Level = r.name(vocabulary.Level, job.LevelID)
	job.Degree = r.name(vocabulary.Degree, job.DegreeRequiredID)
	job.Industry = r.name(vocabulary.Industry, job.IndustryID)
	job.Skills = make([]JobSkill, 0, len(m.skills))
	for _, s := range m.skills {
		id := s.SkillID
		s.Name = r.name(vocabulary.Skill, &id)
		job.Skills = append(job.Skills, s)
	}
	return job
}

func (r *MemoryRepo) viewResume(m *memoryResume) Resume {
	resume := m.row
	resume.City = r.name(vocabulary.City, resume.ExpectedCityID)
	resume.Level = r.name(vocabulary.Level, resume.CurrentLevelID)
	resume.Skills = make([]ResumeSkill, 0, len(m.skills))
	for _, id := range m.skills {
		id := id
		resume.Skills = append(resume.Skills, ResumeSkill{SkillID: id, Name: r.name(vocabulary.Skill, &id)})
	}
	resume.Educations = make([]Education, 0, len(m.educations))
	for _, edu := range m.educations {
		degreeID := edu.DegreeID
		edu.Degree = r.name(vocabulary.Degree, &degreeID)
		edu.Major = r.name(vocabulary.Industry, edu.MajorIndustryID)
		resume.Educations = append(resume.Educations, edu)
	}
	resume.Experiences = make([]Experience, 0, len(m.experiences))
	for _, exp := range m.experiences {
		exp.Industry = r.name(vocabulary.Industry, exp.IndustryID)
		resume.Experiences = append(resume.Experiences, exp)
	}
	return resume
}

func matches(filter, value string) bool {
	filter = strings.TrimSpace(filter)
	return filter == "" || filter == value
}

func paginate[T any](all []T, page Pagination) Page[T] {
	page = page.Normalize()
	out := Page[T]{Total: len(all), Items: []T{}}
	if page.Offset >= len(all) {
		return out
	}
	end := page.Offset + page.Limit
	if end > len(all) {
		end = len(all)
	}
	out.Items = append(out.Items, all[page.Offset:end]...)
	return out
}

func sortedKeys[V any](m map[int64]V) []int64 {
	out := make([]int64, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func sortedUnique(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

var _ Repo = (*MemoryRepo)(nil)
