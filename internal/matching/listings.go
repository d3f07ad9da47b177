package matching

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"recruit-backend/internal/catalog"
	"recruit-backend/internal/shared/auth"
)

// ParseReason splits a stored reason into its lists. Text that starts like
// JSON is decoded as a Breakdown; anything else, including JSON that does not
// decode, becomes the single reason.
func ParseReason(reason *string) Breakdown {
	out := Breakdown{Reasons: []string{}, Advantages: []string{}, Disadvantages: []string{}}
	if reason == nil {
		return out
	}
	text := strings.TrimSpace(*reason)
	if text == "" {
		return out
	}
	if strings.HasPrefix(text, "{") || strings.HasPrefix(text, "[") {
		var parsed Breakdown
		if err := json.Unmarshal([]byte(text), &parsed); err == nil {
			out.Reasons = nonNil(parsed.Reasons)
			out.Advantages = nonNil(parsed.Advantages)
			out.Disadvantages = nonNil(parsed.Disadvantages)
			return out
		}
	}
	out.Reasons = []string{*reason}
	return out
}

// ResumeSummary is the resume side of a job's match listing.
type ResumeSummary struct {
	ID                int64                       `json:"id"`
	CandidateName     string                      `json:"candidate_name"`
	Gender            string                      `json:"gender"`
	YearsOfExperience *int                        `json:"years_of_experience"`
	ExpectedCity      string                      `json:"expected_city"`
	CurrentLevel      string                      `json:"current_level"`
	ExpectedSalaryMin *int                        `json:"expected_salary_min"`
	Educations        []catalog.EducationResponse `json:"educations"`
}

// JobSummary is the job side of a resume's match listing.
type JobSummary struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	City        string `json:"city"`
	Level       string `json:"level"`
	SalaryRange string `json:"salary_range"`
}

// JobMatch is one row of a job's match listing.
type JobMatch struct {
	Resume ResumeSummary `json:"resume"`
	Score  *int          `json:"score"`
	Breakdown
}

// ResumeMatch is one row of a resume's match listing.
type ResumeMatch struct {
	Job     JobSummary `json:"job"`
	Score   *int       `json:"score"`
	Reasons []string   `json:"reasons"`
}

// Listings joins stored evaluations with the catalog rows they point at.
type Listings struct {
	Catalog catalog.Reader
	Repo    Repo
}

// NewListings constructs Listings.
func NewListings(reader catalog.Reader, repo Repo) *Listings {
	return &Listings{Catalog: reader, Repo: repo}
}

// Total is the number of evaluation rows visible to p.
func (l *Listings) Total(ctx context.Context, p auth.Principal) (int, error) {
	return l.Repo.Count(ctx, p)
}

// ForJob lists the resumes evaluated against jobID, best first. Rows whose
// resume p cannot see are left out.
func (l *Listings) ForJob(ctx context.Context, p auth.Principal, jobID int64) ([]JobMatch, error) {
	if _, err := l.Catalog.GetJob(ctx, p, jobID); err != nil {
		return nil, err
	}
	rows, err := l.Repo.ListByJob(ctx, auth.Service(), jobID)
	if err != nil {
		return nil, fmt.Errorf("list evaluations: %w", err)
	}
	ids := make([]int64, 0, len(rows))
	for _, e := range rows {
		ids = append(ids, e.ResumeID)
	}
	resumes, err := l.Catalog.ResumesByIDs(ctx, p, ids)
	if err != nil {
		return nil, fmt.Errorf("load resumes: %w", err)
	}
	byID := make(map[int64]catalog.Resume, len(resumes))
	for _, r := range resumes {
		byID[r.ID] = r
	}

	out := []JobMatch{}
	for _, e := range rows {
		r, ok := byID[e.ResumeID]
		if !ok {
			continue
		}
		out = append(out, JobMatch{Resume: toResumeSummary(r), Score: e.Score, Breakdown: ParseReason(e.Reason)})
	}
	return out, nil
}

// ForResume lists the jobs evaluated against resumeID, best first. Rows whose
// job p cannot see are left out.
func (l *Listings) ForResume(ctx context.Context, p auth.Principal, resumeID int64) ([]ResumeMatch, error) {
	if _, err := l.Catalog.GetResume(ctx, p, resumeID); err != nil {
		return nil, err
	}
	rows, err := l.Repo.ListByResume(ctx, auth.Service(), resumeID)
	if err != nil {
		return nil, fmt.Errorf("list evaluations: %w", err)
	}
	ids := make([]int64, 0, len(rows))
	for _, e := range rows {
		ids = append(ids, e.JobID)
	}
	jobs, err := l.Catalog.JobsByIDs(ctx, p, ids)
	if err != nil {
		return nil, fmt.Errorf("load jobs: %w", err)
	}
	byID := make(map[int64]catalog.Job, len(jobs))
	for _, j := range jobs {
		byID[j.ID] = j
	}

	out := []ResumeMatch{}
	for _, e := range rows {
		j, ok := byID[e.JobID]
		if !ok {
			continue
		}
		out = append(out, ResumeMatch{Job: toJobSummary(j), Score: e.Score, Reasons: ParseReason(e.Reason).Reasons})
	}
	return out, nil
}

func toResumeSummary(r catalog.Resume) ResumeSummary {
	full := catalog.ToResumeResponse(r)
	return ResumeSummary{
		ID:                r.ID,
		CandidateName:     r.CandidateName,
		Gender:            r.Gender,
		YearsOfExperience: r.YearsOfExperience,
		ExpectedCity:      full.ExpectedCity,
		CurrentLevel:      full.CurrentLevel,
		ExpectedSalaryMin: r.ExpectedSalaryMin,
		Educations:        full.Educations,
	}
}

func toJobSummary(j catalog.Job) JobSummary {
	return JobSummary{
		ID:          j.ID,
		Title:       j.Title,
		City:        orUnknown(j.City),
		Level:       orUnknown(j.Level),
		SalaryRange: fmt.Sprintf("%s-%s", intText(j.SalaryMin), intText(j.SalaryMax)),
	}
}

func intText(v *int) string {
	if v == nil {
		return "?"
	}
	return fmt.Sprint(*v)
}
