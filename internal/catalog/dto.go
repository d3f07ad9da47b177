package catalog

import (
	"strconv"
	"strings"
	"time"
)

const unknown = "Unknown"

// JobResponse is the outward-facing representation of a job.
type JobResponse struct {
	ID               int64     `json:"id"`
	Title            string    `json:"title"`
	City             string    `json:"city"`
	Level            string    `json:"level"`
	Industry         string    `json:"industry"`
	Degree           string    `json:"degree"`
	DegreeRequired   string    `json:"degree_required"`
	MinYears         *int      `json:"min_years"`
	SalaryMin        *int      `json:"salary_min"`
	SalaryMax        *int      `json:"salary_max"`
	RequiredSkills   []string  `json:"required_skills"`
	NiceToHaveSkills []string  `json:"nice_to_have_skills"`
	CreatedAt        time.Time `json:"created_at"`
}

// EducationResponse is one education entry of a resume response.
type EducationResponse struct {
	School string `json:"school"`
	Major  string `json:"major"`
	Degree string `json:"degree"`
}

// ExperienceResponse is one experience entry of a resume response.
type ExperienceResponse struct {
	CompanyName string `json:"company_name"`
	Industry    string `json:"industry"`
	Description string `json:"description"`
}

// ResumeResponse is the outward-facing representation of a resume.
type ResumeResponse struct {
	ID                int64                `json:"id"`
	Name              string               `json:"name"`
	CandidateName     string               `json:"candidate_name"`
	Gender            string               `json:"gender"`
	City              string               `json:"city"`
	ExpectedCity      string               `json:"expected_city"`
	Years             *int                 `json:"years"`
	YearsOfExperience *int                 `json:"years_of_experience"`
	Level             string               `json:"level"`
	CurrentLevel      string               `json:"current_level"`
	ExpectedTitle     string               `json:"expected_title"`
	SalaryMin         *int                 `json:"salary_min"`
	SalaryMax         *int                 `json:"salary_max"`
	Skills            []string             `json:"skills"`
	Degree            string               `json:"degree"`
	Educations        []EducationResponse  `json:"educations"`
	Experiences       []ExperienceResponse `json:"experiences"`
	HasAvatar         bool                 `json:"has_avatar"`
	CreatedAt         time.Time            `json:"created_at"`
}

// ListResponse is one page of a list endpoint.
type ListResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Skip  int `json:"skip"`
	Limit int `json:"limit"`
}

// ToJobResponse converts a job into its response shape.
func ToJobResponse(job Job) JobResponse {
	degree := orUnknown(job.Degree)
	return JobResponse{
		ID:               job.ID,
		Title:            job.Title,
		City:             orUnknown(job.City),
		Level:            orUnknown(job.Level),
		Industry:         orUnknown(job.Industry),
		Degree:           degree,
		DegreeRequired:   degree,
		MinYears:         job.MinYears,
		SalaryMin:        job.SalaryMin,
		SalaryMax:        job.SalaryMax,
		RequiredSkills:   job.RequiredSkills(),
		NiceToHaveSkills: job.NiceToHaveSkills(),
		CreatedAt:        job.CreatedAt,
	}
}

// ToResumeResponse converts a resume into its response shape.
func ToResumeResponse(resume Resume) ResumeResponse {
	city := orUnknown(resume.City)
	level := orUnknown(resume.Level)
	out := ResumeResponse{
		ID:                resume.ID,
		Name:              resume.CandidateName,
		CandidateName:     resume.CandidateName,
		Gender:            resume.Gender,
		City:              city,
		ExpectedCity:      city,
		Years:             resume.YearsOfExperience,
		YearsOfExperience: resume.YearsOfExperience,
		Level:             level,
		CurrentLevel:      level,
		ExpectedTitle:     resume.ExpectedTitle,
		SalaryMin:         resume.ExpectedSalaryMin,
		SalaryMax:         resume.ExpectedSalaryMax,
		Skills:            resume.SkillNames(),
		Degree:            unknown,
		Educations:        make([]EducationResponse, 0, len(resume.Educations)),
		Experiences:       make([]ExperienceResponse, 0, len(resume.Experiences)),
		HasAvatar:         resume.AvatarKey != "",
		CreatedAt:         resume.CreatedAt,
	}
	for i, edu := range resume.Educations {
		if i == 0 {
			out.Degree = orUnknown(edu.Degree)
		}
		out.Educations = append(out.Educations, EducationResponse{
			School: edu.School,
			Major:  edu.Major,
			Degree: edu.Degree,
		})
	}
	for _, exp := range resume.Experiences {
		out.Experiences = append(out.Experiences, ExperienceResponse{
			CompanyName: exp.CompanyName,
			Industry:    exp.Industry,
			Description: exp.Description,
		})
	}
	return out
}

// ParsePagination reads skip/limit or page/pageSize. Invalid values fall back
// to the defaults.
func ParsePagination(query func(string) string) Pagination {
	var p Pagination
	if limit, ok := atoi(query("limit")); ok {
		p.Limit = limit
	} else if size, ok := atoi(query("pageSize")); ok {
		p.Limit = size
	}
	p = p.Normalize()
	if skip, ok := atoi(query("skip")); ok {
		p.Offset = skip
	} else if page, ok := atoi(query("page")); ok && page > 0 {
		p.Offset = (page - 1) * p.Limit
	}
	return p.Normalize()
}

func atoi(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return unknown
	}
	return s
}
