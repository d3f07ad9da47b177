package catalog

import "time"

// Job is a persisted job posting with its resolved reference names.
type Job struct {
	ID               int64
	UserID           string
	Title            string
	CityID           *int64
	MinYears         *int
	LevelID          *int64
	DegreeRequiredID *int64
	IndustryID       *int64
	SalaryMin        *int
	SalaryMax        *int
	CreatedAt        time.Time

	City     string
	Level    string
	Degree   string
	Industry string
	Skills   []JobSkill
}

// JobSkill links a job to a skill.
type JobSkill struct {
	SkillID  int64
	Name     string
	Required bool
}

// RequiredSkills returns the names of required skills.
func (j Job) RequiredSkills() []string {
	return j.skillNames(true)
}

// NiceToHaveSkills returns the names of optional skills.
func (j Job) NiceToHaveSkills() []string {
	return j.skillNames(false)
}

func (j Job) skillNames(required bool) []string {
	out := []string{}
	for _, s := range j.Skills {
		if s.Required == required && s.Name != "" {
			out = append(out, s.Name)
		}
	}
	return out
}

// Resume is a persisted candidate resume with children.
type Resume struct {
	ID                int64
	UserID            string
	CandidateName     string
	Gender            string
	ExpectedCityID    *int64
	YearsOfExperience *int
	CurrentLevelID    *int64
	ExpectedTitle     string
	ExpectedSalaryMin *int
	ExpectedSalaryMax *int
	AvatarKey         string
	CreatedAt         time.Time

	City        string
	Level       string
	Skills      []ResumeSkill
	Educations  []Education
	Experiences []Experience
}

// SkillNames returns the resume's skill names.
func (r Resume) SkillNames() []string {
	out := []string{}
	for _, s := range r.Skills {
		if s.Name != "" {
			out = append(out, s.Name)
		}
	}
	return out
}

// ResumeSkill links a resume to a skill.
type ResumeSkill struct {
	SkillID int64
	Name    string
}

// Education is one education entry of a resume.
type Education struct {
	ID              int64
	School          string
	MajorIndustryID *int64
	DegreeID        int64
	Major           string
	Degree          string
}

// Experience is one work experience entry of a resume.
type Experience struct {
	ID          int64
	CompanyName string
	IndustryID  *int64
	Industry    string
	Description string
}

// NewJob is the insert payload for a job parent row.
type NewJob struct {
	UserID           string
	Title            string
	CityID           *int64
	MinYears         *int
	LevelID          *int64
	DegreeRequiredID *int64
	IndustryID       *int64
	SalaryMin        *int
	SalaryMax        *int
}

// NewResume is the insert payload for a resume parent row.
type NewResume struct {
	UserID            string
	CandidateName     string
	Gender            string
	ExpectedCityID    *int64
	YearsOfExperience *int
	CurrentLevelID    *int64
	ExpectedTitle     string
	ExpectedSalaryMin *int
	ExpectedSalaryMax *int
}

// NewEducation is the insert payload for an education row.
type NewEducation struct {
	School          string
	MajorIndustryID *int64
	DegreeID        int64
}

// NewExperience is the insert payload for an experience row.
type NewExperience struct {
	CompanyName string
	IndustryID  *int64
	Description string
}

// Page is one page of list results with the unpaged total.
type Page[T any] struct {
	Items []T
	Total int
}
