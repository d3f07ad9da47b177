package prompts

import (
	"strconv"
	"strings"

	"recruit-backend/internal/catalog"
)

const (
	none           = "None"
	notAvailable   = "N/A"
	unknownDegree  = "Unknown Degree"
	unknownMajor   = "Unknown Major"
	unknownInd     = "Unknown Industry"
	noDescription  = "No description"
	unknownSubject = "Unknown"
)

// BuildMatch renders a job and a resume into the scoring instruction. Missing
// values are written as explicit sentinels, never left blank.
func BuildMatch(job catalog.Job, resume catalog.Resume) string {
	r := strings.NewReplacer(
		"{{JOB_TITLE}}", orDefault(job.Title, unknownSubject),
		"{{JOB_LEVEL}}", orDefault(job.Level, notAvailable),
		"{{JOB_REQUIRED_SKILLS}}", joinOr(job.RequiredSkills(), ", "),
		"{{JOB_NICE_SKILLS}}", joinOr(job.NiceToHaveSkills(), ", "),
		"{{JOB_MIN_YEARS}}", intOr(job.MinYears),
		"{{JOB_DEGREE}}", orDefault(job.Degree, notAvailable),
		"{{RESUME_NAME}}", orDefault(resume.CandidateName, unknownSubject),
		"{{RESUME_LEVEL}}", orDefault(resume.Level, notAvailable),
		"{{RESUME_YEARS}}", intOr(resume.YearsOfExperience),
		"{{RESUME_SKILLS}}", joinOr(resume.SkillNames(), ", "),
		"{{RESUME_EDUCATION}}", joinOr(educationClauses(resume.Educations), "; "),
		"{{RESUME_EXPERIENCE}}", joinOr(experienceClauses(resume.Experiences), "; "),
	)
	return strings.TrimSpace(r.Replace(matchTemplate))
}

func educationClauses(list []catalog.Education) []string {
	out := make([]string, 0, len(list))
	for _, e := range list {
		out = append(out, orDefault(e.Degree, unknownDegree)+" in "+orDefault(e.Major, unknownMajor))
	}
	return out
}

func experienceClauses(list []catalog.Experience) []string {
	out := make([]string, 0, len(list))
	for _, e := range list {
		out = append(out, orDefault(e.Description, noDescription)+" in "+orDefault(e.Industry, unknownInd))
	}
	return out
}

func joinOr(parts []string, sep string) string {
	if len(parts) == 0 {
		return none
	}
	return strings.Join(parts, sep)
}

func intOr(v *int) string {
	if v == nil {
		return notAvailable
	}
	return strconv.Itoa(*v)
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
