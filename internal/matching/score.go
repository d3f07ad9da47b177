package matching

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"recruit-backend/internal/catalog"
)

// Component weights of the rule-based score. They sum to 100.
const (
	weightRequiredSkills = 50
	weightNiceSkills     = 10
	weightYears          = 20
	weightLevel          = 10
	weightDegree         = 10
)

// Breakdown is the structured reason stored for a calculated score. Match
// listings read the same shape back out of the reason column.
type Breakdown struct {
	Reasons       []string `json:"reasons"`
	Advantages    []string `json:"advantages"`
	Disadvantages []string `json:"disadvantages"`
}

// Calculate scores a pair from catalog data alone. The reason is a JSON
// encoded Breakdown.
func Calculate(job catalog.Job, resume catalog.Resume) Result {
	var b Breakdown
	have := skillSet(resume)

	total := 0.0
	total += coverage(&b, "required skills", job.RequiredSkills(), have, weightRequiredSkills)
	total += coverage(&b, "nice-to-have skills", job.NiceToHaveSkills(), have, weightNiceSkills)
	total += yearsScore(&b, job.MinYears, resume.YearsOfExperience)

	switch {
	case job.LevelID == nil:
		total += weightLevel
	case resume.CurrentLevelID != nil && *resume.CurrentLevelID == *job.LevelID:
		total += weightLevel
		b.Advantages = append(b.Advantages, fmt.Sprintf("Level matches %s", orUnknown(job.Level)))
	default:
		b.Disadvantages = append(b.Disadvantages, fmt.Sprintf("Level differs from %s", orUnknown(job.Level)))
	}

	switch {
	case job.DegreeRequiredID == nil:
		total += weightDegree
	case hasDegree(resume, *job.DegreeRequiredID):
		total += weightDegree
		b.Advantages = append(b.Advantages, fmt.Sprintf("Holds required degree %s", orUnknown(job.Degree)))
	default:
		b.Disadvantages = append(b.Disadvantages, fmt.Sprintf("Missing required degree %s", orUnknown(job.Degree)))
	}

	score := int(math.Round(total))
	b.Reasons = append([]string{fmt.Sprintf("Rule-based score %d/100", score)}, b.Reasons...)
	return Result{Score: clamp(score), Reason: b.String()}
}

// String renders b as JSON with empty lists instead of nulls.
func (b Breakdown) String() string {
	out := Breakdown{
		Reasons:       nonNil(b.Reasons),
		Advantages:    nonNil(b.Advantages),
		Disadvantages: nonNil(b.Disadvantages),
	}
	payload, _ := json.Marshal(out)
	return string(payload)
}

func coverage(b *Breakdown, label string, want []string, have map[string]bool, weight float64) float64 {
	if len(want) == 0 {
		return weight
	}
	var matched, missing []string
	for _, name := range want {
		if have[strings.ToLower(name)] {
			matched = append(matched, name)
		} else {
			missing = append(missing, name)
		}
	}
	b.Reasons = append(b.Reasons, fmt.Sprintf("Covers %d of %d %s", len(matched), len(want), label))
	if len(matched) > 0 {
		b.Advantages = append(b.Advantages, "Has "+strings.Join(matched, ", "))
	}
	if len(missing) > 0 {
		b.Disadvantages = append(b.Disadvantages, "Lacks "+strings.Join(missing, ", "))
	}
	return weight * float64(len(matched)) / float64(len(want))
}

func yearsScore(b *Breakdown, minYears, years *int) float64 {
	if minYears == nil || *minYears <= 0 {
		return weightYears
	}
	if years == nil {
		b.Disadvantages = append(b.Disadvantages, fmt.Sprintf("Experience unknown, %d years required", *minYears))
		return 0
	}
	if *years >= *minYears {
		b.Advantages = append(b.Advantages, fmt.Sprintf("%d years of experience meets %d required", *years, *minYears))
		return weightYears
	}
	b.Disadvantages = append(b.Disadvantages, fmt.Sprintf("%d years of experience below %d required", *years, *minYears))
	if *years <= 0 {
		return 0
	}
	return weightYears * float64(*years) / float64(*minYears)
}

func skillSet(r catalog.Resume) map[string]bool {
	out := make(map[string]bool, len(r.Skills))
	for _, name := range r.SkillNames() {
		out[strings.ToLower(name)] = true
	}
	return out
}

func hasDegree(r catalog.Resume, degreeID int64) bool {
	for _, e := range r.Educations {
		if e.DegreeID == degreeID {
			return true
		}
	}
	return false
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Unknown"
	}
	return s
}
