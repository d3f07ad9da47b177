package generation

import (
	"context"
	"fmt"
	"strings"

	"recruit-backend/internal/catalog"
	"recruit-backend/internal/prompts"
	"recruit-backend/internal/shared/auth"
	"recruit-backend/internal/shared/telemetry"
	"recruit-backend/internal/vocabulary"
)

// Status is the outcome of one generated item.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusSkipped   Status = "skipped"
)

// PartialWrite records a child row that was not written. The parent stays.
type PartialWrite struct {
	Table  string
	Name   string
	Reason string
}

func (w PartialWrite) Error() string {
	if w.Name == "" {
		return fmt.Sprintf("%s: %s", w.Table, w.Reason)
	}
	return fmt.Sprintf("%s %q: %s", w.Table, w.Name, w.Reason)
}

// Outcome is the result for the item at Index of a batch.
type Outcome struct {
	Index    int
	Status   Status
	Reason   string
	Job      *catalog.Job
	Resume   *catalog.Resume
	Warnings []PartialWrite
}

// Manifest lists per-item outcomes in batch order.
type Manifest struct {
	EntityType prompts.EntityType
	Requested  int
	Outcomes   []Outcome
}

// Persisted returns the entities whose parent row was written.
func (m Manifest) Persisted() []any {
	out := make([]any, 0, len(m.Outcomes))
	for _, o := range m.Outcomes {
		if o.Status != StatusSucceeded {
			continue
		}
		switch {
		case o.Job != nil:
			out = append(out, *o.Job)
		case o.Resume != nil:
			out = append(out, *o.Resume)
		}
	}
	return out
}

// Counts returns the succeeded and skipped totals.
func (m Manifest) Counts() (succeeded, skipped int) {
	for _, o := range m.Outcomes {
		if o.Status == StatusSucceeded {
			succeeded++
		} else {
			skipped++
		}
	}
	return succeeded, skipped
}

// Materializer turns generated items into catalog rows. Every statement
// commits on its own: a parent is never rolled back because a child failed.
type Materializer struct {
	Writer catalog.Writer
}

// Materialize writes items in order and never fails as a whole. The owner of
// every row is p.UserID.
func (m *Materializer) Materialize(ctx context.Context, p auth.Principal, entityType prompts.EntityType, items []any, vocab *vocabulary.Vocabulary) Manifest {
	manifest := Manifest{EntityType: entityType, Requested: len(items), Outcomes: make([]Outcome, 0, len(items))}
	for i, raw := range items {
		var outcome Outcome
		switch entityType {
		case prompts.EntityJob:
			outcome = m.job(ctx, p, raw, vocab)
		case prompts.EntityResume:
			outcome = m.resume(ctx, p, raw, vocab)
		default:
			outcome = Outcome{Status: StatusSkipped, Reason: prompts.ErrUnknownEntityType.Error()}
		}
		outcome.Index = i
		logOutcome(entityType, outcome)
		manifest.Outcomes = append(manifest.Outcomes, outcome)
	}
	return manifest
}

func (m *Materializer) job(ctx context.Context, p auth.Principal, raw any, vocab *vocabulary.Vocabulary) Outcome {
	item, err := DecodeJob(raw)
	if err != nil {
		return skipped(err)
	}
	job, err := m.Writer.CreateJob(ctx, p, catalog.NewJob{
		UserID:           p.UserID,
		Title:            item.Title,
		CityID:           vocab.Ref(vocabulary.City, item.City),
		MinYears:         item.MinYears,
		LevelID:          vocab.Ref(vocabulary.Level, item.Level),
		DegreeRequiredID: vocab.Ref(vocabulary.Degree, item.DegreeRequired),
		IndustryID:       vocab.Ref(vocabulary.Industry, item.Industry),
		SalaryMin:        item.SalaryMin,
		SalaryMax:        item.SalaryMax,
	})
	if err != nil {
		return skipped(err)
	}
	job.City = nameOf(vocab, vocabulary.City, job.CityID)
	job.Level = nameOf(vocab, vocabulary.Level, job.LevelID)
	job.Degree = nameOf(vocab, vocabulary.Degree, job.DegreeRequiredID)
	job.Industry = nameOf(vocab, vocabulary.Industry, job.IndustryID)

	out := Outcome{Status: StatusSucceeded}
	for _, s := range item.Skills {
		skillID, ok := vocab.Lookup(vocabulary.Skill, s.Name)
		if !ok {
			out.Warnings = append(out.Warnings, PartialWrite{Table: "job_skills", Name: s.Name, Reason: "unknown skill"})
			continue
		}
		if err := m.Writer.AddJobSkill(ctx, p, job.ID, skillID, s.Required()); err != nil {
			out.Warnings = append(out.Warnings, PartialWrite{Table: "job_skills", Name: s.Name, Reason: err.Error()})
			continue
		}
		name, _ := vocab.NameOf(vocabulary.Skill, skillID)
		job.Skills = append(job.Skills, catalog.JobSkill{SkillID: skillID, Name: name, Required: s.Required()})
	}
	out.Job = &job
	return out
}

func (m *Materializer) resume(ctx context.Context, p auth.Principal, raw any, vocab *vocabulary.Vocabulary) Outcome {
	item, err := DecodeResume(raw)
	if err != nil {
		return skipped(err)
	}
	resume, err := m.Writer.CreateResume(ctx, p, catalog.NewResume{
		UserID:            p.UserID,
		CandidateName:     item.CandidateName,
		Gender:            normalizeGender(item.Gender),
		ExpectedCityID:    vocab.Ref(vocabulary.City, item.ExpectedCity),
		YearsOfExperience: item.YearsOfExperience,
		CurrentLevelID:    vocab.Ref(vocabulary.Level, item.CurrentLevel),
		ExpectedTitle:     item.ExpectedTitle,
		ExpectedSalaryMin: item.ExpectedSalaryMin,
		ExpectedSalaryMax: item.ExpectedSalaryMax,
	})
	if err != nil {
		return skipped(err)
	}
	resume.City = nameOf(vocab, vocabulary.City, resume.ExpectedCityID)
	resume.Level = nameOf(vocab, vocabulary.Level, resume.CurrentLevelID)

	out := Outcome{Status: StatusSucceeded}
	for _, name := range item.Skills {
		skillID, ok := vocab.Lookup(vocabulary.Skill, name)
		if !ok {
			out.Warnings = append(out.Warnings, PartialWrite{Table: "resume_skills", Name: name, Reason: "unknown skill"})
			continue
		}
		if err := m.Writer.AddResumeSkill(ctx, p, resume.ID, skillID); err != nil {
			out.Warnings = append(out.Warnings, PartialWrite{Table: "resume_skills", Name: name, Reason: err.Error()})
			continue
		}
		canonical, _ := vocab.NameOf(vocabulary.Skill, skillID)
		resume.Skills = append(resume.Skills, catalog.ResumeSkill{SkillID: skillID, Name: canonical})
	}

	for _, edu := range item.Educations {
		degreeID, ok := vocab.Lookup(vocabulary.Degree, edu.Degree)
		if !ok {
			out.Warnings = append(out.Warnings, PartialWrite{Table: "educations", Name: edu.School, Reason: fmt.Sprintf("unknown degree %q", edu.Degree)})
			continue
		}
		in := catalog.NewEducation{
			School:          edu.School,
			MajorIndustryID: vocab.Ref(vocabulary.Industry, edu.MajorIndustry),
			DegreeID:        degreeID,
		}
		if err := m.Writer.AddEducation(ctx, p, resume.ID, in); err != nil {
			out.Warnings = append(out.Warnings, PartialWrite{Table: "educations", Name: edu.School, Reason: err.Error()})
			continue
		}
		resume.Educations = append(resume.Educations, catalog.Education{
			School:          in.School,
			MajorIndustryID: in.MajorIndustryID,
			DegreeID:        degreeID,
			Major:           nameOf(vocab, vocabulary.Industry, in.MajorIndustryID),
			Degree:          nameOf(vocab, vocabulary.Degree, &degreeID),
		})
	}

	for _, exp := range item.Experiences {
		in := catalog.NewExperience{
			CompanyName: exp.CompanyName,
			IndustryID:  vocab.Ref(vocabulary.Industry, exp.Industry),
			Description: exp.Description,
		}
		if err := m.Writer.AddExperience(ctx, p, resume.ID, in); err != nil {
			out.Warnings = append(out.Warnings, PartialWrite{Table: "experiences", Name: exp.CompanyName, Reason: err.Error()})
			continue
		}
		resume.Experiences = append(resume.Experiences, catalog.Experience{
			CompanyName: in.CompanyName,
			IndustryID:  in.IndustryID,
			Industry:    nameOf(vocab, vocabulary.Industry, in.IndustryID),
			Description: in.Description,
		})
	}
	out.Resume = &resume
	return out
}

func skipped(err error) Outcome {
	return Outcome{Status: StatusSkipped, Reason: err.Error()}
}

func nameOf(vocab *vocabulary.Vocabulary, d vocabulary.Dimension, id *int64) string {
	if id == nil {
		return ""
	}
	name, _ := vocab.NameOf(d, *id)
	return name
}

func normalizeGender(raw string) string {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "M", "MALE":
		return "M"
	case "F", "FEMALE":
		return "F"
	default:
		return ""
	}
}

func logOutcome(entityType prompts.EntityType, o Outcome) {
	if o.Status == StatusSkipped {
		telemetry.Warn("generation.item_skipped", map[string]any{
			"entity_type": string(entityType),
			"index":       o.Index,
			"reason":      o.Reason,
		})
		return
	}
	for _, w := range o.Warnings {
		telemetry.Warn("generation.partial_write", map[string]any{
			"entity_type": string(entityType),
			"index":       o.Index,
			"table":       w.Table,
			"name":        w.Name,
			"reason":      w.Reason,
		})
	}
}
