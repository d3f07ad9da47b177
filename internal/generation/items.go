package generation

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// GeneratedJob is one job as described by the model. Categorical fields hold
// names, never ids.
type GeneratedJob struct {
	Title          string              `mapstructure:"title"`
	City           string              `mapstructure:"city"`
	MinYears       *int                `mapstructure:"min_years"`
	Level          string              `mapstructure:"level"`
	DegreeRequired string              `mapstructure:"degree_required"`
	Industry       string              `mapstructure:"industry"`
	SalaryMin      *int                `mapstructure:"salary_min"`
	SalaryMax      *int                `mapstructure:"salary_max"`
	Skills         []GeneratedJobSkill `mapstructure:"skills"`
}

// GeneratedJobSkill is a skill requirement of a generated job. A missing
// is_required means required, matching the column default.
type GeneratedJobSkill struct {
	Name       string `mapstructure:"name"`
	IsRequired *bool  `mapstructure:"is_required"`
}

// Required reports the effective requirement flag.
func (s GeneratedJobSkill) Required() bool {
	return s.IsRequired == nil || *s.IsRequired
}

// GeneratedResume is one resume as described by the model.
type GeneratedResume struct {
	CandidateName     string                `mapstructure:"candidate_name"`
	Gender            string                `mapstructure:"gender"`
	ExpectedCity      string                `mapstructure:"expected_city"`
	YearsOfExperience *int                  `mapstructure:"years_of_experience"`
	CurrentLevel      string                `mapstructure:"current_level"`
	ExpectedTitle     string                `mapstructure:"expected_title"`
	ExpectedSalaryMin *int                  `mapstructure:"expected_salary_min"`
	ExpectedSalaryMax *int                  `mapstructure:"expected_salary_max"`
	Educations        []GeneratedEducation  `mapstructure:"educations"`
	Experiences       []GeneratedExperience `mapstructure:"experiences"`
	Skills            []string              `mapstructure:"skills"`
}

// GeneratedEducation is one education entry of a generated resume.
type GeneratedEducation struct {
	School        string `mapstructure:"school"`
	MajorIndustry string `mapstructure:"major_industry"`
	Degree        string `mapstructure:"degree"`
}

// GeneratedExperience is one experience entry of a generated resume.
type GeneratedExperience struct {
	CompanyName string `mapstructure:"company_name"`
	Industry    string `mapstructure:"industry"`
	Description string `mapstructure:"description"`
}

var (
	jobSkillType = reflect.TypeOf(GeneratedJobSkill{})
	stringType   = reflect.TypeOf("")
)

// lenientHook accepts the shapes models drift into: a bare string where a
// skill object is expected, and a {"name": ...} object where a string is.
func lenientHook(from, to reflect.Type, data any) (any, error) {
	switch {
	case to == jobSkillType && from.Kind() == reflect.String:
		return map[string]any{"name": data}, nil
	case to == stringType && from.Kind() == reflect.Map:
		if m, ok := data.(map[string]any); ok {
			if name, ok := m["name"]; ok {
				return fmt.Sprint(name), nil
			}
		}
	case from.Kind() == reflect.String && to.Kind() == reflect.String:
		return strings.TrimSpace(data.(string)), nil
	}
	return data, nil
}

func decodeItem(raw any, out any) error {
	if _, ok := raw.(map[string]any); !ok {
		return fmt.Errorf("item is %T, want object", raw)
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       lenientHook,
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}

// DecodeJob decodes one untyped item into a GeneratedJob.
func DecodeJob(raw any) (GeneratedJob, error) {
	var job GeneratedJob
	if err := decodeItem(raw, &job); err != nil {
		return GeneratedJob{}, fmt.Errorf("decode job: %w", err)
	}
	return job, nil
}

// DecodeResume decodes one untyped item into a GeneratedResume.
func DecodeResume(raw any) (GeneratedResume, error) {
	var resume GeneratedResume
	if err := decodeItem(raw, &resume); err != nil {
		return GeneratedResume{}, fmt.Errorf("decode resume: %w", err)
	}
	return resume, nil
}
