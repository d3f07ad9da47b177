// Package prompts renders the generation and match instructions sent to the model.
package prompts

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
)

const (
	SystemGeneration = "You are a helpful assistant that generates JSON data."
	SystemMatch      = "You are an expert HR recruiter AI."
)

var (
	//go:embed templates/job_generation.txt
	jobGenerationTemplate string
	//go:embed templates/resume_generation.txt
	resumeGenerationTemplate string
	//go:embed templates/match.txt
	matchTemplate string
)

// ErrUnknownEntityType is returned for entity types other than job and resume.
var ErrUnknownEntityType = errors.New(`invalid type. Must be "job" or "resume"`)

// EntityType selects a generation schema.
type EntityType string

const (
	EntityJob    EntityType = "job"
	EntityResume EntityType = "resume"
)

// ParseEntityType validates raw.
func ParseEntityType(raw string) (EntityType, error) {
	switch EntityType(strings.ToLower(strings.TrimSpace(raw))) {
	case EntityJob:
		return EntityJob, nil
	case EntityResume:
		return EntityResume, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownEntityType, raw)
	}
}
