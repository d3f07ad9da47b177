package prompts

import (
	"fmt"
	"strconv"
	"strings"

	"recruit-backend/internal/vocabulary"
)

// BuildGeneration renders the generation instruction for count items of
// entityType. Allowed values come verbatim from vocab; ids never appear.
func BuildGeneration(entityType EntityType, count int, vocab *vocabulary.Vocabulary) (string, error) {
	var tmpl string
	switch entityType {
	case EntityJob:
		tmpl = jobGenerationTemplate
	case EntityResume:
		tmpl = resumeGenerationTemplate
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownEntityType, string(entityType))
	}
	if vocab == nil {
		vocab = vocabulary.New(nil)
	}

	r := strings.NewReplacer(
		"{{COUNT}}", strconv.Itoa(count),
		"{{CITIES}}", allowed(vocab, vocabulary.City),
		"{{LEVELS}}", allowed(vocab, vocabulary.Level),
		"{{INDUSTRIES}}", allowed(vocab, vocabulary.Industry),
		"{{DEGREES}}", allowed(vocab, vocabulary.Degree),
		"{{SKILLS}}", allowed(vocab, vocabulary.Skill),
	)
	return strings.TrimSpace(r.Replace(tmpl)), nil
}

func allowed(vocab *vocabulary.Vocabulary, d vocabulary.Dimension) string {
	return strings.Join(vocab.Names(d), ", ")
}
