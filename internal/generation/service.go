package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"recruit-backend/internal/extract"
	"recruit-backend/internal/llm"
	"recruit-backend/internal/prompts"
	"recruit-backend/internal/shared/auth"
	"recruit-backend/internal/shared/metrics"
	"recruit-backend/internal/shared/telemetry"
	"recruit-backend/internal/vocabulary"
)

const (
	DefaultCount = 3
	MaxCount     = 20

	// Temperature is used for every generation call.
	Temperature = 0.7
)

var (
	ErrInvalidCount  = fmt.Errorf("count must be between 1 and %d", MaxCount)
	ErrOwnerRequired = errors.New("unauthorized")
)

// Service runs one generation batch: vocabulary, prompt, model, parse, write.
type Service struct {
	Vocab        *vocabulary.Resolver
	LLM          llm.Gateway
	Materializer *Materializer
}

// NewService constructs a Service.
func NewService(vocab *vocabulary.Resolver, gateway llm.Gateway, writer *Materializer) *Service {
	return &Service{Vocab: vocab, LLM: gateway, Materializer: writer}
}

// Generate asks the model for count items of entityType and persists them
// under p. A model reply that is not JSON aborts the batch with
// *extract.ParseError before anything is written.
func (s *Service) Generate(ctx context.Context, p auth.Principal, entityType prompts.EntityType, count int) (Manifest, error) {
	if count < 1 || count > MaxCount {
		return Manifest{}, ErrInvalidCount
	}
	if strings.TrimSpace(p.UserID) == "" {
		return Manifest{}, ErrOwnerRequired
	}
	metrics.IncGenerationRequests()
	start := time.Now()

	vocab, err := s.Vocab.Load(ctx, p)
	if err != nil {
		return Manifest{}, fmt.Errorf("load vocabulary: %w", err)
	}
	prompt, err := prompts.BuildGeneration(entityType, count, vocab)
	if err != nil {
		return Manifest{}, err
	}

	content, err := llm.Text(ctx, s.LLM, []llm.Message{
		{Role: llm.RoleSystem, Content: prompts.SystemGeneration},
		{Role: llm.RoleUser, Content: prompt},
	}, Temperature)
	if err != nil {
		return Manifest{}, err
	}

	items, err := extract.Array(content)
	if err != nil {
		telemetry.Error("generation.parse_failed", map[string]any{
			"entity_type": string(entityType),
			"content":     telemetry.Truncate(content, 500),
			"error":       err,
		})
		return Manifest{}, err
	}

	manifest := s.Materializer.Materialize(ctx, p, entityType, items, vocab)
	manifest.Requested = count
	succeeded, skipped := manifest.Counts()
	metrics.AddGenerationItems(succeeded, skipped)
	telemetry.Info("generation.completed", map[string]any{
		"entity_type": string(entityType),
		"requested":   count,
		"returned":    len(items),
		"persisted":   succeeded,
		"skipped":     skipped,
		"user_id":     p.UserID,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return manifest, nil
}
