package matching

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"recruit-backend/internal/catalog"
	"recruit-backend/internal/extract"
	"recruit-backend/internal/llm"
	"recruit-backend/internal/shared/auth"
	"recruit-backend/internal/vocabulary"
)

var caller = auth.Principal{UserID: "user-1", Role: auth.RoleAuthenticated}

type fixture struct {
	dims    *vocabulary.MemorySource
	catalog *catalog.MemoryRepo
	repo    *MemoryRepo
	calls   *atomic.Int32
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dims := vocabulary.NewMemorySource(map[vocabulary.Dimension][]string{
		vocabulary.City:     {"Beijing"},
		vocabulary.Level:    {"Junior", "Senior"},
		vocabulary.Industry: {"Internet"},
		vocabulary.Degree:   {"Bachelor", "Master"},
		vocabulary.Skill:    {"Go", "SQL", "React"},
	})
	return &fixture{
		dims:    dims,
		catalog: catalog.NewMemoryRepo(dims),
		repo:    NewMemoryRepo(),
		calls:   &atomic.Int32{},
	}
}

func (f *fixture) id(t *testing.T, d vocabulary.Dimension, name string) int64 {
	t.Helper()
	values, err := f.dims.Dimension(context.Background(), auth.Service(), d)
	require.NoError(t, err)
	for _, v := range values {
		if v.Name == name {
			return v.ID
		}
	}
	t.Fatalf("%s %q not seeded", d, name)
	return 0
}

func (f *fixture) job(t *testing.T, title string, required, nice []string) catalog.Job {
	t.Helper()
	ctx := context.Background()
	minYears := 3
	level := f.id(t, vocabulary.Level, "Senior")
	degree := f.id(t, vocabulary.Degree, "Bachelor")
	job, err := f.catalog.CreateJob(ctx, caller, catalog.NewJob{
		UserID: caller.UserID, Title: title, MinYears: &minYears, LevelID: &level, DegreeRequiredID: &degree,
	})
	require.NoError(t, err)
	for _, s := range required {
		require.NoError(t, f.catalog.AddJobSkill(ctx, caller, job.ID, f.id(t, vocabulary.Skill, s), true))
	}
	for _, s := range nice {
		require.NoError(t, f.catalog.AddJobSkill(ctx, caller, job.ID, f.id(t, vocabulary.Skill, s), false))
	}
	got, err := f.catalog.GetJob(ctx, caller, job.ID)
	require.NoError(t, err)
	return got
}

func (f *fixture) resume(t *testing.T, name string, years int, skills []string) catalog.Resume {
	t.Helper()
	ctx := context.Background()
	level := f.id(t, vocabulary.Level, "Senior")
	resume, err := f.catalog.CreateResume(ctx, caller, catalog.NewResume{
		UserID: caller.UserID, CandidateName: name, YearsOfExperience: &years, CurrentLevelID: &level,
	})
	require.NoError(t, err)
	for _, s := range skills {
		require.NoError(t, f.catalog.AddResumeSkill(ctx, caller, resume.ID, f.id(t, vocabulary.Skill, s)))
	}
	require.NoError(t, f.catalog.AddEducation(ctx, caller, resume.ID, catalog.NewEducation{
		School: "PKU", DegreeID: f.id(t, vocabulary.Degree, "Bachelor"),
	}))
	got, err := f.catalog.GetResume(ctx, caller, resume.ID)
	require.NoError(t, err)
	return got
}

func (f *fixture) evaluator(content string) *Evaluator {
	return NewEvaluator(f.catalog, llm.GatewayFunc(func(ctx context.Context, messages []llm.Message, temperature float64) (llm.RawCompletion, error) {
		f.calls.Add(1)
		return llm.CompletionFromText(content), nil
	}), f.repo)
}

func TestEvaluateStoresOneRowPerPair(t *testing.T) {
	f := newFixture(t)
	job := f.job(t, "Go Dev", []string{"Go"}, nil)
	resume := f.resume(t, "Li Lei", 5, []string{"Go"})
	ev := f.evaluator("```json\n{\"score\": 85, \"reason\": \"Strong Go\"}\n```")

	for i := 0; i < 2; i++ {
		res, err := ev.Evaluate(context.Background(), caller, resume.ID, job.ID)
		require.NoError(t, err)
		require.Equal(t, Result{Score: 85, Reason: "Strong Go"}, res)
	}

	n, err := f.repo.Count(context.Background(), auth.Service())
	require.NoError(t, err)
	require.Equal(t, 1, n)

	row, err := f.repo.Get(context.Background(), auth.Service(), resume.ID, job.ID)
	require.NoError(t, err)
	require.Equal(t, 85, *row.Score)
	require.Equal(t, "Strong Go", *row.Reason)
}

func TestConcurrentEvaluateStoresOneRow(t *testing.T) {
	f := newFixture(t)
	job := f.job(t, "Go Dev", []string{"Go"}, nil)
	resume := f.resume(t, "Li Lei", 5, []string{"Go"})
	ev := f.evaluator(`{"score": 70, "reason": "ok"}`)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ev.Evaluate(context.Background(), caller, resume.ID, job.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	n, err := f.repo.Count(context.Background(), auth.Service())
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestEvaluateUnparseableReplyStoresFallback(t *testing.T) {
	f := newFixture(t)
	job := f.job(t, "Go Dev", nil, nil)
	resume := f.resume(t, "Li Lei", 1, nil)

	res, err := f.evaluator("not json at all").Evaluate(context.Background(), caller, resume.ID, job.ID)
	require.NoError(t, err)
	require.Equal(t, Result{Score: 0, Reason: extract.FallbackReason}, res)

	row, err := f.repo.Get(context.Background(), auth.Service(), resume.ID, job.ID)
	require.NoError(t, err)
	require.Equal(t, 0, *row.LLMScore)
}

func TestEvaluateUsesMatchTemperature(t *testing.T) {
	f := newFixture(t)
	job := f.job(t, "Go Dev", []string{"Go"}, []string{"SQL"})
	resume := f.resume(t, "Li Lei", 4, []string{"Go"})

	var gotTemp float64
	var gotMessages []llm.Message
	ev := NewEvaluator(f.catalog, llm.GatewayFunc(func(ctx context.Context, messages []llm.Message, temperature float64) (llm.RawCompletion, error) {
		gotTemp, gotMessages = temperature, messages
		return llm.CompletionFromText(`{"score": 50, "reason": "x"}`), nil
	}), f.repo)

	_, err := ev.Evaluate(context.Background(), caller, resume.ID, job.ID)
	require.NoError(t, err)
	require.Equal(t, Temperature, gotTemp)
	require.Len(t, gotMessages, 2)
	require.Contains(t, gotMessages[1].Content, "Title: Go Dev")
	require.Contains(t, gotMessages[1].Content, "Nice-to-have: SQL")
}

func TestEvaluateMissingEntityIsNotFound(t *testing.T) {
	f := newFixture(t)
	job := f.job(t, "Go Dev", nil, nil)

	_, err := f.evaluator(`{"score": 1}`).Evaluate(context.Background(), caller, 999, job.ID)
	require.ErrorIs(t, err, catalog.ErrNotFound)
	require.Zero(t, f.calls.Load())
}

func TestEvaluateRejectsMissingIDs(t *testing.T) {
	f := newFixture(t)
	_, err := f.evaluator(`{}`).Evaluate(context.Background(), caller, 0, 1)
	require.ErrorIs(t, err, ErrInvalidPair)
}

func TestEvaluatePropagatesTransportError(t *testing.T) {
	f := newFixture(t)
	job := f.job(t, "Go Dev", nil, nil)
	resume := f.resume(t, "Li Lei", 1, nil)
	ev := NewEvaluator(f.catalog, llm.GatewayFunc(func(ctx context.Context, messages []llm.Message, temperature float64) (llm.RawCompletion, error) {
		return nil, &llm.TransportError{Status: 429, Message: "rate limited"}
	}), f.repo)

	_, err := ev.Evaluate(context.Background(), caller, resume.ID, job.ID)
	var transportErr *llm.TransportError
	require.ErrorAs(t, err, &transportErr)
	require.Equal(t, 429, transportErr.Status)

	n, err := f.repo.Count(context.Background(), auth.Service())
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestEvaluatePersistFailureKeepsResult(t *testing.T) {
	f := newFixture(t)
	job := f.job(t, "Go Dev", nil, nil)
	resume := f.resume(t, "Li Lei", 1, nil)
	f.repo.FailUpsert = errors.New("permission denied")

	res, err := f.evaluator(`{"score": 64, "reason": "fine"}`).Evaluate(context.Background(), caller, resume.ID, job.ID)
	var persistErr *PersistError
	require.ErrorAs(t, err, &persistErr)
	require.Equal(t, Result{Score: 64, Reason: "fine"}, persistErr.Result)
	require.Equal(t, 64, res.Score)
	require.Contains(t, err.Error(), "failed to update match score")
}

func TestCalculateKeepsLLMOpinion(t *testing.T) {
	f := newFixture(t)
	job := f.job(t, "Go Dev", []string{"Go", "SQL"}, nil)
	resume := f.resume(t, "Li Lei", 5, []string{"Go"})

	_, err := f.evaluator(`{"score": 91, "reason": "llm"}`).Evaluate(context.Background(), caller, resume.ID, job.ID)
	require.NoError(t, err)

	row, err := NewCalculator(f.catalog, f.repo).Calculate(context.Background(), caller, resume.ID, job.ID)
	require.NoError(t, err)
	require.NotNil(t, row.CalculateScore)
	require.Equal(t, 91, *row.LLMScore)
	require.Equal(t, 91, *row.Score)
	require.Equal(t, "llm", *row.Reason)
}

func TestCalculateAloneSetsDisplayScore(t *testing.T) {
	f := newFixture(t)
	job := f.job(t, "Go Dev", []string{"Go"}, nil)
	resume := f.resume(t, "Li Lei", 5, []string{"Go"})

	row, err := NewCalculator(f.catalog, f.repo).Calculate(context.Background(), caller, resume.ID, job.ID)
	require.NoError(t, err)
	require.Nil(t, row.LLMScore)
	require.Equal(t, 100, *row.Score)
	require.Equal(t, *row.CalculateReason, *row.Reason)
}
