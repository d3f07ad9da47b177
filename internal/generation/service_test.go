package generation

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"recruit-backend/internal/catalog"
	"recruit-backend/internal/extract"
	"recruit-backend/internal/llm"
	"recruit-backend/internal/prompts"
	"recruit-backend/internal/shared/auth"
	"recruit-backend/internal/vocabulary"
)

var owner = auth.Principal{UserID: "user-1", Role: auth.RoleAuthenticated}

type fixture struct {
	dims *vocabulary.MemorySource
	repo *catalog.MemoryRepo
	svc  *Service
}

func newFixture(t *testing.T, gateway llm.Gateway) *fixture {
	t.Helper()
	dims := vocabulary.NewMemorySource(map[vocabulary.Dimension][]string{
		vocabulary.City:     {"Beijing", "Shanghai"},
		vocabulary.Level:    {"Junior", "Senior"},
		vocabulary.Industry: {"Internet", "Finance"},
		vocabulary.Degree:   {"Bachelor", "Master"},
		vocabulary.Skill:    {"Go", "SQL", "React"},
	})
	repo := catalog.NewMemoryRepo(dims)
	svc := NewService(vocabulary.NewResolver(dims), gateway, &Materializer{Writer: repo})
	return &fixture{dims: dims, repo: repo, svc: svc}
}

func reply(content string) llm.Gateway {
	return llm.GatewayFunc(func(ctx context.Context, messages []llm.Message, temperature float64) (llm.RawCompletion, error) {
		return llm.CompletionFromText(content), nil
	})
}

const threeJobs = "```json\n[" +
	`{"title": "Go Dev", "city": "Beijing", "level": "Senior", "min_years": "3", "skills": [{"name": "Go", "is_required": true}, {"name": "React", "is_required": false}]},` +
	`{"title": "Mystery Role", "city": "Atlantis", "level": "Junior", "salary_min": 8000.0, "salary_max": 12000},` +
	`{"title": "Analyst", "city": "shanghai", "industry": "Finance", "degree_required": "Master", "skills": ["SQL"]}` +
	"]\n```"

func TestGenerateUnknownCityBecomesNullReference(t *testing.T) {
	f := newFixture(t, reply(threeJobs))

	manifest, err := f.svc.Generate(context.Background(), owner, prompts.EntityJob, 3)
	require.NoError(t, err)

	persisted := manifest.Persisted()
	require.Len(t, persisted, 3)

	atlantis := persisted[1].(catalog.Job)
	require.Equal(t, "Mystery Role", atlantis.Title)
	require.Nil(t, atlantis.CityID)
	require.NotNil(t, atlantis.LevelID)
	require.Equal(t, 8000, *atlantis.SalaryMin)

	first := persisted[0].(catalog.Job)
	require.NotNil(t, first.CityID)
	require.Equal(t, 3, *first.MinYears)
	require.Equal(t, []string{"Go"}, first.RequiredSkills())
	require.Equal(t, []string{"React"}, first.NiceToHaveSkills())

	third := persisted[2].(catalog.Job)
	require.Equal(t, "Shanghai", third.City)
	require.Equal(t, []string{"SQL"}, third.RequiredSkills())

	page, err := f.repo.ListJobs(context.Background(), owner, catalog.JobFilter{})
	require.NoError(t, err)
	require.Equal(t, 3, page.Total)
	for _, job := range page.Items {
		require.Equal(t, "user-1", job.UserID)
	}
}

func TestGenerateUsesNamesCapturedAtLoad(t *testing.T) {
	var f *fixture
	var prompt string
	f = newFixture(t, llm.GatewayFunc(func(ctx context.Context, messages []llm.Message, temperature float64) (llm.RawCompletion, error) {
		prompt = messages[len(messages)-1].Content
		values, _ := f.dims.Dimension(ctx, auth.Service(), vocabulary.City)
		f.dims.Rename(vocabulary.City, values[0].ID, "Peking")
		return llm.CompletionFromText(`[{"title": "Go Dev", "city": "Beijing"}]`), nil
	}))

	manifest, err := f.svc.Generate(context.Background(), owner, prompts.EntityJob, 1)
	require.NoError(t, err)
	require.Contains(t, prompt, "Beijing")
	require.NotContains(t, prompt, "Peking")

	persisted := manifest.Persisted()
	require.Len(t, persisted, 1)
	job := persisted[0].(catalog.Job)
	require.NotNil(t, job.CityID, "captured name must still resolve after a rename")

	stored, err := f.repo.GetJob(context.Background(), owner, job.ID)
	require.NoError(t, err)
	require.Equal(t, "Peking", stored.City)
}

func TestGenerateParseFailureAbortsBatch(t *testing.T) {
	f := newFixture(t, reply("Sorry, I cannot help with that."))

	_, err := f.svc.Generate(context.Background(), owner, prompts.EntityJob, 2)
	var parseErr *extract.ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Contains(t, err.Error(), "Sorry, I cannot help")

	ids, err := f.repo.JobIDs(context.Background(), owner)
	require.NoError(t, err)
	require.Empty(t, ids)
}

func TestGenerateSingleObjectIsWrapped(t *testing.T) {
	f := newFixture(t, reply(`{"title": "Solo", "city": "Beijing"}`))

	manifest, err := f.svc.Generate(context.Background(), owner, prompts.EntityJob, 1)
	require.NoError(t, err)
	require.Len(t, manifest.Persisted(), 1)
}

func TestGenerateParentFailureSkipsItemOnly(t *testing.T) {
	f := newFixture(t, reply(threeJobs))
	var calls atomic.Int32
	f.repo.FailInsert = func(table string) error {
		if table == "jobs" && calls.Add(1) == 2 {
			return errors.New("insert rejected")
		}
		return nil
	}

	manifest, err := f.svc.Generate(context.Background(), owner, prompts.EntityJob, 3)
	require.NoError(t, err)

	succeeded, skipped := manifest.Counts()
	require.Equal(t, 2, succeeded)
	require.Equal(t, 1, skipped)
	require.Equal(t, StatusSkipped, manifest.Outcomes[1].Status)
	require.Contains(t, manifest.Outcomes[1].Reason, "insert rejected")
	require.Len(t, manifest.Persisted(), 2)
}

func TestGenerateChildFailureKeepsParent(t *testing.T) {
	f := newFixture(t, reply(threeJobs))
	f.repo.FailInsert = func(table string) error {
		if table == "job_skills" {
			return errors.New("skill insert failed")
		}
		return nil
	}

	manifest, err := f.svc.Generate(context.Background(), owner, prompts.EntityJob, 3)
	require.NoError(t, err)
	require.Len(t, manifest.Persisted(), 3)
	require.Len(t, manifest.Outcomes[0].Warnings, 2)
	require.Equal(t, "job_skills", manifest.Outcomes[0].Warnings[0].Table)

	stored, err := f.repo.GetJob(context.Background(), owner, manifest.Outcomes[0].Job.ID)
	require.NoError(t, err)
	require.Empty(t, stored.Skills)
}

func TestGenerateResumeChildren(t *testing.T) {
	content := `[{
		"candidate_name": "Zhang Wei",
		"gender": "male",
		"expected_city": "Beijing",
		"years_of_experience": "6",
		"current_level": "Senior",
		"expected_title": "Backend Engineer",
		"expected_salary_min": 20000,
		"expected_salary_max": "30000",
		"educations": [
			{"school": "PKU", "major_industry": "Internet", "degree": "Master"},
			{"school": "Nowhere", "major_industry": "Internet", "degree": "Doctorate of Vibes"}
		],
		"experiences": [{"company_name": "Acme", "industry": "Atlantis Mining", "description": "Built things"}],
		"skills": ["Go", "COBOL", {"name": "SQL"}]
	}]`
	f := newFixture(t, reply(content))

	manifest, err := f.svc.Generate(context.Background(), owner, prompts.EntityResume, 1)
	require.NoError(t, err)
	require.Len(t, manifest.Persisted(), 1)

	out := manifest.Outcomes[0]
	require.Equal(t, StatusSucceeded, out.Status)
	require.Len(t, out.Warnings, 2)

	stored, err := f.repo.GetResume(context.Background(), owner, out.Resume.ID)
	require.NoError(t, err)
	require.Equal(t, "M", stored.Gender)
	require.Equal(t, 6, *stored.YearsOfExperience)
	require.Equal(t, 30000, *stored.ExpectedSalaryMax)
	require.Equal(t, []string{"Go", "SQL"}, stored.SkillNames())
	require.Len(t, stored.Educations, 1)
	require.Equal(t, "Master", stored.Educations[0].Degree)
	require.Len(t, stored.Experiences, 1)
	require.Nil(t, stored.Experiences[0].IndustryID)
}

func TestGenerateRejectsBadInput(t *testing.T) {
	f := newFixture(t, reply("[]"))

	_, err := f.svc.Generate(context.Background(), owner, prompts.EntityJob, 0)
	require.ErrorIs(t, err, ErrInvalidCount)

	_, err = f.svc.Generate(context.Background(), owner, prompts.EntityJob, MaxCount+1)
	require.ErrorIs(t, err, ErrInvalidCount)

	_, err = f.svc.Generate(context.Background(), auth.Principal{}, prompts.EntityJob, 1)
	require.ErrorIs(t, err, ErrOwnerRequired)

	_, err = f.svc.Generate(context.Background(), owner, prompts.EntityType("company"), 1)
	require.ErrorIs(t, err, prompts.ErrUnknownEntityType)
}

func TestGenerateVocabularyFailureFailsWholeCall(t *testing.T) {
	called := false
	f := newFixture(t, llm.GatewayFunc(func(ctx context.Context, messages []llm.Message, temperature float64) (llm.RawCompletion, error) {
		called = true
		return llm.CompletionFromText("[]"), nil
	}))
	f.dims.FailOn(vocabulary.Degree, errors.New("degrees unreadable"))

	_, err := f.svc.Generate(context.Background(), owner, prompts.EntityJob, 1)
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "degrees"))
	require.False(t, called)
}

func TestGenerateSendsTemperatureAndSystemPrompt(t *testing.T) {
	var gotTemp float64
	var gotSystem string
	f := newFixture(t, llm.GatewayFunc(func(ctx context.Context, messages []llm.Message, temperature float64) (llm.RawCompletion, error) {
		gotTemp = temperature
		gotSystem = messages[0].Content
		return llm.CompletionFromText("[]"), nil
	}))

	manifest, err := f.svc.Generate(context.Background(), owner, prompts.EntityResume, 2)
	require.NoError(t, err)
	require.Empty(t, manifest.Persisted())
	require.Equal(t, Temperature, gotTemp)
	require.Equal(t, prompts.SystemGeneration, gotSystem)
}
