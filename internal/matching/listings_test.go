package matching

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"recruit-backend/internal/catalog"
	"recruit-backend/internal/shared/auth"
)

// hiddenReader hides the listed resume ids from every caller.
type hiddenReader struct {
	catalog.Reader
	hidden map[int64]bool
}

func (h hiddenReader) ResumesByIDs(ctx context.Context, p auth.Principal, ids []int64) ([]catalog.Resume, error) {
	all, err := h.Reader.ResumesByIDs(ctx, p, ids)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, r := range all {
		if !h.hidden[r.ID] {
			out = append(out, r)
		}
	}
	return out, nil
}

func TestListingsForJobOrdersByScore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	job := f.job(t, "Go Dev", []string{"Go"}, nil)
	low := f.resume(t, "Low", 1, nil)
	high := f.resume(t, "High", 6, []string{"Go"})
	hidden := f.resume(t, "Hidden", 6, []string{"Go"})

	_, err := f.repo.UpsertLLM(ctx, auth.Service(), low.ID, job.ID, Result{Score: 20, Reason: "weak"})
	require.NoError(t, err)
	_, err = f.repo.UpsertCalculated(ctx, auth.Service(), high.ID, job.ID, Calculate(job, high))
	require.NoError(t, err)
	_, err = f.repo.UpsertLLM(ctx, auth.Service(), hidden.ID, job.ID, Result{Score: 99, Reason: "secret"})
	require.NoError(t, err)

	l := NewListings(hiddenReader{Reader: f.catalog, hidden: map[int64]bool{hidden.ID: true}}, f.repo)
	items, err := l.ForJob(ctx, caller, job.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "High", items[0].Resume.CandidateName)
	require.Equal(t, 100, *items[0].Score)
	require.NotEmpty(t, items[0].Advantages)
	require.Equal(t, "Low", items[1].Resume.CandidateName)
	require.Equal(t, []string{"weak"}, items[1].Reasons)
	require.Equal(t, "Senior", items[1].Resume.CurrentLevel)
}

func TestListingsForResumeRendersSalaryRange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	resume := f.resume(t, "Li Lei", 5, nil)
	lo, hi := 10000, 20000
	job, err := f.catalog.CreateJob(ctx, caller, catalog.NewJob{UserID: caller.UserID, Title: "Ops", SalaryMin: &lo, SalaryMax: &hi})
	require.NoError(t, err)
	_, err = f.repo.UpsertLLM(ctx, auth.Service(), resume.ID, job.ID, Result{Score: 70, Reason: `{"reasons":["fit"]}`})
	require.NoError(t, err)

	items, err := NewListings(f.catalog, f.repo).ForResume(ctx, caller, resume.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "10000-20000", items[0].Job.SalaryRange)
	require.Equal(t, "Unknown", items[0].Job.City)
	require.Equal(t, []string{"fit"}, items[0].Reasons)
}

func TestListingsUnknownAnchor(t *testing.T) {
	f := newFixture(t)
	_, err := NewListings(f.catalog, f.repo).ForResume(context.Background(), caller, 404)
	require.ErrorIs(t, err, catalog.ErrNotFound)
}
