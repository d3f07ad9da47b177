package catalog

import (
	"context"

	"recruit-backend/internal/shared/auth"
)

// Reader is the read side of the catalog.
type Reader interface {
	GetJob(ctx context.Context, p auth.Principal, id int64) (Job, error)
	GetResume(ctx context.Context, p auth.Principal, id int64) (Resume, error)
	JobsByIDs(ctx context.Context, p auth.Principal, ids []int64) ([]Job, error)
	ResumesByIDs(ctx context.Context, p auth.Principal, ids []int64) ([]Resume, error)
	ListJobs(ctx context.Context, p auth.Principal, f JobFilter) (Page[Job], error)
	ListResumes(ctx context.Context, p auth.Principal, f ResumeFilter) (Page[Resume], error)
	JobIDs(ctx context.Context, p auth.Principal) ([]int64, error)
	ResumeIDs(ctx context.Context, p auth.Principal) ([]int64, error)
}

// Writer inserts catalog rows. Every call commits on its own.
type Writer interface {
	CreateJob(ctx context.Context, p auth.Principal, in NewJob) (Job, error)
	AddJobSkill(ctx context.Context, p auth.Principal, jobID, skillID int64, required bool) error
	CreateResume(ctx context.Context, p auth.Principal, in NewResume) (Resume, error)
	AddResumeSkill(ctx context.Context, p auth.Principal, resumeID, skillID int64) error
	AddEducation(ctx context.Context, p auth.Principal, resumeID int64, in NewEducation) error
	AddExperience(ctx context.Context, p auth.Principal, resumeID int64, in NewExperience) error
	SetAvatar(ctx context.Context, p auth.Principal, resumeID int64, key string) error
}

// Repo is the full catalog store.
type Repo interface {
	Reader
	Writer
}
