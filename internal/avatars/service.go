package avatars

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"recruit-backend/internal/catalog"
	"recruit-backend/internal/shared/auth"
	"recruit-backend/internal/shared/storage/object"
	"recruit-backend/internal/shared/telemetry"
	"recruit-backend/internal/shared/util"
)

const keyRoot = "avatars"

var (
	ErrUnsupportedType = errors.New("avatar must be a png, jpeg, gif or webp image")
	ErrNoAvatar        = errors.New("resume has no avatar")
	ErrInvalidInput    = errors.New("invalid avatar upload")
)

var allowedContentTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Avatar is a stored avatar image.
type Avatar struct {
	Key         string `json:"key"`
	URL         string `json:"url,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Size        int64  `json:"size"`
}

// Service stores resume avatars in the object store and records the current
// key on the resume row.
type Service struct {
	Catalog catalog.Repo
	Store   object.ObjectStore
}

// NewService constructs a Service.
func NewService(repo catalog.Repo, store object.ObjectStore) *Service {
	return &Service{Catalog: repo, Store: store}
}

// Upload saves a new avatar for resumeID and makes it current. The resume
// must be visible to p.
func (s *Service) Upload(ctx context.Context, p auth.Principal, resumeID int64, fileName string, r io.Reader) (Avatar, error) {
	resume, err := s.Catalog.GetResume(ctx, p, resumeID)
	if err != nil {
		return Avatar{}, err
	}
	contentType, body, err := object.Sniff(r)
	if err != nil {
		return Avatar{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	ext, ok := allowedContentTypes[contentType]
	if !ok {
		return Avatar{}, ErrUnsupportedType
	}
	name := "avatar" + ext
	if strings.TrimSpace(fileName) != "" {
		sanitized, err := util.SanitizeFileName(fileName, ext)
		if err != nil {
			return Avatar{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		name = sanitized
	}

	key := path.Join(prefixFor(resume), uuid.NewString()+"_"+name)
	saved, err := s.Store.Save(ctx, key, contentType, body)
	if err != nil {
		return Avatar{}, fmt.Errorf("save avatar: %w", err)
	}
	if err := s.Catalog.SetAvatar(ctx, p, resumeID, saved.Key); err != nil {
		return Avatar{}, fmt.Errorf("set avatar: %w", err)
	}
	telemetry.Info("avatar.uploaded", map[string]any{
		"resume_id":    resumeID,
		"key":          saved.Key,
		"size":         saved.Size,
		"content_type": contentType,
	})
	return s.view(saved), nil
}

// Open returns the current avatar of resumeID.
func (s *Service) Open(ctx context.Context, p auth.Principal, resumeID int64) (io.ReadCloser, Avatar, error) {
	resume, err := s.Catalog.GetResume(ctx, p, resumeID)
	if err != nil {
		return nil, Avatar{}, err
	}
	if resume.AvatarKey == "" {
		return nil, Avatar{}, ErrNoAvatar
	}
	rc, err := s.Store.Open(ctx, resume.AvatarKey)
	if errors.Is(err, object.ErrNotFound) {
		return nil, Avatar{}, ErrNoAvatar
	}
	if err != nil {
		return nil, Avatar{}, fmt.Errorf("open avatar: %w", err)
	}
	return rc, s.view(object.Object{Key: resume.AvatarKey, ContentType: contentTypeOf(resume.AvatarKey)}), nil
}

// History lists every avatar ever uploaded for resumeID.
func (s *Service) History(ctx context.Context, p auth.Principal, resumeID int64) ([]Avatar, error) {
	resume, err := s.Catalog.GetResume(ctx, p, resumeID)
	if err != nil {
		return nil, err
	}
	objects, err := s.Store.List(ctx, prefixFor(resume))
	if err != nil {
		return nil, fmt.Errorf("list avatars: %w", err)
	}
	out := make([]Avatar, 0, len(objects))
	for _, o := range objects {
		out = append(out, s.view(o))
	}
	return out, nil
}

func (s *Service) view(o object.Object) Avatar {
	return Avatar{Key: o.Key, URL: s.Store.PublicURL(o.Key), ContentType: o.ContentType, Size: o.Size}
}

// prefixFor namespaces avatars by hashed owner then resume id.
func prefixFor(r catalog.Resume) string {
	return path.Join(keyRoot, util.OwnerKey(r.UserID), strconv.FormatInt(r.ID, 10))
}

func contentTypeOf(key string) string {
	ext := strings.ToLower(path.Ext(key))
	for ct, e := range allowedContentTypes {
		if e == ext || (ext == ".jpeg" && ct == "image/jpeg") {
			return ct
		}
	}
	return "application/octet-stream"
}
