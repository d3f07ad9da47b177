package local

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"recruit-backend/internal/shared/storage/object"
)

func TestStoreSaveOpenList(t *testing.T) {
	ctx := context.Background()
	s := New(t.TempDir(), "http://localhost:8080/files")

	saved, err := s.Save(ctx, "avatars/7/a.png", "image/png", strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if saved.Key != "avatars/7/a.png" || saved.Size != 9 {
		t.Fatalf("unexpected object: %+v", saved)
	}
	if _, err := s.Save(ctx, "avatars/7/b.png", "image/png", strings.NewReader("x")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	rc, err := s.Open(ctx, "avatars/7/a.png")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != "png-bytes" {
		t.Fatalf("unexpected body %q", body)
	}

	list, err := s.List(ctx, "avatars/7")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].Key != "avatars/7/a.png" || list[0].ContentType != "image/png" {
		t.Fatalf("unexpected list: %+v", list)
	}

	if got := s.PublicURL("avatars/7/a.png"); got != "http://localhost:8080/files/avatars/7/a.png" {
		t.Fatalf("unexpected url %q", got)
	}
}

func TestStoreRejectsTraversalAndMissing(t *testing.T) {
	ctx := context.Background()
	s := New(t.TempDir(), "")

	if _, err := s.Save(ctx, "../escape", "", strings.NewReader("x")); err == nil {
		t.Fatalf("expected traversal to fail")
	}
	if _, err := s.Open(ctx, "avatars/none.png"); !errors.Is(err, object.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	list, err := s.List(ctx, "avatars/none")
	if err != nil || len(list) != 0 {
		t.Fatalf("expected empty list, got %v %v", list, err)
	}
	if s.PublicURL("a") != "" {
		t.Fatalf("expected no public url")
	}
}
