package main

import (
	"errors"
	"testing"

	"github.com/spf13/viper"

	"recruit-backend/internal/shared/auth"
)

func TestPrincipalDefaultsToService(t *testing.T) {
	viper.Set("user", "")
	t.Cleanup(func() { viper.Set("user", "") })

	if p := principal(); !p.Elevated() {
		t.Fatalf("expected service principal, got %+v", p)
	}
}

func TestPrincipalFromUserFlag(t *testing.T) {
	viper.Set("user", " 5b0e3c1e-user ")
	t.Cleanup(func() { viper.Set("user", "") })

	p := principal()
	if p.Elevated() || p.UserID != "5b0e3c1e-user" || p.Role != auth.RoleAuthenticated {
		t.Fatalf("unexpected principal %+v", p)
	}
}

func TestBackfillRejectsBadID(t *testing.T) {
	err := backfillCmd.RunE(backfillCmd, []string{"resume", "abc"})
	if err == nil {
		t.Fatalf("expected error for non-numeric id")
	}
}

func TestGenerateRequiresUser(t *testing.T) {
	viper.Set("user", "")
	if err := generateCmd.Flags().Set("type", "job"); err != nil {
		t.Fatalf("set type: %v", err)
	}
	t.Cleanup(func() { _ = generateCmd.Flags().Set("type", "") })

	err := generateCmd.RunE(generateCmd, nil)
	if !errors.Is(err, errGenerateOwner) {
		t.Fatalf("expected owner error, got %v", err)
	}
}
