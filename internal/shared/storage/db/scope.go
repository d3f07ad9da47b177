package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"recruit-backend/internal/shared/auth"
)

const (
	roleAnon = "anon"

	setClaimsSQL = `SELECT set_config('request.jwt.claims', $1, true), set_config('role', $2, true)`
)

// Queryer is the subset of *sql.DB and *sql.Tx used by repositories.
type Queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Scope runs statements under a principal. Caller principals get a short
// transaction carrying their claims so row-level policies see them; the
// service principal runs directly on the elevated pool.
type Scope struct {
	App     *sql.DB
	Service *sql.DB
}

// NewScope returns a Scope. service may be nil, in which case app is used for
// elevated statements as well.
func NewScope(app, service *sql.DB) *Scope {
	if service == nil {
		service = app
	}
	return &Scope{App: app, Service: service}
}

// Run executes fn with p applied. Each call commits on its own.
func (s *Scope) Run(ctx context.Context, p auth.Principal, fn func(q Queryer) error) (err error) {
	if s == nil || s.App == nil {
		return errors.New("db scope not configured")
	}
	if p.Elevated() {
		return fn(s.Service)
	}

	tx, err := s.App.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin scoped tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	role := p.Role
	if p.Anonymous() {
		role = roleAnon
	}
	if _, err = tx.ExecContext(ctx, setClaimsSQL, p.ClaimsJSON(), role); err != nil {
		return fmt.Errorf("apply principal: %w", err)
	}
	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit scoped tx: %w", err)
	}
	return nil
}
