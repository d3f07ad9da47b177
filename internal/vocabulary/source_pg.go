package vocabulary

import (
	"context"
	"fmt"

	"recruit-backend/internal/shared/auth"
	"recruit-backend/internal/shared/storage/db"
)

// PGSource reads dimension tables from Postgres.
type PGSource struct {
	Scope *db.Scope
}

// Dimension returns every row of d ordered by id.
func (s *PGSource) Dimension(ctx context.Context, p auth.Principal, d Dimension) ([]Value, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("unknown dimension %q", d)
	}
	// Table names come from the fixed tables map, never from input.
	query := fmt.Sprintf(`SELECT id, name FROM %s ORDER BY id`, d.Table())

	var out []Value
	err := s.Scope.Run(ctx, p, func(q db.Queryer) error {
		rows, err := q.QueryContext(ctx, query)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var v Value
			if err := rows.Scan(&v.ID, &v.Name); err != nil {
				return err
			}
			out = append(out, v)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

var _ Source = (*PGSource)(nil)
