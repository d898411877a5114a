package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/groceryguru/internal/model"
)

type ListStore struct {
	db DBTX
}

func NewListStore(db DBTX) *ListStore {
	return &ListStore{db: db}
}

func scanList(row scanner) (*model.List, error) {
	var l model.List
	err := row.Scan(&l.ID, &l.PersonID, &l.Name, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

const listCols = `id, person_id, name, created_at`

func (s *ListStore) GetByName(ctx context.Context, personID int64, name string) (*model.List, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+listCols+` FROM lists WHERE person_id = ? AND name = ?`,
		personID, name,
	)
	l, err := scanList(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get list: %w", err)
	}
	return l, nil
}

// GetOrCreate returns the person's list with this name, inserting it if missing.
func (s *ListStore) GetOrCreate(ctx context.Context, personID int64, name string) (*model.List, error) {
	l, err := s.GetByName(ctx, personID, name)
	if err != nil || l != nil {
		return l, err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO lists (person_id, name) VALUES (?, ?) ON CONFLICT DO NOTHING`,
		personID, name,
	)
	if err != nil {
		return nil, fmt.Errorf("insert list: %w", err)
	}

	l, err = s.GetByName(ctx, personID, name)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, fmt.Errorf("insert list: row for %q not visible after insert", name)
	}
	return l, nil
}

func (s *ListStore) ListByPerson(ctx context.Context, personID int64) ([]model.List, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+listCols+` FROM lists WHERE person_id = ? ORDER BY id ASC`,
		personID,
	)
	if err != nil {
		return nil, fmt.Errorf("list lists: %w", err)
	}
	defer rows.Close()

	var lists []model.List
	for rows.Next() {
		l, err := scanList(rows)
		if err != nil {
			return nil, fmt.Errorf("scan list: %w", err)
		}
		lists = append(lists, *l)
	}
	return lists, rows.Err()
}

func (s *ListStore) Count(ctx context.Context, personID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM lists WHERE person_id = ?`, personID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count lists: %w", err)
	}
	return n, nil
}
