package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/khaled151277/xvkeyboard/pkg/laststore/sqlite/migrations"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

type Store struct {
	db *sql.DB
}

func NewStore(filename string, log *zap.SugaredLogger) (*Store, error) {
	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := migrations.Migrate(db, log); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) LastLayout() (string, bool, error) {
	var code string
	err := s.db.QueryRow(`SELECT code FROM last_layout WHERE id = 1`).Scan(&code)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", false, nil
	case err != nil:
		return "", false, fmt.Errorf("sqlite select: %w", err)
	}

	return code, true, nil
}

func (s *Store) SetLastLayout(code string) error {
	_, err := s.db.Exec(
		`INSERT INTO last_layout (id, code) VALUES (1, ?)
		 ON CONFLICT (id) DO UPDATE SET code = excluded.code`, code)
	if err != nil {
		return fmt.Errorf("sqlite upsert: %w", err)
	}

	return nil
}
