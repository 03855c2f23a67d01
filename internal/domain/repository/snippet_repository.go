package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"codedojo/internal/common"
	"codedojo/internal/domain/model"
)

type SnippetRepository interface {
	// Save is idempotent: ids are content-addressed, so an existing row is kept.
	Save(ctx context.Context, snippet *model.Snippet) error
	FindByID(ctx context.Context, id string) (*model.Snippet, error)
}

type pgSnippetRepository struct {
	db *sql.DB
}

func NewPgSnippetRepository(db *sql.DB) SnippetRepository {
	return &pgSnippetRepository{db: db}
}

func (r *pgSnippetRepository) Save(ctx context.Context, s *model.Snippet) error {
	query := `INSERT INTO snippets (id, content, language)
	          VALUES ($1, $2, $3)
	          ON CONFLICT (id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, s.ID, s.Content, string(s.Language)); err != nil {
		return fmt.Errorf("pgSnippetRepository.Save: %w", err)
	}
	return nil
}

func (r *pgSnippetRepository) FindByID(ctx context.Context, id string) (*model.Snippet, error) {
	s := &model.Snippet{}
	var lang string
	err := r.db.QueryRowContext(ctx, `SELECT id, content, language FROM snippets WHERE id = $1`, id).Scan(&s.ID, &s.Content, &lang)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgSnippetRepository.FindByID: %w", err)
	}
	s.Language = model.Language(lang)
	return s, nil
}
