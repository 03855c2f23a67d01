package repository

import (
	"context"
	"database/sql"
	"fmt"

	"codedojo/internal/domain/model"
)

// SolutionRepository is append-only: solutions are never updated or deleted.
type SolutionRepository interface {
	Create(ctx context.Context, solution *model.Solution) error
	ListByProblemAndUser(ctx context.Context, problemID, userID string) ([]model.Solution, error)
	ListByProblem(ctx context.Context, problemID string) ([]model.Solution, error)
	// SolvedAnyForUser is nil when the user never submitted to the problem.
	SolvedAnyForUser(ctx context.Context, problemID, userID string) (*bool, error)
}

type pgSolutionRepository struct {
	db *sql.DB
}

func NewPgSolutionRepository(db *sql.DB) SolutionRepository {
	return &pgSolutionRepository{db: db}
}

func (r *pgSolutionRepository) Create(ctx context.Context, s *model.Solution) error {
	query := `INSERT INTO solutions (id, problem_id, user_id, content, language, solved)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING created_at`
	err := r.db.QueryRowContext(ctx, query, s.ID, s.ProblemID, s.UserID, s.Content, string(s.Language), s.Solved).Scan(&s.CreatedAt)
	if err != nil {
		return fmt.Errorf("pgSolutionRepository.Create: %w", err)
	}
	return nil
}

func (r *pgSolutionRepository) ListByProblemAndUser(ctx context.Context, problemID, userID string) ([]model.Solution, error) {
	query := `SELECT id, problem_id, user_id, content, language, solved, created_at
	          FROM solutions
	          WHERE problem_id = $1 AND user_id = $2
	          ORDER BY created_at DESC, id`
	solutions, err := r.query(ctx, query, problemID, userID)
	if err != nil {
		return nil, fmt.Errorf("pgSolutionRepository.ListByProblemAndUser: %w", err)
	}
	return solutions, nil
}

func (r *pgSolutionRepository) ListByProblem(ctx context.Context, problemID string) ([]model.Solution, error) {
	query := `SELECT id, problem_id, user_id, content, language, solved, created_at
	          FROM solutions
	          WHERE problem_id = $1
	          ORDER BY created_at DESC, id`
	solutions, err := r.query(ctx, query, problemID)
	if err != nil {
		return nil, fmt.Errorf("pgSolutionRepository.ListByProblem: %w", err)
	}
	return solutions, nil
}

func (r *pgSolutionRepository) SolvedAnyForUser(ctx context.Context, problemID, userID string) (*bool, error) {
	query := `SELECT bool_or(solved) FROM solutions WHERE problem_id = $1 AND user_id = $2`
	var solved sql.NullBool
	if err := r.db.QueryRowContext(ctx, query, problemID, userID).Scan(&solved); err != nil {
		return nil, fmt.Errorf("pgSolutionRepository.SolvedAnyForUser: %w", err)
	}
	if !solved.Valid {
		return nil, nil
	}
	return &solved.Bool, nil
}

func (r *pgSolutionRepository) query(ctx context.Context, query string, args ...interface{}) ([]model.Solution, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	solutions := []model.Solution{}
	for rows.Next() {
		var (
			s      model.Solution
			lang   string
			solved sql.NullBool
		)
		if err := rows.Scan(&s.ID, &s.ProblemID, &s.UserID, &s.Content, &lang, &solved, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.Language = model.Language(lang)
		if solved.Valid {
			v := solved.Bool
			s.Solved = &v
		}
		solutions = append(solutions, s)
	}
	return solutions, rows.Err()
}
