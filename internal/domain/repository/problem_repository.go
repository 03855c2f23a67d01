package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"codedojo/internal/common"
	"codedojo/internal/domain/model"
)

type ProblemRepository interface {
	ListProblems(ctx context.Context) ([]model.Problem, error)
	FindByID(ctx context.Context, id string) (*model.Problem, error)
	// FindWithTests loads the problem and its tests, in position order, with a single query.
	FindWithTests(ctx context.Context, id string) (*model.Problem, error)
	Create(ctx context.Context, problem *model.Problem) error
	AddTests(ctx context.Context, problemID string, tests []model.ProblemTest) ([]model.ProblemTest, error)
}

type pgProblemRepository struct {
	db *sql.DB
}

func NewPgProblemRepository(db *sql.DB) ProblemRepository {
	return &pgProblemRepository{db: db}
}

func (r *pgProblemRepository) ListProblems(ctx context.Context) ([]model.Problem, error) {
	query := `SELECT id, name, slug, text, complexity, created_at
	          FROM problems
	          ORDER BY created_at DESC, id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("pgProblemRepository.ListProblems: %w", err)
	}
	defer rows.Close()

	problems := []model.Problem{}
	for rows.Next() {
		var p model.Problem
		if err := rows.Scan(&p.ID, &p.Name, &p.Slug, &p.Text, &p.Complexity, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("pgProblemRepository.ListProblems scan: %w", err)
		}
		problems = append(problems, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgProblemRepository.ListProblems rows: %w", err)
	}
	return problems, nil
}

func (r *pgProblemRepository) FindByID(ctx context.Context, id string) (*model.Problem, error) {
	query := `SELECT id, name, slug, text, complexity, created_at
	          FROM problems WHERE id = $1`
	p := &model.Problem{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.Name, &p.Slug, &p.Text, &p.Complexity, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgProblemRepository.FindByID: %w", err)
	}
	return p, nil
}

func (r *pgProblemRepository) FindWithTests(ctx context.Context, id string) (*model.Problem, error) {
	query := `
        SELECT p.id, p.name, p.slug, p.text, p.complexity, p.created_at,
               t.id, t.position, t.input, t.output
        FROM problems p
        LEFT JOIN problem_tests t ON t.problem_id = p.id
        WHERE p.id = $1
        ORDER BY t.position, t.id`
	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("pgProblemRepository.FindWithTests: %w", err)
	}
	defer rows.Close()

	var p *model.Problem
	for rows.Next() {
		var (
			row      model.Problem
			testID   sql.NullInt64
			position sql.NullInt32
			input    sql.NullString
			output   sql.NullString
		)
		if err := rows.Scan(&row.ID, &row.Name, &row.Slug, &row.Text, &row.Complexity, &row.CreatedAt,
			&testID, &position, &input, &output); err != nil {
			return nil, fmt.Errorf("pgProblemRepository.FindWithTests scan: %w", err)
		}
		if p == nil {
			row.Tests = []model.ProblemTest{}
			p = &row
		}
		if testID.Valid { // LEFT JOIN yields one NULL test row for a problem without tests
			p.Tests = append(p.Tests, model.ProblemTest{
				ID:        testID.Int64,
				ProblemID: p.ID,
				Position:  int(position.Int32),
				Input:     input.String,
				Output:    output.String,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgProblemRepository.FindWithTests rows: %w", err)
	}
	if p == nil {
		return nil, common.ErrNotFound
	}
	return p, nil
}

// Create inserts the problem and its tests in one transaction. Test positions
// are assigned from slice order.
func (r *pgProblemRepository) Create(ctx context.Context, p *model.Problem) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("pgProblemRepository.Create begin: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO problems (id, name, slug, text, complexity)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING created_at`
	if err := tx.QueryRowContext(ctx, query, p.ID, p.Name, p.Slug, p.Text, p.Complexity).Scan(&p.CreatedAt); err != nil {
		return fmt.Errorf("pgProblemRepository.Create: %w", err)
	}
	if err := insertTests(ctx, tx, p.ID, 0, p.Tests); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("pgProblemRepository.Create commit: %w", err)
	}
	return nil
}

// AddTests appends tests after the problem's current last position.
func (r *pgProblemRepository) AddTests(ctx context.Context, problemID string, tests []model.ProblemTest) ([]model.ProblemTest, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("pgProblemRepository.AddTests begin: %w", err)
	}
	defer tx.Rollback()

	// Row lock keeps concurrent appends from sharing positions.
	var locked string
	err = tx.QueryRowContext(ctx, `SELECT id FROM problems WHERE id = $1 FOR UPDATE`, problemID).Scan(&locked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgProblemRepository.AddTests lock: %w", err)
	}

	var next int
	err = tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(position) + 1, 0) FROM problem_tests WHERE problem_id = $1`, problemID).Scan(&next)
	if err != nil {
		return nil, fmt.Errorf("pgProblemRepository.AddTests position: %w", err)
	}
	if err := insertTests(ctx, tx, problemID, next, tests); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("pgProblemRepository.AddTests commit: %w", err)
	}
	return tests, nil
}

func insertTests(ctx context.Context, tx *sql.Tx, problemID string, start int, tests []model.ProblemTest) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO problem_tests (problem_id, position, input, output)
	                                     VALUES ($1, $2, $3, $4) RETURNING id`)
	if err != nil {
		return fmt.Errorf("prepare test insert: %w", err)
	}
	defer stmt.Close()

	for i := range tests {
		tests[i].ProblemID = problemID
		tests[i].Position = start + i
		if err := stmt.QueryRowContext(ctx, problemID, tests[i].Position, tests[i].Input, tests[i].Output).Scan(&tests[i].ID); err != nil {
			return fmt.Errorf("insert test %d: %w", i, err)
		}
	}
	return nil
}
