package service

import (
	"context"
	"fmt"
	"strings"

	"codedojo/internal/common"
	"codedojo/internal/domain/model"
	"codedojo/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/gosimple/slug" // For slug generation
	"go.uber.org/zap"
)

type ProblemService struct {
	problemRepo  repository.ProblemRepository
	solutionRepo repository.SolutionRepository
	logger       *zap.Logger
}

func NewProblemService(problemRepo repository.ProblemRepository, solutionRepo repository.SolutionRepository, logger *zap.Logger) *ProblemService {
	return &ProblemService{
		problemRepo:  problemRepo,
		solutionRepo: solutionRepo,
		logger:       logger.Named("problem"),
	}
}

type ProblemListItem struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Text       string `json:"text"`
	Complexity int    `json:"complexity"`
	Solved     *bool  `json:"solved"` // null when never attempted
}

type SolutionView struct {
	Content  string         `json:"content"`
	Language model.Language `json:"language"`
	Solved   *bool          `json:"solved"`
}

type ProblemDetail struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Text      string         `json:"text"`
	Solutions []SolutionView `json:"solutions"`
}

type TestInput struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

type CreateProblemRequest struct {
	Name       string      `json:"name"`
	Text       string      `json:"text"`
	Complexity int         `json:"complexity"`
	Tests      []TestInput `json:"tests"`
}

type AddTestsRequest struct {
	Tests []TestInput `json:"tests"`
}

// ListForUser returns every problem, newest first, with the user's solved flag.
func (s *ProblemService) ListForUser(ctx context.Context, userID string) ([]ProblemListItem, error) {
	problems, err := s.problemRepo.ListProblems(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list problems: %w", err)
	}

	items := make([]ProblemListItem, 0, len(problems))
	for _, p := range problems {
		solved, err := s.solutionRepo.SolvedAnyForUser(ctx, p.ID, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to load solved flag for problem %s: %w", p.ID, err)
		}
		items = append(items, ProblemListItem{
			ID:         p.ID,
			Name:       p.Name,
			Text:       p.Text,
			Complexity: p.Complexity,
			Solved:     solved,
		})
	}
	return items, nil
}

// GetForUser returns the problem with the user's own attempts, newest first.
func (s *ProblemService) GetForUser(ctx context.Context, problemID, userID string) (*ProblemDetail, error) {
	problem, err := s.problemRepo.FindByID(ctx, problemID)
	if err != nil {
		return nil, fmt.Errorf("problem %s: %w", problemID, err)
	}
	solutions, err := s.solutionRepo.ListByProblemAndUser(ctx, problem.ID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list solutions: %w", err)
	}

	detail := &ProblemDetail{
		ID:        problem.ID,
		Name:      problem.Name,
		Text:      problem.Text,
		Solutions: make([]SolutionView, 0, len(solutions)),
	}
	for _, sol := range solutions {
		detail.Solutions = append(detail.Solutions, SolutionView{Content: sol.Content, Language: sol.Language, Solved: sol.Solved})
	}
	return detail, nil
}

func (s *ProblemService) Create(ctx context.Context, req CreateProblemRequest) (*model.Problem, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("name and text are required: %w", common.ErrValidation)
	}
	if req.Complexity < model.MinComplexity || req.Complexity > model.MaxComplexity {
		return nil, fmt.Errorf("complexity must be between %d and %d: %w", model.MinComplexity, model.MaxComplexity, common.ErrValidation)
	}

	problem := &model.Problem{
		ID:         uuid.NewString(),
		Name:       req.Name,
		Slug:       slug.Make(req.Name),
		Text:       req.Text,
		Complexity: req.Complexity,
		Tests:      toProblemTests(req.Tests),
	}
	if err := s.problemRepo.Create(ctx, problem); err != nil {
		return nil, fmt.Errorf("failed to create problem: %w", err)
	}
	s.logger.Info("problem created", zap.String("problem_id", problem.ID), zap.String("slug", problem.Slug), zap.Int("tests", len(problem.Tests)))
	return problem, nil
}

// AddTests appends tests after the existing ones, keeping their given order.
func (s *ProblemService) AddTests(ctx context.Context, problemID string, req AddTestsRequest) ([]model.ProblemTest, error) {
	if len(req.Tests) == 0 {
		return nil, fmt.Errorf("at least one test is required: %w", common.ErrValidation)
	}
	tests, err := s.problemRepo.AddTests(ctx, problemID, toProblemTests(req.Tests))
	if err != nil {
		return nil, fmt.Errorf("failed to add tests to problem %s: %w", problemID, err)
	}
	s.logger.Info("problem tests added", zap.String("problem_id", problemID), zap.Int("tests", len(tests)))
	return tests, nil
}

// ListSolutions returns every user's solutions for the problem, newest first.
func (s *ProblemService) ListSolutions(ctx context.Context, problemID string) ([]model.Solution, error) {
	if _, err := s.problemRepo.FindByID(ctx, problemID); err != nil {
		return nil, fmt.Errorf("problem %s: %w", problemID, err)
	}
	solutions, err := s.solutionRepo.ListByProblem(ctx, problemID)
	if err != nil {
		return nil, fmt.Errorf("failed to list solutions: %w", err)
	}
	return solutions, nil
}

func toProblemTests(in []TestInput) []model.ProblemTest {
	tests := make([]model.ProblemTest, len(in))
	for i, t := range in {
		tests[i] = model.ProblemTest{Input: t.Input, Output: t.Output}
	}
	return tests
}
