package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"codedojo/internal/app/executor"
	"codedojo/internal/common"
	"codedojo/internal/domain/model"
	"codedojo/internal/domain/repository"
	"codedojo/internal/platform/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Executor runs one program against one stdin in the sandbox.
type Executor interface {
	Execute(ctx context.Context, lang model.Language, source, stdin string) (*executor.RunResult, error)
}

type GradingService struct {
	problemRepo  repository.ProblemRepository
	solutionRepo repository.SolutionRepository
	exec         Executor
	lock         *GradingLock
	logger       *zap.Logger
}

func NewGradingService(
	problemRepo repository.ProblemRepository,
	solutionRepo repository.SolutionRepository,
	exec Executor,
	lock *GradingLock,
	logger *zap.Logger,
) *GradingService {
	return &GradingService{
		problemRepo:  problemRepo,
		solutionRepo: solutionRepo,
		exec:         exec,
		lock:         lock,
		logger:       logger.Named("grading"),
	}
}

type SolveRequest struct {
	Content  string         `json:"content"`
	Language model.Language `json:"language"`
}

// Solve grades req against every test of the problem and records exactly one
// Solution. Verdicts come back in test order. If any sandbox call fails, or
// ctx ends first, nothing is recorded.
func (s *GradingService) Solve(ctx context.Context, user *model.User, problemID string, req SolveRequest) ([]model.Verdict, error) {
	if !req.Language.Valid() {
		return nil, fmt.Errorf("language %q: %w", req.Language, common.ErrValidation)
	}
	log := s.logger.With(zap.String("user_id", user.ID), zap.String("problem_id", problemID), zap.Stringer("language", req.Language))

	problem, err := s.problemRepo.FindWithTests(ctx, problemID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			metrics.GradingPasses.WithLabelValues(metrics.OutcomeNotFound).Inc()
			return nil, fmt.Errorf("problem %s: %w", problemID, err)
		}
		metrics.GradingPasses.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, fmt.Errorf("GradingService.Solve load problem: %w", err)
	}

	release, err := s.lock.Acquire(ctx, user.ID, problem.ID)
	switch {
	case errors.Is(err, errLockBusy):
		metrics.GradingPasses.WithLabelValues(metrics.OutcomeLocked).Inc()
		return nil, common.ErrGradingInProgress
	case err != nil:
		log.Warn("grading lock unavailable, grading without it", zap.Error(err))
	}
	defer release()

	results, err := s.dispatch(ctx, problem.Tests, req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			metrics.GradingPasses.WithLabelValues(metrics.OutcomeCancelled).Inc()
			log.Info("grading pass abandoned", zap.Error(ctxErr))
			return nil, ctxErr
		}
		metrics.GradingPasses.WithLabelValues(metrics.OutcomeUnavailable).Inc()
		log.Warn("grading pass aborted", zap.Error(err))
		return nil, common.ErrGradingUnavailable
	}

	verdicts, solved := aggregate(problem.Tests, results)

	solution := &model.Solution{
		ID:        uuid.NewString(),
		ProblemID: problem.ID,
		UserID:    user.ID,
		Content:   req.Content,
		Language:  req.Language,
		Solved:    &solved,
	}
	if err := s.solutionRepo.Create(ctx, solution); err != nil {
		metrics.GradingPasses.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, fmt.Errorf("GradingService.Solve persist: %w", err)
	}

	outcome := metrics.OutcomeFailed
	if solved {
		outcome = metrics.OutcomeSolved
	}
	metrics.GradingPasses.WithLabelValues(outcome).Inc()
	log.Info("grading pass done", zap.String("solution_id", solution.ID), zap.Int("tests", len(verdicts)), zap.Bool("solved", solved))
	return verdicts, nil
}

// dispatch starts one sandbox call per test and waits for all of them. The
// first failure cancels the rest.
func (s *GradingService) dispatch(ctx context.Context, tests []model.ProblemTest, req SolveRequest) ([]*executor.RunResult, error) {
	results := make([]*executor.RunResult, len(tests))
	g, gctx := errgroup.WithContext(ctx)
	for i, test := range tests {
		g.Go(func() error {
			res, err := s.exec.Execute(gctx, req.Language, req.Content, test.Input)
			if err != nil {
				return fmt.Errorf("test %d: %w", i, err)
			}
			if res == nil {
				return fmt.Errorf("test %d: %w", i, executor.ErrExecutionUnavailable)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// aggregate maps results to verdicts positionally. An empty test set is
// solved.
func aggregate(tests []model.ProblemTest, results []*executor.RunResult) ([]model.Verdict, bool) {
	verdicts := make([]model.Verdict, len(tests))
	solved := true
	for i, test := range tests {
		res := results[i]
		verdicts[i] = model.Verdict{
			IsError:  res.Stderr != "",
			IsSolved: res.Stderr == "" && outputMatches(res.Stdout, test.Output),
		}
		solved = solved && verdicts[i].IsSolved
	}
	return verdicts, solved
}

// outputMatches compares line by line, ignoring CRLF endings and trailing
// newlines.
func outputMatches(stdout, expected string) bool {
	a := splitLines(stdout)
	b := splitLines(expected)
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.Split(strings.TrimRight(s, "\n"), "\n")
}
