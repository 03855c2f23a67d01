// Package testutil holds in-memory stand-ins for the Postgres repositories
// and the sandbox client, shared by service and API tests.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"codedojo/internal/common"
	"codedojo/internal/domain/model"

	"github.com/google/uuid"
)

type UserRepo struct {
	mu    sync.Mutex
	users map[string]model.User
}

func NewUserRepo() *UserRepo {
	return &UserRepo{users: make(map[string]model.User)}
}

func (r *UserRepo) Create(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == user.Username {
			return fmt.Errorf("username %q already registered: %w", user.Username, common.ErrConflict)
		}
	}
	user.CreatedAt = time.Now()
	r.users[user.ID] = *user
	return nil
}

func (r *UserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &u, nil
}

func (r *UserRepo) SetRole(ctx context.Context, username, role string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, u := range r.users {
		if u.Username == username {
			u.Role = role
			r.users[id] = u
			return nil
		}
	}
	return common.ErrNotFound
}

// Delete removes a user, leaving any tokens issued for it orphaned.
func (r *UserRepo) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
}

type ProblemRepo struct {
	mu       sync.Mutex
	problems []model.Problem // insertion order
	nextTest int64

	// FindWithTestsCalls counts loader invocations.
	FindWithTestsCalls int
}

func NewProblemRepo() *ProblemRepo {
	return &ProblemRepo{}
}

// Seed stores a problem with the given (input, output) test pairs.
func (r *ProblemRepo) Seed(name string, tests ...[2]string) *model.Problem {
	p := &model.Problem{ID: uuid.NewString(), Name: name, Slug: name, Text: name + " text", Complexity: 1}
	for _, t := range tests {
		p.Tests = append(p.Tests, model.ProblemTest{Input: t[0], Output: t[1]})
	}
	if err := r.Create(context.Background(), p); err != nil {
		panic(err)
	}
	return p
}

func (r *ProblemRepo) ListProblems(ctx context.Context) ([]model.Problem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Problem, 0, len(r.problems))
	for i := len(r.problems) - 1; i >= 0; i-- {
		p := r.problems[i]
		p.Tests = nil
		out = append(out, p)
	}
	return out, nil
}

func (r *ProblemRepo) FindByID(ctx context.Context, id string) (*model.Problem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.index(id)
	if i < 0 {
		return nil, common.ErrNotFound
	}
	p := r.problems[i]
	p.Tests = nil
	return &p, nil
}

func (r *ProblemRepo) FindWithTests(ctx context.Context, id string) (*model.Problem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.FindWithTestsCalls++
	i := r.index(id)
	if i < 0 {
		return nil, common.ErrNotFound
	}
	p := r.problems[i]
	p.Tests = append([]model.ProblemTest{}, p.Tests...)
	return &p, nil
}

func (r *ProblemRepo) Create(ctx context.Context, p *model.Problem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.CreatedAt = time.Now()
	r.assign(p.ID, 0, p.Tests)
	stored := *p
	stored.Tests = append([]model.ProblemTest{}, p.Tests...)
	r.problems = append(r.problems, stored)
	return nil
}

func (r *ProblemRepo) AddTests(ctx context.Context, problemID string, tests []model.ProblemTest) ([]model.ProblemTest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.index(problemID)
	if i < 0 {
		return nil, common.ErrNotFound
	}
	r.assign(problemID, len(r.problems[i].Tests), tests)
	r.problems[i].Tests = append(r.problems[i].Tests, tests...)
	return tests, nil
}

func (r *ProblemRepo) assign(problemID string, start int, tests []model.ProblemTest) {
	for i := range tests {
		r.nextTest++
		tests[i].ID = r.nextTest
		tests[i].ProblemID = problemID
		tests[i].Position = start + i
	}
}

func (r *ProblemRepo) index(id string) int {
	for i, p := range r.problems {
		if p.ID == id {
			return i
		}
	}
	return -1
}

type SolutionRepo struct {
	mu        sync.Mutex
	solutions []model.Solution // insertion order

	// CreateErr, when set, fails every Create.
	CreateErr error
}

func NewSolutionRepo() *SolutionRepo {
	return &SolutionRepo{}
}

func (r *SolutionRepo) Create(ctx context.Context, s *model.Solution) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.CreateErr != nil {
		return r.CreateErr
	}
	s.CreatedAt = time.Now()
	r.solutions = append(r.solutions, *s)
	return nil
}

func (r *SolutionRepo) ListByProblemAndUser(ctx context.Context, problemID, userID string) ([]model.Solution, error) {
	return r.filter(func(s model.Solution) bool { return s.ProblemID == problemID && s.UserID == userID }), nil
}

func (r *SolutionRepo) ListByProblem(ctx context.Context, problemID string) ([]model.Solution, error) {
	return r.filter(func(s model.Solution) bool { return s.ProblemID == problemID }), nil
}

func (r *SolutionRepo) SolvedAnyForUser(ctx context.Context, problemID, userID string) (*bool, error) {
	var result *bool
	for _, s := range r.filter(func(s model.Solution) bool { return s.ProblemID == problemID && s.UserID == userID }) {
		if s.Solved == nil {
			continue
		}
		v := *s.Solved
		if result != nil {
			v = v || *result
		}
		result = &v
	}
	return result, nil
}

// All returns every stored solution in insertion order.
func (r *SolutionRepo) All() []model.Solution {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Solution{}, r.solutions...)
}

func (r *SolutionRepo) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.solutions)
}

// filter returns matches newest first.
func (r *SolutionRepo) filter(keep func(model.Solution) bool) []model.Solution {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Solution{}
	for i := len(r.solutions) - 1; i >= 0; i-- {
		if keep(r.solutions[i]) {
			out = append(out, r.solutions[i])
		}
	}
	return out
}

type SnippetRepo struct {
	mu       sync.Mutex
	snippets map[string]model.Snippet
}

func NewSnippetRepo() *SnippetRepo {
	return &SnippetRepo{snippets: make(map[string]model.Snippet)}
}

func (r *SnippetRepo) Save(ctx context.Context, s *model.Snippet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.snippets[s.ID]; !ok {
		r.snippets[s.ID] = *s
	}
	return nil
}

func (r *SnippetRepo) FindByID(ctx context.Context, id string) (*model.Snippet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.snippets[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &s, nil
}

func (r *SnippetRepo) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snippets)
}
