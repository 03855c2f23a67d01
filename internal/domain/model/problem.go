package model

import (
	"time"
)

const (
	MinComplexity = 1
	MaxComplexity = 5
)

type Problem struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Slug       string        `json:"slug"`
	Text       string        `json:"text"`
	Complexity int           `json:"complexity"`
	CreatedAt  time.Time     `json:"created_at"`
	Tests      []ProblemTest `json:"tests,omitempty"` // Loaded only by FindWithTests
}

// ProblemTest is one stdin/expected-stdout pair. Verdicts are reported in
// Position order, so it must stay stable once written.
type ProblemTest struct {
	ID        int64  `json:"id"`
	ProblemID string `json:"problem_id"`
	Position  int    `json:"position"`
	Input     string `json:"input"`
	Output    string `json:"output"`
}
