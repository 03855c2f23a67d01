package model

import "time"

// Solution is one graded submission attempt. Rows are append-only.
type Solution struct {
	ID        string    `json:"id"`
	ProblemID string    `json:"problem_id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	Language  Language  `json:"language"`
	Solved    *bool     `json:"solved"` // nil until evaluated
	CreatedAt time.Time `json:"created_at"`
}

// Verdict is the outcome of a single test within a grading pass.
type Verdict struct {
	IsError  bool `json:"is_error"`
	IsSolved bool `json:"is_solved"`
}
