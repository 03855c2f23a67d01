package model

type Snippet struct {
	ID       string   `json:"id"`
	Content  string   `json:"content"`
	Language Language `json:"language"`
}
