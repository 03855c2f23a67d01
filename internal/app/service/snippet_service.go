package service

import (
	"context"
	"fmt"

	"codedojo/internal/app/executor"
	"codedojo/internal/common"
	"codedojo/internal/domain/model"
	"codedojo/internal/domain/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// snippetStdin is fed to programs run from the snippet runner, which has no
// input field of its own.
const snippetStdin = "NONE"

var snippetNamespace = uuid.MustParse("6f1c2d0e-3b5a-4c8e-9a7d-2e4f6b8c0d1a")

type SnippetService struct {
	snippetRepo repository.SnippetRepository
	exec        Executor
	logger      *zap.Logger
}

func NewSnippetService(snippetRepo repository.SnippetRepository, exec Executor, logger *zap.Logger) *SnippetService {
	return &SnippetService{snippetRepo: snippetRepo, exec: exec, logger: logger.Named("snippet")}
}

type SnippetRequest struct {
	Content  string         `json:"content"`
	Language model.Language `json:"language"`
}

func (s *SnippetService) Run(ctx context.Context, req SnippetRequest) (*executor.RunResult, error) {
	if !req.Language.Valid() {
		return nil, fmt.Errorf("language %q: %w", req.Language, common.ErrValidation)
	}
	res, err := s.exec.Execute(ctx, req.Language, req.Content, snippetStdin)
	if err != nil {
		s.logger.Warn("snippet run failed", zap.Stringer("language", req.Language), zap.Error(err))
		return nil, common.ErrGradingUnavailable
	}
	return res, nil
}

// Share stores the snippet under an id derived from its language and content,
// so sharing the same code twice yields the same link.
func (s *SnippetService) Share(ctx context.Context, req SnippetRequest) (*model.Snippet, error) {
	if !req.Language.Valid() {
		return nil, fmt.Errorf("language %q: %w", req.Language, common.ErrValidation)
	}
	snippet := &model.Snippet{
		ID:       SnippetID(req.Language, req.Content).String(),
		Content:  req.Content,
		Language: req.Language,
	}
	if err := s.snippetRepo.Save(ctx, snippet); err != nil {
		return nil, fmt.Errorf("failed to save snippet: %w", err)
	}
	return snippet, nil
}

func (s *SnippetService) Get(ctx context.Context, id string) (*model.Snippet, error) {
	snippet, err := s.snippetRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("snippet %s: %w", id, err)
	}
	return snippet, nil
}

func SnippetID(lang model.Language, content string) uuid.UUID {
	return uuid.NewSHA1(snippetNamespace, []byte(string(lang)+"\x00"+content))
}
