package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"codedojo/internal/domain/model"
	"codedojo/internal/platform/config"
	"codedojo/internal/platform/metrics"

	"go.uber.org/zap"
)

// ErrExecutionUnavailable means the sandbox could not run the program at all.
// A program that ran and failed is not an error at this level.
var ErrExecutionUnavailable = errors.New("execution sandbox unavailable")

// maxResponseBytes caps how much program output is read back.
const maxResponseBytes = 8 << 20

type RunResult struct {
	ExitCode int    `json:"exit_code"`
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
}

type runFile struct {
	Name            string `json:"name"`
	Content         string `json:"content"`
	IsBase64Encoded *bool  `json:"is_base64_encoded"`
}

type runRequest struct {
	Files   []runFile `json:"files"`
	Command string    `json:"command"`
}

type Client struct {
	httpClient *http.Client
	baseURLs   map[model.Language]string
	apiKey     string
	timeout    time.Duration
	logger     *zap.Logger
}

func NewClient(cfg *config.Config, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.SandboxTimeout},
		baseURLs: map[model.Language]string{
			model.LanguagePython: cfg.SandboxURLPython,
			model.LanguageGo:     cfg.SandboxURLGo,
		},
		apiKey:  cfg.SandboxAPIKey,
		timeout: cfg.SandboxTimeout,
		logger:  logger.Named("executor"),
	}
}

// Execute runs source once in the sandbox for lang, feeding stdin to the
// program. Every failure wraps ErrExecutionUnavailable.
func (c *Client) Execute(ctx context.Context, lang model.Language, source, stdin string) (*RunResult, error) {
	start := time.Now()
	result, err := c.execute(ctx, lang, source, stdin)

	outcome := "ok"
	if err != nil {
		outcome = "unavailable"
		c.logger.Warn("sandbox call failed", zap.String("language", string(lang)), zap.Error(err))
	}
	metrics.SandboxRequests.WithLabelValues(string(lang), outcome).Inc()
	metrics.SandboxDuration.WithLabelValues(string(lang)).Observe(time.Since(start).Seconds())
	return result, err
}

func (c *Client) execute(ctx context.Context, lang model.Language, source, stdin string) (*RunResult, error) {
	if !lang.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrExecutionUnavailable, model.ErrUnsupportedLanguage)
	}
	base := c.baseURLs[lang]
	if base == "" {
		return nil, fmt.Errorf("%w: no sandbox configured for %s", ErrExecutionUnavailable, lang)
	}

	body, err := json.Marshal(runRequest{
		Files:   []runFile{{Name: lang.FileName(), Content: source}},
		Command: BuildCommand(lang, stdin),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", ErrExecutionUnavailable, err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(base, "/")+"/run/", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrExecutionUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Api-Key "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutionUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: sandbox returned status %d", ErrExecutionUnavailable, resp.StatusCode)
	}

	var result RunResult
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrExecutionUnavailable, err)
	}
	return &result, nil
}

// BuildCommand appends stdin to the language's command as a here-string.
func BuildCommand(lang model.Language, stdin string) string {
	return lang.Command() + " <<< " + shellQuote(stdin)
}

// shellQuote wraps s in single quotes so the sandbox shell passes it verbatim.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
