package testutil

import (
	"context"
	"sync"

	"codedojo/internal/app/executor"
	"codedojo/internal/domain/model"
)

type ExecCall struct {
	Language model.Language
	Source   string
	Stdin    string
}

// ExecFunc scripts one sandbox call.
type ExecFunc func(ctx context.Context, call ExecCall) (*executor.RunResult, error)

// FakeExecutor records calls and answers them with Func. Without Func it
// echoes stdin back as stdout.
type FakeExecutor struct {
	mu    sync.Mutex
	calls []ExecCall
	Func  ExecFunc
}

func (f *FakeExecutor) Execute(ctx context.Context, lang model.Language, source, stdin string) (*executor.RunResult, error) {
	call := ExecCall{Language: lang, Source: source, Stdin: stdin}
	f.mu.Lock()
	f.calls = append(f.calls, call)
	fn := f.Func
	f.mu.Unlock()

	if fn == nil {
		return &executor.RunResult{Stdout: stdin + "\n"}, nil
	}
	return fn(ctx, call)
}

func (f *FakeExecutor) Calls() []ExecCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ExecCall{}, f.calls...)
}

// ByStdin answers each call from a table keyed by stdin. Unknown inputs get
// an empty successful run.
func ByStdin(results map[string]executor.RunResult, errs map[string]error) ExecFunc {
	return func(ctx context.Context, call ExecCall) (*executor.RunResult, error) {
		if err, ok := errs[call.Stdin]; ok {
			return nil, err
		}
		res := results[call.Stdin]
		return &res, nil
	}
}
