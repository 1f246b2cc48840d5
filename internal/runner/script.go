package runner

import (
	"context"
	"errors"
	"os"

	"github.com/msageha/deskflow/internal/model"
)

type ScriptRunner struct {
	exec ScriptExecutor
}

func NewScriptRunner(exec ScriptExecutor) *ScriptRunner {
	return &ScriptRunner{exec: exec}
}

// Run executes the script and returns its captured output. A non-zero
// exit is an ExecutionError wrapping *ExitError.
func (r *ScriptRunner) Run(ctx context.Context, cmd model.ScriptCommand) (ProcessResult, error) {
	body := cmd.Source.Inline
	if cmd.Source.IsPath() {
		path, err := ExpandHome(cmd.Source.Path)
		if err != nil {
			return ProcessResult{}, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return ProcessResult{}, notFound("script", path)
			}
			return ProcessResult{}, &ResolutionError{Target: "script", Name: path, Err: err}
		}
		body = string(data)
	}

	res, err := r.exec.Execute(ctx, body, cmd.Language)
	if err != nil {
		return res, execFailed("run "+string(cmd.Language)+" script", err)
	}
	if res.ExitCode != 0 {
		return res, &ExecutionError{
			Op:  "run " + string(cmd.Language) + " script",
			Err: &ExitError{Code: res.ExitCode, Stderr: res.Stderr},
		}
	}
	return res, nil
}
