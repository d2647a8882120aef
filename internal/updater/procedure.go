package updater

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
)

// Procedure refreshes the on-disk database. A nil error means the new file is
// already in place.
type Procedure interface {
	Run(ctx context.Context) error
}

// ProcedureFunc adapts a function to Procedure.
type ProcedureFunc func(ctx context.Context) error

// Run calls f(ctx).
func (f ProcedureFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// ExecProcedure runs an external executable with no arguments and reports
// success through its exit status.
type ExecProcedure struct {
	Path   string
	Logger *slog.Logger
}

// Run starts the executable and waits for it to exit. The context is not
// used to kill the child: once launched, the procedure always runs to completion.
func (p ExecProcedure) Run(_ context.Context) error {
	cmd := exec.Command(p.Path)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	if p.Logger != nil {
		scanner := bufio.NewScanner(&out)
		for scanner.Scan() {
			p.Logger.Debug("update procedure output", "path", p.Path, "line", scanner.Text())
		}
	}
	if err != nil {
		return fmt.Errorf("update procedure %s: %w", p.Path, err)
	}
	return nil
}
