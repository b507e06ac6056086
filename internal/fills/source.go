package fills

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/realgrapedrop/xrp-watchdog/internal/domain"
)

// Source reports settled offer executions for one ledger.
type Source interface {
	// Fills returns one row per settled offer execution in the ledger.
	Fills(ctx context.Context, ledgerHash string) ([]*domain.Fill, error)
}

// CommandSource invokes the external fill tool and parses its TSV output.
type CommandSource struct {
	scriptPath string
	container  string // rippled container name passed through the environment
}

// NewCommandSource creates a CommandSource for the given tool path.
func NewCommandSource(scriptPath, container string) *CommandSource {
	return &CommandSource{scriptPath: scriptPath, container: container}
}

var _ Source = (*CommandSource)(nil)

// Fills runs the tool for one ledger hash. A non-zero exit is a transient
// fetch failure for the caller to log and skip.
func (s *CommandSource) Fills(ctx context.Context, ledgerHash string) ([]*domain.Fill, error) {
	cmd := exec.CommandContext(ctx, s.scriptPath, "1", "hash", ledgerHash)
	cmd.Env = append(os.Environ(), "RIPPLED_CONTAINER="+s.container)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("fill tool for ledger %s: %w (stderr: %s)", ledgerHash, err, stderr.String())
	}

	fillRows, err := Parse(&stdout)
	if err != nil {
		return nil, fmt.Errorf("parse fill tool output for ledger %s: %w", ledgerHash, err)
	}
	return fillRows, nil
}
