// Package sound plays clips through an external command-line audio player.
package sound

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/pscheid92/examguard/internal/alert"
)

// ExecPlayer runs one player process per clip, e.g. "aplay -q <file>".
// In-memory clips are fed on stdin with "-" as the file argument.
type ExecPlayer struct {
	command string
	args    []string
}

func NewExecPlayer(command string, args ...string) *ExecPlayer {
	return &ExecPlayer{command: command, args: args}
}

// NewAplay returns the ALSA player used on Linux workstations.
func NewAplay(command string) *ExecPlayer {
	if command == "" {
		command = "aplay"
	}
	return NewExecPlayer(command, "-q")
}

func (p *ExecPlayer) Play(ctx context.Context, clip alert.Clip) (alert.Playback, error) {
	args := append([]string(nil), p.args...)
	var stdin *bytes.Reader
	switch {
	case clip.Path != "":
		args = append(args, clip.Path)
	case len(clip.WAV) > 0:
		args = append(args, "-")
		stdin = bytes.NewReader(clip.WAV)
	default:
		return nil, fmt.Errorf("empty clip: %w", alert.ErrUnavailable)
	}

	cmd := exec.CommandContext(ctx, p.command, args...)
	if stdin != nil {
		cmd.Stdin = stdin
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", p.command, err)
	}
	return &process{cmd: cmd}, nil
}

type process struct {
	cmd *exec.Cmd
}

func (p *process) Wait() error {
	if err := p.cmd.Wait(); err != nil {
		return fmt.Errorf("player exited: %w", err)
	}
	return nil
}
