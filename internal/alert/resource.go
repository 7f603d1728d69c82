package alert

import (
	"context"
	"fmt"
	"os"
)

// ResourceOutput plays a sound file shipped with the agent.
type ResourceOutput struct {
	path   string
	player Player
}

func NewResourceOutput(path string, player Player) *ResourceOutput {
	return &ResourceOutput{path: path, player: player}
}

func (o *ResourceOutput) Tier() string { return "resource" }

func (o *ResourceOutput) clip() (Clip, error) {
	if o.path == "" {
		return Clip{}, fmt.Errorf("no resource configured: %w", ErrUnavailable)
	}
	info, err := os.Stat(o.path)
	if err != nil {
		return Clip{}, fmt.Errorf("resource %s: %w: %w", o.path, ErrUnavailable, err)
	}
	if info.IsDir() || info.Size() == 0 {
		return Clip{}, fmt.Errorf("resource %s is not a sound file: %w", o.path, ErrUnavailable)
	}
	return Clip{Path: o.path}, nil
}

func (o *ResourceOutput) Beep(ctx context.Context) error {
	clip, err := o.clip()
	if err != nil {
		return err
	}
	return beep(ctx, o.player, clip)
}

func (o *ResourceOutput) Loop() (Handle, error) {
	clip, err := o.clip()
	if err != nil {
		return nil, err
	}
	return loop(o.player, clip)
}
