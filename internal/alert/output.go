package alert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrUnavailable means a tier cannot play at all, e.g. its resource is missing.
var ErrUnavailable = errors.New("output unavailable")

// startupGrace is how long a fresh playback must survive before its tier
// counts as serving the cue.
var startupGrace = 200 * time.Millisecond

// Clip is something a Player can play: a file on disk or an in-memory WAV.
type Clip struct {
	Path string
	WAV  []byte
}

// Player starts playback of a clip. Playback stops when ctx is cancelled.
type Player interface {
	Play(ctx context.Context, clip Clip) (Playback, error)
}

// Playback is a running clip.
type Playback interface {
	Wait() error
}

// Handle controls a looping cue. Stop is idempotent and returns once playback
// ended. Done is closed when the loop ends, whether stopped or given up.
type Handle interface {
	Stop()
	Done() <-chan struct{}
}

// Output is one tier of the alert chain.
type Output interface {
	Tier() string
	Beep(ctx context.Context) error
	Loop() (Handle, error)
}

func waitAsync(pb Playback) <-chan error {
	result := make(chan error, 1)
	go func() { result <- pb.Wait() }()
	return result
}

// start plays clip and holds on for startupGrace. A playback that fails
// within that window is reported as a failed start. The returned channel
// yields the result of Wait.
func start(ctx context.Context, player Player, clip Clip) (<-chan error, error) {
	pb, err := player.Play(ctx, clip)
	if err != nil {
		return nil, err
	}
	result := waitAsync(pb)

	timer := time.NewTimer(startupGrace)
	defer timer.Stop()

	select {
	case err := <-result:
		if err != nil {
			return nil, fmt.Errorf("playback failed on start: %w", err)
		}
		finished := make(chan error, 1)
		finished <- nil
		return finished, nil
	case <-timer.C:
		return result, nil
	}
}

func beep(ctx context.Context, player Player, clip Clip) error {
	result, err := start(ctx, player, clip)
	if err != nil {
		return err
	}
	go func() {
		if err := <-result; err != nil && ctx.Err() == nil {
			slog.WarnContext(ctx, "Tone playback ended with error", "error", err)
		}
	}()
	return nil
}

type loopHandle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func (h *loopHandle) Stop() {
	h.cancel()
	<-h.done
}

func (h *loopHandle) Done() <-chan struct{} { return h.done }

// loop replays clip until stopped. It gives up on the first playback error
// and closes Done.
func loop(player Player, clip Clip) (Handle, error) {
	ctx, cancel := context.WithCancel(context.Background())
	result, err := start(ctx, player, clip)
	if err != nil {
		cancel()
		return nil, err
	}

	h := &loopHandle{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(h.done)
		defer cancel()
		for {
			err := <-result
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				slog.Warn("Looping playback failed, giving up", "error", err)
				return
			}
			pb, err := player.Play(ctx, clip)
			if err != nil {
				slog.Warn("Looping playback could not restart", "error", err)
				return
			}
			result = waitAsync(pb)
		}
	}()
	return h, nil
}
