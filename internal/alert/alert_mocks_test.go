package alert

import (
	"context"
	"errors"
	"sync"
)

var errDeviceBusy = errors.New("device busy")

type fakePlayback struct {
	ctx  context.Context
	done chan struct{}
	err  error
}

func (p *fakePlayback) Wait() error {
	select {
	case <-p.ctx.Done():
		return p.ctx.Err()
	case <-p.done:
		return p.err
	}
}

// fakePlayer plays until the context ends or finish is called. Clips matched
// by broken start fine but their playback fails at once.
type fakePlayer struct {
	mu       sync.Mutex
	fail     bool
	broken   func(Clip) bool
	clips    []Clip
	contexts []context.Context
	running  []*fakePlayback
}

func (f *fakePlayer) Play(ctx context.Context, clip Clip) (Playback, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errors.New("no audio device")
	}
	pb := &fakePlayback{ctx: ctx, done: make(chan struct{})}
	if f.broken != nil && f.broken(clip) {
		pb.err = errDeviceBusy
		close(pb.done)
	}
	f.clips = append(f.clips, clip)
	f.contexts = append(f.contexts, ctx)
	f.running = append(f.running, pb)
	return pb, nil
}

func (f *fakePlayer) plays() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clips)
}

func (f *fakePlayer) lastClip() Clip {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clips[len(f.clips)-1]
}

func (f *fakePlayer) finishLast() {
	f.mu.Lock()
	defer f.mu.Unlock()
	close(f.running[len(f.running)-1].done)
}

// failLast makes the latest playback end with an error.
func (f *fakePlayer) failLast() {
	f.mu.Lock()
	defer f.mu.Unlock()
	pb := f.running[len(f.running)-1]
	pb.err = errDeviceBusy
	close(pb.done)
}

func (f *fakePlayer) allCancelled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ctx := range f.contexts {
		if ctx.Err() == nil {
			return false
		}
	}
	return true
}

func resourceClips(c Clip) bool { return c.Path != "" }

func allClips(Clip) bool { return true }

type failingOutput struct{ tier string }

func (o failingOutput) Tier() string               { return o.tier }
func (o failingOutput) Beep(context.Context) error { return ErrUnavailable }
func (o failingOutput) Loop() (Handle, error)      { return nil, ErrUnavailable }
