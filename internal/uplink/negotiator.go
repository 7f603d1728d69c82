package uplink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/pion/webrtc/v4"
	"github.com/pscheid92/examguard/internal/adapter/metrics"
	"github.com/pscheid92/examguard/internal/domain"
)

var ErrAlreadyStarted = errors.New("uplink already started")

// Capture is an open camera with its local tracks.
type Capture interface {
	Tracks() []webrtc.TrackLocal
	Close() error
}

// Source opens the camera. Failures should be *domain.MediaAcquisitionError.
type Source interface {
	Open(ctx context.Context) (Capture, error)
}

// Preview shows the local capture to the student. Failures are tolerated.
type Preview interface {
	Attach(capture Capture) error
}

// Negotiator owns the capture and the peer connection of one session.
type Negotiator struct {
	source   Source
	preview  Preview
	signaler domain.Signaler
	config   webrtc.Configuration
	metrics  *metrics.SessionMetrics
	clock    clockwork.Clock

	mu      sync.Mutex
	capture Capture
	pc      *webrtc.PeerConnection
}

var _ domain.Uplink = (*Negotiator)(nil)

// NewNegotiator creates a negotiator using stunServers for ICE. preview may be nil.
func NewNegotiator(source Source, preview Preview, signaler domain.Signaler, stunServers []string, m *metrics.SessionMetrics, clock clockwork.Clock) *Negotiator {
	var ice []webrtc.ICEServer
	if len(stunServers) > 0 {
		ice = []webrtc.ICEServer{{URLs: stunServers}}
	}
	return &Negotiator{
		source:   source,
		preview:  preview,
		signaler: signaler,
		config:   webrtc.Configuration{ICEServers: ice},
		metrics:  m,
		clock:    clock,
	}
}

// Start opens the camera and negotiates the uplink. It returns a
// *domain.MediaAcquisitionError when the camera cannot be opened and a
// *domain.SignalingError when the offer/answer exchange fails.
func (n *Negotiator) Start(ctx context.Context, studentID, examID int64) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.pc != nil {
		return ErrAlreadyStarted
	}

	started := n.clock.Now()
	capture, pc, err := n.negotiate(ctx, studentID, examID)
	if err != nil {
		n.metrics.Negotiated(metrics.OutcomeError, n.clock.Since(started))
		return err
	}
	n.metrics.Negotiated(metrics.OutcomeOK, n.clock.Since(started))

	n.capture = capture
	n.pc = pc
	slog.InfoContext(ctx, "Uplink negotiated", "took", n.clock.Since(started))
	return nil
}

func (n *Negotiator) negotiate(ctx context.Context, studentID, examID int64) (Capture, *webrtc.PeerConnection, error) {
	capture, err := n.source.Open(ctx)
	if err != nil {
		var mediaErr *domain.MediaAcquisitionError
		if !errors.As(err, &mediaErr) {
			err = &domain.MediaAcquisitionError{Err: err}
		}
		return nil, nil, err
	}

	if n.preview != nil {
		if err := n.preview.Attach(capture); err != nil {
			slog.DebugContext(ctx, "Preview unavailable, continuing without it", "error", err)
		}
	}

	pc, err := n.offerAndAnswer(ctx, capture, studentID, examID)
	if err != nil {
		release(ctx, capture, pc)
		return nil, nil, err
	}
	return capture, pc, nil
}

// offerAndAnswer returns the peer connection even on failure so the caller can close it.
func (n *Negotiator) offerAndAnswer(ctx context.Context, capture Capture, studentID, examID int64) (*webrtc.PeerConnection, error) {
	pc, err := webrtc.NewPeerConnection(n.config)
	if err != nil {
		return nil, fmt.Errorf("failed to create peer connection: %w", err)
	}

	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		slog.InfoContext(ctx, "Uplink connection state changed", "state", state.String())
	})

	for _, track := range capture.Tracks() {
		tr, err := pc.AddTransceiverFromTrack(track, webrtc.RTPTransceiverInit{
			Direction: webrtc.RTPTransceiverDirectionSendonly,
		})
		if err != nil {
			return pc, fmt.Errorf("failed to add track %s: %w", track.ID(), err)
		}
		go drainRTCP(tr.Sender())
	}

	offer, err := pc.CreateOffer(nil)
	if err != nil {
		return pc, fmt.Errorf("failed to create offer: %w", err)
	}

	gathered := webrtc.GatheringCompletePromise(pc)
	if err := pc.SetLocalDescription(offer); err != nil {
		return pc, fmt.Errorf("failed to set local description: %w", err)
	}

	select {
	case <-gathered:
	case <-ctx.Done():
		return pc, fmt.Errorf("ICE gathering interrupted: %w", ctx.Err())
	}

	local := pc.LocalDescription()
	answer, err := n.signaler.SendOffer(ctx, studentID, examID, domain.SessionDescription{
		SDP:  local.SDP,
		Type: local.Type.String(),
	})
	if err != nil {
		var sigErr *domain.SignalingError
		if !errors.As(err, &sigErr) {
			err = &domain.SignalingError{Err: err}
		}
		return pc, err
	}

	remote := webrtc.SessionDescription{Type: webrtc.NewSDPType(answer.Type), SDP: answer.SDP}
	if err := pc.SetRemoteDescription(remote); err != nil {
		return pc, &domain.SignalingError{Err: fmt.Errorf("failed to apply answer: %w", err)}
	}
	return pc, nil
}

// drainRTCP reads incoming RTCP so interceptors keep working. It ends when the sender stops.
func drainRTCP(sender *webrtc.RTPSender) {
	buf := make([]byte, 1500)
	for {
		if _, _, err := sender.Read(buf); err != nil {
			return
		}
	}
}

// Stop releases the camera and closes the connection. Errors are logged, never returned.
func (n *Negotiator) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.capture == nil && n.pc == nil {
		return
	}
	release(context.Background(), n.capture, n.pc)
	n.capture = nil
	n.pc = nil
	slog.Info("Uplink stopped")
}

// Active reports whether a negotiated uplink is held.
func (n *Negotiator) Active() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.pc != nil
}

func release(ctx context.Context, capture Capture, pc *webrtc.PeerConnection) {
	if capture != nil {
		if err := capture.Close(); err != nil {
			slog.DebugContext(ctx, "Failed to release capture", "error", err)
		}
	}
	if pc != nil {
		if err := pc.Close(); err != nil {
			slog.DebugContext(ctx, "Failed to close peer connection", "error", err)
		}
	}
}
