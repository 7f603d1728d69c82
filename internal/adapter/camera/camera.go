// Package camera captures the local webcam with GStreamer and feeds VP8 samples
// into a WebRTC track.
package camera

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"
	"github.com/pscheid92/examguard/internal/domain"
	"github.com/pscheid92/examguard/internal/uplink"
	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"
)

const startupTimeout = 3 * time.Second

// Config is the capture hint requested from the device.
type Config struct {
	Device string
	Width  int
	Height int
	FPS    int
}

// GstSource opens the camera through a GStreamer pipeline:
//
//	v4l2src → videoconvert → videoscale → videorate → capsfilter → vp8enc → appsink
type GstSource struct {
	cfg Config
}

var _ uplink.Source = (*GstSource)(nil)

func NewGstSource(cfg Config) *GstSource {
	return &GstSource{cfg: cfg}
}

// Open starts the pipeline and waits until it plays or fails. Every failure is
// a *domain.MediaAcquisitionError.
func (s *GstSource) Open(ctx context.Context) (uplink.Capture, error) {
	track, err := webrtc.NewTrackLocalStaticSample(webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8}, "video", "proctor-camera")
	if err != nil {
		return nil, &domain.MediaAcquisitionError{Err: fmt.Errorf("failed to create track: %w", err)}
	}

	pipeline, sink, err := buildPipeline(s.cfg)
	if err != nil {
		return nil, &domain.MediaAcquisitionError{Err: err}
	}

	c := &capture{
		track:    track,
		pipeline: pipeline,
		frame:    time.Second / time.Duration(s.cfg.FPS),
	}
	sink.SetCallbacks(&app.SinkCallbacks{
		NewSampleFunc: c.onSample,
	})

	if err := pipeline.SetState(gst.StatePlaying); err != nil {
		discard(pipeline)
		return nil, &domain.MediaAcquisitionError{Err: fmt.Errorf("failed to start pipeline: %w", err)}
	}

	if err := waitPlaying(ctx, pipeline); err != nil {
		discard(pipeline)
		return nil, &domain.MediaAcquisitionError{Err: err}
	}

	slog.InfoContext(ctx, "Camera capture started", "device", s.cfg.Device, "width", s.cfg.Width, "height", s.cfg.Height, "fps", s.cfg.FPS)
	return c, nil
}

var newElement = gst.NewElement

var discard = discardPipeline

func discardPipeline(pipeline *gst.Pipeline) {
	_ = pipeline.SetState(gst.StateNull)
}

// buildPipeline adds every element to the pipeline as soon as it exists, so a
// partial failure only has to bring the pipeline down.
func buildPipeline(cfg Config) (pipeline *gst.Pipeline, sink *app.Sink, err error) {
	gst.Init(nil)

	pipeline, err = gst.NewPipeline("")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer func() {
		if err != nil {
			discard(pipeline)
			pipeline, sink = nil, nil
		}
	}()

	add := func(factory string) (*gst.Element, error) {
		el, err := newElement(factory)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", factory, err)
		}
		if err := pipeline.Add(el); err != nil {
			return nil, fmt.Errorf("failed to add %s: %w", factory, err)
		}
		return el, nil
	}

	src, err := add("v4l2src")
	if err != nil {
		return nil, nil, err
	}
	src.SetProperty("device", cfg.Device)

	convert, err := add("videoconvert")
	if err != nil {
		return nil, nil, err
	}
	scale, err := add("videoscale")
	if err != nil {
		return nil, nil, err
	}
	rate, err := add("videorate")
	if err != nil {
		return nil, nil, err
	}
	rate.SetProperty("drop-only", true)

	caps, err := add("capsfilter")
	if err != nil {
		return nil, nil, err
	}
	caps.SetProperty("caps", gst.NewCapsFromString(rawCaps(cfg)))

	enc, err := add("vp8enc")
	if err != nil {
		return nil, nil, err
	}
	enc.SetProperty("deadline", int64(1))
	enc.SetProperty("keyframe-max-dist", cfg.FPS*2)
	enc.SetProperty("error-resilient", 1)

	sink, err = app.NewAppSink()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create appsink: %w", err)
	}
	sink.SetProperty("sync", false)
	sink.SetProperty("max-buffers", 2)
	sink.SetProperty("drop", true)
	if err := pipeline.Add(sink.Element); err != nil {
		return nil, nil, fmt.Errorf("failed to add appsink: %w", err)
	}

	if err := gst.ElementLinkMany(src, convert, scale, rate, caps, enc, sink.Element); err != nil {
		return nil, nil, fmt.Errorf("failed to link pipeline: %w", err)
	}
	return pipeline, sink, nil
}

func rawCaps(cfg Config) string {
	return fmt.Sprintf("video/x-raw,format=I420,width=%d,height=%d,framerate=%d/1", cfg.Width, cfg.Height, cfg.FPS)
}

// waitPlaying watches the bus until the pipeline plays, reports an error, or times out.
// A busy or missing device surfaces here as an error message.
func waitPlaying(ctx context.Context, pipeline *gst.Pipeline) error {
	bus := pipeline.GetPipelineBus()
	deadline := time.Now().Add(startupTimeout)

	for time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg := bus.TimedPop(50 * time.Millisecond)
		if msg == nil {
			continue
		}
		switch msg.Type() {
		case gst.MessageError:
			gerr := msg.ParseError()
			return fmt.Errorf("camera error: %s (%s)", gerr.Error(), gerr.DebugString())
		case gst.MessageStateChanged:
			if msg.Source() != pipeline.GetName() {
				continue
			}
			if _, newState := msg.ParseStateChanged(); newState == gst.StatePlaying {
				return nil
			}
		}
	}
	return fmt.Errorf("camera did not start within %s", startupTimeout)
}

type capture struct {
	track    *webrtc.TrackLocalStaticSample
	pipeline *gst.Pipeline
	frame    time.Duration

	samples   atomic.Uint64
	closeOnce sync.Once
}

func (c *capture) Tracks() []webrtc.TrackLocal {
	return []webrtc.TrackLocal{c.track}
}

func (c *capture) onSample(sink *app.Sink) gst.FlowReturn {
	sample := sink.PullSample()
	if sample == nil {
		return gst.FlowOK
	}
	buffer := sample.GetBuffer()
	if buffer == nil {
		return gst.FlowOK
	}

	mapInfo := buffer.Map(gst.MapRead)
	data := mapInfo.Bytes()
	frame := make([]byte, len(data))
	copy(frame, data)
	buffer.Unmap()

	if len(frame) == 0 {
		return gst.FlowOK
	}
	if err := c.track.WriteSample(media.Sample{Data: frame, Duration: c.frame}); err != nil {
		slog.Debug("Failed to write camera sample", "error", err)
	}
	c.samples.Add(1)
	return gst.FlowOK
}

func (c *capture) Close() error {
	var err error
	c.closeOnce.Do(func() {
		if stateErr := c.pipeline.SetState(gst.StateNull); stateErr != nil {
			err = fmt.Errorf("failed to stop pipeline: %w", stateErr)
		}
		slog.Info("Camera capture stopped", "samples", c.samples.Load())
	})
	return err
}
