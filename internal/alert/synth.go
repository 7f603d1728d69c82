package alert

import (
	"bytes"
	"context"
	"encoding/binary"
	"math"
	"time"
)

const sampleRate = 22050

// Segment is one constant-frequency stretch of a synthesized cue.
type Segment struct {
	Frequency float64
	Duration  time.Duration
}

var (
	// ToneSegments is a short high beep.
	ToneSegments = []Segment{{Frequency: 880, Duration: 250 * time.Millisecond}}
	// AlarmSegments is one period of a two-pitch siren.
	AlarmSegments = []Segment{
		{Frequency: 960, Duration: 450 * time.Millisecond},
		{Frequency: 770, Duration: 450 * time.Millisecond},
	}
)

// SynthOutput plays an oscillator cue rendered once at construction.
type SynthOutput struct {
	wav    []byte
	player Player
}

func NewSynthOutput(segments []Segment, player Player) *SynthOutput {
	return &SynthOutput{wav: RenderWAV(segments), player: player}
}

func (o *SynthOutput) Tier() string { return "synth" }

func (o *SynthOutput) Beep(ctx context.Context) error {
	return beep(ctx, o.player, Clip{WAV: o.wav})
}

func (o *SynthOutput) Loop() (Handle, error) {
	return loop(o.player, Clip{WAV: o.wav})
}

// RenderWAV renders segments as 16-bit mono PCM in a RIFF container.
// Each segment fades in and out over 10ms to avoid clicks.
func RenderWAV(segments []Segment) []byte {
	var pcm []int16
	fade := sampleRate / 100
	for _, seg := range segments {
		n := int(seg.Duration.Seconds() * sampleRate)
		for i := 0; i < n; i++ {
			gain := 0.5
			if i < fade {
				gain *= float64(i) / float64(fade)
			} else if n-i < fade {
				gain *= float64(n-i) / float64(fade)
			}
			v := gain * math.Sin(2*math.Pi*seg.Frequency*float64(i)/sampleRate)
			pcm = append(pcm, int16(v*math.MaxInt16))
		}
	}

	dataLen := uint32(len(pcm) * 2)
	var buf bytes.Buffer
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, 36+dataLen)
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, struct {
		Size          uint32
		Format        uint16
		Channels      uint16
		SampleRate    uint32
		ByteRate      uint32
		BlockAlign    uint16
		BitsPerSample uint16
	}{16, 1, 1, sampleRate, sampleRate * 2, 2, 16})
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, dataLen)
	_ = binary.Write(&buf, binary.LittleEndian, pcm)
	return buf.Bytes()
}
