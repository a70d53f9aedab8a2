package vad

import (
	"context"
	"math"

	"github.com/maxhawkins/go-webrtcvad"

	"github.com/LeeJaeHaeng/voiceshield/internal/audio"
)

const (
	frameMS      = 30  // WebRTC VAD frame size
	bridgeMS     = 300 // gaps shorter than this are merged
	rmsThreshold = 500.0
)

// WebRTC is the fallback detector: per-frame WebRTC VAD decisions with
// an RMS gate when a frame cannot be processed, merged into segments.
type WebRTC struct {
	vad *webrtcvad.VAD
}

// NewWebRTC creates the fallback detector.
func NewWebRTC() (*WebRTC, error) {
	v, err := webrtcvad.New()
	if err != nil {
		return nil, err
	}
	// Aggressiveness 0-3, where 3 is most aggressive.
	v.SetMode(2)
	return &WebRTC{vad: v}, nil
}

// Detect classifies 30 ms frames and merges consecutive speech frames
// into segments, bridging short silences.
func (w *WebRTC) Detect(ctx context.Context, clip *audio.Clip) ([]audio.Segment, error) {
	if clip == nil || len(clip.Samples) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	frameLen := clip.SampleRate * frameMS / 1000
	bridge := float64(bridgeMS) / 1000

	var segments []audio.Segment
	open := false
	var start float64

	for off := 0; off+frameLen <= len(clip.Samples); off += frameLen {
		frame := clip.Samples[off : off+frameLen]
		speech := w.isSpeech(frame, clip.SampleRate)
		at := float64(off) / float64(clip.SampleRate)

		switch {
		case speech && !open:
			open = true
			start = at
		case !speech && open:
			segments = append(segments, audio.Segment{Start: start, End: at})
			open = false
		}
	}
	if open {
		segments = append(segments, audio.Segment{Start: start, End: clip.Duration()})
	}

	return mergeClose(segments, bridge), nil
}

func (w *WebRTC) isSpeech(frame []float32, sampleRate int) bool {
	buf := make([]byte, len(frame)*2)
	for i, s := range frame {
		v := int16(s * 32767)
		buf[i*2] = byte(v)
		buf[i*2+1] = byte(v >> 8)
	}
	ok, err := w.vad.Process(sampleRate, buf)
	if err != nil {
		return rmsIsSpeech(frame)
	}
	return ok
}

// rmsIsSpeech is the energy gate used when WebRTC rejects a frame.
func rmsIsSpeech(frame []float32) bool {
	if len(frame) == 0 {
		return false
	}
	var sum float64
	for _, s := range frame {
		v := float64(s) * 32768
		sum += v * v
	}
	return math.Sqrt(sum/float64(len(frame))) > rmsThreshold
}

// mergeClose joins segments whose gap is at most maxGap seconds.
func mergeClose(segments []audio.Segment, maxGap float64) []audio.Segment {
	if len(segments) <= 1 {
		return segments
	}
	merged := []audio.Segment{segments[0]}
	for _, cur := range segments[1:] {
		prev := &merged[len(merged)-1]
		if cur.Start-prev.End <= maxGap {
			if cur.End > prev.End {
				prev.End = cur.End
			}
		} else {
			merged = append(merged, cur)
		}
	}
	return merged
}

// Close releases the detector.
func (w *WebRTC) Close() error {
	if w.vad != nil {
		w.vad.Close()
	}
	return nil
}
