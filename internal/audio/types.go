package audio

import "time"

// TargetRate is the sample rate every clip is normalized to before any
// feature extraction. All downstream components assume mono audio at
// this rate.
const TargetRate = 16000

// Clip is a decoded, mono audio buffer at a fixed sample rate.
type Clip struct {
	Samples    []float32
	SampleRate int
}

// Duration returns the clip length in seconds.
func (c *Clip) Duration() float64 {
	if c == nil || c.SampleRate == 0 {
		return 0
	}
	return float64(len(c.Samples)) / float64(c.SampleRate)
}

// DurationTime returns the clip length as a time.Duration.
func (c *Clip) DurationTime() time.Duration {
	return time.Duration(c.Duration() * float64(time.Second))
}

// Segment is a speech interval within a clip, in seconds from the start.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Duration returns the segment length in seconds.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// Slice extracts the samples covered by seg as a new clip. Bounds are
// clamped to the clip length.
func Slice(c *Clip, seg Segment) *Clip {
	start := int(seg.Start * float64(c.SampleRate))
	end := int(seg.End * float64(c.SampleRate))
	if start < 0 {
		start = 0
	}
	if end > len(c.Samples) {
		end = len(c.Samples)
	}
	if start >= end {
		return &Clip{Samples: nil, SampleRate: c.SampleRate}
	}
	out := make([]float32, end-start)
	copy(out, c.Samples[start:end])
	return &Clip{Samples: out, SampleRate: c.SampleRate}
}

// Concat joins clips in order into a single clip. All inputs must share
// the same sample rate; nil inputs are skipped.
func Concat(clips ...*Clip) *Clip {
	var total int
	rate := TargetRate
	for _, c := range clips {
		if c == nil {
			continue
		}
		total += len(c.Samples)
		rate = c.SampleRate
	}
	out := make([]float32, 0, total)
	for _, c := range clips {
		if c == nil {
			continue
		}
		out = append(out, c.Samples...)
	}
	return &Clip{Samples: out, SampleRate: rate}
}

// Head returns a clip truncated to at most maxSeconds.
func Head(c *Clip, maxSeconds float64) *Clip {
	limit := int(maxSeconds * float64(c.SampleRate))
	if limit <= 0 || limit >= len(c.Samples) {
		return c
	}
	return &Clip{Samples: c.Samples[:limit], SampleRate: c.SampleRate}
}
