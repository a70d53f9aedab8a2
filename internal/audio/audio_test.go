package audio

import (
	"bytes"
	"errors"
	"testing"
)

func clipOf(seconds float64) *Clip {
	samples := make([]float32, int(seconds*TargetRate))
	for i := range samples {
		samples[i] = float32(i)
	}
	return &Clip{Samples: samples, SampleRate: TargetRate}
}

func TestDuration(t *testing.T) {
	if d := clipOf(2.5).Duration(); d != 2.5 {
		t.Fatalf("duration = %v", d)
	}
	var nilClip *Clip
	if d := nilClip.Duration(); d != 0 {
		t.Fatalf("nil duration = %v", d)
	}
}

func TestSliceBounds(t *testing.T) {
	c := clipOf(10)

	s := Slice(c, Segment{Start: 1, End: 3})
	if len(s.Samples) != 2*TargetRate {
		t.Fatalf("samples = %d", len(s.Samples))
	}
	if s.Samples[0] != float32(TargetRate) {
		t.Fatalf("first sample = %v", s.Samples[0])
	}

	s = Slice(c, Segment{Start: 9, End: 20})
	if len(s.Samples) != 1*TargetRate {
		t.Fatalf("clamped slice = %d samples", len(s.Samples))
	}

	s = Slice(c, Segment{Start: 5, End: 5})
	if len(s.Samples) != 0 {
		t.Fatalf("empty segment = %d samples", len(s.Samples))
	}
}

func TestConcat(t *testing.T) {
	c := Concat(clipOf(1), nil, clipOf(2))
	if c.Duration() != 3 {
		t.Fatalf("duration = %v", c.Duration())
	}
}

func TestHead(t *testing.T) {
	c := clipOf(10)
	if h := Head(c, 4); h.Duration() != 4 {
		t.Fatalf("duration = %v", h.Duration())
	}
	if h := Head(c, 20); h != c {
		t.Fatal("head longer than clip should return the clip itself")
	}
}

func TestWindowsShortClip(t *testing.T) {
	c := clipOf(3)
	w := Windows(c, 5, 2)
	if len(w) != 1 || len(w[0].Samples) != len(c.Samples) {
		t.Fatalf("windows = %d", len(w))
	}
}

func TestWindowsOverlap(t *testing.T) {
	// 11 s with 5 s windows and a 3 s step: starts at 0, 3 and 6.
	w := Windows(clipOf(11), 5, 2)
	if len(w) != 3 {
		t.Fatalf("windows = %d, want 3", len(w))
	}
	if len(w[0].Samples) != 5*TargetRate {
		t.Fatalf("first window = %d samples", len(w[0].Samples))
	}
	if len(w[2].Samples) != 5*TargetRate {
		t.Fatalf("last window = %d samples", len(w[2].Samples))
	}
	// Overlap: window 2 starts 3 s in.
	if w[1].Samples[0] != float32(3*TargetRate) {
		t.Fatalf("second window starts at sample %v", w[1].Samples[0])
	}
}

func TestWindowsKeepsPartialTail(t *testing.T) {
	// 10 s: starts at 0, 3, 6 -> the 6 s window reaches only 10 s, a
	// 4 s partial that must be kept.
	w := Windows(clipOf(10), 5, 2)
	if len(w) != 3 {
		t.Fatalf("windows = %d, want 3", len(w))
	}
	if len(w[2].Samples) != 4*TargetRate {
		t.Fatalf("tail window = %d samples, want 4 s", len(w[2].Samples))
	}
}

func TestDecodeGarbage(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte("not a wav file")), TargetRate, 60)
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("err = %v, want ErrDecode", err)
	}
}
