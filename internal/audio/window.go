package audio

// Windows splits a clip into fixed-length overlapping windows for
// chunked voting. A clip shorter than winSeconds yields a single window
// covering the whole clip. The last partial window is kept when it
// extends past the final full step.
func Windows(c *Clip, winSeconds, overlapSeconds float64) []*Clip {
	if c == nil || len(c.Samples) == 0 {
		return nil
	}
	win := int(winSeconds * float64(c.SampleRate))
	step := int((winSeconds - overlapSeconds) * float64(c.SampleRate))
	if win <= 0 || step <= 0 || len(c.Samples) <= win {
		return []*Clip{c}
	}

	var out []*Clip
	for start := 0; start < len(c.Samples); start += step {
		end := start + win
		if end > len(c.Samples) {
			end = len(c.Samples)
		}
		out = append(out, &Clip{Samples: c.Samples[start:end], SampleRate: c.SampleRate})
		if end == len(c.Samples) {
			break
		}
	}
	return out
}
