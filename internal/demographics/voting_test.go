package demographics

import (
	"context"
	"errors"
	"testing"

	"github.com/LeeJaeHaeng/voiceshield/internal/audio"
)

func TestDecodeLabel(t *testing.T) {
	cases := []struct {
		raw    string
		gender Gender
		age    int
		hasAge bool
	}{
		{"female_26", GenderFemale, 26, true},
		{"male_41", GenderMale, 41, true},
		{"FEMALE_30", GenderFemale, 30, true},
		{"child", GenderChild, 0, false},
		{"child_9", GenderChild, 9, true},
		{"female_child", GenderFemale, 0, false},
		{"male_sixties", GenderMale, 65, true},
		{"female_teens", GenderFemale, 16, true},
		{"garbage", GenderUnknown, 0, false},
		{"male_0", GenderMale, 0, false},
		{"male_500", GenderMale, 0, false},
	}
	for _, tc := range cases {
		l := DecodeLabel(tc.raw)
		if l.Gender != tc.gender {
			t.Errorf("%q: gender = %q, want %q", tc.raw, l.Gender, tc.gender)
		}
		if l.HasAge != tc.hasAge || (tc.hasAge && l.Age != tc.age) {
			t.Errorf("%q: age = (%d, %v), want (%d, %v)", tc.raw, l.Age, l.HasAge, tc.age, tc.hasAge)
		}
	}
}

func TestDecodeLabelFemaleNotMale(t *testing.T) {
	// "male" is a substring of "female"; precedence must hold.
	if l := DecodeLabel("female"); l.Gender != GenderFemale {
		t.Fatalf("gender = %q", l.Gender)
	}
}

// scriptedModel plays back one label per call.
type scriptedModel struct {
	labels []string
	errs   []bool
	calls  int
}

func (s *scriptedModel) Classify(ctx context.Context, clip *audio.Clip) (string, error) {
	i := s.calls
	s.calls++
	if i >= len(s.labels) {
		return "", errors.New("out of script")
	}
	if i < len(s.errs) && s.errs[i] {
		return "", errors.New("model failure")
	}
	return s.labels[i], nil
}

func votingClip(seconds float64) *audio.Clip {
	return &audio.Clip{
		Samples:    make([]float32, int(seconds*float64(audio.TargetRate))),
		SampleRate: audio.TargetRate,
	}
}

func TestVoteMajorityGender(t *testing.T) {
	// 11 s -> windows starting at 0, 3 and 6 s: 3 chunks.
	model := &scriptedModel{labels: []string{"female_24", "female_26", "male_30"}}
	v := NewVoter(model)
	pred := v.Vote(context.Background(), votingClip(11))
	if pred.Gender != GenderFemale {
		t.Fatalf("gender = %q", pred.Gender)
	}
	if pred.AgeGroup != "20s" {
		t.Fatalf("age group = %q, want 20s (mean 26.7)", pred.AgeGroup)
	}
}

func TestVoteTieBreakFirstSeen(t *testing.T) {
	model := &scriptedModel{labels: []string{"male_40", "female_40"}}
	v := NewVoter(model)
	pred := v.Vote(context.Background(), votingClip(8))
	if pred.Gender != GenderMale {
		t.Fatalf("gender = %q, want first-seen Male on tie", pred.Gender)
	}
	if pred.AgeGroup != "40s" {
		t.Fatalf("age group = %q", pred.AgeGroup)
	}
}

func TestVoteChildOverride(t *testing.T) {
	model := &scriptedModel{labels: []string{"female_9"}}
	v := NewVoter(model)
	pred := v.Vote(context.Background(), votingClip(3))
	if pred.Gender != GenderChild || pred.AgeGroup != "Child" {
		t.Fatalf("pred = %+v, want Child/Child for mean age 9", pred)
	}
}

func TestVoteSkipsFailedWindows(t *testing.T) {
	model := &scriptedModel{
		labels: []string{"", "male_33"},
		errs:   []bool{true, false},
	}
	v := NewVoter(model)
	pred := v.Vote(context.Background(), votingClip(8))
	if pred.Gender != GenderMale || pred.AgeGroup != "30s" {
		t.Fatalf("pred = %+v", pred)
	}
}

func TestVoteNilModel(t *testing.T) {
	v := NewVoter(nil)
	if pred := v.Vote(context.Background(), votingClip(5)); pred != Unknown() {
		t.Fatalf("pred = %+v, want Unknown", pred)
	}
}

func TestVoteEmptyClip(t *testing.T) {
	v := NewVoter(&scriptedModel{})
	if pred := v.Vote(context.Background(), &audio.Clip{SampleRate: audio.TargetRate}); pred != Unknown() {
		t.Fatalf("pred = %+v, want Unknown", pred)
	}
}
