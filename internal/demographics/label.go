// Package demographics infers speaker age and gender by voting over
// chunk-level predictions from the external age/gender model.
package demographics

import (
	"regexp"
	"strconv"
	"strings"
)

// Gender is the parsed gender class of a model label.
type Gender string

const (
	GenderFemale  Gender = "Female"
	GenderMale    Gender = "Male"
	GenderChild   Gender = "Child"
	GenderUnknown Gender = "Unknown"
)

// Label is the decoded form of one raw model label. The model emits
// strings like "female_26", "male_sixties" or "child"; anything the
// grammar cannot parse decodes to Unknown rather than failing.
type Label struct {
	Raw    string
	Gender Gender
	Age    int
	HasAge bool
}

var ageDigits = regexp.MustCompile(`\d+`)

// bucketAges maps decade words that appear in some label sets to a
// representative mid-decade age.
var bucketAges = map[string]int{
	"teens":     16,
	"twenties":  25,
	"thirties":  35,
	"forties":   45,
	"fifties":   55,
	"sixties":   65,
	"seventies": 75,
	"eighties":  85,
}

// DecodeLabel parses a raw model label into its gender and age parts.
// "female" is checked before "male" since the latter is a substring of
// the former, and before "child" so a combined label like
// "female_child" keeps its gender; "child" only decides on its own.
func DecodeLabel(raw string) Label {
	l := Label{Raw: raw, Gender: GenderUnknown}
	lower := strings.ToLower(raw)

	switch {
	case strings.Contains(lower, "female"):
		l.Gender = GenderFemale
	case strings.Contains(lower, "male"):
		l.Gender = GenderMale
	case strings.Contains(lower, "child"):
		l.Gender = GenderChild
	}

	if m := ageDigits.FindString(lower); m != "" {
		if age, err := strconv.Atoi(m); err == nil && age > 0 && age < 120 {
			l.Age = age
			l.HasAge = true
		}
	}
	if !l.HasAge {
		for word, age := range bucketAges {
			if strings.Contains(lower, word) {
				l.Age = age
				l.HasAge = true
				break
			}
		}
	}
	return l
}
