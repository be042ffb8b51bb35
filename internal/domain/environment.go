package domain

import "fmt"

// Level is the severity of the particle radiation environment.
type Level int

const (
	Nominal Level = iota
	Moderate
	Severe
)

// Thresholds of the environment classifier.
const (
	SevereKp       = 6.0
	SevereCutoff   = 5.0 // GV
	ModerateKp     = 4.0
	ModerateCutoff = 8.0 // GV
)

var levelNames = [...]string{"Nominal", "Moderate", "Severe"}

func (l Level) String() string {
	if l < Nominal || l > Severe {
		return fmt.Sprintf("Level(%d)", int(l))
	}
	return levelNames[l]
}

// MarshalText encodes the level by name.
func (l Level) MarshalText() ([]byte, error) {
	if l < Nominal || l > Severe {
		return nil, fmt.Errorf("unknown environment level %d", int(l))
	}
	return []byte(levelNames[l]), nil
}

// UnmarshalText decodes a level name.
func (l *Level) UnmarshalText(b []byte) error {
	for i, name := range levelNames {
		if string(b) == name {
			*l = Level(i)
			return nil
		}
	}
	return fmt.Errorf("unknown environment level %q", b)
}

// ClassifyEnvironment labels the environment from the cutoff rigidity rc (GV)
// and the planetary activity index kp. Rules are evaluated in order and the
// first match wins:
//
//	Severe:   kp ≥ 6 or rc < 5
//	Moderate: kp ≥ 4 or rc < 8
//	Nominal:  otherwise
//
// A low cutoff rigidity lets lower-energy particles through, so it raises
// severity the same way geomagnetic activity does.
func ClassifyEnvironment(rc, kp float64) Level {
	switch {
	case kp >= SevereKp || rc < SevereCutoff:
		return Severe
	case kp >= ModerateKp || rc < ModerateCutoff:
		return Moderate
	default:
		return Nominal
	}
}
