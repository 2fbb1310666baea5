package components

import "fmt"

// DeathCause records why a cell died. CauseNone marks a live cell.
type DeathCause uint8

const (
	CauseNone DeathCause = iota
	CauseAgeLimit
	CauseDivisionLimit
	CausePoisoned
	CauseOvercrowded
	CauseOther
)

var causeNames = [...]string{
	CauseNone:          "none",
	CauseAgeLimit:      "age-limit",
	CauseDivisionLimit: "division-limit",
	CausePoisoned:      "poisoned",
	CauseOvercrowded:   "overcrowded",
	CauseOther:         "other",
}

// AllCauses lists every death cause, excluding CauseNone, in report order.
func AllCauses() []DeathCause {
	return []DeathCause{CauseAgeLimit, CauseDivisionLimit, CausePoisoned, CauseOvercrowded, CauseOther}
}

// String returns the kebab-case cause name.
func (c DeathCause) String() string {
	if int(c) < len(causeNames) {
		return causeNames[c]
	}
	return fmt.Sprintf("cause(%d)", uint8(c))
}

// MarshalText implements encoding.TextMarshaler.
func (c DeathCause) MarshalText() ([]byte, error) {
	if int(c) >= len(causeNames) {
		return nil, fmt.Errorf("unknown death cause %d", uint8(c))
	}
	return []byte(causeNames[c]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *DeathCause) UnmarshalText(text []byte) error {
	for i, name := range causeNames {
		if name == string(text) {
			*c = DeathCause(i)
			return nil
		}
	}
	return fmt.Errorf("unknown death cause %q", text)
}
