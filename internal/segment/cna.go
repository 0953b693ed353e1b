package segment

import (
	"fmt"
	"strings"

	"moransim/internal/simerr"
)

// CNAType enumerates the outcomes of one segment-level mutation draw.
type CNAType int

const (
	Gain CNAType = iota
	Loss
	None
)

func (t CNAType) String() string {
	switch t {
	case Gain:
		return "GAIN"
	case Loss:
		return "LOSS"
	case None:
		return "NONE"
	default:
		return fmt.Sprintf("CNAType(%d)", int(t))
	}
}

// ParseEvent accepts the gain/loss spellings used in rate and fitness files.
func ParseEvent(s string) (CNAType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "GAIN":
		return Gain, nil
	case "LOSS":
		return Loss, nil
	default:
		return None, simerr.Validationf("unknown copy number event %q", s)
	}
}
