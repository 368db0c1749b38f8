package reformat

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownResolution indicates a resolution index or label outside the
// amplifier's resolution table.
var ErrUnknownResolution = errors.New("reformat: unknown resolution")

// Resolution is the amplifier's ADC resolution setting. Its value is the
// index used in configuration files.
type Resolution int

const (
	Resolution100nV Resolution = iota
	Resolution500nV
	Resolution10uV
	Resolution152uV
)

var resolutions = [...]struct {
	scale float64
	label string
}{
	Resolution100nV: {0.1, "100 nV"},
	Resolution500nV: {0.5, "500 nV"},
	Resolution10uV:  {10, "10 muV"},
	Resolution152uV: {152.6, "152.6 muV"},
}

// Valid reports whether r is a known resolution.
func (r Resolution) Valid() bool {
	return r >= 0 && int(r) < len(resolutions)
}

// Scale returns microvolts per ADC count, or 0 for an unknown resolution.
func (r Resolution) Scale() float64 {
	if !r.Valid() {
		return 0
	}
	return resolutions[r].scale
}

// String returns the resolution label, e.g. "10 muV".
func (r Resolution) String() string {
	if !r.Valid() {
		return "Resolution(" + strconv.Itoa(int(r)) + ")"
	}
	return resolutions[r].label
}

// ParseResolution accepts a table index ("0".."3") or a label. Labels are
// matched ignoring case and spaces, and "uV", "µV" and "muV" are equivalent.
func ParseResolution(s string) (Resolution, error) {
	if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		r := Resolution(i)
		if !r.Valid() {
			return 0, fmt.Errorf("%w: index %d", ErrUnknownResolution, i)
		}
		return r, nil
	}

	key := normalizeLabel(s)
	for i := range resolutions {
		if normalizeLabel(resolutions[i].label) == key {
			return Resolution(i), nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownResolution, s)
}

func normalizeLabel(s string) string {
	s = strings.ToLower(strings.ReplaceAll(s, " ", ""))
	s = strings.ReplaceAll(s, "µ", "u")
	return strings.ReplaceAll(s, "muv", "uv")
}
