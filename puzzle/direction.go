package puzzle

import (
	"errors"
	"fmt"
	"strings"
)

// Direction is a typing axis.
type Direction int

const (
	Across Direction = iota
	Down
)

var ErrUnknownDirection = errors.New("unknown direction")

func (d Direction) String() string {
	if d == Down {
		return "down"
	}
	return "across"
}

// Toggle returns the other direction.
func (d Direction) Toggle() Direction {
	if d == Across {
		return Down
	}
	return Across
}

// delta returns the (row, col) step of one cell along d.
func (d Direction) delta() (int, int) {
	if d == Down {
		return 1, 0
	}
	return 0, 1
}

// ParseDirection accepts "across" or "down", case-insensitively.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "across":
		return Across, nil
	case "down":
		return Down, nil
	}
	return Across, fmt.Errorf("%w: %q", ErrUnknownDirection, s)
}

func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(b []byte) error {
	v, err := ParseDirection(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}
