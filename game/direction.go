package game

import (
	"fmt"
	"strings"
)

// Direction is a single axis step on the grid.
type Direction struct {
	DX int
	DY int
}

var (
	Up    = Direction{DX: 0, DY: -1}
	Down  = Direction{DX: 0, DY: 1}
	Left  = Direction{DX: -1, DY: 0}
	Right = Direction{DX: 1, DY: 0}

	Directions = map[string]Direction{
		"up":    Up,
		"north": Up,
		"down":  Down,
		"south": Down,
		"left":  Left,
		"west":  Left,
		"right": Right,
		"east":  Right,
	}
)

// IsUnit reports whether the direction moves exactly one cell along one axis.
func (d Direction) IsUnit() bool {
	return d.DX*d.DX+d.DY*d.DY == 1
}

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return fmt.Sprintf("(%d,%d)", d.DX, d.DY)
	}
}

// ParseDirection maps a direction name to a Direction. Names are case-insensitive.
func ParseDirection(name string) (Direction, error) {
	d, ok := Directions[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Direction{}, fmt.Errorf("%w: %q", ErrInvalidDirection, name)
	}
	return d, nil
}
