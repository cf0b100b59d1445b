// Package light describes scene lights as a tagged union.  Consumers switch on
// Kind rather than calling methods.
package light

import (
	"fmt"

	"row-major/whitted/vmath/vec3"
)

type Kind int

const (
	KindPoint Kind = iota
	KindDirectional
	KindAmbient
)

func (k Kind) String() string {
	switch k {
	case KindPoint:
		return "point"
	case KindDirectional:
		return "directional"
	case KindAmbient:
		return "ambient"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func ParseKind(s string) (Kind, error) {
	switch s {
	case "point":
		return KindPoint, nil
	case "directional":
		return KindDirectional, nil
	case "ambient":
		return KindAmbient, nil
	}
	return 0, fmt.Errorf("unknown light kind %q", s)
}

type Light struct {
	Kind Kind

	// Color is the emitted intensity per RGB channel.
	Color vec3.T

	// Position is used by point lights.
	Position vec3.T

	// Direction is the direction light travels for directional lights.
	Direction vec3.T

	// Attenuation holds the constant, linear, and quadratic coefficients of a
	// point light's distance falloff.
	Attenuation vec3.T
}

// DefaultAttenuation gives a point light no falloff.
var DefaultAttenuation = vec3.T{1, 0, 0}

func Point(position, color vec3.T) Light {
	return Light{
		Kind:        KindPoint,
		Position:    position,
		Color:       color,
		Attenuation: DefaultAttenuation,
	}
}

func Directional(direction, color vec3.T) Light {
	return Light{
		Kind:      KindDirectional,
		Direction: direction,
		Color:     color,
	}
}

func Ambient(color vec3.T) Light {
	return Light{
		Kind:  KindAmbient,
		Color: color,
	}
}
