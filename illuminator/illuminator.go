// Package illuminator computes how a single non-ambient light reaches a point.
package illuminator

import (
	"math"

	"row-major/whitted/light"
	"row-major/whitted/vmath/vec3"
)

// Attenuate evaluates the falloff denominator c + l*d + q*d^2.
func Attenuate(attenuation vec3.T, distance float64) float64 {
	return attenuation[0] + attenuation[1]*distance + attenuation[2]*distance*distance
}

// GetIllumination returns the unit direction from hitPos toward l, the
// intensity arriving at hitPos, and the distance to the light (+Inf for
// directional lights).  ok is false when the light contributes nothing at
// hitPos: ambient lights, and malformed lights such as a zero-length
// direction or a non-positive attenuation denominator.
func GetIllumination(l light.Light, hitPos vec3.T) (dirToLight, intensity vec3.T, distance float64, ok bool) {
	switch l.Kind {
	case light.KindPoint:
		toLight := vec3.SubVV(l.Position, hitPos)
		distance = toLight.Norm()
		if distance == 0 || math.IsNaN(distance) || math.IsInf(distance, 0) {
			return vec3.T{}, vec3.T{}, 0, false
		}

		denom := Attenuate(l.Attenuation, distance)
		if !(denom > 0) || math.IsInf(denom, 0) {
			return vec3.T{}, vec3.T{}, 0, false
		}

		return vec3.DivVS(toLight, distance), vec3.DivVS(l.Color, denom), distance, true

	case light.KindDirectional:
		if l.Direction.IsZero() || !l.Direction.IsFinite() {
			return vec3.T{}, vec3.T{}, 0, false
		}
		return vec3.Normalize(vec3.Neg(l.Direction)), l.Color, math.Inf(1), true
	}

	return vec3.T{}, vec3.T{}, 0, false
}
