// Package material holds the Phong surface description read by the tracer.
package material

import (
	"fmt"
	"math"

	"row-major/whitted/vmath/vec3"
)

type Material struct {
	Diffuse  vec3.T
	Specular vec3.T
	Ambient  vec3.T

	// Shininess is the Phong exponent applied to the specular lobe.
	Shininess float64
}

func New(diffuse, specular, ambient vec3.T, shininess float64) (*Material, error) {
	m := &Material{
		Diffuse:   diffuse,
		Specular:  specular,
		Ambient:   ambient,
		Shininess: shininess,
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Matte returns a matte material whose ambient response equals its diffuse
// color.
func Matte(color vec3.T) *Material {
	return &Material{
		Diffuse: color,
		Ambient: color,
	}
}

// Mirror returns a perfect reflector tinted by color.
func Mirror(color vec3.T) *Material {
	return &Material{
		Specular:  color,
		Shininess: 1,
	}
}

func (m *Material) Validate() error {
	if m.Shininess < 0 || math.IsNaN(m.Shininess) {
		return fmt.Errorf("shininess must be non-negative, got %v", m.Shininess)
	}
	if !m.Diffuse.IsFinite() || !m.Specular.IsFinite() || !m.Ambient.IsFinite() {
		return fmt.Errorf("colors must be finite, got diffuse=%v specular=%v ambient=%v", m.Diffuse, m.Specular, m.Ambient)
	}
	return nil
}

// Reflective reports whether the specular color is strong enough, under the
// given threshold, to be worth following a mirror bounce.
func (m *Material) Reflective(threshold float64) bool {
	return m.Specular.Norm() > threshold
}
