// Package vec2 holds image-plane coordinates.
package vec2

type T [2]float64

// FromPixel maps pixel (x, y) of a width x height image to normalized device
// coordinates.  Pixel 0 maps to -1; the far edge, one past the last pixel,
// would map to 1.
func FromPixel(x, y, width, height int) T {
	return T{
		float64(x)*(2.0/float64(width)) - 1,
		float64(y)*(2.0/float64(height)) - 1,
	}
}
