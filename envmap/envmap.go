// Package envmap looks up the color seen in a direction when a ray escapes the
// scene.
package envmap

import (
	"context"
	"fmt"
	"math"

	"row-major/whitted/blobio"
	"row-major/whitted/rgbimage"
	"row-major/whitted/vmath/vec3"
)

type Map interface {
	GetTexel(direction vec3.T) vec3.T
}

type Face int

const (
	FacePosX Face = iota
	FaceNegX
	FacePosY
	FaceNegY
	FacePosZ
	FaceNegZ
)

// FaceNames are the file stems LoadCubeMap expects, indexed by Face.
var FaceNames = [6]string{"right", "left", "top", "bottom", "front", "back"}

// CubeMap samples six square images with nearest-texel lookup, following the
// OpenGL face orientation conventions.
type CubeMap struct {
	Faces [6]*rgbimage.Image
}

func NewCubeMap(faces [6]*rgbimage.Image) (*CubeMap, error) {
	for i, f := range faces {
		if f == nil || f.Width == 0 || f.Height == 0 {
			return nil, fmt.Errorf("cube map face %s is empty", FaceNames[i])
		}
	}
	return &CubeMap{Faces: faces}, nil
}

// LoadCubeMap reads right.png, left.png, top.png, bottom.png, front.png and
// back.png from dir, which may be a gs:// prefix.
func LoadCubeMap(ctx context.Context, dir string) (*CubeMap, error) {
	faces := [6]*rgbimage.Image{}
	for i, stem := range FaceNames {
		name := blobio.Join(dir, stem+".png")
		im, err := rgbimage.Load(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("while loading cube map face %s: %w", name, err)
		}
		faces[i] = im
	}
	return NewCubeMap(faces)
}

// FaceCoords returns the face a direction lands on and the texture coordinates
// on it, with u running left to right and v top to bottom, both in [0, 1].
func FaceCoords(d vec3.T) (face Face, u, v float64, ok bool) {
	ax, ay, az := math.Abs(d[0]), math.Abs(d[1]), math.Abs(d[2])

	var sc, tc, ma float64
	switch {
	case ax >= ay && ax >= az:
		ma = ax
		if d[0] > 0 {
			face, sc, tc = FacePosX, -d[2], -d[1]
		} else {
			face, sc, tc = FaceNegX, d[2], -d[1]
		}
	case ay >= az:
		ma = ay
		if d[1] > 0 {
			face, sc, tc = FacePosY, d[0], d[2]
		} else {
			face, sc, tc = FaceNegY, d[0], -d[2]
		}
	default:
		ma = az
		if d[2] > 0 {
			face, sc, tc = FacePosZ, d[0], -d[1]
		} else {
			face, sc, tc = FaceNegZ, -d[0], -d[1]
		}
	}

	if ma == 0 || math.IsNaN(ma) {
		return 0, 0, 0, false
	}

	return face, (sc/ma + 1) / 2, (tc/ma + 1) / 2, true
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func (c *CubeMap) GetTexel(direction vec3.T) vec3.T {
	face, u, v, ok := FaceCoords(direction)
	if !ok {
		return vec3.T{}
	}

	im := c.Faces[face]
	x := clampIndex(int(u*float64(im.Width)), im.Width)
	// Images keep row 0 at the bottom; v runs from the top.
	y := clampIndex(int((1-v)*float64(im.Height)), im.Height)
	return im.Pixel(x, y)
}
