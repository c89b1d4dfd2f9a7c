// Package geometry maps between preview-view coordinates and sensor driver
// coordinates, and builds focus and metering regions around a tap.
//
// Driver coordinates span (-1000,-1000) to (1000,1000) regardless of the
// preview size. View coordinates are pixels inside the preview rectangle.
package geometry

import (
	"fmt"
	"image"
	"math"
)

// Driver coordinate bounds.
const (
	DriverMin  = -1000
	DriverMax  = 1000
	driverSpan = DriverMax - DriverMin
)

// DriverBounds is the full driver coordinate rectangle.
var DriverBounds = image.Rect(DriverMin, DriverMin, DriverMax, DriverMax)

// Point is a floating point coordinate pair.
type Point struct {
	X, Y float64
}

// Transformer maps between view and driver space. It is immutable; build a
// new one whenever the mirror flag, rotation or preview rectangle changes.
//
// Driver to view is: mirror on X, rotate clockwise by the display rotation,
// scale the 2000x2000 driver square onto the preview, translate to its center.
type Transformer struct {
	mirror   bool
	rotation int
	preview  image.Rectangle

	cos, sin float64
	sx, sy   float64 // driver units -> view pixels
	cx, cy   float64
}

// NormalizeRotation folds a rotation into [0,360) and checks it is a right angle.
func NormalizeRotation(degrees int) (int, error) {
	r := ((degrees % 360) + 360) % 360
	if r%90 != 0 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidRotation, degrees)
	}
	return r, nil
}

// NewTransformer builds a transformer for the given preview. It fails with
// ErrEmptyPreview when the preview has no area.
func NewTransformer(mirror bool, rotation int, preview image.Rectangle) (*Transformer, error) {
	if preview.Dx() <= 0 || preview.Dy() <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrEmptyPreview, preview)
	}
	rot, err := NormalizeRotation(rotation)
	if err != nil {
		return nil, err
	}

	t := &Transformer{
		mirror:   mirror,
		rotation: rot,
		preview:  preview,
		sx:       float64(preview.Dx()) / driverSpan,
		sy:       float64(preview.Dy()) / driverSpan,
		cx:       float64(preview.Min.X) + float64(preview.Dx())/2,
		cy:       float64(preview.Min.Y) + float64(preview.Dy())/2,
	}
	switch rot {
	case 0:
		t.cos, t.sin = 1, 0
	case 90:
		t.cos, t.sin = 0, 1
	case 180:
		t.cos, t.sin = -1, 0
	case 270:
		t.cos, t.sin = 0, -1
	}
	return t, nil
}

// Mirror reports whether the transformer mirrors the X axis.
func (t *Transformer) Mirror() bool { return t.mirror }

// Rotation returns the normalized display rotation in degrees.
func (t *Transformer) Rotation() int { return t.rotation }

// Preview returns the preview rectangle in view coordinates.
func (t *Transformer) Preview() image.Rectangle { return t.preview }

func (t *Transformer) mirrorSign() float64 {
	if t.mirror {
		return -1
	}
	return 1
}

// DriverToView maps a driver point to view coordinates.
func (t *Transformer) DriverToView(p Point) Point {
	x := p.X * t.mirrorSign()
	y := p.Y
	rx := x*t.cos - y*t.sin
	ry := x*t.sin + y*t.cos
	return Point{X: rx*t.sx + t.cx, Y: ry*t.sy + t.cy}
}

// ViewToDriver maps a view point to driver coordinates.
func (t *Transformer) ViewToDriver(p Point) Point {
	qx := (p.X - t.cx) / t.sx
	qy := (p.Y - t.cy) / t.sy
	// inverse rotation
	rx := qx*t.cos + qy*t.sin
	ry := -qx*t.sin + qy*t.cos
	return Point{X: rx * t.mirrorSign(), Y: ry}
}

// RectToDriver maps a view rectangle to the driver rectangle that bounds it,
// clamped to DriverBounds.
func (t *Transformer) RectToDriver(r image.Rectangle) image.Rectangle {
	return mapRect(r, t.ViewToDriver).Intersect(DriverBounds)
}

// RectToView maps a driver rectangle to the view rectangle that bounds it.
func (t *Transformer) RectToView(r image.Rectangle) image.Rectangle {
	return mapRect(r, t.DriverToView)
}

func mapRect(r image.Rectangle, f func(Point) Point) image.Rectangle {
	corners := [4]Point{
		f(Point{float64(r.Min.X), float64(r.Min.Y)}),
		f(Point{float64(r.Max.X), float64(r.Min.Y)}),
		f(Point{float64(r.Min.X), float64(r.Max.Y)}),
		f(Point{float64(r.Max.X), float64(r.Max.Y)}),
	}
	minX, minY := corners[0].X, corners[0].Y
	maxX, maxY := minX, minY
	for _, c := range corners[1:] {
		minX = math.Min(minX, c.X)
		minY = math.Min(minY, c.Y)
		maxX = math.Max(maxX, c.X)
		maxY = math.Max(maxY, c.Y)
	}
	return image.Rect(round(minX), round(minY), round(maxX), round(maxY))
}

func round(v float64) int {
	return int(math.Round(v))
}
