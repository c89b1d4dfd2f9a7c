package geometry

import "image"

// Region is a focus or metering area: the tap square in view space and the
// matching driver-space rectangle, plus a weight for the driver.
type Region struct {
	View   image.Rectangle `json:"view"`
	Driver image.Rectangle `json:"driver"`
	Weight int             `json:"weight"`
}

// AreaSize returns the side of a square region: the shorter preview edge
// times scale, at least one pixel.
func AreaSize(preview image.Rectangle, scale float64) int {
	short := preview.Dx()
	if preview.Dy() < short {
		short = preview.Dy()
	}
	size := int(float64(short) * scale)
	if size < 1 {
		size = 1
	}
	if size > short {
		size = short
	}
	return size
}

// TapArea returns a size x size square centered on (x,y), shifted so that it
// stays entirely inside the preview.
func TapArea(x, y, size int, preview image.Rectangle) image.Rectangle {
	left := clamp(x-size/2, preview.Min.X, preview.Max.X-size)
	top := clamp(y-size/2, preview.Min.Y, preview.Max.Y-size)
	return image.Rect(left, top, left+size, top+size)
}

// BuildRegion computes the region for a tap at (x,y). The square is sized
// from the preview held by t and clamped inside it before being mapped to
// driver space.
func BuildRegion(t *Transformer, x, y int, scale float64, weight int) Region {
	size := AreaSize(t.preview, scale)
	view := TapArea(x, y, size, t.preview)
	return Region{
		View:   view,
		Driver: t.RectToDriver(view),
		Weight: weight,
	}
}

// Center returns the center of a rectangle in floating point.
func Center(r image.Rectangle) Point {
	return Point{
		X: float64(r.Min.X+r.Max.X) / 2,
		Y: float64(r.Min.Y+r.Max.Y) / 2,
	}
}

// clamp limits a value to a range
func clamp(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
