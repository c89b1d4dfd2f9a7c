package geometry

import (
	"errors"
	"image"
	"math"
	"testing"
)

const floatTolerance = 1e-9

func pointNear(a, b Point, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol && math.Abs(a.Y-b.Y) <= tol
}

func TestNewTransformer_EmptyPreview(t *testing.T) {
	tests := []struct {
		name    string
		preview image.Rectangle
	}{
		{"zero width", image.Rect(0, 0, 0, 800)},
		{"zero height", image.Rect(0, 0, 1000, 0)},
		{"empty", image.Rectangle{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := NewTransformer(false, 0, tt.preview)
			if tr != nil {
				t.Fatal("expected nil transformer")
			}
			if !errors.Is(err, ErrEmptyPreview) {
				t.Fatalf("expected ErrEmptyPreview, got %v", err)
			}
		})
	}
}

func TestNormalizeRotation(t *testing.T) {
	tests := []struct {
		in      int
		want    int
		wantErr bool
	}{
		{0, 0, false},
		{90, 90, false},
		{450, 90, false},
		{-90, 270, false},
		{45, 0, true},
	}
	for _, tt := range tests {
		got, err := NormalizeRotation(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("NormalizeRotation(%d) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("NormalizeRotation(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestViewToDriver_Corners(t *testing.T) {
	preview := image.Rect(0, 0, 1000, 800)
	tests := []struct {
		name     string
		mirror   bool
		rotation int
		view     Point
		want     Point
	}{
		{"top-left plain", false, 0, Point{0, 0}, Point{-1000, -1000}},
		{"center plain", false, 0, Point{500, 400}, Point{0, 0}},
		{"bottom-right plain", false, 0, Point{1000, 800}, Point{1000, 1000}},
		{"top-left mirrored", true, 0, Point{0, 0}, Point{1000, -1000}},
		{"top-left rotated 90", false, 90, Point{0, 0}, Point{-1000, 1000}},
		{"top-left rotated 180", false, 180, Point{0, 0}, Point{1000, 1000}},
		{"top-left rotated 270", false, 270, Point{0, 0}, Point{1000, -1000}},
		{"top-left mirrored 90", true, 90, Point{0, 0}, Point{1000, 1000}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := NewTransformer(tt.mirror, tt.rotation, preview)
			if err != nil {
				t.Fatalf("NewTransformer: %v", err)
			}
			got := tr.ViewToDriver(tt.view)
			if !pointNear(got, tt.want, floatTolerance) {
				t.Errorf("ViewToDriver(%v) = %v, want %v", tt.view, got, tt.want)
			}
		})
	}
}

func TestTransformer_RoundTrip(t *testing.T) {
	preview := image.Rect(40, 100, 1080, 1900)
	for _, mirror := range []bool{false, true} {
		for _, rot := range []int{0, 90, 180, 270} {
			tr, err := NewTransformer(mirror, rot, preview)
			if err != nil {
				t.Fatalf("NewTransformer: %v", err)
			}
			for _, p := range []Point{{40, 100}, {300, 700}, {1080, 1900}, {777, 1234}} {
				back := tr.DriverToView(tr.ViewToDriver(p))
				if !pointNear(back, p, 1e-6) {
					t.Errorf("mirror=%v rot=%d: %v -> %v", mirror, rot, p, back)
				}
			}
		}
	}
}

func TestRectToDriver_Scenario(t *testing.T) {
	tr, err := NewTransformer(false, 0, image.Rect(0, 0, 1000, 800))
	if err != nil {
		t.Fatalf("NewTransformer: %v", err)
	}
	got := tr.RectToDriver(image.Rect(420, 320, 580, 480))
	want := image.Rect(-160, -200, 160, 200)
	if got != want {
		t.Errorf("RectToDriver = %v, want %v", got, want)
	}
}

func TestAreaSize(t *testing.T) {
	preview := image.Rect(0, 0, 1000, 800)
	if got := AreaSize(preview, 0.2); got != 160 {
		t.Errorf("focus area = %d, want 160", got)
	}
	if got := AreaSize(preview, 0.3); got != 240 {
		t.Errorf("metering area = %d, want 240", got)
	}
	if got := AreaSize(image.Rect(0, 0, 2, 2), 0.1); got != 1 {
		t.Errorf("tiny preview area = %d, want 1", got)
	}
}

func TestTapArea_ClampsInsidePreview(t *testing.T) {
	preview := image.Rect(0, 0, 1000, 800)
	tests := []struct {
		name string
		x, y int
		want image.Rectangle
	}{
		{"centered", 500, 400, image.Rect(420, 320, 580, 480)},
		{"top-left corner", 5, 5, image.Rect(0, 0, 160, 160)},
		{"bottom-right corner", 999, 799, image.Rect(840, 640, 1000, 800)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TapArea(tt.x, tt.y, 160, preview)
			if got != tt.want {
				t.Errorf("TapArea = %v, want %v", got, tt.want)
			}
			if !got.In(preview) {
				t.Errorf("area %v escapes preview %v", got, preview)
			}
		})
	}
}

func TestBuildRegion_RoundTripNearTap(t *testing.T) {
	preview := image.Rect(0, 0, 1080, 1920)
	taps := []image.Point{{540, 960}, {10, 10}, {1070, 1900}, {300, 1500}}
	for _, mirror := range []bool{false, true} {
		for _, rot := range []int{0, 90, 180, 270} {
			tr, err := NewTransformer(mirror, rot, preview)
			if err != nil {
				t.Fatalf("NewTransformer: %v", err)
			}
			for _, tap := range taps {
				r := BuildRegion(tr, tap.X, tap.Y, 0.2, 1)
				size := float64(r.View.Dx())
				back := tr.DriverToView(Center(r.Driver))
				if math.Abs(back.X-float64(tap.X)) > size || math.Abs(back.Y-float64(tap.Y)) > size {
					t.Errorf("mirror=%v rot=%d tap=%v: region center maps back to %v (size %v)",
						mirror, rot, tap, back, size)
				}
				if !r.Driver.In(DriverBounds) {
					t.Errorf("driver rect %v escapes bounds", r.Driver)
				}
				if r.Weight != 1 {
					t.Errorf("weight = %d, want 1", r.Weight)
				}
			}
		}
	}
}
