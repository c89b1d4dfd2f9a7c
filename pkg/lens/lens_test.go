package lens

import (
	"math"
	"testing"
)

type mapMetadata map[string]string

func (m mapMetadata) Lookup(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

func TestLinearScale_Degenerate(t *testing.T) {
	s := NewLinearScale(0, 0)
	if !s.Degenerate() {
		t.Fatal("expected degenerate scale")
	}
	for _, v := range []float64{-5, 0, 1, 1000} {
		if got := s.Scale(v); got != 0 {
			t.Errorf("Scale(%v) = %v, want 0", v, got)
		}
		if s.Contains(v) {
			t.Errorf("Contains(%v) = true, want false", v)
		}
	}
}

func TestLinearScale_InvertedEqualsOrdered(t *testing.T) {
	inv := NewLinearScale(10, 2)
	ord := NewLinearScale(2, 10)
	if inv != ord {
		t.Fatalf("inverted %+v != ordered %+v", inv, ord)
	}
	for _, v := range []float64{2, 4, 6, 10} {
		if inv.Contains(v) != ord.Contains(v) {
			t.Errorf("Contains(%v) differs", v)
		}
		if inv.Scale(v) != ord.Scale(v) {
			t.Errorf("Scale(%v) differs", v)
		}
	}
}

func TestLinearScale_Scale(t *testing.T) {
	s := NewLinearScale(2, 10)
	tests := []struct {
		v    float64
		want float64
	}{
		{2, 0},
		{6, 0.5},
		{10, 1},
	}
	for _, tt := range tests {
		if got := s.Scale(tt.v); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("Scale(%v) = %v, want %v", tt.v, got, tt.want)
		}
	}
	if s.Contains(1.99) || s.Contains(10.01) {
		t.Error("Contains accepted out-of-domain value")
	}
}

func TestLinearScale_ZeroWidth(t *testing.T) {
	s := NewLinearScale(5, 5)
	if s.Degenerate() {
		t.Fatal("(5,5) is not the degenerate (0,0) pair")
	}
	if !s.Contains(5) {
		t.Error("Contains(5) = false")
	}
	if got := s.Scale(5); got != 0 {
		t.Errorf("Scale(5) = %v, want 0", got)
	}
}

func TestProbe_Order(t *testing.T) {
	tests := []struct {
		name    string
		md      mapMetadata
		wantOK  bool
		wantSet string
		want    Range
	}{
		{
			name: "gen1 preferred",
			md: mapMetadata{
				"min-focus-pos-index":    "0",
				"max-focus-pos-index":    "79",
				"current-focus-position": "40",
				"min-focus-pos-dac":      "100",
				"max-focus-pos-dac":      "900",
				"cur-focus-dac":          "500",
			},
			wantOK:  true,
			wantSet: "gen1",
			want:    Range{Near: 0, Far: 79, Current: 40},
		},
		{
			name: "gen1 degenerate falls back to gen2",
			md: mapMetadata{
				"min-focus-pos-index":    "0",
				"max-focus-pos-index":    "0",
				"current-focus-position": "0",
				"min-focus-pos-dac":      "100",
				"max-focus-pos-dac":      "900",
				"cur-focus-dac":          "500",
			},
			wantOK:  true,
			wantSet: "gen2",
			want:    Range{Near: 100, Far: 900, Current: 500},
		},
		{
			name: "gen1 parse failure falls back to gen2",
			md: mapMetadata{
				"min-focus-pos-index":    "abc",
				"max-focus-pos-index":    "79",
				"current-focus-position": "40",
				"min-focus-pos-dac":      "900",
				"max-focus-pos-dac":      "100",
				"cur-focus-dac":          " 300 ",
			},
			wantOK:  true,
			wantSet: "gen2",
			want:    Range{Near: 900, Far: 100, Current: 300},
		},
		{
			name: "gen1 non-finite falls back to gen2",
			md: mapMetadata{
				"min-focus-pos-index":    "0",
				"max-focus-pos-index":    "NaN",
				"current-focus-position": "Inf",
				"min-focus-pos-dac":      "100",
				"max-focus-pos-dac":      "900",
				"cur-focus-dac":          "500",
			},
			wantOK:  true,
			wantSet: "gen2",
			want:    Range{Near: 100, Far: 900, Current: 500},
		},
		{
			name: "only non-finite readings",
			md: mapMetadata{
				"v4l2-focus-absolute-min": "-inf",
				"v4l2-focus-absolute-max": "+Infinity",
				"v4l2-focus-absolute":     "nan",
			},
			wantOK: false,
		},
		{
			name: "v4l2 keys",
			md: mapMetadata{
				"v4l2-focus-absolute-min": "0",
				"v4l2-focus-absolute-max": "1023",
				"v4l2-focus-absolute":     "512",
			},
			wantOK:  true,
			wantSet: "v4l2",
			want:    Range{Near: 0, Far: 1023, Current: 512},
		},
		{
			name:   "missing keys",
			md:     mapMetadata{"min-focus-pos-index": "1"},
			wantOK: false,
		},
		{
			name:   "empty",
			md:     mapMetadata{},
			wantOK: false,
		},
	}

	p := NewProbe()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := p.Read(tt.md)
			if ok != tt.wantOK {
				t.Fatalf("Read ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if got.KeySet != tt.wantSet {
				t.Errorf("KeySet = %q, want %q", got.KeySet, tt.wantSet)
			}
			if got.Near != tt.want.Near || got.Far != tt.want.Far || got.Current != tt.want.Current {
				t.Errorf("Read = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestProbe_NilMetadata(t *testing.T) {
	if _, ok := NewProbe().Read(nil); ok {
		t.Error("Read(nil) reported a reading")
	}
}

func TestProbe_Ratio(t *testing.T) {
	p := NewProbe(Gen2Keys)
	ratio, ok := p.Ratio(MetadataFunc(func(key string) (string, bool) {
		switch key {
		case "min-focus-pos-dac":
			return "900", true
		case "max-focus-pos-dac":
			return "100", true
		case "cur-focus-dac":
			return "300", true
		}
		return "", false
	}))
	if !ok {
		t.Fatal("Ratio not available")
	}
	if math.Abs(ratio-0.25) > 1e-12 {
		t.Errorf("Ratio = %v, want 0.25", ratio)
	}
}

func TestRange_RatioOutOfDomain(t *testing.T) {
	r := Range{Near: 0, Far: 10, Current: 11}
	if _, ok := r.Ratio(); ok {
		t.Error("out-of-domain current produced a ratio")
	}
}
