package lens

import (
	"math"
	"strconv"
	"strings"
)

// Metadata is a read-only view of driver metadata keyed by name.
type Metadata interface {
	Lookup(key string) (string, bool)
}

// MetadataFunc adapts a function to Metadata.
type MetadataFunc func(key string) (string, bool)

// Lookup calls f(key).
func (f MetadataFunc) Lookup(key string) (string, bool) { return f(key) }

// KeySet names the metadata keys carrying one hardware generation's
// lens position readings.
type KeySet struct {
	Name    string
	Near    string
	Far     string
	Current string
}

// Known key sets, in probe order.
var (
	// Gen1Keys are the older index-based position keys.
	Gen1Keys = KeySet{
		Name:    "gen1",
		Near:    "min-focus-pos-index",
		Far:     "max-focus-pos-index",
		Current: "current-focus-position",
	}

	// Gen2Keys are the newer DAC-based position keys.
	Gen2Keys = KeySet{
		Name:    "gen2",
		Near:    "min-focus-pos-dac",
		Far:     "max-focus-pos-dac",
		Current: "cur-focus-dac",
	}

	// V4L2Keys are published by the v4l2cam backend from V4L2_CID_FOCUS_ABSOLUTE.
	V4L2Keys = KeySet{
		Name:    "v4l2",
		Near:    "v4l2-focus-absolute-min",
		Far:     "v4l2-focus-absolute-max",
		Current: "v4l2-focus-absolute",
	}
)

// DefaultKeySets is the probe order used by NewProbe when none is given.
var DefaultKeySets = []KeySet{Gen1Keys, Gen2Keys, V4L2Keys}

// Range is one lens position reading.
type Range struct {
	Near    float64 `json:"near"`
	Far     float64 `json:"far"`
	Current float64 `json:"current"`
	KeySet  string  `json:"key_set"`
}

// Ratio returns the current position as a [0,1] ratio and whether it could
// be computed.
func (r Range) Ratio() (float64, bool) {
	s := NewLinearScale(r.Near, r.Far)
	if !s.Contains(r.Current) {
		return 0, false
	}
	return s.Scale(r.Current), true
}

// Probe reads a Range from metadata by trying key sets in order.
type Probe struct {
	sets []KeySet
}

// NewProbe creates a probe. With no key sets it uses DefaultKeySets.
func NewProbe(sets ...KeySet) *Probe {
	if len(sets) == 0 {
		sets = DefaultKeySets
	}
	cp := make([]KeySet, len(sets))
	copy(cp, sets)
	return &Probe{sets: cp}
}

// KeySets returns the probe order.
func (p *Probe) KeySets() []KeySet {
	out := make([]KeySet, len(p.sets))
	copy(out, p.sets)
	return out
}

// Read returns the first key set whose readings all parse as finite
// numbers and whose near/far pair is not (0, 0). Missing keys and parse
// failures yield false.
func (p *Probe) Read(md Metadata) (Range, bool) {
	if md == nil {
		return Range{}, false
	}
	for _, ks := range p.sets {
		r, ok := readSet(md, ks)
		if ok {
			return r, true
		}
	}
	return Range{}, false
}

// Ratio is a convenience for Read followed by Range.Ratio.
func (p *Probe) Ratio(md Metadata) (float64, bool) {
	r, ok := p.Read(md)
	if !ok {
		return 0, false
	}
	return r.Ratio()
}

func readSet(md Metadata, ks KeySet) (Range, bool) {
	near, ok := parseKey(md, ks.Near)
	if !ok {
		return Range{}, false
	}
	far, ok := parseKey(md, ks.Far)
	if !ok {
		return Range{}, false
	}
	cur, ok := parseKey(md, ks.Current)
	if !ok {
		return Range{}, false
	}
	if near == 0 && far == 0 {
		return Range{}, false
	}
	return Range{Near: near, Far: far, Current: cur, KeySet: ks.Name}, true
}

func parseKey(md Metadata, key string) (float64, bool) {
	if key == "" {
		return 0, false
	}
	raw, ok := md.Lookup(key)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
