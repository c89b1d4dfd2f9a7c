// Package input turns physical inputs into focus engine calls: an evdev
// touchscreen or camera-key device and a GPIO shutter button.
package input

import (
	"encoding/binary"
	"errors"
)

// Linux input event types and codes (linux/input-event-codes.h).
const (
	EvSyn = 0x00
	EvKey = 0x01
	EvAbs = 0x03

	SynReport = 0x00

	AbsX = 0x00
	AbsY = 0x01

	KeyCamera      = 0xd4
	BtnTouch       = 0x14a
	KeyCameraFocus = 0x210
)

// Key values.
const (
	KeyReleased = 0
	KeyPressed  = 1
	KeyRepeat   = 2
)

// ErrUnsupportedPlatform is returned by OpenTouch outside Linux.
var ErrUnsupportedPlatform = errors.New("input: evdev requires linux")

// Event is one decoded input_event.
type Event struct {
	Type  uint16
	Code  uint16
	Value int32
}

// Parser decodes input_event structs from a byte stream. The struct is 24
// bytes with a 64-bit timeval and 16 bytes with a 32-bit one.
type Parser struct {
	// Size is the record size. Zero detects it from the buffered data.
	Size int
	buf  []byte
}

// Feed appends chunk and calls fn for every complete event.
func (p *Parser) Feed(chunk []byte, fn func(Event)) {
	p.buf = append(p.buf, chunk...)
	if p.Size == 0 {
		p.Size = detectSize(p.buf)
	}
	for p.Size != 0 && len(p.buf) >= p.Size {
		fn(decode(p.buf[:p.Size]))
		p.buf = p.buf[p.Size:]
	}
	if len(p.buf) == 0 {
		p.buf = nil
	}
}

func decode(rec []byte) Event {
	off := len(rec) - 8
	return Event{
		Type:  binary.LittleEndian.Uint16(rec[off : off+2]),
		Code:  binary.LittleEndian.Uint16(rec[off+2 : off+4]),
		Value: int32(binary.LittleEndian.Uint32(rec[off+4 : off+8])),
	}
}

// evMax is the highest event type the kernel defines.
const evMax = 0x1f

// detectSize picks the record size under which buf decodes as a sequence
// of known event types ending in SYN_REPORT. When both sizes qualify the
// one yielding more non-sync events wins. It returns 0 while undecided.
func detectSize(buf []byte) int {
	best, bestScore := 0, -1
	for _, size := range []int{24, 16} {
		if len(buf) < size || len(buf)%size != 0 {
			continue
		}
		score, ok := scoreRecords(buf, size)
		if ok && score > bestScore {
			best, bestScore = size, score
		}
	}
	if best != 0 || len(buf) < 48 {
		return best
	}
	// Nothing decodes cleanly; fall back on length alone.
	switch {
	case len(buf)%24 == 0:
		return 24
	case len(buf)%16 == 0:
		return 16
	}
	return 24
}

func scoreRecords(buf []byte, size int) (int, bool) {
	score := 0
	var last Event
	for off := 0; off+size <= len(buf); off += size {
		last = decode(buf[off : off+size])
		if last.Type > evMax {
			return 0, false
		}
		if last.Type != EvSyn {
			score++
		}
	}
	return score, last.Type == EvSyn && last.Code == SynReport
}

// Pending returns the number of buffered bytes of an incomplete event.
func (p *Parser) Pending() int {
	return len(p.buf)
}
