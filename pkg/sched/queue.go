// Package sched provides delayed, cancelable one-shot callbacks delivered on
// a single owner goroutine.
//
// At most one callback per Kind is pending. Scheduling a kind that is already
// pending replaces it; the replaced callback never runs, even if its timer
// already fired and the delivery is sitting in the owner's queue.
package sched

import (
	"sync"
	"time"
)

// Kind identifies a class of delayed callback.
type Kind int

const (
	// TouchReset clears a touch-focus region after it has been held.
	TouchReset Kind = iota
	// FaceDetectionResume restarts face detection after autofocus activity.
	FaceDetectionResume
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case TouchReset:
		return "touch_reset"
	case FaceDetectionResume:
		return "face_detection_resume"
	default:
		return "unknown"
	}
}

// Poster hands a function to the owner goroutine. It returns false if the
// owner is gone and the function will not run.
type Poster func(fn func()) bool

type entry struct {
	gen   uint64
	timer *time.Timer
}

// Queue is a per-kind timer map.
type Queue struct {
	post Poster

	mu      sync.Mutex
	entries map[Kind]*entry
	gen     uint64
}

// NewQueue creates a queue delivering callbacks through post. A nil post runs
// callbacks on the timer goroutine.
func NewQueue(post Poster) *Queue {
	return &Queue{
		post:    post,
		entries: make(map[Kind]*entry),
	}
}

// Schedule arms fn to run after d, replacing any pending callback of the same kind.
func (q *Queue) Schedule(kind Kind, d time.Duration, fn func()) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.cancelLocked(kind)
	q.gen++
	e := &entry{gen: q.gen}
	gen := q.gen
	e.timer = time.AfterFunc(d, func() {
		deliver := func() {
			if q.take(kind, gen) {
				fn()
			}
		}
		if q.post == nil {
			deliver()
			return
		}
		if !q.post(deliver) {
			q.take(kind, gen)
		}
	})
	q.entries[kind] = e
}

// Cancel drops the pending callback of kind, if any.
func (q *Queue) Cancel(kind Kind) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.cancelLocked(kind)
}

// CancelAll drops every pending callback.
func (q *Queue) CancelAll() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for kind := range q.entries {
		q.cancelLocked(kind)
	}
}

// Pending reports whether a callback of kind is armed.
func (q *Queue) Pending(kind Kind) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.entries[kind]
	return ok
}

func (q *Queue) cancelLocked(kind Kind) {
	if e, ok := q.entries[kind]; ok {
		e.timer.Stop()
		delete(q.entries, kind)
	}
}

// take removes the entry for kind if it still belongs to gen.
func (q *Queue) take(kind Kind, gen uint64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	e, ok := q.entries[kind]
	if !ok || e.gen != gen {
		return false
	}
	delete(q.entries, kind)
	return true
}
