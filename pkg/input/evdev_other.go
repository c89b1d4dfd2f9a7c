//go:build !linux

package input

import (
	"context"
	"image"
	"log/slog"
)

// Touch is unavailable outside Linux.
type Touch struct{}

// OpenTouch always fails outside Linux.
func OpenTouch(string, image.Rectangle, bool, *slog.Logger) (*Touch, error) {
	return nil, ErrUnsupportedPlatform
}

func (t *Touch) Run(context.Context, Target) error { return ErrUnsupportedPlatform }
func (t *Touch) Close() error                      { return nil }
