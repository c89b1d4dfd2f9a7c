package camera

import (
	"context"
	"fmt"
	"image"

	"github.com/teslashibe/go-focus/pkg/focus"
)

// Target receives session settings. *focus.Engine implements it.
type Target interface {
	SetPreviewBounds(ctx context.Context, r image.Rectangle) error
	SetMirror(ctx context.Context, mirror bool) error
	SetDisplayRotation(ctx context.Context, degrees int) error
	SetZSL(ctx context.Context, enabled bool) error
	SetFocusModeOverride(ctx context.Context, mode focus.FocusMode) error
}

// Apply pushes cfg to the focus engine.
func Apply(ctx context.Context, t Target, cfg Config) error {
	if err := t.SetDisplayRotation(ctx, cfg.DisplayRotation); err != nil {
		return fmt.Errorf("display rotation: %w", err)
	}
	if err := t.SetMirror(ctx, cfg.Mirror); err != nil {
		return fmt.Errorf("mirror: %w", err)
	}
	if err := t.SetPreviewBounds(ctx, cfg.PreviewBounds()); err != nil {
		return fmt.Errorf("preview bounds: %w", err)
	}
	if err := t.SetZSL(ctx, cfg.ZSL); err != nil {
		return fmt.Errorf("zsl: %w", err)
	}
	if err := t.SetFocusModeOverride(ctx, cfg.FocusMode()); err != nil {
		return fmt.Errorf("focus mode: %w", err)
	}
	return nil
}

var _ Target = (*focus.Engine)(nil)
