package input

import (
	"context"
	"fmt"

	"github.com/teslashibe/go-focus/pkg/focus"
)

// Target is the focus engine surface inputs drive. *focus.Engine
// implements it.
type Target interface {
	OnTouch(ctx context.Context, x, y int) (bool, error)
	OnShutterDown(ctx context.Context) error
	OnShutterUp(ctx context.Context) error
	RequestCapture(ctx context.Context) (focus.CaptureOutcome, error)
}

var _ Target = (*focus.Engine)(nil)

// Dispatch forwards a to t.
func Dispatch(ctx context.Context, t Target, a Action) error {
	switch a.Kind {
	case ActionTap:
		_, err := t.OnTouch(ctx, a.X, a.Y)
		return err
	case ActionShutterDown:
		return t.OnShutterDown(ctx)
	case ActionShutterUp:
		return t.OnShutterUp(ctx)
	case ActionCapture:
		_, err := t.RequestCapture(ctx)
		return err
	default:
		return fmt.Errorf("input: unknown action %d", a.Kind)
	}
}
