package web

import (
	"context"
	"fmt"
	"image"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-focus/pkg/hub"
	"github.com/teslashibe/go-focus/pkg/protocol"
)

// TouchRequest is the body of POST /api/touch
type TouchRequest struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// BoundsRequest is the body of PUT /api/preview/bounds
type BoundsRequest struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

func requestContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.UserContext(), requestTimeout)
}

// handleState returns the current focus snapshot
func (s *Server) handleState(c *fiber.Ctx) error {
	return c.JSON(s.engine.Snapshot())
}

// handleHistory returns recent transitions, oldest first
func (s *Server) handleHistory(c *fiber.Ctx) error {
	return c.JSON(s.engine.History())
}

func (s *Server) handleTouch(c *fiber.Ctx) error {
	var req TouchRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid touch body")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	ok, err := s.engine.OnTouch(ctx, req.X, req.Y)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"accepted": ok})
}

func (s *Server) handleShutterDown(c *fiber.Ctx) error {
	return s.command(c, s.engine.OnShutterDown)
}

func (s *Server) handleShutterUp(c *fiber.Ctx) error {
	return s.command(c, s.engine.OnShutterUp)
}

func (s *Server) handleCancel(c *fiber.Ctx) error {
	return s.command(c, s.engine.CancelAutoFocus)
}

func (s *Server) handlePreviewStart(c *fiber.Ctx) error {
	return s.command(c, s.engine.OnPreviewStarted)
}

func (s *Server) handlePreviewStop(c *fiber.Ctx) error {
	return s.command(c, s.engine.OnPreviewStopped)
}

// command runs fn and answers with the resulting state
func (s *Server) command(c *fiber.Ctx, fn func(context.Context) error) error {
	ctx, cancel := requestContext(c)
	defer cancel()
	if err := fn(ctx); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"state": s.engine.Snapshot().State})
}

func (s *Server) handleCapture(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	outcome, err := s.engine.RequestCapture(ctx)
	if err != nil {
		return err
	}
	s.hub.BroadcastMessage(protocol.NewCaptureMessage(string(outcome)))
	return c.JSON(fiber.Map{"outcome": outcome})
}

func (s *Server) handlePreviewBounds(c *fiber.Ctx) error {
	var req BoundsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid bounds body")
	}
	r := image.Rect(req.Left, req.Top, req.Right, req.Bottom)
	if r.Empty() {
		return fiber.NewError(fiber.StatusBadRequest, "preview bounds are empty")
	}
	return s.command(c, func(ctx context.Context) error {
		return s.engine.SetPreviewBounds(ctx, r)
	})
}

func (s *Server) handleGetCamera(c *fiber.Ctx) error {
	if s.camera == nil {
		return fiber.ErrNotFound
	}
	return c.JSON(s.camera.GetConfigJSON())
}

func (s *Server) handlePatchCamera(c *fiber.Ctx) error {
	if s.camera == nil {
		return fiber.ErrNotFound
	}
	var updates map[string]interface{}
	if err := c.BodyParser(&updates); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid camera body")
	}
	if err := s.camera.UpdateConfig(updates); err != nil {
		return err
	}
	return c.JSON(s.camera.GetConfigJSON())
}

// handleReconnect starts a new hardware session and hands its
// capabilities to the engine, which cancels any running focus cycle.
func (s *Server) handleReconnect(c *fiber.Ctx) error {
	if s.session == nil {
		return fiber.ErrNotFound
	}
	caps := s.session.Reconnect()
	ctx, cancel := requestContext(c)
	defer cancel()
	if err := s.engine.SetCapabilities(ctx, caps); err != nil {
		return err
	}
	s.logger.Info("hardware session restarted", "session", caps.SessionID)
	return c.JSON(caps)
}

// handleIndicatorWS streams indicator and state messages to a client
func (s *Server) handleIndicatorWS(conn *websocket.Conn) {
	client := hub.NewClient(s.hub, conn)
	if client == nil {
		conn.Close()
		return
	}
	snap := s.engine.Snapshot()
	client.Reply(mustMessage(protocol.NewStateMessage(string(snap.State), "", snap.FocusComplete)))
	client.Run()
}

// handleClientMessage serves touch and shutter messages sent over the
// indicator socket. It runs on the client's read pump.
func (s *Server) handleClientMessage(client *hub.Client, msg *protocol.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	var err error
	switch msg.Type {
	case protocol.TypeTouch:
		var td protocol.TouchData
		if err = msg.ParseData(&td); err == nil {
			var ok bool
			ok, err = s.engine.OnTouch(ctx, td.X, td.Y)
			if err == nil && !ok {
				err = fmt.Errorf("touch at %d,%d rejected", td.X, td.Y)
			}
		}
	case protocol.TypeShutter:
		var sd protocol.ShutterData
		if err = msg.ParseData(&sd); err == nil {
			err = s.shutter(ctx, sd.Action)
		}
	default:
		err = fmt.Errorf("unsupported message type %q", msg.Type)
	}
	if err != nil {
		s.logger.Debug("client message failed", "type", msg.Type, "error", err)
		client.Reply(mustMessage(protocol.NewErrorMessage(msg.ID, err.Error())))
	}
}

func (s *Server) shutter(ctx context.Context, action string) error {
	switch action {
	case protocol.ShutterDown:
		return s.engine.OnShutterDown(ctx)
	case protocol.ShutterUp:
		return s.engine.OnShutterUp(ctx)
	case protocol.ShutterCapture:
		outcome, err := s.engine.RequestCapture(ctx)
		if err != nil {
			return err
		}
		s.hub.BroadcastMessage(protocol.NewCaptureMessage(string(outcome)))
		return nil
	default:
		return fmt.Errorf("unknown shutter action %q", action)
	}
}

// mustMessage panics on constructor errors, which only happen for
// unencodable payloads.
func mustMessage(msg *protocol.Message, err error) *protocol.Message {
	if err != nil {
		panic(err)
	}
	return msg
}
