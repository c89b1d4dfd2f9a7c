// Package web provides the HTTP control API and the websocket indicator
// stream for the focus daemon.
package web

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"net"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-focus/internal/log"
	"github.com/teslashibe/go-focus/pkg/camera"
	"github.com/teslashibe/go-focus/pkg/focus"
	"github.com/teslashibe/go-focus/pkg/hub"
	"github.com/teslashibe/go-focus/pkg/protocol"
)

// requestTimeout bounds how long a request waits on the focus engine.
const requestTimeout = 2 * time.Second

// Controller is the focus engine surface the API drives.
// *focus.Engine implements it.
type Controller interface {
	OnTouch(ctx context.Context, x, y int) (bool, error)
	OnShutterDown(ctx context.Context) error
	OnShutterUp(ctx context.Context) error
	RequestCapture(ctx context.Context) (focus.CaptureOutcome, error)
	CancelAutoFocus(ctx context.Context) error
	OnPreviewStarted(ctx context.Context) error
	OnPreviewStopped(ctx context.Context) error
	SetPreviewBounds(ctx context.Context, r image.Rectangle) error
	SetCapabilities(ctx context.Context, c focus.Capabilities) error
	Snapshot() focus.Snapshot
	History() []focus.Transition
	AddStateListener(fn focus.StateListener)
}

var _ Controller = (*focus.Engine)(nil)

// Session restarts the camera hardware session and reports what the new
// session supports.
type Session interface {
	Reconnect() focus.Capabilities
}

// Options configures a Server.
type Options struct {
	Port      string
	Engine    Controller
	Hub       *hub.Hub        // indicator stream; created when nil
	Camera    *camera.Manager // optional; /api/camera answers 404 without it
	Session   Session         // optional; /api/session/reconnect answers 404 without it
	StaticDir string          // optional UI assets served at /
	Logger    *slog.Logger
}

// Server is the focus control server
type Server struct {
	app     *fiber.App
	port    string
	engine  Controller
	hub     *hub.Hub
	camera  *camera.Manager
	session Session
	logger  *slog.Logger
}

// NewServer creates a new control server
func NewServer(opts Options) *Server {
	logger := log.Or(opts.Logger, "web")
	h := opts.Hub
	if h == nil {
		h = hub.New("indicator", logger)
	}
	s := &Server{
		port:    opts.Port,
		engine:  opts.Engine,
		hub:     h,
		camera:  opts.Camera,
		session: opts.Session,
		logger:  logger,
	}

	app := fiber.New(fiber.Config{
		AppName:               "go-focus",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})

	app.Use(recover.New())
	// CORS for local development
	app.Use(cors.New())

	if opts.StaticDir != "" {
		app.Static("/", opts.StaticDir)
	}

	// API routes
	api := app.Group("/api")
	api.Get("/state", s.handleState)
	api.Get("/history", s.handleHistory)
	api.Post("/touch", s.handleTouch)
	api.Post("/shutter/down", s.handleShutterDown)
	api.Post("/shutter/up", s.handleShutterUp)
	api.Post("/capture", s.handleCapture)
	api.Post("/focus/cancel", s.handleCancel)
	api.Post("/preview/start", s.handlePreviewStart)
	api.Post("/preview/stop", s.handlePreviewStop)
	api.Put("/preview/bounds", s.handlePreviewBounds)
	api.Get("/camera", s.handleGetCamera)
	api.Patch("/camera", s.handlePatchCamera)
	api.Post("/session/reconnect", s.handleReconnect)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/indicator", websocket.New(s.handleIndicatorWS))

	h.OnMessage(s.handleClientMessage)
	s.engine.AddStateListener(s.broadcastState)

	s.app = app
	return s
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Hub returns the indicator hub.
func (s *Server) Hub() *hub.Hub {
	return s.hub
}

// Run listens on the configured port until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", ":"+s.port)
	if err != nil {
		return err
	}
	s.logger.Info("control API listening", "addr", ln.Addr().String())
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts the
// server and the indicator hub down.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go s.hub.Run(hubCtx)

	errc := make(chan error, 1)
	go func() {
		errc <- s.app.Listener(ln)
	}()

	select {
	case <-ctx.Done():
		stopHub()
		if err := s.app.ShutdownWithTimeout(5 * time.Second); err != nil {
			return err
		}
		return nil
	case err := <-errc:
		return err
	}
}

// broadcastState runs on the engine goroutine.
func (s *Server) broadcastState(prev, next focus.State) {
	s.hub.BroadcastMessage(protocol.NewStateMessage(next.String(), prev.String(), next.Resolved()))
}

// handleError maps engine errors onto HTTP statuses.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		code = fe.Code
	case errors.Is(err, focus.ErrStopped):
		code = fiber.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		code = fiber.StatusGatewayTimeout
	case errors.Is(err, camera.ErrUnknownPreset):
		code = fiber.StatusBadRequest
	}
	var verr *camera.ValidationError
	if errors.As(err, &verr) {
		code = fiber.StatusBadRequest
	}
	if code >= 500 {
		s.logger.Error("request failed", "path", c.Path(), "error", err)
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
