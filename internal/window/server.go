package window

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/utils"
)

//go:embed templates/*.html
var templatesFS embed.FS

var notices = map[string]string{
	"busy":  ErrBusy.Error(),
	"blank": ErrBlankCity.Error(),
}

// Options configures the window server.
type Options struct {
	// Tick is the refresh delay while a lookup is outstanding.
	Tick time.Duration
	// AccessLog receives fiber's request log; nil disables it.
	AccessLog io.Writer
}

// Server serves the window over HTTP. Each page load is one tick of the Model.
type Server struct {
	app   *fiber.App
	model *Model
	tmpl  *template.Template
	tick  time.Duration
	log   *slog.Logger
}

type page struct {
	View
	Notice     string
	TickMillis int64
}

func loadTemplatesFromFS(fsys fs.FS, dir string) (*template.Template, error) {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return nil, err
	}
	return template.ParseFS(sub, "*.html")
}

// NewServer builds the fiber app for model.
func NewServer(model *Model, opts Options, log *slog.Logger) (*Server, error) {
	tmpl, err := loadTemplatesFromFS(templatesFS, "templates")
	if err != nil {
		return nil, err
	}
	if opts.Tick <= 0 {
		opts.Tick = 250 * time.Millisecond
	}
	if log == nil {
		log = slog.Default()
	}

	app := fiber.New(fiber.Config{
		AppName:               "weather-window",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	if opts.AccessLog != nil {
		app.Use(logger.New(logger.Config{Output: opts.AccessLog}))
	}
	app.Use(recover.New())

	s := &Server{
		app:   app,
		model: model,
		tmpl:  tmpl,
		tick:  opts.Tick,
		log:   log,
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.app.Get("/", s.handleWindow)
	s.app.Post("/fetch", s.handleFetch)
	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-window",
			"state":   s.model.State().String(),
		})
	})
}

// handleWindow runs one non-blocking tick and renders the result.
func (s *Server) handleWindow(c *fiber.Ctx) error {
	p := page{
		View:       s.model.Tick(),
		Notice:     notices[c.Query("notice")],
		TickMillis: s.tick.Milliseconds(),
	}

	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, "window.html", p); err != nil {
		s.log.Error("window: render failed", "err", err)
		return fiber.NewError(fiber.StatusInternalServerError, "failed to render window")
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Send(buf.Bytes())
}

// handleFetch is the button / enter-key action.
func (s *Server) handleFetch(c *fiber.Ctx) error {
	if !sameOrigin(c) {
		s.log.Warn("window: rejected cross-origin fetch",
			"origin", c.Get(fiber.HeaderOrigin),
			"referer", c.Get(fiber.HeaderReferer),
		)
		return fiber.NewError(fiber.StatusForbidden, "cross-origin request rejected")
	}

	// Fiber reuses request buffers once the handler returns; the city
	// lives on in the model and the background lookup.
	city := utils.CopyString(c.FormValue("city"))

	err := s.model.Trigger(city)
	switch {
	case errors.Is(err, ErrBlankCity):
		return c.Redirect("/?notice=blank", fiber.StatusSeeOther)
	case errors.Is(err, ErrBusy):
		return c.Redirect("/?notice=busy", fiber.StatusSeeOther)
	case err != nil:
		return err
	}
	return c.Redirect("/", fiber.StatusSeeOther)
}

// sameOrigin reports whether a browser-originated request came from the
// window itself. Requests without Origin or Referer (non-browser clients) pass.
func sameOrigin(c *fiber.Ctx) bool {
	source := c.Get(fiber.HeaderOrigin)
	if source == "" {
		source = c.Get(fiber.HeaderReferer)
	}
	if source == "" {
		return true
	}

	u, err := url.Parse(source)
	if err != nil || u.Host == "" {
		return false
	}
	return strings.EqualFold(u.Host, c.Hostname())
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Serve serves on ln until ctx is done, then shuts down. Lookups still in
// flight are left to finish on their own; their results are dropped.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listener(ln)
	}()

	s.log.Info("window: serving", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.app.ShutdownWithContext(shutdownCtx); err != nil {
		s.log.Warn("window: error during shutdown", "err", err)
		return err
	}
	s.log.Info("window: stopped")
	return nil
}
