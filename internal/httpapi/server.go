package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yuqie6/SkillBridge/internal/bootstrap"
	"github.com/yuqie6/SkillBridge/internal/dto"
	"github.com/yuqie6/SkillBridge/internal/pkg/buildinfo"
)

// Server is the HTTP API over a wired Core.
type Server struct {
	core    *bootstrap.Core
	ln      net.Listener
	srv     *http.Server
	baseURL string
}

// Options configures Start.
type Options struct {
	ListenAddr string // e.g. "127.0.0.1:8080"
}

// Start listens on opts.ListenAddr and serves until ctx is cancelled or
// Shutdown is called.
func Start(ctx context.Context, core *bootstrap.Core, opts Options) (*Server, error) {
	if core == nil {
		return nil, fmt.Errorf("core must not be nil")
	}
	if strings.TrimSpace(opts.ListenAddr) == "" {
		opts.ListenAddr = "127.0.0.1:8080"
	}

	ln, err := net.Listen("tcp", opts.ListenAddr)
	if err != nil {
		return nil, err
	}

	srv := &http.Server{
		Handler:           NewRouter(core),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s := &Server{
		core:    core,
		ln:      ln,
		srv:     srv,
		baseURL: "http://" + ln.Addr().String(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = s.Shutdown(shutdownCtx)
	}()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server exited", "error", err)
		}
	}()

	slog.Info("http api started", "base_url", s.baseURL, "version", buildinfo.String())
	return s, nil
}

// BaseURL is the address the server listens on.
func (s *Server) BaseURL() string {
	if s == nil {
		return ""
	}
	return s.baseURL
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil || s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(core *bootstrap.Core) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	a := newAPI(core)
	r.GET("/health", a.handleHealth)

	api := r.Group("/api", requireUser())
	api.GET("/events", a.handleSSE)
	a.registerRoutes(api)
	return r
}

type apiServer struct {
	core      *bootstrap.Core
	startTime time.Time
}

func newAPI(core *bootstrap.Core) *apiServer {
	return &apiServer{core: core, startTime: time.Now()}
}

func (a *apiServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, dto.HealthDTO{
		OK:            true,
		Name:          a.core.Cfg.App.Name,
		Version:       buildinfo.String(),
		StartedAt:     a.startTime.Format(time.RFC3339),
		SafeMode:      a.core.DB != nil && a.core.DB.SafeMode,
		SchemaVersion: schemaVersion(a.core),
		Subscribers:   a.core.Hub.Subscribers(),
	})
}

func schemaVersion(core *bootstrap.Core) int {
	if core.DB == nil {
		return 0
	}
	return core.DB.SchemaVersion
}

// handleSSE streams the caller's notifications, point credits and badge
// grants as server-sent events.
func (a *apiServer) handleSSE(c *gin.Context) {
	w := c.Writer
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	ctx := c.Request.Context()
	sub := a.core.Services.Notifications.Stream(ctx, actorID(c))

	_, _ = io.WriteString(w, "event: ready\n")
	_, _ = io.WriteString(w, "data: {}\n\n")
	w.Flush()

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = io.WriteString(w, "event: ping\n")
			_, _ = io.WriteString(w, "data: {}\n\n")
			w.Flush()
		case evt, ok := <-sub:
			if !ok {
				return
			}
			b, _ := json.Marshal(evt)
			_, _ = io.WriteString(w, "event: "+sanitizeSSEName(evt.Type)+"\n")
			_, _ = io.WriteString(w, "data: ")
			_, _ = w.Write(b)
			_, _ = io.WriteString(w, "\n\n")
			w.Flush()
		}
	}
}

func sanitizeSSEName(name string) string {
	n := strings.TrimSpace(name)
	if n == "" {
		return "message"
	}
	n = strings.ReplaceAll(n, "\n", "")
	n = strings.ReplaceAll(n, "\r", "")
	return n
}
