// Package httpapi exposes the router and the generation service over HTTP
// for web and mobile clients.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/abhisek/studywise/internal/lessons"
	"github.com/abhisek/studywise/internal/router"
)

const uidKey = "uid"

// Config wires the server to its dependencies.
type Config struct {
	Router  *router.Router
	Lessons *lessons.Service
	// Secret verifies bearer tokens.
	Secret         []byte
	AllowedOrigins []string
	Logger         *zap.Logger
	// Now is the clock tokens are checked against. Defaults to time.Now.
	Now func() time.Time
}

// Server serves the StudyWise API.
type Server struct {
	cfg    Config
	logger *zap.Logger
	engine *gin.Engine
}

// New builds the server and its routes.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	s := &Server{cfg: cfg, logger: cfg.Logger}

	r := gin.New()
	r.Use(s.recovery(), s.accessLog())
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: cfg.AllowedOrigins,
			AllowMethods: []string{"GET", "POST", "OPTIONS"},
			AllowHeaders: []string{"Authorization", "Content-Type"},
			MaxAge:       12 * time.Hour,
		}))
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.Use(s.requireAuth())
	api.POST("/router", s.handleRouter)

	gen := api.Group("/generate")
	gen.POST("/lesson", s.handleLesson)
	gen.POST("/quiz", s.handleQuiz)
	gen.POST("/flashcards", s.handleFlashcards)
	gen.POST("/course", s.handleCourse)
	gen.POST("/doubt", s.handleDoubt)
	gen.POST("/hints", s.handleHints)

	s.engine = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			abort(c, http.StatusUnauthorized, "missing or invalid token")
			return
		}
		uid, err := parseToken(s.cfg.Secret, token, s.cfg.Now)
		if err != nil {
			s.logger.Debug("rejected bearer token", zap.Error(err))
			abort(c, http.StatusUnauthorized, "missing or invalid token")
			return
		}
		c.Set(uidKey, uid)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

func (s *Server) recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, p any) {
		s.logger.Error("http handler panicked", zap.Any("panic", p), zap.String("path", c.FullPath()))
		abort(c, http.StatusInternalServerError, "internal error")
	})
}

func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, router.Response[any]{Error: msg})
}

func ok(c *gin.Context, data any, msg string) {
	c.JSON(http.StatusOK, router.Response[any]{Success: true, Data: data, Message: msg})
}
