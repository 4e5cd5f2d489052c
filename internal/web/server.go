// Package web serves the annotation reviewer over HTTP: a JSON API for the
// session and a single page that draws the frame and posts the reviewer's
// clicks, wheel turns and key presses back as events.
package web

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/ironsheep/annotation-review/internal/config"
	"github.com/ironsheep/annotation-review/internal/viewer"
)

// Server exposes one session over HTTP. Requests are serialised through mu.
type Server struct {
	mu       sync.Mutex
	session  *viewer.Session
	version  string
	settings config.ServerSettings
}

// New returns a server for session.
func New(session *viewer.Session, version string, settings config.ServerSettings) *Server {
	return &Server{
		session:  session,
		version:  version,
		settings: settings,
	}
}

// Router builds the gin engine with every route and middleware installed.
func (s *Server) Router() *gin.Engine {
	// Debug mode enables gin-gonic debug mode
	if !s.settings.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestIDMiddleware())
	r.Use(accessLogMiddleware())
	if len(s.settings.AllowOrigins) > 0 {
		r.Use(corsMiddleware(s.settings.AllowOrigins))
	}
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// Version tag to test against
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": s.version,
		})
	})

	api := r.Group("/api")
	v1 := api.Group("/v1")
	{
		v1.GET("/state", s.getState)
		v1.GET("/frame.png", s.getFrame)
		v1.GET("/selection.png", s.getSelection)
		v1.POST("/events", s.postEvent)
	}

	r.GET("/", s.getIndex)
	return r
}

// ListenAndServe serves on the configured address until ctx is cancelled,
// then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.settings.Listen,
		Handler:      s.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutdown Server ...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("Server exiting")
	return nil
}
