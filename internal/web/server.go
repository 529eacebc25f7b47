// Package web serves the board over a JSON HTTP API.
package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/colonyops/dayboard/internal/board"
	"github.com/colonyops/dayboard/internal/core/logging"
)

// Server is the dayboard HTTP API.
type Server struct {
	app    *board.App
	router *gin.Engine
	log    zerolog.Logger
}

// NewServer creates a new web server.
func NewServer(app *board.App, log zerolog.Logger) *Server {
	router := gin.New()

	s := &Server{
		app:    app,
		router: router,
		log:    logging.Scoped(log, "web"),
	}

	router.Use(
		gin.Recovery(),
		requestID(),
		accessLog(s.log),
		cors(app.Config.Server.AllowedOrigins),
	)

	router.GET("/healthz", s.handleHealth)

	api := router.Group("/api")
	{
		api.GET("/tasks/:id", s.handleGetTask)
		api.POST("/tasks", s.handleCreateTasks)
		api.PATCH("/tasks/:id", s.handleUpdateTask)
		api.DELETE("/tasks/:id", s.handleDeleteTask)

		api.GET("/days/:date", s.handleDay)
		api.PUT("/days/:date/order", s.handleReorder)
		api.POST("/reorder_tasks", s.handleMove)

		api.GET("/schedule", s.handleWeek)
		api.GET("/export", s.handleExport)
		api.GET("/activity", s.handleActivity)

		api.GET("/personnel", s.handleListPersonnel)
		api.POST("/personnel", s.handleAddPerson)
		api.DELETE("/personnel/:name", s.handleRemovePerson)

		// form-post aliases used by the browser client
		api.GET("/get_task/:id", s.handleGetTask)
		api.POST("/update_task/:id", s.handleUpdateTask)
		api.POST("/delete_task/:id", s.handleDeleteTask)
		api.POST("/update_order", s.handleUpdateOrder)
	}

	return s
}

// Handler returns the router as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on the configured address until ctx is cancelled, then shuts
// down gracefully within the configured shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	cfg := s.app.Config.Server

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Addr, err)
	}

	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.log.Info().Str("addr", ln.Addr().String()).Msg("listening")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.log.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
