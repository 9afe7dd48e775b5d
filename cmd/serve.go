package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"blogapi/database"
	"blogapi/routes"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var ensureIndexes bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the HTTP server and block until SIGINT or SIGTERM.

In-flight requests get a grace period before the server stops and the
store connection is closed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&ensureIndexes, "ensure-indexes", true, "create collection indexes on startup")
}

func runServe(ctx context.Context) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	log.Info("starting blogapi")

	if cfg.IsRelease() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	log.WithField("mode", gin.Mode()).Info("gin mode set")

	db, err := database.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Disconnect(context.Background()); err != nil {
			log.WithError(err).Error("disconnect from store")
			return
		}
		log.Info("store connection closed")
	}()

	if ensureIndexes {
		if err := db.EnsureIndexes(ctx); err != nil {
			return err
		}
	}

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      routes.SetupRouter(cfg, log, db),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.Port).Info("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serverErr:
		if err != nil {
			return err
		}
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("forced shutdown")
		return err
	}
	log.Info("server stopped gracefully")
	return nil
}
