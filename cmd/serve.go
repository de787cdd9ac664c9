package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/dsljs/dsl/internal/resolver"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve [root]",
	Short: "Serve expanded macro modules over HTTP for a dev server or browser",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		config, engine := loadProject()

		root := "."
		if len(args) == 1 {
			root = args[0]
		}

		handler, err := resolver.New(engine, config.ModuleExt, logger).Handler(root)
		if err != nil {
			logger.Error("Error preparing handler", zap.String("root", root), zap.Error(err))
			os.Exit(1)
		}

		ctx, cancel := signalContext()
		defer cancel()

		srv := &http.Server{
			Addr:              serveAddr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			<-ctx.Done()
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			_ = srv.Shutdown(shutdownCtx)
		}()

		logger.Info("Serving macro modules", zap.String("addr", serveAddr), zap.String("root", root))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", zap.Error(err))
			os.Exit(1)
		}
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":5174", "Listen address")
}
