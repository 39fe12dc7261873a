package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"
)

// StartHttpServer serves the API on the given port and blocks until an
// interrupt or a SIGTERM arrives, then shuts down gracefully.
func StartHttpServer(logger hclog.Logger, defaultRouter http.Handler, port int) {
	server := &http.Server{
		Addr:     fmt.Sprintf(":%d", port),
		Handler:  defaultRouter,
		ErrorLog: logger.StandardLogger(&hclog.StandardLoggerOptions{}),
	}

	go func() {
		logger.Info(fmt.Sprintf("Starting server on port: %d", port))

		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			logger.Error("Error starting server", "error", err)
			os.Exit(1)
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	signal.Notify(c, syscall.SIGTERM)

	sig := <-c
	logger.Info("Got signal:", "signal", sig)

	// wait max 30 seconds for in-flight requests to complete
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	server.Shutdown(ctx)
}
