package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const shutdownTimeout = 30 * time.Second

func (app *application) serve() error {
	server := &http.Server{
		Addr:         app.Config.GetServerAddr(),
		Handler:      app.routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: app.Config.Interview.CallTimeout*4 + 10*time.Second, // a turn makes up to four remote calls
	}

	shutdownErr := make(chan error, 1)
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit
		app.Logger.Sugar().Infow("shutting down server", "signal", s.String())

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		shutdownErr <- server.Shutdown(ctx)
	}()

	app.Logger.Sugar().Infow("starting server", "addr", server.Addr, "env", app.Config.Env)

	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	if err := <-shutdownErr; err != nil {
		return err
	}
	app.Logger.Sugar().Infow("stopped server", "addr", server.Addr)
	return nil
}
