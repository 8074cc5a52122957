package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mbolis/formdesk/app"
	"github.com/mbolis/formdesk/config"
	"github.com/mbolis/formdesk/database"
	"github.com/mbolis/formdesk/httpx"
	"github.com/mbolis/formdesk/log"
	"github.com/mbolis/formdesk/routes"
)

func main() {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		log.Fatal("main.config:", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal("main.db.open:", err)
	}
	store := database.NewStore(db)
	defer store.Close()

	if cfg.AdminUser != "" {
		created, err := store.EnsureAdmin(context.Background(), cfg.AdminUser, cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			log.Fatal("main.admin:", err)
		}
		if created {
			log.Infof("Created admin user %q", cfg.AdminUser)
		}
	}

	app := app.App{
		Store:  store,
		Bearer: httpx.NewBearerServer(store, cfg),
		Config: cfg,
	}

	handler := routes.Wire(app)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = runServer(ctx, cfg, handler)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("main.server:", err)
	}
	log.Info("Server stopped")
}

func runServer(ctx context.Context, cfg config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		log.Info("Listening on " + cfg.Url())
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
