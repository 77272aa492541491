package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/lockhart-io/ident"
	"github.com/lockhart-io/ident/middleware/jwtware"
	"github.com/lockhart-io/ident/repository"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg := LoadConfig()

	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	db := bun.NewDB(sqldb, sqlitedialect.New())
	defer db.Close()

	ctx := context.Background()

	if err := repository.Migrate(ctx, db); err != nil {
		return err
	}

	repos := repository.NewManager(db)
	if err := repos.Validate(); err != nil {
		return err
	}

	// Role bootstrap runs on every startup regardless of whether any
	// migration applied, so role existence never depends on migration timing.
	if err := repos.Roles().EnsureRoles(ctx, ident.DefaultRoles()...); err != nil {
		return err
	}

	// a bad signing key aborts here, before the listener opens
	tokens, err := ident.NewTokenServiceFromConfig(cfg, nil)
	if err != nil {
		return err
	}

	auther := ident.NewAuthenticator(repos.Accounts(), repos.Roles(), tokens)

	controller := ident.NewAuthController(
		ident.WithAuthenticator(auther),
		ident.WithControllerDebug(cfg.Debug),
	)

	app := fiber.New(fiber.Config{
		AppName:      "identd",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})

	adminGuard := jwtware.New(jwtware.Config{
		TokenValidator: tokens,
		RequiredRole:   ident.RoleAdmin,
	})

	ident.RegisterAuthRoutes(app, controller, adminGuard)

	errs := make(chan error, 1)
	go func() {
		errs <- app.Listen(cfg.ListenAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errs:
		return err
	case sig := <-quit:
		log.Printf("received %s, shutting down", sig)
		return app.ShutdownWithTimeout(10 * time.Second)
	}
}
