package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"classroll/catalog"
	"classroll/config"
	"classroll/console"
	"classroll/db"
	"classroll/handlers"
	"classroll/logger"
	"classroll/selector"
	"classroll/session"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	cfg *config.Config
	log zerolog.Logger
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Pretty)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cli := commandLine{cfg: cfg, log: log}
	if err := cli.run(ctx, os.Args); err != nil {
		if err != errHelp {
			log.Error().Err(err).Msg("Command failed")
		}
		stop()
		os.Exit(1)
	}
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  serve   - run the HTTP API")
	fmt.Println("  console - manage the roster interactively in this terminal")
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "serve":
		return cli.serve(ctx)
	case "console":
		return cli.console(ctx)
	default:
		cli.printUsage()
		return errHelp
	}
}

// openCatalog returns the configured class storage and a cleanup func.
func (cli *commandLine) openCatalog(ctx context.Context) (catalog.Catalog, func(), error) {
	switch cli.cfg.Storage.Backend {
	case config.BackendRedis:
		client, err := db.InitializeRedisClient(ctx, db.Options{
			Addr:     cli.cfg.Redis.Addr,
			Password: cli.cfg.Redis.Password,
			DB:       cli.cfg.Redis.DB,
		})
		if err != nil {
			return nil, nil, err
		}
		cli.log.Info().Str("addr", cli.cfg.Redis.Addr).Int("db", cli.cfg.Redis.DB).Msg("Connected to Redis")
		return db.NewRedisCatalog(client, cli.cfg.Catalog.Sort, cli.log), func() { _ = client.Close() }, nil
	default:
		cli.log.Info().Str("dir", cli.cfg.Storage.ClassesDir).Msg("Using class files")
		return catalog.NewFileCatalog(cli.cfg.Storage.ClassesDir, cli.cfg.Catalog.Sort, cli.log), func() {}, nil
	}
}

func (cli *commandLine) newSession(cat catalog.Catalog, ui session.Presenter) *session.Session {
	opts := session.Options{ResetLuckyOnLoad: cli.cfg.Selector.ResetLuckyOnLoad}
	return session.New(cat, selector.New(nil), ui, opts, cli.log)
}

func (cli *commandLine) serve(ctx context.Context) error {
	cat, closeCat, err := cli.openCatalog(ctx)
	if err != nil {
		return err
	}
	defer closeCat()

	sess := cli.newSession(cat, nil)
	apiHandler := handlers.NewAPIHandler(sess, cli.log)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), handlers.RequestLogger(cli.log))
	apiHandler.RegisterRoutes(router)

	server := &http.Server{
		Addr:    cli.cfg.Server.Address,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		cli.log.Info().Msgf("Starting server on %s", cli.cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	cli.log.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cli.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "failed to shutdown gracefully")
	}
	cli.log.Info().Msg("Server stopped")
	return nil
}

func (cli *commandLine) console(ctx context.Context) error {
	cat, closeCat, err := cli.openCatalog(ctx)
	if err != nil {
		return err
	}
	defer closeCat()

	p := console.NewPresenter(os.Stdin, os.Stdout)
	err = console.NewShell(p, cli.newSession(cat, p)).Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
