package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"catalog-share/internal/codec"
	"catalog-share/internal/config"
	"catalog-share/internal/httpserver"
	"catalog-share/internal/share"
)

var flags = []cli.Flag{
	&cli.StringFlag{
		Name:    "listen-addr",
		Value:   ":3001",
		Usage:   "address to listen on",
		EnvVars: []string{"SHARE_LISTEN_ADDR"},
	},
	&cli.StringFlag{
		Name:    "config",
		Usage:   "share configuration file (YAML or JSON)",
		EnvVars: []string{"SHARE_CONFIG"},
	},
	&cli.IntFlag{
		Name:    "port",
		Usage:   "port used in share URLs when the request names none (default: the listen port)",
		EnvVars: []string{"SHARE_PORT"},
	},
	&cli.StringFlag{
		Name:    "base-url",
		Usage:   "canonical base URL for share links (optional)",
		EnvVars: []string{"SHARE_BASE_URL"},
	},
	&cli.BoolFlag{
		Name:    "behind-proxy",
		Usage:   "trust X-Forwarded-* headers",
		EnvVars: []string{"SHARE_BEHIND_PROXY"},
	},
	&cli.StringFlag{
		Name:    "bolt-path",
		Value:   "./shares.db",
		Usage:   "data file for the bolt object-store driver",
		EnvVars: []string{"SHARE_BOLT_PATH"},
	},
	&cli.StringFlag{
		Name:    "sqlite-path",
		Value:   "./shares.sqlite",
		Usage:   "database file for the sqlite object-store driver",
		EnvVars: []string{"SHARE_SQLITE_PATH"},
	},
	&cli.StringFlag{
		Name:    "ipfs-api",
		Value:   "localhost:5001",
		Usage:   "IPFS HTTP API address for the ipfs object-store driver",
		EnvVars: []string{"SHARE_IPFS_API"},
	},
	&cli.BoolFlag{
		Name:    "log-json",
		Usage:   "log in JSON format",
		EnvVars: []string{"SHARE_LOG_JSON"},
	},
	&cli.BoolFlag{
		Name:    "log-debug",
		Usage:   "log debug messages",
		EnvVars: []string{"SHARE_LOG_DEBUG"},
	},
	&cli.BoolFlag{
		Name:    "log-uid",
		Usage:   "generate a uuid and add to all log messages",
		EnvVars: []string{"SHARE_LOG_UID"},
	},
	&cli.StringFlag{
		Name:    "log-service",
		Value:   "catalog-share",
		Usage:   "add 'service' tag to logs",
		EnvVars: []string{"SHARE_LOG_SERVICE"},
	},
	&cli.Int64Flag{
		Name:    "drain-seconds",
		Value:   0,
		Usage:   "seconds to report not ready before shutting down",
		EnvVars: []string{"SHARE_DRAIN_SECONDS"},
	},
}

func main() {
	app := &cli.App{
		Name:   "sharesrv",
		Usage:  "Mint and resolve short share ids for catalog documents",
		Flags:  flags,
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cCtx *cli.Context) error {
	logger := setupLogger(cCtx)

	listenAddr := cCtx.String("listen-addr")
	port := cCtx.Int("port")
	if port == 0 {
		port = listenPort(listenAddr)
	}

	var shareCfg *config.File
	if path := cCtx.String("config"); path != "" {
		var err error
		shareCfg, err = config.Load(path)
		if err != nil {
			logger.Error("failed loading share config", "error", err)
			return err
		}
	}
	maxBytes, err := shareCfg.MaxRequestBytes()
	if err != nil {
		return err
	}

	clients := buildClients(storeOptions{
		boltPath:   cCtx.String("bolt-path"),
		sqlitePath: cCtx.String("sqlite-path"),
		ipfsAPI:    cCtx.String("ipfs-api"),
		log:        logger,
	}, shareCfg.Drivers())
	defer func() {
		if err := clients.Close(); err != nil {
			logger.Error("failed closing stores", "error", err)
		}
	}()

	var shares *share.Router
	if shareCfg.Enabled() {
		reg, err := share.NewRegistry(shareCfg.Share(), clients, logger)
		if err != nil {
			logger.Error("invalid share configuration", "error", err)
			return err
		}
		shares = share.NewRouter(reg, codec.JSON{}, logger)
		logger.Info("share API enabled",
			"prefixes", reg.Prefixes(),
			"writePrefix", shareCfg.NewShareURLPrefix,
			"maxRequestSize", humanize.IBytes(uint64(maxBytes)))
	}

	srv, err := httpserver.New(httpserver.Config{
		Shares:        shares,
		MaxBytes:      maxBytes,
		TrustProxy:    cCtx.Bool("behind-proxy"),
		BaseURL:       cCtx.String("base-url"),
		Port:          port,
		DrainDuration: time.Duration(cCtx.Int64("drain-seconds")) * time.Second,
		Logger:        logger,
	})
	if err != nil {
		logger.Error("failed to construct server", "error", err)
		return err
	}

	ctx, stop := signal.NotifyContext(cCtx.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srvHTTP := &http.Server{
		Addr:              listenAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", listenAddr)
		if err := srvHTTP.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		stop()
		drainCtx, cancelDrain := context.WithCancel(context.Background())
		go func() {
			// A second signal skips the drain period.
			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sig)
			select {
			case <-sig:
				cancelDrain()
			case <-drainCtx.Done():
			}
		}()
		srv.Drain(drainCtx)
		cancelDrain()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srvHTTP.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
	case err := <-errCh:
		logger.Error("http server error", "error", err)
		return err
	}

	logger.Info("shutdown complete")
	return nil
}

func setupLogger(cCtx *cli.Context) *slog.Logger {
	level := slog.LevelInfo
	if cCtx.Bool("log-debug") {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if cCtx.Bool("log-json") {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	if service := cCtx.String("log-service"); service != "" {
		logger = logger.With("service", service)
	}
	if cCtx.Bool("log-uid") {
		id := uuid.Must(uuid.NewRandom())
		logger = logger.With("uid", id.String())
	}
	return logger
}

func listenPort(addr string) int {
	_, p, err := net.SplitHostPort(addr)
	if err != nil {
		return 0
	}
	n, err := strconv.Atoi(p)
	if err != nil {
		return 0
	}
	return n
}
