// Package main provides the player entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/osa030/skystream/internal/api/httpapi"
	"github.com/osa030/skystream/internal/app/notification"
	"github.com/osa030/skystream/internal/app/playback"
	"github.com/osa030/skystream/internal/domain/media"
	"github.com/osa030/skystream/internal/infra/auth"
	"github.com/osa030/skystream/internal/infra/config"
	"github.com/osa030/skystream/internal/infra/drive"
	"github.com/osa030/skystream/internal/infra/engine"
	"github.com/osa030/skystream/internal/infra/local"
	"github.com/osa030/skystream/internal/infra/logger"
	"github.com/osa030/skystream/internal/infra/resolver"
	"github.com/osa030/skystream/internal/infra/system"
)

var (
	app        = kingpin.New("skystream", "SkyStream adaptive playback server")
	configPath = app.Flag("config", "Path to config file").Default("config/player.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()

	// probe command
	probeCmd    = app.Command("probe", "Resolve one item and print its stream source")
	probeItemID = probeCmd.Arg("id", "Item ID (file path for local, file ID for cloud)").Required().String()
	probeCloud  = probeCmd.Flag("cloud", "Resolve from the cloud drive").Bool()
)

func init() {
	// serve command (default)
	app.Command("serve", "Run the playback controller and HTTP API (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	loggerConfig := logger.Config{
		Output: "stdout",
		Level:  "info",
	}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = "file"
		loggerConfig.File = *logfile
	}
	logCloser, err := logger.Init(loggerConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()

	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Error().Msgf("Failed to load config: %v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch command {
	case probeCmd.FullCommand():
		err = probe(ctx, cfg, *probeItemID, *probeCloud)
	default:
		err = serve(ctx, cfg)
	}
	if err != nil {
		zlog.Error().Msgf("%v", err)
		stop()
		logCloser.Close()
		os.Exit(1)
	}
}

// sources builds the stream resolver and, when the drive is configured, the
// credential store.
func sources(ctx context.Context, cfg *config.Config) (*resolver.Router, *auth.Store, error) {
	localResolver := local.New(afero.NewOsFs(), cfg.Local.Root)
	if !cfg.DriveEnabled() {
		zlog.Info().Msg("Cloud drive not configured, only local items can be played")
		return resolver.NewRouter(localResolver, nil), nil, nil
	}

	store, err := auth.New(ctx, auth.Config{
		ClientID:     cfg.Drive.ClientID,
		ClientSecret: cfg.Drive.ClientSecret,
		RefreshToken: cfg.Drive.RefreshToken,
		TokenURL:     cfg.Drive.TokenURL,
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to create credential store")
	}
	driveResolver := drive.New(drive.Config{
		BaseURL:   cfg.Drive.BaseURL,
		UserAgent: cfg.Drive.UserAgent,
		Timeout:   cfg.Drive.Timeout,
	}, store)
	return resolver.NewRouter(localResolver, driveResolver), store, nil
}

// serve runs the controller and the HTTP API until ctx is cancelled.
func serve(ctx context.Context, cfg *config.Config) error {
	router, store, err := sources(ctx, cfg)
	if err != nil {
		return err
	}

	engines, err := engine.NewFactoryFromConfig(cfg.Engine)
	if err != nil {
		return err
	}

	pcfg, err := cfg.PlaybackControllerConfig()
	if err != nil {
		return err
	}

	notifier := notification.NewManager(cfg.Server.SubscriberBuffer)
	deps := playback.Dependencies{
		Engines:  engines,
		Resolver: router,
		Controls: system.NewControls(0.5, 0.5, true),
		Sink:     notifier.Publish,
	}
	if store != nil {
		deps.Credentials = store
	}

	controller, err := playback.NewController(pcfg, deps)
	if err != nil {
		return errors.Wrap(err, "failed to create playback controller")
	}

	if items := cfg.Items(); len(items) > 0 {
		zlog.Info().Msgf("Opening playlist: items=%d start=%d", len(items), cfg.Playlist.Start)
		if err := controller.Open(items, cfg.Playlist.Start); err != nil {
			controller.Close()
			return errors.Wrap(err, "failed to open playlist")
		}
	}

	api := httpapi.NewServer(controller, notifier, httpapi.Config{AdminToken: cfg.Server.AdminToken})
	server := api.HTTPServer(cfg.Server.Addr)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zlog.Info().Msgf("Starting server: addr=%s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server error")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		zlog.Info().Msg("Shutting down...")

		// Stop playback and end event streams before draining connections
		controller.Close()
		notifier.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zlog.Error().Msgf("Failed to shutdown server: %v", err)
		}
		return nil
	})

	err = g.Wait()
	zlog.Info().Msg("Server stopped")
	return err
}

// probe resolves a single item and prints the result.
func probe(ctx context.Context, cfg *config.Config, id string, cloud bool) error {
	router, _, err := sources(ctx, cfg)
	if err != nil {
		return err
	}

	item := media.Item{ID: id, Title: id, Origin: media.OriginLocal}
	if cloud {
		item.Origin = media.OriginCloud
	}

	resolveCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	src, err := router.Resolve(resolveCtx, item)
	if err != nil {
		return errors.Wrapf(err, "failed to resolve %s", id)
	}

	fmt.Println("Stream Source:")
	fmt.Printf("  %-10s %s\n", "URL:", src.URL)
	fmt.Printf("  %-10s %s\n", "Format:", src.Format)
	fmt.Printf("  %-10s %s\n", "MIME:", src.MimeType)
	names := make([]string, 0, len(src.Headers))
	for name := range src.Headers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		// Header values may carry the access token
		fmt.Printf("  %-10s %s\n", "Header:", name)
	}
	return nil
}
