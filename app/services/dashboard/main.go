package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/ballot/app/services/dashboard/handlers"
	"github.com/ardanlabs/ballot/business/core/contract"
	"github.com/ardanlabs/ballot/business/core/donation"
	"github.com/ardanlabs/ballot/business/core/notify"
	"github.com/ardanlabs/ballot/business/core/session"
	"github.com/ardanlabs/ballot/business/core/voting"
	"github.com/ardanlabs/ballot/foundation/chain"
	"github.com/ardanlabs/ballot/foundation/events"
	"github.com/ardanlabs/ballot/foundation/keystore"
	"github.com/ardanlabs/ballot/foundation/logger"
	"github.com/ardanlabs/conf/v3"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {
	log, err := logger.New("DASHBOARD")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	cfg := struct {
		conf.Version
		Web struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:60s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			DebugHost       string        `conf:"default:0.0.0.0:7080"`
			APIHost         string        `conf:"default:0.0.0.0:8080"`
		}
		Session struct {
			Chains         []string `conf:"default:development=http://localhost:9080"`
			DefaultChain   string   `conf:"default:development"`
			DefaultAccount string   `conf:"help:account name or address, the first key when empty"`
			AutoConnect    bool     `conf:"default:true"`
		}
		Keystore struct {
			Folder string `conf:"default:zblock/accounts/"`
		}
		Events struct {
			Buffer int `conf:"default:100"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "dashboard for the voting and donation contracts",
		},
	}

	// Values from a local .env file are used when present.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	const prefix = "DASHBOARD"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Session Support

	ks, err := keystore.New(cfg.Keystore.Folder)
	if err != nil {
		return fmt.Errorf("unable to load keystore: %w", err)
	}

	chains, err := session.ParseChains(cfg.Session.Chains)
	if err != nil {
		return fmt.Errorf("parsing chains: %w", err)
	}

	sess, err := session.New(session.Config{
		Log:            log,
		Keystore:       ks,
		Chains:         chains,
		DefaultChain:   cfg.Session.DefaultChain,
		DefaultAccount: cfg.Session.DefaultAccount,
		NewClient: func(url string) contract.Client {
			return chain.NewClient(url)
		},
	})
	if err != nil {
		return fmt.Errorf("constructing session: %w", err)
	}

	// The dashboard still starts when the chain is down, the user can
	// connect later.
	if cfg.Session.AutoConnect {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := sess.Connect(ctx)
		cancel()

		if err != nil {
			log.Infow("startup", "status", "auto connect failed", "ERROR", err)
		}
	}

	// =========================================================================
	// Panel Support

	evts := events.New[notify.Toast](cfg.Events.Buffer)
	hub := notify.NewHub(evts)

	votingPanel := voting.NewPanel(log, hub)
	donationPanel := donation.NewPanel(log, hub)

	// =========================================================================
	// Start Debug Service

	log.Infow("startup", "status", "debug router started", "host", cfg.Web.DebugHost)

	debugMux := handlers.DebugMux(build, log)

	go func() {
		if err := http.ListenAndServe(cfg.Web.DebugHost, debugMux); err != nil {
			log.Errorw("shutdown", "status", "debug router closed", "host", cfg.Web.DebugHost, "ERROR", err)
		}
	}()

	// =========================================================================
	// Start API Service

	log.Infow("startup", "status", "initializing V1 API support")

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	apiMux := handlers.APIMux(handlers.MuxConfig{
		Shutdown: shutdown,
		Log:      log,
		Session:  sess,
		Voting:   votingPanel,
		Donation: donationPanel,
		Evts:     evts,
	})

	api := http.Server{
		Addr:         cfg.Web.APIHost,
		Handler:      apiMux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	serverErrors := make(chan error, 1)

	go func() {
		log.Infow("startup", "status", "api router started", "host", api.Addr)
		serverErrors <- api.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		// Closing the subscriber channels ends the websocket handlers.
		evts.Shutdown()

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		if err := api.Shutdown(ctx); err != nil {
			api.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	return nil
}
