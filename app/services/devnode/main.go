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

	"github.com/ardanlabs/ballot/app/services/devnode/handlers"
	"github.com/ardanlabs/ballot/foundation/devchain"
	"github.com/ardanlabs/ballot/foundation/keystore"
	"github.com/ardanlabs/ballot/foundation/logger"
	"github.com/ardanlabs/conf/v3"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("DEVNODE")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
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
			WriteTimeout    time.Duration `conf:"default:10s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			DebugHost       string        `conf:"default:0.0.0.0:7081"`
			APIHost         string        `conf:"default:0.0.0.0:9080"`
		}
		Chain struct {
			DBPath        string        `conf:"default:zblock/devchain/"`
			BlockInterval time.Duration `conf:"default:2s"`
			FinalityDepth uint64        `conf:"default:1"`
		}
		Genesis struct {
			Path           string `conf:"default:zblock/genesis.json"`
			Owner          string `conf:"default:owner"`
			Beneficiary    string `conf:"default:beneficiary"`
			DefaultBalance uint64 `conf:"default:1000000"`
		}
		Keystore struct {
			Folder string `conf:"default:zblock/accounts/"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "development chain hosting the voting and donation contracts",
		},
	}

	// Values from a local .env file are used when present.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	const prefix = "DEVNODE"
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
	// Genesis Support

	genesis, err := devchain.LoadGenesis(cfg.Genesis.Path)
	switch {
	case err == nil:
		log.Infow("startup", "status", "genesis loaded", "path", cfg.Genesis.Path)

	case errors.Is(err, fs.ErrNotExist):

		// Without a genesis file every account in the keystore is funded
		// and the named accounts own the contracts and receive donations.
		ks, err := keystore.New(cfg.Keystore.Folder)
		if err != nil {
			return fmt.Errorf("unable to load keystore: %w", err)
		}

		genesis, err = genesisFromKeystore(ks, cfg.Genesis.Owner, cfg.Genesis.Beneficiary, cfg.Genesis.DefaultBalance)
		if err != nil {
			return err
		}
		log.Infow("startup", "status", "genesis from keystore", "owner", genesis.Owner, "beneficiary", genesis.Beneficiary)

	default:
		return fmt.Errorf("unable to load genesis: %w", err)
	}

	// =========================================================================
	// Chain Support

	ev := func(v string, args ...any) {
		log.Infow(fmt.Sprintf(v, args...), "traceid", "00000000-0000-0000-0000-000000000000")
	}

	storage, err := devchain.NewDisk(cfg.Chain.DBPath)
	if err != nil {
		return fmt.Errorf("unable to open block storage: %w", err)
	}

	chain, err := devchain.New(devchain.Config{
		Genesis:       genesis,
		Storage:       storage,
		FinalityDepth: cfg.Chain.FinalityDepth,
		EvHandler:     ev,
	})
	if err != nil {
		return err
	}
	defer chain.Shutdown()

	worker := devchain.Run(chain, cfg.Chain.BlockInterval)
	defer worker.Shutdown()

	// =========================================================================
	// Start Debug Service

	log.Infow("startup", "status", "debug router started", "host", cfg.Web.DebugHost)

	debugMux := handlers.DebugMux(build, log)

	// Not concerned with shutting this down with load shedding.
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
		Chain:    chain,
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

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		if err := api.Shutdown(ctx); err != nil {
			api.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	return nil
}

// genesisFromKeystore builds a genesis that funds every key in the keystore.
func genesisFromKeystore(ks *keystore.Keystore, owner string, beneficiary string, balance uint64) (devchain.Genesis, error) {
	ownerKey, err := ks.Find(owner)
	if err != nil {
		return devchain.Genesis{}, fmt.Errorf("genesis owner %q: %w", owner, err)
	}

	benefKey, err := ks.Find(beneficiary)
	if err != nil {
		return devchain.Genesis{}, fmt.Errorf("genesis beneficiary %q: %w", beneficiary, err)
	}

	gen := devchain.Genesis{
		Date:        time.Now().UTC(),
		ChainID:     1,
		Owner:       ownerKey.Address(),
		Beneficiary: benefKey.Address(),
		Balances:    make(map[string]uint64),
	}

	for _, key := range ks.Keys() {
		gen.Balances[key.Address()] = balance
	}

	return gen, nil
}
