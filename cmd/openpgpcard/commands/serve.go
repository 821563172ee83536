package commands

import (
	"context"
	"fmt"
	"net"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/marmos91/openpgpcard/internal/algo"
	"github.com/marmos91/openpgpcard/internal/card"
	"github.com/marmos91/openpgpcard/internal/cardio/sockapdu"
	"github.com/marmos91/openpgpcard/internal/keygen"
	"github.com/marmos91/openpgpcard/internal/logger"
	"github.com/marmos91/openpgpcard/internal/store"
	"github.com/marmos91/openpgpcard/pkg/config"
	"github.com/marmos91/openpgpcard/pkg/metrics"
	"github.com/marmos91/openpgpcard/pkg/metrics/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the openpgpcard daemon",
	Long: `Bring up the application's persistent store, background
key-generation pump, and APDU transport, and serve commands until
interrupted.

Examples:
  # Serve using the default configuration
  openpgpcard serve

  # Serve using a custom configuration file
  openpgpcard serve --config /etc/openpgpcard/config.yaml`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Output: cfg.Logging.Output}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var cardMetrics *prometheus.CardMetrics
	var keygenMetrics *prometheus.KeyGenMetrics
	if cfg.Metrics.Enabled {
		reg := metrics.InitRegistry()
		cardMetrics = prometheus.NewCardMetrics()
		keygenMetrics = prometheus.NewKeyGenMetrics()

		mux := nethttp.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		metricsSrv := &nethttp.Server{Addr: fmt.Sprintf(":%d", cfg.Metrics.Port), Handler: mux}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && err != nethttp.ErrServerClosed {
				logger.Error("metrics server error", "error", err)
			}
		}()
		defer metricsSrv.Close()
		logger.Info("Metrics enabled", "port", cfg.Metrics.Port)
	} else {
		logger.Info("Metrics collection disabled")
	}

	s, err := store.Open(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer s.Close()

	pump := keygen.New(keygenMetrics)
	defer pump.Stop()
	if err := configurePump(s, pump); err != nil {
		return fmt.Errorf("failed to configure key-generation pump: %w", err)
	}

	c, err := card.New(s, pump, cardMetrics)
	if err != nil {
		return fmt.Errorf("failed to initialize card: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverDone := make(chan error, 1)
	switch cfg.Reader.Transport {
	case "unix":
		ln, err := listenUnix(cfg.Reader.Socket)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", cfg.Reader.Socket, err)
		}
		defer ln.Close()
		logger.Info("Listening for APDUs", "transport", "unix", "socket", cfg.Reader.Socket)
		go func() {
			serverDone <- sockapdu.Serve(ctx, ln, func(ctx context.Context, capdu []byte) []byte {
				reqCtx := logger.WithContext(ctx, logger.NewLogContext(cfg.Reader.Socket))
				return c.DispatchCtx(reqCtx, capdu)
			})
		}()
	case "pcsc":
		go func() { serverDone <- serveReader(ctx, cfg.Reader.Socket, c) }()
	default:
		return fmt.Errorf("unsupported reader transport: %s", cfg.Reader.Transport)
	}

	logger.Info("openpgpcard is running. Press Ctrl+C to stop.")
	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("Shutdown signal received, stopping")
		cancel()
		if err := <-serverDone; err != nil && ctx.Err() == nil {
			logger.Error("transport error", "error", err)
			return err
		}
	case err := <-serverDone:
		signal.Stop(sigChan)
		if err != nil {
			logger.Error("transport error", "error", err)
			return err
		}
	}

	logger.Info("openpgpcard stopped")
	return nil
}

// listenUnix removes a stale socket file left behind by an unclean
// shutdown before binding, since net.Listen("unix", ...) refuses to
// reuse an existing path.
func listenUnix(path string) (net.Listener, error) {
	if _, err := os.Stat(path); err == nil {
		if err := os.Remove(path); err != nil {
			return nil, err
		}
	}
	return net.Listen("unix", path)
}

// configurePump starts the background pump for each of the three key
// slots using its currently stored algorithm attributes, falling back
// to the factory default for a slot that has never had one written.
func configurePump(s store.Store, pump *keygen.Pump) error {
	return s.View(func(txn store.Txn) error {
		for _, slot := range []store.SlotIndex{store.SlotSign, store.SlotDecrypt, store.SlotAuth} {
			raw, err := txn.GetAlgorithmAttributes(slot)
			if err != nil {
				return err
			}
			alg, err := decodeOrDefault(slot, raw)
			if err != nil {
				return err
			}
			pump.Configure(context.Background(), slot, alg)
		}
		return nil
	})
}

// decodeOrDefault mirrors card.Card.slotAlgorithm's fallback: a slot
// with no stored Algorithm Attributes yet uses the factory default for
// its role.
func decodeOrDefault(slot store.SlotIndex, raw []byte) (algo.Algorithm, error) {
	if len(raw) == 0 {
		switch slot {
		case store.SlotSign:
			return algo.DefaultSignatureAttributes(), nil
		case store.SlotDecrypt:
			return algo.DefaultDecryptionAttributes(), nil
		default:
			return algo.DefaultAuthenticationAttributes(), nil
		}
	}
	return algo.DecodeAttributes(raw)
}
