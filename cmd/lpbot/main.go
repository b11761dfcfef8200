package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/ws"
	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/krazyTry/lpbot/dlmm"
	"github.com/krazyTry/lpbot/internal/auth"
	"github.com/krazyTry/lpbot/internal/broadcast"
	"github.com/krazyTry/lpbot/internal/config"
	"github.com/krazyTry/lpbot/internal/httpapi"
	"github.com/krazyTry/lpbot/internal/observability"
	"github.com/krazyTry/lpbot/internal/pipeline"
	"github.com/krazyTry/lpbot/internal/privy"
	"github.com/krazyTry/lpbot/internal/signer"
	"github.com/krazyTry/lpbot/internal/store"
	"github.com/krazyTry/lpbot/internal/store/memory"
	"github.com/krazyTry/lpbot/internal/store/postgres"
	"github.com/krazyTry/lpbot/internal/transfer"
)

const shutdownTimeout = 10 * time.Second

func main() {
	root := &cobra.Command{
		Use:          "lpbot",
		Short:        "Open Meteora DLMM positions with Privy delegated wallets",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().String("rpc-url", "", "Solana RPC URL")
	root.PersistentFlags().String("data-api-url", "", "DLMM data service URL, empty to skip")
	root.PersistentFlags().String("pool", config.DefaultPool, "default DLMM pool address")
	root.PersistentFlags().String("amount", config.DefaultAmount, "default deposit amount of token X")
	root.PersistentFlags().Int32("bin-half-width", config.DefaultBinHalfWidth, "bins on each side of the active bin")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE:  runServe,
	}

	serveCmd.Flags().String("listen", ":3000", "listen address")
	serveCmd.Flags().StringSlice("cors-origins", nil, "allowed CORS origins (comma-separated)")
	serveCmd.Flags().String("privy-app-id", "", "Privy app id")
	serveCmd.Flags().String("privy-verification-key", "", "PEM encoded Privy verification key, empty to use JWKS")
	serveCmd.Flags().String("ws-url", "", "Solana websocket URL, enables subscription based confirmation")
	serveCmd.Flags().Duration("stage-timeout", 20*time.Second, "deadline for each pipeline stage")
	serveCmd.Flags().Bool("confirm", false, "wait for confirmation after broadcast")
	serveCmd.Flags().Uint32("compute-unit-limit", 400_000, "compute unit limit, 0 to omit")
	serveCmd.Flags().Uint64("compute-unit-price", 0, "priority fee in micro lamports per unit, 0 to omit")
	serveCmd.Flags().String("transfer-destination", "", "enables /api/transfer to this address")
	serveCmd.Flags().String("transfer-amount", "0.0001", "SOL sent by /api/transfer")
	serveCmd.Flags().String("postgres-dsn", "", "Postgres DSN, empty for the in-memory ledger")

	root.AddCommand(serveCmd)

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Print the pool snapshot and deposit sizing without signing",
		RunE:  runQuote,
	}

	root.AddCommand(quoteCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	privyOpts := []privy.Option{
		privy.WithAuthURL(cfg.PrivyAuthURL),
		privy.WithAPIURL(cfg.PrivyAPIURL),
	}
	if cfg.PrivyVerificationKey != "" {
		key, err := privy.ParseVerificationKey(cfg.PrivyVerificationKey)
		if err != nil {
			return fmt.Errorf("privy verification key: %w", err)
		}
		privyOpts = append(privyOpts, privy.WithVerificationKey(key))
	}
	privyClient := privy.NewClient(cfg.PrivyAppID, cfg.PrivyAppSecret, privyOpts...)

	rpcClient := rpc.New(cfg.RPCURL)

	broadcastOpts := []broadcast.Option{broadcast.WithLogger(logger)}
	if cfg.WSURL != "" {
		wsClient, err := ws.Connect(ctx, cfg.WSURL)
		if err != nil {
			return fmt.Errorf("connect ws: %w", err)
		}
		defer wsClient.Close()
		broadcastOpts = append(broadcastOpts, broadcast.WithWSClient(wsClient))
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry, cfg.MetricsNamespace)

	positions, closeStore, err := openStore(ctx, cfg.PostgresDSN)
	if err != nil {
		return err
	}
	defer closeStore()

	pool, err := solana.PublicKeyFromBase58(cfg.Pool)
	if err != nil {
		return fmt.Errorf("pool: %w", err)
	}

	m := newDLMM(rpcClient, cfg)
	pipelineOpts := []pipeline.Option{
		pipeline.WithDefaults(pool, cfg.Amount, cfg.BinHalfWidth),
		pipeline.WithStore(positions),
		pipeline.WithMetrics(metrics),
		pipeline.WithLogger(logger),
		pipeline.WithStageTimeout(cfg.StageTimeout),
		pipeline.WithConfirm(cfg.Confirm),
	}
	if cfg.TransferDestination != "" {
		destination, err := solana.PublicKeyFromBase58(cfg.TransferDestination)
		if err != nil {
			return fmt.Errorf("transfer destination: %w", err)
		}
		builder, err := transfer.NewBuilder(rpcClient, destination, cfg.TransferAmount)
		if err != nil {
			return err
		}
		pipelineOpts = append(pipelineOpts, pipeline.WithTransfer(builder))
	}

	p := pipeline.New(pipeline.Deps{
		Auth:        auth.NewVerifier(privyClient),
		Pools:       m,
		Positions:   m,
		Signer:      signer.New(privyClient),
		Broadcaster: broadcast.New(rpcClient, broadcastOpts...),
	}, pipelineOpts...)

	server := httpapi.NewServer(p,
		httpapi.WithMetrics(metrics),
		httpapi.WithLogger(logger),
		httpapi.WithCORSOrigins(cfg.CORSOrigins),
	)

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening",
			zap.String("addr", cfg.Listen),
			zap.String("pool", cfg.Pool),
			zap.String("amount", cfg.Amount),
			zap.Int32("bin_half_width", cfg.BinHalfWidth),
			zap.Bool("confirm", cfg.Confirm),
			zap.Bool("transfer_enabled", p.TransferEnabled()),
			zap.Bool("postgres", cfg.PostgresDSN != ""),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runQuote(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.ValidateChain(); err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	address, err := solana.PublicKeyFromBase58(cfg.Pool)
	if err != nil {
		return fmt.Errorf("pool: %w", err)
	}

	pool, err := newDLMM(rpc.New(cfg.RPCURL), cfg).GetPool(ctx, address)
	if err != nil {
		return err
	}
	amount, err := dlmm.ParseAmount(cfg.Amount)
	if err != nil {
		return err
	}
	deposit, err := dlmm.ComputeDeposit(pool, amount, cfg.BinHalfWidth)
	if err != nil {
		return err
	}

	logger.Info("quote",
		zap.String("pool", pool.Address.String()),
		zap.Int32("active_bin", pool.ActiveBinId),
		zap.String("active_price", pool.ActivePrice.String()),
	)

	out := jsoniter.NewEncoder(cmd.OutOrStdout())
	out.SetIndent("", "  ")
	return out.Encode(map[string]any{
		"pool":     pool,
		"minBinId": deposit.Range.MinBinId,
		"maxBinId": deposit.Range.MaxBinId,
		"amountX":  fmt.Sprint(deposit.TotalXAmount),
		"amountY":  fmt.Sprint(deposit.TotalYAmount),
	})
}

func newDLMM(rpcClient *rpc.Client, cfg config.Config) *dlmm.DLMM {
	opts := []dlmm.Option{dlmm.WithComputeBudget(cfg.ComputeUnitLimit, cfg.ComputeUnitPrice)}
	if cfg.DataAPIURL != "" {
		opts = append(opts, dlmm.WithDataClient(dlmm.NewDataClient(cfg.DataAPIURL, nil)))
	}
	return dlmm.NewDLMM(rpcClient, opts...)
}

func openStore(ctx context.Context, dsn string) (store.PositionStore, func(), error) {
	if dsn == "" {
		return memory.NewPositionStore(), func() {}, nil
	}
	pool, err := postgres.NewPool(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrate postgres: %w", err)
	}
	return postgres.NewPositionStore(pool), pool.Close, nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
