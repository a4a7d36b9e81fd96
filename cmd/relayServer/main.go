package main

import (
	"context"
	"fmt"
	"log"
	"math/big"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Layr-Labs/metatx-relay-go/pkg/config"
	"github.com/Layr-Labs/metatx-relay-go/pkg/ledger"
	"github.com/Layr-Labs/metatx-relay-go/pkg/ledger/erc20Ledger"
	"github.com/Layr-Labs/metatx-relay-go/pkg/ledger/memoryLedger"
	"github.com/Layr-Labs/metatx-relay-go/pkg/logger"
	"github.com/Layr-Labs/metatx-relay-go/pkg/persistence"
	badgerstore "github.com/Layr-Labs/metatx-relay-go/pkg/persistence/badger"
	"github.com/Layr-Labs/metatx-relay-go/pkg/persistence/memory"
	redisstore "github.com/Layr-Labs/metatx-relay-go/pkg/persistence/redis"
	"github.com/Layr-Labs/metatx-relay-go/pkg/relay"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func main() {
	app := &cli.App{
		Name:  "relay-server",
		Usage: "Meta-transaction token relay server",
		Description: `A relay service for gasless token transfers.

Users sign a transfer authorization off-chain; any relayer submits it here.
The server verifies the signature, enforces exactly-once execution per
authorization, and moves tokens from sender to recipient against the
configured ledger. The submitting relayer pays execution cost.`,
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Value:   8000,
				Usage:   "HTTP server port",
				EnvVars: []string{config.EnvRelayPort},
			},
			&cli.StringFlag{
				Name:    "persistence-type",
				Value:   string(config.PersistenceTypeMemory),
				Usage:   fmt.Sprintf("Executed-set store backend: %s", config.GetSupportedPersistenceTypesString()),
				EnvVars: []string{config.EnvRelayPersistenceType},
			},
			&cli.StringFlag{
				Name:    "badger-path",
				Value:   "./relay-data",
				Usage:   "Data directory for the badger backend",
				EnvVars: []string{config.EnvRelayBadgerPath},
			},
			&cli.StringFlag{
				Name:    "redis-address",
				Usage:   "Redis server address (host:port) for the redis backend",
				EnvVars: []string{config.EnvRelayRedisAddress},
			},
			&cli.StringFlag{
				Name:    "redis-password",
				Usage:   "Optional Redis password",
				EnvVars: []string{config.EnvRelayRedisPassword},
			},
			&cli.IntFlag{
				Name:    "redis-db",
				Value:   0,
				Usage:   "Redis database number",
				EnvVars: []string{config.EnvRelayRedisDB},
			},
			&cli.StringFlag{
				Name:    "ledger-mode",
				Value:   string(config.LedgerModeMemory),
				Usage:   "Ledger backend: memory (dev) or erc20 (on-chain)",
				EnvVars: []string{config.EnvRelayLedgerMode},
			},
			&cli.StringFlag{
				Name:    "rpc-url",
				Aliases: []string{"rpc"},
				Value:   "http://localhost:8545",
				Usage:   "Ethereum RPC endpoint URL (erc20 mode)",
				EnvVars: []string{config.EnvRelayRPCURL},
			},
			&cli.Uint64Flag{
				Name:    "chain-id",
				Aliases: []string{"chain"},
				Usage:   "Ethereum chain ID (erc20 mode)",
				EnvVars: []string{config.EnvRelayChainID},
			},
			&cli.StringFlag{
				Name:    "token-address",
				Aliases: []string{"token"},
				Usage:   "ERC-20 token contract address (erc20 mode)",
				EnvVars: []string{config.EnvRelayTokenAddress},
			},
			&cli.StringFlag{
				Name:    "executor-key",
				Usage:   "Executor private key (hex); the spender users must approve",
				EnvVars: []string{config.EnvRelayExecutorKey},
			},
			&cli.Float64Flag{
				Name:    "submissions-per-second",
				Value:   0,
				Usage:   "Rate limit for POST /transfer (0 disables)",
				EnvVars: []string{config.EnvRelaySubmissionsPerSec},
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Usage:   "Enable verbose logging",
				EnvVars: []string{config.EnvRelayVerbose},
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("relay-server failed: %v", err)
	}
}

func run(c *cli.Context) error {
	cfg := &config.RelayConfig{
		Port:                 c.Int("port"),
		PersistenceType:      config.PersistenceType(c.String("persistence-type")),
		BadgerPath:           c.String("badger-path"),
		RedisAddress:         c.String("redis-address"),
		RedisPassword:        c.String("redis-password"),
		RedisDB:              c.Int("redis-db"),
		LedgerMode:           config.LedgerMode(c.String("ledger-mode")),
		RPCURL:               c.String("rpc-url"),
		ChainID:              c.Uint64("chain-id"),
		TokenAddress:         c.String("token-address"),
		ExecutorKey:          c.String("executor-key"),
		SubmissionsPerSecond: c.Float64("submissions-per-second"),
		Verbose:              c.Bool("verbose"),
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: cfg.Verbose})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = l.Sync() }()

	store, err := buildStore(cfg, l)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.HealthCheck(); err != nil {
		return fmt.Errorf("executed-set store unhealthy: %w", err)
	}

	tokenLedger, err := buildLedger(cfg, l)
	if err != nil {
		return err
	}

	executor := relay.NewExecutor(store, tokenLedger, l)
	server := relay.NewServer(executor, &relay.ServerConfig{
		Port:                 cfg.Port,
		SubmissionsPerSecond: cfg.SubmissionsPerSecond,
	}, l)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		l.Sugar().Infow("Shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(ctx)
	}
}

func buildStore(cfg *config.RelayConfig, l *zap.Logger) (persistence.IExecutedStore, error) {
	switch cfg.PersistenceType {
	case config.PersistenceTypeMemory:
		return memory.NewMemoryStore(), nil
	case config.PersistenceTypeBadger:
		return badgerstore.NewBadgerStore(cfg.BadgerPath, l)
	case config.PersistenceTypeRedis:
		return redisstore.NewRedisStore(&redisstore.RedisConfig{
			Address:  cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, l)
	default:
		return nil, fmt.Errorf("unsupported persistence type: %s", cfg.PersistenceType)
	}
}

func buildLedger(cfg *config.RelayConfig, l *zap.Logger) (ledger.ILedger, error) {
	switch cfg.LedgerMode {
	case config.LedgerModeMemory:
		spender := common.Address{}
		if cfg.ExecutorKey != "" {
			key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.ExecutorKey, "0x"))
			if err != nil {
				return nil, fmt.Errorf("failed to parse executor key: %w", err)
			}
			spender = crypto.PubkeyToAddress(key.PublicKey)
		}
		l.Sugar().Infow("Using in-memory ledger", "spender", spender.Hex())
		return memoryLedger.NewMemoryLedger(spender), nil
	case config.LedgerModeERC20:
		client, err := ethclient.Dial(cfg.RPCURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to RPC at %s: %w", cfg.RPCURL, err)
		}
		erc20, err := erc20Ledger.NewERC20Ledger(
			client,
			common.HexToAddress(cfg.TokenAddress),
			cfg.ExecutorKey,
			new(big.Int).SetUint64(cfg.ChainID),
			l,
		)
		if err != nil {
			return nil, err
		}
		l.Sugar().Infow("Using on-chain ERC-20 ledger",
			"token", cfg.TokenAddress,
			"spender", erc20.SpenderAddress().Hex(),
		)
		return erc20, nil
	default:
		return nil, fmt.Errorf("unsupported ledger mode: %s", cfg.LedgerMode)
	}
}
