package main

import (
	"context"
	"fmt"
	"log"
	"math/big"
	"os"

	"github.com/Layr-Labs/metatx-relay-go/pkg/clients/relayClient"
	"github.com/Layr-Labs/metatx-relay-go/pkg/intentSigner/inMemoryIntentSigner"
	"github.com/Layr-Labs/metatx-relay-go/pkg/logger"
	"github.com/Layr-Labs/metatx-relay-go/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func main() {
	app := &cli.App{
		Name:  "relay-client",
		Usage: "Sign and submit gasless token transfers to a relay server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Aliases: []string{"s"},
				Value:   "http://localhost:8000",
				Usage:   "Relay server base URL",
				EnvVars: []string{"RELAY_SERVER_URL"},
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Usage:   "Enable verbose logging",
				EnvVars: []string{"RELAY_VERBOSE"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "digest",
				Usage:  "Compute the digest a sender must sign for a transfer tuple",
				Flags:  intentFlags(false),
				Action: runDigest,
			},
			{
				Name:   "transfer",
				Usage:  "Sign a transfer intent with a local key and submit it",
				Flags:  intentFlags(true),
				Action: runTransfer,
			},
			{
				Name:   "health",
				Usage:  "Check relay server health",
				Action: runHealth,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("relay-client failed: %v", err)
	}
}

func intentFlags(withKey bool) []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{Name: "sender", Usage: "Sender address (defaults to the signing key's address)", Required: !withKey},
		&cli.StringFlag{Name: "amount", Usage: "Transfer amount (base-10 uint256)", Required: true},
		&cli.StringFlag{Name: "recipient", Usage: "Recipient address", Required: true},
		&cli.StringFlag{Name: "token", Usage: "Token contract address", Required: true},
		&cli.Uint64Flag{Name: "nonce", Usage: "Intent nonce (any unused value; no ordering required)", Required: true},
	}
	if withKey {
		flags = append(flags, &cli.StringFlag{
			Name:     "private-key",
			Aliases:  []string{"k"},
			Usage:    "Sender private key (hex) used to sign the intent",
			EnvVars:  []string{"RELAY_SENDER_PRIVATE_KEY"},
			Required: true,
		})
	}
	return flags
}

func newClient(c *cli.Context) (*relayClient.Client, *zap.Logger, error) {
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: c.Bool("verbose")})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	client, err := relayClient.NewClient(&relayClient.ClientConfig{
		BaseURL: c.String("server"),
		Logger:  l,
	})
	if err != nil {
		return nil, nil, err
	}
	return client, l, nil
}

func parseIntent(c *cli.Context, defaultSender common.Address) (*types.TransferIntent, error) {
	sender := defaultSender
	if s := c.String("sender"); s != "" {
		if !common.IsHexAddress(s) {
			return nil, fmt.Errorf("invalid sender address: %q", s)
		}
		sender = common.HexToAddress(s)
	}

	for _, name := range []string{"recipient", "token"} {
		if !common.IsHexAddress(c.String(name)) {
			return nil, fmt.Errorf("invalid %s address: %q", name, c.String(name))
		}
	}

	amount, ok := new(big.Int).SetString(c.String("amount"), 10)
	if !ok || amount.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount: %q", c.String("amount"))
	}

	return &types.TransferIntent{
		Sender:    sender,
		Amount:    amount,
		Recipient: common.HexToAddress(c.String("recipient")),
		Token:     common.HexToAddress(c.String("token")),
		Nonce:     c.Uint64("nonce"),
	}, nil
}

func runDigest(c *cli.Context) error {
	client, _, err := newClient(c)
	if err != nil {
		return err
	}

	intent, err := parseIntent(c, common.Address{})
	if err != nil {
		return err
	}

	d, err := client.ComputeDigest(context.Background(), intent)
	if err != nil {
		return err
	}

	fmt.Println(d.Hex())
	return nil
}

func runTransfer(c *cli.Context) error {
	client, l, err := newClient(c)
	if err != nil {
		return err
	}

	signer, err := inMemoryIntentSigner.NewInMemoryIntentSigner(c.String("private-key"), l)
	if err != nil {
		return err
	}

	intent, err := parseIntent(c, signer.SignerAddress())
	if err != nil {
		return err
	}
	if intent.Sender != signer.SignerAddress() {
		return fmt.Errorf("sender %s does not match signing key address %s",
			intent.Sender.Hex(), signer.SignerAddress().Hex())
	}

	ctx := context.Background()

	d, err := client.ComputeDigest(ctx, intent)
	if err != nil {
		return err
	}

	signature, err := signer.SignIntent(d)
	if err != nil {
		return err
	}

	resp, err := client.Transfer(ctx, intent, signature)
	if err != nil {
		return err
	}

	fmt.Printf("transfer executed: digest=%s request_id=%s\n", resp.Digest, resp.RequestID)
	return nil
}

func runHealth(c *cli.Context) error {
	client, _, err := newClient(c)
	if err != nil {
		return err
	}

	if err := client.Health(context.Background()); err != nil {
		return err
	}

	fmt.Println("ok")
	return nil
}
