package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	cli "github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/agentfi-labs/agentwallet-go/pkg/action"
	"github.com/agentfi-labs/agentwallet-go/pkg/chainManager"
	"github.com/agentfi-labs/agentwallet-go/pkg/lendingActions"
	"github.com/agentfi-labs/agentwallet-go/pkg/logger"
	"github.com/agentfi-labs/agentwallet-go/pkg/swapActions"
	"github.com/agentfi-labs/agentwallet-go/pkg/txError"
	"github.com/agentfi-labs/agentwallet-go/pkg/walletActions"
	"github.com/agentfi-labs/agentwallet-go/pkg/walletProvider"
)

func main() {
	app := &cli.App{
		Name:  "agentwallet",
		Usage: "Wallet-backed onchain action runner",
		Description: `The agentwallet CLI executes onchain actions through a configured wallet.
It supports local private keys, AWS KMS keys, custodial server wallets, and
delegated embedded wallets reached through a remote signer.`,
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "debug",
				Aliases: []string{"d"},
				Usage:   "Enable debug logging",
				EnvVars: []string{"DEBUG"},
			},
			&cli.StringSliceFlag{
				Name:    "chains",
				Aliases: []string{"c"},
				Usage:   "Chain configurations in format 'networkId:chainId:rpcUrl' (e.g., 'base-mainnet:8453:https://mainnet.base.org')",
				EnvVars: []string{"CHAINS"},
			},
			&cli.StringFlag{
				Name:    "chain-definitions",
				Usage:   "Path to a YAML file of chain definitions (alternative to --chains)",
				EnvVars: []string{"CHAIN_DEFINITIONS"},
			},
			&cli.StringFlag{
				Name:     "network",
				Aliases:  []string{"n"},
				Usage:    "Network ID the wallet operates on (e.g., 'base-mainnet')",
				Required: true,
				EnvVars:  []string{"NETWORK"},
			},
			// Wallet signing options
			&cli.StringFlag{
				Name:    "private-key",
				Usage:   "Private key for local signing (hex format, with or without 0x prefix)",
				EnvVars: []string{"PRIVATE_KEY"},
			},
			&cli.StringFlag{
				Name:    "kms-key-id",
				Usage:   "AWS KMS key ID for HSM-backed signing",
				EnvVars: []string{"KMS_KEY_ID"},
			},
			&cli.StringFlag{
				Name:    "kms-aws-region",
				Usage:   "AWS region of the KMS signing key",
				Value:   "us-east-1",
				EnvVars: []string{"KMS_AWS_REGION"},
			},
			&cli.StringFlag{
				Name:    "custodial-base-url",
				Usage:   "Custodial wallet service base URL",
				EnvVars: []string{"CUSTODIAL_BASE_URL"},
			},
			&cli.StringFlag{
				Name:    "custodial-api-token",
				Usage:   "Bearer token for the custodial wallet service",
				EnvVars: []string{"CUSTODIAL_API_TOKEN"},
			},
			&cli.StringFlag{
				Name:    "custodial-wallet-id",
				Usage:   "Server-side wallet ID at the custodial service",
				EnvVars: []string{"CUSTODIAL_WALLET_ID"},
			},
			&cli.StringFlag{
				Name:    "signer-url",
				Usage:   "Remote signer RPC endpoint for delegated wallets",
				EnvVars: []string{"SIGNER_URL"},
			},
			&cli.StringFlag{
				Name:    "app-id",
				Usage:   "Application ID for the delegated remote signer",
				EnvVars: []string{"APP_ID"},
			},
			&cli.StringFlag{
				Name:    "app-secret",
				Usage:   "Application secret for the delegated remote signer",
				EnvVars: []string{"APP_SECRET"},
			},
			&cli.StringFlag{
				Name:    "authorization-key",
				Usage:   "Base64 PKCS#8 P-256 key that signs delegated signer requests",
				EnvVars: []string{"AUTHORIZATION_KEY"},
			},
			&cli.StringFlag{
				Name:    "wallet-address",
				Usage:   "Wallet address (required for custodial and delegated wallets)",
				EnvVars: []string{"WALLET_ADDRESS"},
			},
			// Action provider options
			&cli.StringFlag{
				Name:    "lending-markets",
				Usage:   "Path to a YAML file of lending market definitions",
				EnvVars: []string{"LENDING_MARKETS"},
			},
			&cli.StringFlag{
				Name:    "quote-api-url",
				Usage:   "Swap aggregator quote API base URL",
				EnvVars: []string{"QUOTE_API_URL"},
			},
			&cli.StringFlag{
				Name:    "quote-api-key",
				Usage:   "Swap aggregator API key",
				EnvVars: []string{"QUOTE_API_KEY"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:    "list-actions",
				Aliases: []string{"ls"},
				Usage:   "List the actions available on the configured network",
				Action:  listActionsAction,
			},
			{
				Name:    "invoke",
				Aliases: []string{"i"},
				Usage:   "Invoke a named action with JSON arguments",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "action",
						Aliases:  []string{"a"},
						Usage:    "Action name to invoke (see list-actions)",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "args",
						Usage:   "JSON-encoded action arguments",
						Value:   "{}",
						EnvVars: []string{"ACTION_ARGS"},
					},
				},
				Action: invokeAction,
			},
			{
				Name:  "transfer",
				Usage: "Transfer the native asset to another address",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "to",
						Usage:    "Recipient address",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "amount",
						Usage:    "Human-readable decimal amount",
						Required: true,
					},
				},
				Action: transferAction,
			},
		},
		Before: validateFlags,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func validateFlags(c *cli.Context) error {
	if len(c.StringSlice("chains")) == 0 && c.String("chain-definitions") == "" {
		return fmt.Errorf("must specify --chains or --chain-definitions")
	}

	signingOptions := 0
	if c.String("private-key") != "" {
		signingOptions++
	}
	if c.String("kms-key-id") != "" {
		signingOptions++
	}
	if c.String("custodial-wallet-id") != "" {
		signingOptions++
	}
	if c.String("signer-url") != "" {
		signingOptions++
	}
	if signingOptions == 0 {
		return fmt.Errorf("must specify one of: --private-key, --kms-key-id, --custodial-wallet-id, or --signer-url")
	}
	if signingOptions > 1 {
		return fmt.Errorf("can only specify one wallet signing option")
	}

	needsAddress := c.String("custodial-wallet-id") != "" || c.String("signer-url") != ""
	if needsAddress && !common.IsHexAddress(c.String("wallet-address")) {
		return fmt.Errorf("custodial and delegated wallets require a valid --wallet-address")
	}
	return nil
}

func setupLogger(c *cli.Context) (*zap.Logger, error) {
	return logger.NewLogger(&logger.LoggerConfig{
		Debug: c.Bool("debug"),
	})
}

func setupChainManager(c *cli.Context) (*chainManager.ChainManager, error) {
	defs, err := chainManager.LoadChainDefinitions(c.String("chain-definitions"))
	if err != nil {
		return nil, err
	}

	for _, chainConfig := range c.StringSlice("chains") {
		parts := strings.SplitN(chainConfig, ":", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid chain configuration: %s (expected format: 'networkId:chainId:rpcUrl')", chainConfig)
		}
		chainID, err := strconv.ParseUint(parts[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid chain ID %s: %w", parts[1], err)
		}
		defs.Chains = append(defs.Chains, chainManager.ChainConfig{
			Network: chainManager.Network{
				ProtocolFamily: "evm",
				NetworkID:      parts[0],
				ChainID:        chainID,
			},
			RPCUrl: parts[2],
		})
	}

	return chainManager.NewChainManagerFromDefinitions(defs)
}

func setupWallet(c *cli.Context, cm *chainManager.ChainManager) (walletProvider.IWalletProvider, error) {
	chain, err := cm.GetChainForNetworkId(c.String("network"))
	if err != nil {
		return nil, fmt.Errorf("network %s is not configured: %w", c.String("network"), err)
	}
	network := chain.Network()
	client := chain.RPCClient

	if privateKey := c.String("private-key"); privateKey != "" {
		return walletProvider.NewLocalWallet(privateKey, network, client)
	}

	if kmsKeyID := c.String("kms-key-id"); kmsKeyID != "" {
		return walletProvider.NewKMSWallet(kmsKeyID, c.String("kms-aws-region"), network, client)
	}

	if walletID := c.String("custodial-wallet-id"); walletID != "" {
		return walletProvider.NewCustodialWallet(&walletProvider.CustodialWalletConfig{
			BaseURL:  c.String("custodial-base-url"),
			APIToken: c.String("custodial-api-token"),
			WalletID: walletID,
			Address:  common.HexToAddress(c.String("wallet-address")),
			Network:  network,
		}, client)
	}

	if signerURL := c.String("signer-url"); signerURL != "" {
		return walletProvider.NewDelegatedWallet(&walletProvider.DelegatedWalletConfig{
			SignerURL:        signerURL,
			AppID:            c.String("app-id"),
			AppSecret:        c.String("app-secret"),
			AuthorizationKey: c.String("authorization-key"),
			Address:          common.HexToAddress(c.String("wallet-address")),
			Network:          network,
		}, client)
	}

	return nil, fmt.Errorf("no wallet signing method configured")
}

func setupRegistry(c *cli.Context, wallet walletProvider.IWalletProvider, l *zap.Logger) (*action.Registry, error) {
	providers := []action.IActionProvider{
		walletActions.NewProvider(wallet, l),
	}

	markets, marketNetworks, err := lendingActions.LoadMarketDefinitions(c.String("lending-markets"))
	if err != nil {
		return nil, fmt.Errorf("failed to load lending markets: %w", err)
	}
	if len(marketNetworks) > 0 {
		providers = append(providers, lendingActions.NewProvider(wallet, markets, marketNetworks, l))
	}

	if quoteURL := c.String("quote-api-url"); quoteURL != "" {
		quotes, err := swapActions.NewHTTPQuoteService(&swapActions.HTTPQuoteServiceConfig{
			BaseURL: quoteURL,
			APIKey:  c.String("quote-api-key"),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create quote service: %w", err)
		}
		providers = append(providers, swapActions.NewProvider(wallet, quotes, l))
	}

	return action.NewRegistry(l, providers...), nil
}

func setup(c *cli.Context) (*action.Registry, walletProvider.IWalletProvider, *zap.Logger, error) {
	l, err := setupLogger(c)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to setup logger: %w", err)
	}

	cm, err := setupChainManager(c)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to setup chain manager: %w", err)
	}

	wallet, err := setupWallet(c, cm)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to setup wallet: %w", err)
	}

	registry, err := setupRegistry(c, wallet, l)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to setup action registry: %w", err)
	}
	return registry, wallet, l, nil
}

func listActionsAction(c *cli.Context) error {
	registry, wallet, _, err := setup(c)
	if err != nil {
		return err
	}

	network := wallet.GetNetwork()
	actions := registry.ListActions(network)

	fmt.Printf("Wallet: %s\n", wallet.GetAddress().Hex())
	fmt.Printf("Network: %s\n", network)
	fmt.Printf("Actions: %d\n", len(actions))
	for _, a := range actions {
		fmt.Printf("  %-18s %s\n", a.Name, a.Description)
	}
	return nil
}

func invokeAction(c *cli.Context) error {
	registry, wallet, l, err := setup(c)
	if err != nil {
		return err
	}

	name := c.String("action")
	found := registry.FindAction(wallet.GetNetwork(), name)
	if found == nil {
		return fmt.Errorf("action %s is not available on network %s", name, wallet.GetNetwork())
	}

	l.Sugar().Infow("Invoking action",
		"action", name,
		"wallet", wallet.GetAddress().Hex(),
		"network", wallet.GetNetwork().String(),
	)

	result, err := found.Invoke(context.Background(), json.RawMessage(c.String("args")))
	if err != nil {
		if typed, ok := txError.From(err); ok {
			return fmt.Errorf("action failed with code %s: %s", typed.Code(), typed.Message())
		}
		return fmt.Errorf("action failed: %w", err)
	}

	fmt.Println(result)
	return nil
}

func transferAction(c *cli.Context) error {
	_, wallet, l, err := setup(c)
	if err != nil {
		return err
	}

	to := c.String("to")
	if !common.IsHexAddress(to) {
		return fmt.Errorf("invalid recipient address: %s", to)
	}

	l.Sugar().Infow("Transferring native asset",
		"to", to,
		"amount", c.String("amount"),
	)

	txHash, err := wallet.NativeTransfer(context.Background(), common.HexToAddress(to), c.String("amount"))
	if err != nil {
		return fmt.Errorf("transfer failed: %w", err)
	}

	fmt.Printf("Transfer confirmed: %s\n", txHash.Hex())
	return nil
}
