package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/tensorplex-labs/walletlink/internal/api"
	"github.com/tensorplex-labs/walletlink/internal/registry"
	"github.com/tensorplex-labs/walletlink/internal/utils/logger"
	"github.com/tensorplex-labs/walletlink/pkg/address"
	"github.com/tensorplex-labs/walletlink/pkg/linkage"
	"github.com/tensorplex-labs/walletlink/pkg/message"
)

func main() {
	app := &cli.App{
		Name:  "linkctl",
		Usage: "Check substrate to EVM wallet linkage proofs offline",
		Description: `linkctl runs the same checks the server applies to a linkage request.

Sign the output of "linkctl payload <evm address>" with the substrate key,
then pass the address pair and the hex signature to "linkctl verify".`,
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "trace, debug, info, warn or error",
				Value: "warn",
			},
		},
		Before: func(c *cli.Context) error {
			logger.InitWithLevel(c.String("log-level"))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "verify",
				Usage: "Verify a signature over the wrapped EVM address",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "substrate",
						Usage:    "ss58 encoded substrate address",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "evm",
						Usage:    "EVM address, 0x prefix optional",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "signature",
						Usage:    "64 byte signature as hex, 0x prefix optional",
						Required: true,
					},
				},
				Action: verifyCommand,
			},
			{
				Name:      "decode-ss58",
				Usage:     "Print the network prefix and public key of an ss58 address",
				ArgsUsage: "<address>",
				Action:    decodeCommand,
			},
			{
				Name:      "payload",
				Usage:     "Print the hex message a substrate key must sign for an EVM address",
				ArgsUsage: "<evm address>",
				Action:    payloadCommand,
			},
			{
				Name:  "submit",
				Usage: "Submit a linkage proof to a running server",
				Flags: append(serverFlags(),
					&cli.StringFlag{Name: "substrate", Required: true},
					&cli.StringFlag{Name: "evm", Required: true},
					&cli.StringFlag{Name: "signature", Required: true},
				),
				Action: submitCommand,
			},
			{
				Name:      "lookup",
				Usage:     "Fetch the linkage recorded for an ss58 address",
				ArgsUsage: "<address>",
				Flags:     serverFlags(),
				Action:    lookupCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func verifyCommand(c *cli.Context) error {
	linked, err := linkage.NewService(nil).VerifyLinkage(
		c.String("substrate"),
		c.String("evm"),
		c.String("signature"),
	)
	if err != nil {
		log.Debug().Err(err).Msg("verification failed")
		return cli.Exit(err.Error(), 1)
	}

	sub := address.SubstrateAddress{PublicKey: linked.SubstratePubkey, Network: linked.Network}
	fmt.Fprintf(c.App.Writer, "valid %s\n", linked.Scheme)
	fmt.Fprintf(c.App.Writer, "substrate pubkey: %s (network %d)\n", sub.Hex(), linked.Network)
	fmt.Fprintf(c.App.Writer, "evm address:      0x%s\n", hex.EncodeToString(linked.EvmAddress[:]))
	return nil
}

func decodeCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("expected exactly one ss58 address", 2)
	}

	addr, err := address.ValidateSubstrate(c.Args().First())
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	fmt.Fprintf(c.App.Writer, "network: %d\n", addr.Network)
	fmt.Fprintf(c.App.Writer, "pubkey:  %s\n", addr.Hex())
	return nil
}

func payloadCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("expected exactly one EVM address", 2)
	}

	evm, err := address.ValidateEvm(c.Args().First())
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	fmt.Fprintf(c.App.Writer, "0x%s\n", hex.EncodeToString(message.Wrap(evm)))
	return nil
}

func serverFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Usage:   "base url of the walletlink server",
			Value:   "http://127.0.0.1:8888",
			EnvVars: []string{"WALLETLINK_URL"},
		},
		&cli.StringFlag{
			Name:     "user-id",
			Usage:    "platform user id sent as the requester",
			Required: true,
		},
		&cli.StringSliceFlag{
			Name:  "role",
			Usage: "platform role of the requester, repeatable",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Value: 10 * time.Second,
		},
	}
}

func newClient(c *cli.Context) (*api.Client, registry.Requester, error) {
	client, err := api.NewClient(&api.ClientConfig{
		BaseURL:         c.String("server"),
		Timeout:         c.Duration("timeout"),
		ZstdCompression: true,
	})
	if err != nil {
		return nil, registry.Requester{}, err
	}
	return client, registry.Requester{UserID: c.String("user-id"), Roles: c.StringSlice("role")}, nil
}

func submitCommand(c *cli.Context) error {
	client, requester, err := newClient(c)
	if err != nil {
		return err
	}
	defer client.Close()

	rec, err := client.Link(c.Context, requester, api.LinkRequest{
		SubstrateAddress: c.String("substrate"),
		EvmAddress:       c.String("evm"),
		Signature:        c.String("signature"),
	})
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	fmt.Fprintf(c.App.Writer, "linked %s -> %s (%s)\n", rec.SubstrateAddress, rec.EvmAddress, rec.Scheme)
	return nil
}

func lookupCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("expected exactly one ss58 address", 2)
	}

	client, requester, err := newClient(c)
	if err != nil {
		return err
	}
	defer client.Close()

	rec, err := client.Lookup(c.Context, requester, c.Args().First())
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	fmt.Fprintf(c.App.Writer, "%s -> %s (%s, linked %s by %s)\n",
		rec.SubstrateAddress, rec.EvmAddress, rec.Scheme, rec.CreatedAt.Format(time.RFC3339), rec.UserID)
	return nil
}
