package main

import (
	"fmt"
	"io/ioutil"

	weave "github.com/iov-one/grantd"
	grantd "github.com/iov-one/grantd/cmd/grantd/app"
	"github.com/iov-one/grantd/commands/server"
	"github.com/iov-one/grantd/errors"
	"github.com/iov-one/grantd/x/cash"
	"github.com/iov-one/grantd/x/grant"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	abci "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/libs/log"
)

const (
	// bech32Prefix is the human readable part of printed addresses.
	bech32Prefix = "grant"

	defaultChainID = "grantd-local"
)

func initCmd() *cobra.Command {
	var (
		owner   string
		ticker  string
		wallets []string
		genesis string
		out     string
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate the genesis app state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ownerAddr, err := weave.ParseAddress(owner)
			if err != nil {
				return errors.Wrap(err, "owner")
			}
			accts := make([]cash.GenesisAccount, 0, len(wallets))
			for _, w := range wallets {
				acct, err := grantd.ParseWallet(w)
				if err != nil {
					return err
				}
				accts = append(accts, acct)
			}
			state, err := grantd.GenInitOptions(ownerAddr, ticker, accts)
			if err != nil {
				return err
			}
			switch {
			case genesis != "":
				return server.WriteAppState(genesis, state)
			case out != "":
				return ioutil.WriteFile(out, state, 0600)
			default:
				_, err := fmt.Fprintln(cmd.OutOrStdout(), string(state))
				return err
			}
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&owner, "owner", "", "address allowed to withdraw from the ledger")
	fs.StringVar(&ticker, "ticker", grantd.DefaultTicker, "currency accepted by the ledger")
	fs.StringArrayVar(&wallets, "wallet", nil, "genesis account as <address>=<amount>, may be repeated")
	fs.StringVar(&genesis, "genesis", "", "tendermint genesis file to update in place")
	fs.StringVar(&out, "out", "", "file to write the app state to, stdout if empty")
	return cmd
}

func deployCmd(logger log.Logger) *cobra.Command {
	var (
		genesis string
		chainID string
	)
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Construct the ledger from a genesis file and print its address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ledger, err := deploy(genesis, chainID, logger)
			if err != nil {
				return err
			}
			addr, err := ledger.Address.Bech32String(bech32Prefix)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Grant ledger deployed to: %s\n", addr)
			return err
		},
	}
	cmd.Flags().StringVar(&genesis, "genesis", "", "genesis file, tendermint or bare app state")
	cmd.Flags().StringVar(&chainID, "chain-id", "", "chain id, defaults to the one of the genesis file")
	_ = cmd.MarkFlagRequired("genesis")
	return cmd
}

// deploy runs the genesis of an in-memory application and returns the ledger
// it created.
func deploy(genesisFile, chainID string, logger log.Logger) (*grant.Ledger, error) {
	fileChainID, state, err := server.ReadGenesis(genesisFile)
	if err != nil {
		return nil, err
	}
	if chainID == "" {
		chainID = fileChainID
	}
	if chainID == "" {
		chainID = defaultChainID
	}

	application := grantd.Application(grantd.Name, grantd.Stack(nil), grantd.TxDecoder, logger, false)
	if err := initChain(application, chainID, state); err != nil {
		return nil, err
	}
	ledger, err := grant.NewKeeper().Ledger(application.DeliverStore())
	if err != nil {
		return nil, errors.Wrap(err, "genesis has no grant section")
	}
	logger.Info("Ledger deployed", "chain", chainID, "owner", ledger.Owner, "ticker", ledger.Ticker)
	return ledger, nil
}

func initChain(application abci.Application, chainID string, state []byte) (err error) {
	// InitChain panics on invalid genesis
	defer errors.Recover(&err)
	application.InitChain(abci.RequestInitChain{ChainId: chainID, AppStateBytes: state})
	return nil
}

func generateApp(logger log.Logger, reg prometheus.Registerer, debug bool) (abci.Application, error) {
	return grantd.Application(grantd.Name, grantd.Stack(reg), grantd.TxDecoder, logger, debug), nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the application version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), weave.Version())
			return err
		},
	}
}
