package cmd

import (
	"context"
	"fmt"
	"os"

	sdkmetrics "github.com/Layr-Labs/eigensdk-go/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/AvaProtocol/mevboost-aa/core/chainio/signer"
	"github.com/AvaProtocol/mevboost-aa/core/config"
	"github.com/AvaProtocol/mevboost-aa/metrics"
	"github.com/AvaProtocol/mevboost-aa/pkg/erc4337/preset/mevboost"
	"github.com/AvaProtocol/mevboost-aa/storage"
)

const metricsName = "mevboost-aa"

// rootCmd represents the base command when called without any subcommands
var (
	configPath = "./config/mevboost.yaml"
	verbose    bool

	rootCmd = &cobra.Command{
		Use:   "mevboost-aa",
		Short: "MEV boost smart account CLI",
		Long: `Build, boost, fill and track ERC-4337 user operations of a MEV boost account.

Such as "mevboost-aa execute --to 0x... --value 0.01" or "mevboost-aa wait <hash>"
`,
		SilenceUsage: true,
	}
)

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", configPath, "Path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print full operations")
}

// session is what a command needs to talk to the chain.
type session struct {
	config  *config.Config
	account *mevboost.Account
	journal *storage.Journal
	db      storage.Storage
}

func (s *session) Close() {
	if s.account != nil {
		s.account.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
}

func newMetrics(ctx context.Context, c *config.Config) *metrics.AccountMetrics {
	reg := prometheus.NewRegistry()
	eigenMetrics := sdkmetrics.NewEigenMetrics(metricsName, c.EigenMetricsIpPortAddress, reg, c.Logger)
	m := metrics.NewAccountMetrics(eigenMetrics, reg)

	if c.EigenMetricsIpPortAddress != "" {
		errC := m.Start(ctx, reg)
		go func() {
			if err := <-errC; err != nil {
				c.Logger.Error("metrics server stopped", "error", err)
			}
		}()
	}
	return m
}

func openJournal(c *config.Config) (storage.Storage, *storage.Journal, error) {
	db, err := storage.NewWithPath(c.JournalPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open journal at %s: %w", c.JournalPath, err)
	}
	return db, storage.NewJournal(db), nil
}

// openSession loads the config, dials the node and the bundler and opens the
// journal.
func openSession(ctx context.Context, withAccount bool) (*session, error) {
	c, err := config.NewConfig(configPath)
	if err != nil {
		return nil, err
	}

	s := &session{config: c}

	s.db, s.journal, err = openJournal(c)
	if err != nil {
		return nil, err
	}

	if withAccount {
		opts := c.AccountOptions()
		opts.Metrics = newMetrics(ctx, c)

		s.account, err = mevboost.Dial(ctx, signer.NewPrivateKeySigner(c.OwnerKey), c.EthRpcUrl, opts)
		if err != nil {
			s.Close()
			return nil, err
		}
	}

	return s, nil
}
