package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"time"

	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"

	"github.com/AvaProtocol/mevboost-aa/pkg/erc4337/boostop"
	"github.com/AvaProtocol/mevboost-aa/pkg/erc4337/preset/mevboost"
	"github.com/AvaProtocol/mevboost-aa/pkg/erc4337/userop"
	"github.com/AvaProtocol/mevboost-aa/storage"
)

type callFlags struct {
	to     []string
	values []string
	data   []string
	dryRun bool
}

func (f *callFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.to, "to", nil, "call target, repeat for a batch")
	cmd.Flags().StringSliceVar(&f.values, "value", nil, "ether sent with each call")
	cmd.Flags().StringSliceVar(&f.data, "data", nil, "hex call data of each call")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "print the signed operation as json instead of sending it")
}

var (
	executeFlags callFlags
	boostFlags   callFlags
	minAmount    string
	boostWindow  time.Duration

	executeCmd = &cobra.Command{
		Use:   "execute",
		Short: "Execute calls through the account",
		Long: `Build, sign and submit a plain execute or executeBatch user operation.

One --to builds execute, several build executeBatch.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			calls, err := parseCalls(executeFlags.to, executeFlags.values, executeFlags.data)
			if err != nil {
				return err
			}
			return runSubmit(cmd, calls, nil, executeFlags.dryRun)
		},
	}

	boostCmd = &cobra.Command{
		Use:   "boost",
		Short: "Execute calls as a boost operation",
		Long: `Build, sign and submit a boostExecute or boostExecuteBatch user operation.

A searcher may pay for the operation until --window after the latest block,
after which the account pays for itself.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			calls, err := parseCalls(boostFlags.to, boostFlags.values, boostFlags.data)
			if err != nil {
				return err
			}
			minWei, err := parseEther(minAmount)
			if err != nil {
				return err
			}
			return runBoost(cmd, calls, minWei, boostWindow, boostFlags.dryRun)
		},
	}
)

func runBoost(cmd *cobra.Command, calls []mevboost.Call, minWei *big.Int, window time.Duration, dryRun bool) error {
	ctx := cmd.Context()
	s, err := openSession(ctx, true)
	if err != nil {
		return err
	}
	defer s.Close()

	now, err := s.account.BlockTimeStamp(ctx)
	if err != nil {
		return err
	}
	cfg := &boostop.MEVConfig{
		MinAmount:          minWei,
		SelfSponsoredAfter: new(big.Int).SetUint64(now + uint64(window.Seconds())),
	}

	return submitCalls(ctx, cmd.OutOrStdout(), s, calls, cfg, dryRun)
}

func runSubmit(cmd *cobra.Command, calls []mevboost.Call, cfg *boostop.MEVConfig, dryRun bool) error {
	s, err := openSession(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer s.Close()

	return submitCalls(cmd.Context(), cmd.OutOrStdout(), s, calls, cfg, dryRun)
}

func submitCalls(ctx context.Context, out io.Writer, s *session, calls []mevboost.Call, cfg *boostop.MEVConfig, dryRun bool) error {
	if err := s.account.SetCalls(calls, cfg); err != nil {
		return err
	}

	op, err := s.account.BuildOp(ctx)
	if err != nil {
		return err
	}
	s.account.ResetOp()

	if dryRun {
		return printOpJSON(out, op)
	}
	return sendAndRecord(ctx, out, s, op)
}

// sendAndRecord submits op and journals it as pending.
func sendAndRecord(ctx context.Context, out io.Writer, s *session, op *userop.UserOperation) error {
	result, err := s.account.SendOp(ctx, op)
	if err != nil {
		return err
	}

	rec := &storage.Record{UserOpHash: result.UserOpHash, Op: result.Op}
	if result.IsBoost() {
		boostHash := result.BoostOpHash
		rec.BoostOpHash = &boostHash
	}
	if err := s.journal.Append(rec); err != nil {
		return fmt.Errorf("operation %s was sent but not journaled: %w", result.UserOpHash.Hex(), err)
	}

	fmt.Fprintf(out, "id:          %s\n", rec.ID)
	fmt.Fprintf(out, "userOpHash:  %s\n", result.UserOpHash.Hex())
	if result.IsBoost() {
		fmt.Fprintf(out, "boostOpHash: %s\n", result.BoostOpHash.Hex())
	}
	if verbose {
		pp.Fprintln(out, op)
	}
	return nil
}

func printOpJSON(out io.Writer, op *userop.UserOperation) error {
	data, err := json.MarshalIndent(op, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

func init() {
	executeFlags.register(executeCmd)

	boostFlags.register(boostCmd)
	boostCmd.Flags().StringVar(&minAmount, "min-amount", "0", "minimum ether a searcher must pay to fill")
	boostCmd.Flags().DurationVar(&boostWindow, "window", time.Minute, "how long searchers may fill before the account pays")

	rootCmd.AddCommand(executeCmd)
	rootCmd.AddCommand(boostCmd)
}
