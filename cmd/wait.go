package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/AvaProtocol/mevboost-aa/core/config"
	"github.com/AvaProtocol/mevboost-aa/pkg/erc4337/boostop"
	"github.com/AvaProtocol/mevboost-aa/pkg/erc4337/preset/mevboost"
	"github.com/AvaProtocol/mevboost-aa/storage"
	"github.com/AvaProtocol/mevboost-aa/storage/schema"
)

var (
	waitTimeout  time.Duration
	waitInterval time.Duration

	waitCmd = &cobra.Command{
		Use:   "wait <journal id | userOpHash | boostOpHash>",
		Short: "Wait for a submitted operation to settle",
		Long: `Poll the entry point and, for a boost operation, the settlement contract until
the operation settles on either path. The journal records which one won.`,
		Args: cobra.ExactArgs(1),
		RunE: runWait,
	}
)

// settlement is the outcome of one wait path.
type settlement struct {
	status schema.OpStatus
	tx     common.Hash
	err    error
}

func findRecord(j *storage.Journal, ref string) (*storage.Record, error) {
	if hash, ok := parseHash(ref); ok {
		return j.FindByHash(hash)
	}
	return j.Get(ref)
}

// raceSettlement runs the normal wait and, for a boost operation, the boost
// wait until one of them finds its event. A nil result means neither did.
func raceSettlement(ctx context.Context, a *mevboost.Account, rec *storage.Record, timeout, interval time.Duration) (*settlement, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan settlement, 2)
	paths := 1

	go func() {
		ev, err := a.Wait(ctx, rec.UserOpHash, timeout, interval)
		switch {
		case err != nil:
			results <- settlement{err: err}
		case ev == nil:
			results <- settlement{}
		default:
			results <- settlement{status: schema.OpSettled, tx: ev.Raw.TxHash}
		}
	}()

	if rec.IsBoost() {
		var deadline uint64
		if info, err := boostop.GetBoostOpInfo(rec.Op); err == nil && info.MEVConfig.SelfSponsoredAfter.IsUint64() {
			deadline = info.MEVConfig.SelfSponsoredAfter.Uint64()
		}

		paths++
		go func() {
			ev, err := a.BoostWait(ctx, *rec.BoostOpHash, deadline, interval)
			switch {
			case err != nil:
				results <- settlement{err: err}
			case ev == nil:
				results <- settlement{}
			default:
				results <- settlement{status: schema.OpBoosted, tx: ev.Raw.TxHash}
			}
		}()
	}

	var firstErr error
	for i := 0; i < paths; i++ {
		r := <-results
		if r.err != nil {
			if firstErr == nil {
				firstErr = r.err
			}
			continue
		}
		if r.status != "" {
			return &r, nil
		}
	}
	return nil, firstErr
}

func runWait(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	s, err := openSession(ctx, true)
	if err != nil {
		return err
	}
	defer s.Close()

	rec, err := findRecord(s.journal, args[0])
	if err != nil {
		return fmt.Errorf("find %s in journal: %w", args[0], err)
	}
	if rec.Status != schema.OpPending {
		fmt.Fprintf(out, "%s already %s\n", rec.ID, rec.Status)
		return nil
	}

	result, err := raceSettlement(ctx, s.account, rec, waitTimeout, waitInterval)
	if err != nil {
		return err
	}

	if result == nil {
		if _, err := s.journal.UpdateStatus(rec.ID, schema.OpExpired, nil); err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: no settlement seen, marked expired\n", rec.ID)
		return nil
	}

	if _, err := s.journal.UpdateStatus(rec.ID, result.status, &result.tx); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s: %s in tx %s\n", rec.ID, result.status, result.tx.Hex())
	if url := config.ExplorerTxURL(s.account.ChainID(), result.tx); url != "" {
		fmt.Fprintln(out, url)
	}
	return nil
}

func init() {
	waitCmd.Flags().DurationVar(&waitTimeout, "timeout", mevboost.DefaultWaitTimeout, "how long to wait for the entry point event")
	waitCmd.Flags().DurationVar(&waitInterval, "interval", mevboost.DefaultWaitInterval, "delay between polls")

	rootCmd.AddCommand(waitCmd)
}
