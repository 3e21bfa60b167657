package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"

	"github.com/AvaProtocol/mevboost-aa/core/chainio/signer"
	"github.com/AvaProtocol/mevboost-aa/pkg/erc4337/boostop"
	"github.com/AvaProtocol/mevboost-aa/pkg/erc4337/bundler"
	"github.com/AvaProtocol/mevboost-aa/pkg/erc4337/preset/mevboost"
	"github.com/AvaProtocol/mevboost-aa/pkg/erc4337/userop"
	"github.com/AvaProtocol/mevboost-aa/storage"
)

var (
	fillOpPath      string
	fillSearcherKey string
	fillAmount      string
	fillNoSuccess   bool
	fillDryRun      bool

	fillCmd = &cobra.Command{
		Use:   "fill",
		Short: "Pay for a boost operation as a searcher",
		Long: `Attach a signed payment commitment of the searcher to a boost operation and
submit it.

The operation is read as json from --op, "-" reads stdin. Use "boost --dry-run"
to produce one. Without --amount the searcher pays what the settlement
contract suggests.`,
		RunE: runFill,
	}
)

func readOp(path string, stdin io.Reader) (*userop.UserOperation, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}

	op := &userop.UserOperation{}
	if err := json.Unmarshal(data, op); err != nil {
		return nil, fmt.Errorf("decode user operation: %w", err)
	}
	return op, nil
}

func runFill(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	op, err := readOp(fillOpPath, cmd.InOrStdin())
	if err != nil {
		return err
	}
	if !boostop.IsBoostOp(op) {
		return boostop.ErrNotBoostOperation
	}

	searcherSigner, err := signer.FromPrivateKeyHex(fillSearcherKey)
	if err != nil {
		return fmt.Errorf("invalid searcher key: %w", err)
	}

	amount, err := parseEther(fillAmount)
	if err != nil {
		return err
	}
	if fillAmount == "" {
		amount = nil
	}

	s, err := openSession(ctx, false)
	if err != nil {
		return err
	}
	defer s.Close()

	client, err := ethclient.DialContext(ctx, s.config.EthRpcUrl)
	if err != nil {
		return err
	}
	defer client.Close()

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return err
	}

	opts := s.config.AccountOptions()
	opts.Metrics = newMetrics(ctx, s.config)
	searcher, err := mevboost.NewSearcher(ctx, searcherSigner, client, opts)
	if err != nil {
		return err
	}

	balance, err := searcher.Balance(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "searcher:    %s (deposit %s ETH)\n", searcher.Address().Hex(), formatEther(balance))

	filled, err := searcher.Fill(ctx, op, !fillNoSuccess, amount)
	if err != nil {
		return err
	}

	pmd, err := boostop.DecodePaymasterAndData(filled.PaymasterAndData)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "fill amount: %s ETH\n", formatEther(pmd.MEVPayInfo.Amount))

	if fillDryRun {
		return printOpJSON(out, filled)
	}

	bundlerURL := s.config.BundlerUrl
	if bundlerURL == "" {
		bundlerURL = s.config.EthRpcUrl
	}
	bundlerClient, err := bundler.NewBundlerClient(bundlerURL, s.config.Logger)
	if err != nil {
		return err
	}
	defer bundlerClient.Close()

	hash, err := bundlerClient.SendUserOperation(ctx, *filled, s.config.EntryPointAddress)
	if err != nil {
		return fmt.Errorf("eth_sendUserOperation: %w", err)
	}

	boostHash := filled.GetBoostOpHash(s.config.EntryPointAddress, chainID)
	rec := &storage.Record{UserOpHash: hash, BoostOpHash: &boostHash, Op: filled}
	if err := s.journal.Append(rec); err != nil {
		return fmt.Errorf("operation %s was sent but not journaled: %w", hash.Hex(), err)
	}

	fmt.Fprintf(out, "id:          %s\n", rec.ID)
	fmt.Fprintf(out, "userOpHash:  %s\n", hash.Hex())
	fmt.Fprintf(out, "boostOpHash: %s\n", boostHash.Hex())
	if verbose {
		pp.Fprintln(out, pmd)
	}
	return nil
}

func init() {
	fillCmd.Flags().StringVar(&fillOpPath, "op", "-", "json user operation to fill")
	fillCmd.Flags().StringVar(&fillSearcherKey, "searcher-key", os.Getenv("SEARCHER_PRIVATE_KEY"), "searcher private key, defaults to $SEARCHER_PRIVATE_KEY")
	fillCmd.Flags().StringVar(&fillAmount, "amount", "", "ether paid for the operation")
	fillCmd.Flags().BoolVar(&fillNoSuccess, "no-require-success", false, "pay even when the calls revert")
	fillCmd.Flags().BoolVar(&fillDryRun, "dry-run", false, "print the filled operation instead of sending it")

	rootCmd.AddCommand(fillCmd)
}
