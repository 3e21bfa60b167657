package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Show the smart account of the configured owner",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		s, err := openSession(ctx, true)
		if err != nil {
			return err
		}
		defer s.Close()

		a := s.account
		nonce, err := a.Nonce(ctx)
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "chain:      %s\n", a.ChainID())
		fmt.Fprintf(out, "entryPoint: %s\n", a.EntryPoint().Hex())
		fmt.Fprintf(out, "paymaster:  %s\n", a.MEVBoostPaymaster().Hex())
		fmt.Fprintf(out, "sender:     %s\n", a.Sender().Hex())
		fmt.Fprintf(out, "nonce:      %s\n", nonce)

		if nonce.Sign() == 0 {
			fmt.Fprintf(out, "deployed:   no (initCode %d bytes)\n", len(a.InitCode()))
		} else {
			owner, err := a.Owner(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "owner:      %s\n", owner.Hex())
		}

		deposit, err := a.Searcher().Balance(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "deposit:    %s ETH\n", formatEther(deposit))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(accountCmd)
}
