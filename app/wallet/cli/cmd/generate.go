package cmd

import (
	"errors"
	"fmt"

	"github.com/ardanlabs/utxocoin/foundation/blockchain/wallet"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate new key pair",
	RunE:  generateRun,
}

func init() {
	rootCmd.AddCommand(generateCmd)
}

func generateRun(cmd *cobra.Command, args []string) error {
	store := wallet.NewFileStore(keyPath)

	// Never replace a key that may own coins.
	if _, err := store.Read(); !errors.Is(err, wallet.ErrNoKey) {
		if err != nil {
			return err
		}
		return fmt.Errorf("key already exists at %s", store.Path())
	}

	w, err := wallet.Init(store)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), w.Address())

	return nil
}
