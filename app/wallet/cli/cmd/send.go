package cmd

import (
	"fmt"

	"github.com/ardanlabs/utxocoin/foundation/blockchain/database"
	"github.com/ardanlabs/utxocoin/foundation/blockchain/wallet"
	"github.com/spf13/cobra"
)

var (
	to     string
	amount uint64
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send transaction",
	RunE:  sendRun,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&to, "to", "t", "", "Address of the receiver.")
	sendCmd.Flags().Uint64VarP(&amount, "amount", "a", 0, "Amount to send.")
	sendCmd.MarkFlagRequired("to")
	sendCmd.MarkFlagRequired("amount")
}

func sendRun(cmd *cobra.Command, args []string) error {
	w, err := loadWallet()
	if err != nil {
		return err
	}

	// The node reports our unspent outputs and the pending transactions
	// so outputs already being spent are left alone.
	info, err := queryAddress(w.Address())
	if err != nil {
		return err
	}

	var pool []database.Tx
	resp, err := client().R().SetResult(&pool).Get("/v1/tx/uncommitted/list")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("query mempool: %s: %s", resp.Status(), resp.String())
	}

	// The transaction is built and signed here. The private key never
	// leaves this machine.
	tx, err := wallet.CreateTransaction(to, amount, w.PrivateKey(), database.NewUTXOSet(info.UnspentTxOuts), pool)
	if err != nil {
		return err
	}

	resp, err = client().R().SetBody(tx).Post("/v1/tx/submit")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("submit transaction: %s: %s", resp.Status(), resp.String())
	}

	fmt.Fprintln(cmd.OutOrStdout(), tx.ID)

	return nil
}
