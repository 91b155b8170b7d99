package cmd

import (
	"fmt"

	"github.com/ardanlabs/utxocoin/foundation/blockchain/database"
	"github.com/spf13/cobra"
)

// addressInfo is what the node reports for an address.
type addressInfo struct {
	Address       string                  `json:"address"`
	Name          string                  `json:"name"`
	Balance       uint64                  `json:"balance"`
	UnspentTxOuts []database.UnspentTxOut `json:"unspentTxOuts"`
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print your balance.",
	RunE:  balanceRun,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}

func balanceRun(cmd *cobra.Command, args []string) error {
	w, err := loadWallet()
	if err != nil {
		return err
	}

	info, err := queryAddress(w.Address())
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "For Address: %.16s\n", info.Address)
	fmt.Fprintln(cmd.OutOrStdout(), info.Balance)

	return nil
}

// queryAddress asks the node for the balance and unspent outputs of the
// address.
func queryAddress(address string) (addressInfo, error) {
	var info addressInfo

	resp, err := client().R().
		SetResult(&info).
		SetPathParam("address", address).
		Get("/v1/address/{address}")
	if err != nil {
		return addressInfo{}, err
	}

	if resp.IsError() {
		return addressInfo{}, fmt.Errorf("query address: %s: %s", resp.Status(), resp.String())
	}

	return info, nil
}
