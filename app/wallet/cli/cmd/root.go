// Package cmd contains wallet app
package cmd

import (
	"os"
	"time"

	"github.com/ardanlabs/utxocoin/foundation/blockchain/wallet"
	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
)

var (
	keyPath string
	nodeURL string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&keyPath, "key", "k", wallet.DefaultKeyPath, "Path to the private key.")
	rootCmd.PersistentFlags().StringVarP(&nodeURL, "url", "u", "http://localhost:8080", "Url of the node.")
}

var rootCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Your simple coin wallet",
}

// Execute runs the command selected on the command line.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadWallet reads the private key the wallet works with.
func loadWallet() (*wallet.Wallet, error) {
	pk, err := wallet.NewFileStore(keyPath).Read()
	if err != nil {
		return nil, err
	}

	return wallet.New(pk), nil
}

// client returns the client used to talk to the node.
func client() *resty.Client {
	return resty.New().
		SetBaseURL(nodeURL).
		SetTimeout(30 * time.Second)
}
