package public

import (
	"github.com/ardanlabs/utxocoin/business/sys/validate"
	"github.com/ardanlabs/utxocoin/foundation/blockchain/database"
	"github.com/ardanlabs/utxocoin/foundation/nameservice"
)

// sendRequest is a payment from the node's wallet.
type sendRequest struct {
	To     string `json:"to" validate:"required,address"`
	Amount uint64 `json:"amount" validate:"required,gt=0"`
}

// Validate checks the data in the model is considered clean.
func (sr sendRequest) Validate() error {
	return validate.Check(sr)
}

// rawRequest carries the transactions to mine after the coinbase.
type rawRequest struct {
	Transactions []database.Tx `json:"transactions" validate:"required"`
}

// Validate checks the data in the model is considered clean.
func (rr rawRequest) Validate() error {
	return validate.Check(rr)
}

// =============================================================================

type txOut struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Amount  uint64 `json:"amount"`
}

type tx struct {
	ID     string          `json:"id"`
	TxIns  []database.TxIn `json:"txIns"`
	TxOuts []txOut         `json:"txOuts"`
}

type block struct {
	Index        uint64 `json:"index"`
	Hash         string `json:"hash"`
	PreviousHash string `json:"previousHash"`
	Timestamp    uint64 `json:"timestamp"`
	Difficulty   uint32 `json:"difficulty"`
	Nonce        uint64 `json:"nonce"`
	Transactions []tx   `json:"transactions"`
}

type txInfo struct {
	Transaction tx     `json:"transaction"`
	BlockIndex  uint64 `json:"blockIndex"`
	BlockHash   string `json:"blockHash"`
}

type addressInfo struct {
	Address       string                  `json:"address"`
	Name          string                  `json:"name"`
	Balance       uint64                  `json:"balance"`
	UnspentTxOuts []database.UnspentTxOut `json:"unspentTxOuts"`
}

type status struct {
	Address               string `json:"address"`
	LatestBlockHash       string `json:"latestBlockHash"`
	LatestBlockIndex      uint64 `json:"latestBlockIndex"`
	Difficulty            uint32 `json:"difficulty"`
	AccumulatedDifficulty string `json:"accumulatedDifficulty"`
	MempoolLength         int    `json:"mempoolLength"`
	KnownPeers            int    `json:"knownPeers"`
}

// =============================================================================

func toTx(ns *nameservice.NameService, dbTx database.Tx) tx {
	outs := make([]txOut, len(dbTx.TxOuts))
	for i, out := range dbTx.TxOuts {
		outs[i] = txOut{
			Address: out.Address,
			Name:    ns.Lookup(out.Address),
			Amount:  out.Amount,
		}
	}

	ins := dbTx.TxIns
	if ins == nil {
		ins = []database.TxIn{}
	}

	return tx{
		ID:     dbTx.ID,
		TxIns:  ins,
		TxOuts: outs,
	}
}

func toTxs(ns *nameservice.NameService, dbTxs []database.Tx) []tx {
	txs := make([]tx, len(dbTxs))
	for i, dbTx := range dbTxs {
		txs[i] = toTx(ns, dbTx)
	}
	return txs
}

func toBlock(ns *nameservice.NameService, blk database.Block) block {
	return block{
		Index:        blk.Header.Index,
		Hash:         blk.Hash(),
		PreviousHash: blk.Header.PreviousHash,
		Timestamp:    blk.Header.Timestamp,
		Difficulty:   blk.Header.Difficulty,
		Nonce:        blk.Header.Nonce,
		Transactions: toTxs(ns, blk.Transactions),
	}
}

func toUnspent(utxos []database.UnspentTxOut) []database.UnspentTxOut {
	if utxos == nil {
		return []database.UnspentTxOut{}
	}
	return utxos
}
