// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/ardanlabs/utxocoin/business/web/errs"
	"github.com/ardanlabs/utxocoin/foundation/blockchain/database"
	"github.com/ardanlabs/utxocoin/foundation/blockchain/state"
	"github.com/ardanlabs/utxocoin/foundation/events"
	"github.com/ardanlabs/utxocoin/foundation/nameservice"
	"github.com/ardanlabs/utxocoin/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of public endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveGenesis(), http.StatusOK)
}

// Names returns the addresses the name service knows about.
func (h Handlers) Names(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.NS.Copy(), http.StatusOK)
}

// Status returns a summary of the node.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	latest := h.State.RetrieveLatestBlock()

	st := status{
		Address:               h.State.RetrieveAddress(),
		LatestBlockHash:       latest.Hash(),
		LatestBlockIndex:      latest.Header.Index,
		Difficulty:            h.State.RetrieveDifficulty(),
		AccumulatedDifficulty: h.State.RetrieveAccumulatedDifficulty().String(),
		MempoolLength:         h.State.QueryMempoolLength(),
		KnownPeers:            len(h.State.RetrieveKnownPeers()),
	}

	return web.Respond(ctx, w, st, http.StatusOK)
}

// Blocks returns the full chain.
func (h Handlers) Blocks(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	chain := h.State.RetrieveBlockchain()

	blocks := make([]block, len(chain))
	for i, blk := range chain {
		blocks[i] = toBlock(h.NS, blk)
	}

	return web.Respond(ctx, w, blocks, http.StatusOK)
}

// BlockByHash returns the block with the specified hash.
func (h Handlers) BlockByHash(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	blk, err := h.State.QueryBlockByHash(web.Param(r, "hash"))
	if err != nil {
		return errs.NewLedger(err)
	}

	return web.Respond(ctx, w, toBlock(h.NS, blk), http.StatusOK)
}

// BlockByIndex returns the block at the specified index.
func (h Handlers) BlockByIndex(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	index, err := strconv.ParseUint(web.Param(r, "index"), 10, 64)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	blk, err := h.State.QueryBlockByIndex(index)
	if err != nil {
		return errs.NewLedger(err)
	}

	return web.Respond(ctx, w, toBlock(h.NS, blk), http.StatusOK)
}

// Transaction returns a mined transaction and the block holding it.
func (h Handlers) Transaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	dbTx, blk, err := h.State.QueryTransaction(web.Param(r, "id"))
	if err != nil {
		return errs.NewLedger(err)
	}

	info := txInfo{
		Transaction: toTx(h.NS, dbTx),
		BlockIndex:  blk.Header.Index,
		BlockHash:   blk.Hash(),
	}

	return web.Respond(ctx, w, info, http.StatusOK)
}

// Mempool returns the set of uncommitted transactions.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, toTxs(h.NS, h.State.RetrieveMempool()), http.StatusOK)
}

// SendTransaction builds a payment from the node's wallet and adds it to
// the mempool.
func (h Handlers) SendTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req sendRequest
	if err := web.Decode(r, &req); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	h.Log.Infow("send tran", "traceid", web.GetTraceID(ctx), "to", h.NS.Lookup(req.To), "amount", req.Amount)

	dbTx, err := h.State.SubmitTransaction(req.To, req.Amount)
	if err != nil {
		return errs.NewLedger(err)
	}

	return web.Respond(ctx, w, toTx(h.NS, dbTx), http.StatusOK)
}

// SubmitWalletTransaction adds a transaction signed by a wallet to the
// mempool.
func (h Handlers) SubmitWalletTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var dbTx database.Tx
	if err := web.Decode(r, &dbTx); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	h.Log.Infow("add user tran", "traceid", web.GetTraceID(ctx), "tx", dbTx.String())

	if err := h.State.UpsertNodeTransaction(dbTx); err != nil {
		return errs.NewLedger(err)
	}

	return web.Respond(ctx, w, toTx(h.NS, dbTx), http.StatusOK)
}

// Address returns the address of the node's wallet.
func (h Handlers) Address(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := struct {
		Address string `json:"address"`
	}{
		Address: h.State.RetrieveAddress(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// AddressInfo returns the balance and unspent outputs of an address.
func (h Handlers) AddressInfo(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	address := web.Param(r, "address")

	info := addressInfo{
		Address:       address,
		Name:          h.NS.Lookup(address),
		Balance:       h.State.QueryBalance(address),
		UnspentTxOuts: toUnspent(h.State.QueryUnspentTxOuts(address)),
	}

	return web.Respond(ctx, w, info, http.StatusOK)
}

// Balance returns the balance of the node's wallet.
func (h Handlers) Balance(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := struct {
		Balance uint64 `json:"balance"`
	}{
		Balance: h.State.RetrieveBalance(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// UnspentTxOuts returns every unspent output.
func (h Handlers) UnspentTxOuts(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, toUnspent(h.State.RetrieveUnspentTxOuts()), http.StatusOK)
}

// MyUnspentTxOuts returns the unspent outputs of the node's wallet.
func (h Handlers) MyUnspentTxOuts(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, toUnspent(h.State.RetrieveMyUnspentTxOuts()), http.StatusOK)
}

// MineBlock mines a block with the transactions in the mempool.
func (h Handlers) MineBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	blk, err := h.State.MineNewBlock(ctx)
	if err != nil {
		return errs.NewLedger(err)
	}

	return web.Respond(ctx, w, toBlock(h.NS, blk), http.StatusOK)
}

// MineRawBlock mines a block with the transactions in the request.
func (h Handlers) MineRawBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req rawRequest
	if err := web.Decode(r, &req); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	blk, err := h.State.MineRawBlock(ctx, req.Transactions)
	if err != nil {
		return errs.NewLedger(err)
	}

	return web.Respond(ctx, w, toBlock(h.NS, blk), http.StatusOK)
}

// MineTransaction mines a block with a payment from the node's wallet.
func (h Handlers) MineTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req sendRequest
	if err := web.Decode(r, &req); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	blk, err := h.State.MineBlockWithTransaction(ctx, req.To, req.Amount)
	if err != nil {
		return errs.NewLedger(err)
	}

	return web.Respond(ctx, w, toBlock(h.NS, blk), http.StatusOK)
}
