package state

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/ardanlabs/utxocoin/foundation/blockchain/database"
	"github.com/ardanlabs/utxocoin/foundation/blockchain/peer"
	"golang.org/x/sync/errgroup"
)

const baseURL = "http://%s/v1/node"

// maxPeerRequests is the number of peers contacted at the same time.
const maxPeerRequests = 10

// NetSendBlockToPeers takes the new mined block and sends it to all known peers.
func (s *State) NetSendBlockToPeers(ctx context.Context, block database.Block) error {
	s.evHandler("state: NetSendBlockToPeers: started")
	defer s.evHandler("state: NetSendBlockToPeers: completed")

	return s.fanOut(ctx, func(ctx context.Context, pr peer.Peer) error {
		url := fmt.Sprintf("%s/block/propose", fmt.Sprintf(baseURL, pr.Host))

		if err := s.send(ctx, http.MethodPost, url, database.NewBlockData(block), nil); err != nil {
			return fmt.Errorf("%s: %w", pr.Host, err)
		}

		s.evHandler("state: NetSendBlockToPeers: sent to peer[%s]", pr.Host)
		return nil
	})
}

// NetSendTxToPeers shares a new transaction with the known peers.
func (s *State) NetSendTxToPeers(ctx context.Context, tx database.Tx) {
	s.evHandler("state: NetSendTxToPeers: started")
	defer s.evHandler("state: NetSendTxToPeers: completed")

	// Every peer gets the transaction even when one of them fails.
	s.fanOut(ctx, func(ctx context.Context, pr peer.Peer) error {
		url := fmt.Sprintf("%s/tx/submit", fmt.Sprintf(baseURL, pr.Host))
		if err := s.send(ctx, http.MethodPost, url, tx, nil); err != nil {
			s.evHandler("state: NetSendTxToPeers: WARNING: %s: %s", pr.Host, err)
		}
		return nil
	})
}

// NetSendNodeAvailableToPeers shares this node with the known peers so they
// add it to their peer list.
func (s *State) NetSendNodeAvailableToPeers(ctx context.Context) {
	s.evHandler("state: NetSendNodeAvailableToPeers: started")
	defer s.evHandler("state: NetSendNodeAvailableToPeers: completed")

	host := peer.New(s.RetrieveHost())

	s.fanOut(ctx, func(ctx context.Context, pr peer.Peer) error {
		url := fmt.Sprintf("%s/peers", fmt.Sprintf(baseURL, pr.Host))
		if err := s.send(ctx, http.MethodPost, url, host, nil); err != nil {
			s.evHandler("state: NetSendNodeAvailableToPeers: WARNING: %s: %s", pr.Host, err)
		}
		return nil
	})
}

// NetRequestPeerStatus asks the peer for its status, which includes the
// peer list and the work of its chain.
func (s *State) NetRequestPeerStatus(ctx context.Context, pr peer.Peer) (peer.PeerStatus, error) {
	s.evHandler("state: NetRequestPeerStatus: started: %s", pr.Host)
	defer s.evHandler("state: NetRequestPeerStatus: completed: %s", pr.Host)

	url := fmt.Sprintf("%s/status", fmt.Sprintf(baseURL, pr.Host))

	var ps peer.PeerStatus
	if err := s.send(ctx, http.MethodGet, url, nil, &ps); err != nil {
		return peer.PeerStatus{}, err
	}

	s.evHandler("state: NetRequestPeerStatus: peer-node[%s]: latest-blk[%d]: work[%s]: peer-list[%d]", pr.Host, ps.LatestBlockIndex, ps.AccumulatedDifficulty, len(ps.KnownPeers))

	return ps, nil
}

// NetRequestPeerMempool asks the peer for the transactions in their mempool.
func (s *State) NetRequestPeerMempool(ctx context.Context, pr peer.Peer) ([]database.Tx, error) {
	s.evHandler("state: NetRequestPeerMempool: started: %s", pr.Host)
	defer s.evHandler("state: NetRequestPeerMempool: completed: %s", pr.Host)

	url := fmt.Sprintf("%s/tx/list", fmt.Sprintf(baseURL, pr.Host))

	var pool []database.Tx
	if err := s.send(ctx, http.MethodGet, url, nil, &pool); err != nil {
		return nil, err
	}

	s.evHandler("state: NetRequestPeerMempool: len[%d]", len(pool))

	return pool, nil
}

// NetRequestPeerChain asks the peer for its full chain. The blocks pass the
// structural checks before they are returned.
func (s *State) NetRequestPeerChain(ctx context.Context, pr peer.Peer) ([]database.Block, error) {
	s.evHandler("state: NetRequestPeerChain: started: %s", pr.Host)
	defer s.evHandler("state: NetRequestPeerChain: completed: %s", pr.Host)

	url := fmt.Sprintf("%s/block/list", fmt.Sprintf(baseURL, pr.Host))

	var blocksData []database.BlockData
	if err := s.send(ctx, http.MethodGet, url, nil, &blocksData); err != nil {
		return nil, err
	}

	s.evHandler("state: NetRequestPeerChain: found blocks[%d]", len(blocksData))

	return database.ToBlocks(blocksData)
}

// =============================================================================

// fanOut runs the function against every known peer concurrently and
// returns the first error. A failing peer doesn't stop the others.
func (s *State) fanOut(ctx context.Context, fn func(ctx context.Context, pr peer.Peer) error) error {
	var g errgroup.Group
	g.SetLimit(maxPeerRequests)

	for _, pr := range s.RetrieveKnownPeers() {
		g.Go(func() error {
			return fn(ctx, pr)
		})
	}

	return g.Wait()
}

// send is a helper function to send an HTTP request to a node.
func (s *State) send(ctx context.Context, method string, url string, dataSend any, dataRecv any) error {
	req := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json")

	if dataSend != nil {
		req.SetBody(dataSend)
	}

	if dataRecv != nil {
		req.SetResult(dataRecv)
	}

	resp, err := req.Execute(method, url)
	if err != nil {
		return err
	}

	switch {
	case resp.StatusCode() == http.StatusNoContent:
		return nil

	case resp.IsError():
		return errors.New(resp.String())
	}

	return nil
}
