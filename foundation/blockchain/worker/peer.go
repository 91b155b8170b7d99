package worker

import (
	"context"

	"github.com/ardanlabs/utxocoin/foundation/blockchain/peer"
)

// peerOperations handles finding new peers and catching up with a peer
// that holds a heavier chain.
func (w *Worker) peerOperations() {
	w.evHandler("worker: peerOperations: G started")
	defer w.evHandler("worker: peerOperations: G completed")

	for {
		select {
		case <-w.ticker.C:
			if !w.isShutdown() {
				w.runPeersOperation()
			}
		case <-w.peerSync:
			if !w.isShutdown() {
				w.runPeersOperation()
			}
		case <-w.shut:
			w.evHandler("worker: peerOperations: received shut signal")
			return
		}
	}
}

// runPeersOperation updates the peer list and replaces the local chain when
// a peer reports more accumulated difficulty.
func (w *Worker) runPeersOperation() {
	w.evHandler("worker: runPeersOperation: started")
	defer w.evHandler("worker: runPeersOperation: completed")

	ctx, cancel := w.shutContext()
	defer cancel()

	for _, pr := range w.state.RetrieveKnownPeers() {

		// Retrieve the status of this peer.
		peerStatus, err := w.state.NetRequestPeerStatus(ctx, pr)
		if err != nil {
			w.evHandler("worker: runPeersOperation: queryPeerStatus: %s: ERROR: %s", pr.Host, err)
			w.state.RemoveKnownPeer(pr)
			continue
		}

		// Add new peers to this nodes list.
		w.addNewPeers(peerStatus.KnownPeers)

		// Take the peer's chain if it carries more work than ours.
		w.syncChain(ctx, pr, peerStatus)
	}

	// Let the latest peers know this node is available to chat.
	w.state.NetSendNodeAvailableToPeers(ctx)
}

// syncChain requests the peer's chain and hands it to the state for the
// fork choice when the peer reports a heavier chain.
func (w *Worker) syncChain(ctx context.Context, pr peer.Peer, peerStatus peer.PeerStatus) {
	if !peerStatus.HasMoreWork(w.state.RetrieveAccumulatedDifficulty()) {
		return
	}

	w.evHandler("worker: syncChain: %s: latestBlk[%d]: work[%s]", pr.Host, peerStatus.LatestBlockIndex, peerStatus.AccumulatedDifficulty)

	chain, err := w.state.NetRequestPeerChain(ctx, pr)
	if err != nil {
		w.evHandler("worker: syncChain: retrievePeerChain: %s: ERROR: %s", pr.Host, err)
		return
	}

	if err := w.state.ReplaceChain(chain); err != nil {
		w.evHandler("worker: syncChain: replaceChain: %s: ERROR: %s", pr.Host, err)
		return
	}

	// Transactions left in the mempool were never mined on the new chain.
	w.SignalStartMining()
}

// addNewPeers takes the list of known peers and makes sure they are included
// in the nodes list of know peers.
func (w *Worker) addNewPeers(knownPeers []peer.Peer) {
	w.evHandler("worker: runPeerUpdatesOperation: addNewPeers: started")
	defer w.evHandler("worker: runPeerUpdatesOperation: addNewPeers: completed")

	for _, pr := range knownPeers {
		if w.state.AddKnownPeer(pr) {
			w.evHandler("worker: runPeerUpdatesOperation: addNewPeers: add peer nodes: adding peer-node %s", pr.Host)
		}
	}
}
