package worker

import "context"

// Sync updates the peer list, mempool and chain. It runs once before the
// worker starts its goroutines.
func (w *Worker) Sync() {
	w.evHandler("worker: sync: started")
	defer w.evHandler("worker: sync: completed")

	ctx := context.Background()

	for _, pr := range w.state.RetrieveKnownPeers() {

		// Retrieve the status of this peer.
		peerStatus, err := w.state.NetRequestPeerStatus(ctx, pr)
		if err != nil {
			w.evHandler("worker: sync: queryPeerStatus: %s: ERROR: %s", pr.Host, err)
			continue
		}

		// Add new peers to this nodes list.
		w.addNewPeers(peerStatus.KnownPeers)

		// Take the peer's chain before its mempool so the transactions are
		// validated against the heaviest chain we know about.
		w.syncChain(ctx, pr, peerStatus)

		// Retrieve the mempool from the peer.
		pool, err := w.state.NetRequestPeerMempool(ctx, pr)
		if err != nil {
			w.evHandler("worker: sync: retrievePeerMempool: %s: ERROR: %s", pr.Host, err)
			continue
		}

		for _, tx := range pool {
			if err := w.state.UpsertNodeTransaction(tx); err != nil {
				w.evHandler("worker: sync: retrievePeerMempool: %s: skip tx[%s]: %s", pr.Host, tx, err)
				continue
			}
			w.evHandler("worker: sync: retrievePeerMempool: %s: added tx[%s]", pr.Host, tx)
		}
	}
}
