package worker

import "github.com/ardanlabs/utxocoin/foundation/blockchain/database"

// maxBlockShareRequests is the number of blocks waiting to be shared before
// new requests are dropped.
const maxBlockShareRequests = 10

// shareBlockOperations handles proposing new blocks to the network.
func (w *Worker) shareBlockOperations() {
	w.evHandler("worker: shareBlockOperations: G started")
	defer w.evHandler("worker: shareBlockOperations: G completed")

	for {
		select {
		case block := <-w.blockSharing:
			if !w.isShutdown() {
				w.runShareBlockOperation(block)
			}
		case <-w.shut:
			w.evHandler("worker: shareBlockOperations: received shut signal")
			return
		}
	}
}

// runShareBlockOperation proposes the block to the known peers. Peers that
// already hold the block reject it, which is logged and ignored.
func (w *Worker) runShareBlockOperation(block database.Block) {
	w.evHandler("worker: runShareBlockOperation: started: blk[%s]", block)
	defer w.evHandler("worker: runShareBlockOperation: completed")

	ctx, cancel := w.shutContext()
	defer cancel()

	if err := w.state.NetSendBlockToPeers(ctx, block); err != nil {
		w.evHandler("worker: runShareBlockOperation: WARNING: %s", err)
	}
}
