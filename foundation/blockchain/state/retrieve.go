package state

import (
	"github.com/ardanlabs/utxocoin/foundation/blockchain/genesis"
	"github.com/ardanlabs/utxocoin/foundation/blockchain/peer"
)

// RetrieveHost returns a copy of host information.
func (s *State) RetrieveHost() string {
	return s.host
}

// RetrieveGenesis returns a copy of the genesis information.
func (s *State) RetrieveGenesis() genesis.Genesis {
	return s.genesis
}

// RetrieveAddress returns the address of the node's wallet.
func (s *State) RetrieveAddress() string {
	return s.wallet.Address()
}

// RetrieveKnownPeers retrieves a copy of the known peer list.
func (s *State) RetrieveKnownPeers() []peer.Peer {
	return s.knownPeers.Copy(s.host)
}

// RetrievePeerStatus returns the status this node reports to its peers.
func (s *State) RetrievePeerStatus() peer.PeerStatus {
	latest := s.db.LatestBlock()

	return peer.PeerStatus{
		LatestBlockHash:       latest.Hash(),
		LatestBlockIndex:      latest.Header.Index,
		AccumulatedDifficulty: s.db.AccumulatedDifficulty().String(),
		MempoolLength:         s.mempool.Count(),
		KnownPeers:            s.RetrieveKnownPeers(),
	}
}
