// Package peer maintains the peer related information such as the set
// of know peers and their status.
package peer

import (
	"math/big"
	"sort"
	"sync"
)

// Peer represents information about a Node in the network.
type Peer struct {
	Host string `json:"host"`
}

// New constructs a new info value.
func New(host string) Peer {
	return Peer{
		Host: host,
	}
}

// Match validates if the specified host matches this node.
func (p Peer) Match(host string) bool {
	return p.Host == host
}

// =============================================================================

// PeerStatus represents information about the status
// of any given peer.
type PeerStatus struct {
	LatestBlockHash       string `json:"latest_block_hash"`
	LatestBlockIndex      uint64 `json:"latest_block_index"`
	AccumulatedDifficulty string `json:"accumulated_difficulty"`
	MempoolLength         int    `json:"mempool_length"`
	KnownPeers            []Peer `json:"known_peers"`
}

// HasMoreWork reports if the peer's chain carries more accumulated
// difficulty than the specified amount. A malformed status never does.
func (ps PeerStatus) HasMoreWork(work *big.Int) bool {
	peerWork, ok := new(big.Int).SetString(ps.AccumulatedDifficulty, 10)
	if !ok {
		return false
	}

	return peerWork.Cmp(work) > 0
}

// =============================================================================

// PeerSet represents the data representation to maintain a set of known peers.
type PeerSet struct {
	mu  sync.RWMutex
	set map[Peer]struct{}
}

// NewPeerSet constructs a new info set to manage node peer information.
func NewPeerSet() *PeerSet {
	return &PeerSet{
		set: make(map[Peer]struct{}),
	}
}

// Add adds a new node to the set.
func (ps *PeerSet) Add(peer Peer) bool {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	_, exists := ps.set[peer]
	if !exists {
		ps.set[peer] = struct{}{}
		return true
	}

	return false
}

// Remove removes a node from the set.
func (ps *PeerSet) Remove(peer Peer) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	delete(ps.set, peer)
}

// Copy returns a list of the known peers, excluding the specified host,
// ordered by host.
func (ps *PeerSet) Copy(host string) []Peer {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	var peers []Peer
	for peer := range ps.set {
		if !peer.Match(host) {
			peers = append(peers, peer)
		}
	}

	sort.Slice(peers, func(i, j int) bool { return peers[i].Host < peers[j].Host })

	return peers
}
