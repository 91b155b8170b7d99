// Package state is the core API for the blockchain and implements all the
// business rules and processing.
package state

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ardanlabs/utxocoin/foundation/blockchain/database"
	"github.com/ardanlabs/utxocoin/foundation/blockchain/genesis"
	"github.com/ardanlabs/utxocoin/foundation/blockchain/mempool"
	"github.com/ardanlabs/utxocoin/foundation/blockchain/peer"
	"github.com/ardanlabs/utxocoin/foundation/blockchain/wallet"
	"github.com/go-resty/resty/v2"
)

// EventHandler defines a function that is called when events
// occur in the processing of persisting blocks.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for mining, peer updates, and transaction sharing.
type Worker interface {
	Shutdown()
	SignalStartMining()
	SignalShareTx(tx database.Tx)
	SignalShareBlock(block database.Block)
	SignalPeerSync()
}

// =============================================================================

// Config represents the configuration required to start
// the blockchain node.
type Config struct {
	Host       string
	Genesis    genesis.Genesis
	Storage    database.Storage
	KeyStore   wallet.KeyStore
	KnownPeers *peer.PeerSet
	AutoMine   bool
	EvHandler  EventHandler
}

// State manages the blockchain database. It's the single owner of the
// chain, the set of unspent outputs and the mempool. Every change to them
// is serialized by mu.
type State struct {
	mu sync.RWMutex

	host       string
	autoMine   bool
	evHandler  EventHandler
	knownPeers *peer.PeerSet
	genesis    genesis.Genesis
	wallet     *wallet.Wallet
	mempool    *mempool.Mempool
	db         *database.Database
	client     *resty.Client

	// difficultyFloor raises the difficulty blocks are mined at. Blocks
	// declare their own difficulty so peers accept them as usual.
	difficultyFloor uint32

	miningMu sync.Mutex
	miningID uint64
	mining   map[uint64]context.CancelFunc

	Worker Worker
}

// New constructs a new blockchain for data management.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	// Load the private key for the miner, creating one on first run.
	wal, err := wallet.Init(cfg.KeyStore)
	if err != nil {
		return nil, fmt.Errorf("init wallet: %w", err)
	}

	// Load and validate the blocks already in storage.
	db, err := database.New(cfg.Genesis, cfg.Storage, ev)
	if err != nil {
		return nil, err
	}

	knownPeers := cfg.KnownPeers
	if knownPeers == nil {
		knownPeers = peer.NewPeerSet()
	}

	state := State{
		host:       cfg.Host,
		autoMine:   cfg.AutoMine,
		evHandler:  ev,
		knownPeers: knownPeers,
		genesis:    cfg.Genesis,
		wallet:     wal,
		mempool:    mempool.New(),
		db:         db,
		client:     resty.New().SetTimeout(10 * time.Second),
		mining:     make(map[uint64]context.CancelFunc),

		// The worker.Run call replaces this worker and starts
		// everything up and running for the node.
		Worker: nopWorker{},
	}

	ev("state: New: address[%.16s]: latestBlock[%s]", wal.Address(), db.LatestBlock())

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {
	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	// Make sure the database file is properly closed.
	defer func() {
		s.db.Close()
	}()

	// Stop all blockchain writing activity.
	s.Worker.Shutdown()
	s.cancelMining()

	return nil
}

// IsMiningAllowed reports if the node mines pending transactions on its own.
func (s *State) IsMiningAllowed() bool {
	return s.autoMine
}

// =============================================================================

// miningContext derives a context for a mining operation that is cancelled
// when the tip of the chain changes. The returned function must be called
// once mining is over.
func (s *State) miningContext(ctx context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)

	s.miningMu.Lock()
	id := s.miningID
	s.miningID++
	s.mining[id] = cancel
	s.miningMu.Unlock()

	done := func() {
		s.miningMu.Lock()
		delete(s.mining, id)
		s.miningMu.Unlock()

		cancel()
	}

	return ctx, done
}

// cancelMining stops every mining operation in flight.
func (s *State) cancelMining() {
	s.miningMu.Lock()
	defer s.miningMu.Unlock()

	if len(s.mining) > 0 {
		s.evHandler("state: cancelMining: MINING: CANCEL: operations[%d]", len(s.mining))
	}

	for _, cancel := range s.mining {
		cancel()
	}
}

// =============================================================================

// nopWorker is used until a worker registers itself.
type nopWorker struct{}

func (nopWorker) Shutdown()                       {}
func (nopWorker) SignalStartMining()              {}
func (nopWorker) SignalShareTx(tx database.Tx)    {}
func (nopWorker) SignalShareBlock(database.Block) {}
func (nopWorker) SignalPeerSync()                 {}
