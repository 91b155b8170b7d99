package database_test

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/ardanlabs/utxocoin/foundation/blockchain/database"
	"github.com/ardanlabs/utxocoin/foundation/blockchain/genesis"
	"github.com/ardanlabs/utxocoin/foundation/blockchain/signature"
	"github.com/ardanlabs/utxocoin/foundation/blockchain/storage/memory"
	"github.com/ethereum/go-ethereum/crypto"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const (
	keyA = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	keyB = "8dc79feefd3b86e2f9991def0e5ccd9a5128e104682407b308594bc1032ac7f0"
)

// =============================================================================

func Test_Genesis(t *testing.T) {
	t.Log("Given the need to agree on the genesis block.")
	{
		gen := genesis.Default()
		block := database.GenesisBlock(gen)

		if hash := block.CalculateHash(); hash != gen.Hash {
			t.Logf("\t%s\tgot: %s", failed, hash)
			t.Logf("\t%s\texp: %s", failed, gen.Hash)
			t.Fatalf("\t%s\tShould calculate the pinned genesis hash.", failed)
		}
		t.Logf("\t%s\tShould calculate the pinned genesis hash.", success)

		if !database.IsGenesis(block, gen) {
			t.Fatalf("\t%s\tShould recognize the genesis block.", failed)
		}
		t.Logf("\t%s\tShould recognize the genesis block.", success)

		data := database.NewBlockData(block)
		data.Nonce = 1
		changed, err := database.ToBlock(data)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to convert block data: %v", failed, err)
		}

		if database.IsGenesis(changed, gen) {
			t.Fatalf("\t%s\tShould reject a changed genesis block.", failed)
		}
		t.Logf("\t%s\tShould reject a changed genesis block.", success)

		if err := database.ValidateChain([]database.Block{changed}, gen, time.Now(), nil); !errors.Is(err, database.ErrConsensus) {
			t.Fatalf("\t%s\tShould reject a chain with a changed genesis block: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject a chain with a changed genesis block.", success)
	}
}

func Test_Mining(t *testing.T) {
	type table struct {
		name       string
		difficulty uint32
	}

	tt := []table{
		{name: "zero", difficulty: 0},
		{name: "low", difficulty: 4},
		{name: "medium", difficulty: 10},
	}

	gen := genesis.Default()
	addrA := address(t, keyA)

	t.Log("Given the need to mine blocks.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen mining at difficulty %d.", testID, tst.difficulty)
			{
				f := func(t *testing.T) {
					prev := database.GenesisBlock(gen)

					args := database.FindArgs{
						Index:        1,
						PreviousHash: prev.Hash(),
						Timestamp:    uint64(time.Now().Unix()),
						Transactions: []database.Tx{database.NewCoinbaseTx(addrA, 1, gen.CoinbaseAmount)},
						Difficulty:   tst.difficulty,
					}

					block, err := database.FindBlock(context.Background(), args)
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to mine the block: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to mine the block.", success, testID)

					if !database.HashMatchesDifficulty(block.Hash(), tst.difficulty) {
						t.Fatalf("\t%s\tTest %d:\tShould have a hash matching the difficulty: %s", failed, testID, block.Hash())
					}
					t.Logf("\t%s\tTest %d:\tShould have a hash matching the difficulty.", success, testID)

					if err := block.ValidateBlock(prev, time.Now(), nil); err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould validate the mined block: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould validate the mined block.", success, testID)

					data := database.NewBlockData(block)
					data.Nonce++
					tampered, err := database.ToBlock(data)
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to convert block data: %v", failed, testID, err)
					}

					if err := tampered.ValidateBlock(prev, time.Now(), nil); !errors.Is(err, database.ErrConsensus) {
						t.Fatalf("\t%s\tTest %d:\tShould reject a tampered block: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould reject a tampered block.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func Test_MiningCancel(t *testing.T) {
	t.Log("Given the need to stop mining.")
	{
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		args := database.FindArgs{
			Index:        1,
			PreviousHash: genesis.Default().Hash,
			Timestamp:    uint64(time.Now().Unix()),
			Difficulty:   255,
		}

		_, err := database.FindBlock(ctx, args)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("\t%s\tShould stop with a cancelled context: %v", failed, err)
		}
		t.Logf("\t%s\tShould stop with a cancelled context.", success)
	}
}

func Test_ValidateBlock(t *testing.T) {
	gen := genesis.Default()
	prev := database.GenesisBlock(gen)
	now := time.Now()

	type table struct {
		name   string
		args   database.FindArgs
		forked bool
	}

	tt := []table{
		{
			name:   "index",
			args:   database.FindArgs{Index: 5, PreviousHash: prev.Hash(), Timestamp: uint64(now.Unix())},
			forked: true,
		},
		{
			name:   "previous",
			args:   database.FindArgs{Index: 1, PreviousHash: signature.Hash("other"), Timestamp: uint64(now.Unix())},
			forked: true,
		},
		{
			name: "past",
			args: database.FindArgs{Index: 1, PreviousHash: prev.Hash(), Timestamp: prev.Header.Timestamp - 60},
		},
		{
			name: "future",
			args: database.FindArgs{Index: 1, PreviousHash: prev.Hash(), Timestamp: uint64(now.Unix()) + 60},
		},
	}

	t.Log("Given the need to reject invalid blocks.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling a block with a bad %s.", testID, tst.name)
			{
				f := func(t *testing.T) {
					block, err := database.FindBlock(context.Background(), tst.args)
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to mine the block: %v", failed, testID, err)
					}

					err = block.ValidateBlock(prev, now, nil)
					if !errors.Is(err, database.ErrConsensus) {
						t.Fatalf("\t%s\tTest %d:\tShould get a consensus error: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould get a consensus error.", success, testID)

					if tst.forked != errors.Is(err, database.ErrChainForked) {
						t.Fatalf("\t%s\tTest %d:\tShould report a fork only when the block doesn't link: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould report a fork only when the block doesn't link.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func Test_Transactions(t *testing.T) {
	gen := genesis.Default()
	pkA := privateKey(t, keyA)
	pkB := privateKey(t, keyB)
	addrA := signature.PrivateKeyToAddress(pkA)
	addrB := signature.PrivateKeyToAddress(pkB)

	t.Log("Given the need to move coins between addresses.")
	{
		coinbase := database.NewCoinbaseTx(addrA, 1, gen.CoinbaseAmount)

		utxos, err := database.ProcessTransactions([]database.Tx{coinbase}, database.UTXOSet{}, 1, gen.CoinbaseAmount)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to process the coinbase: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to process the coinbase.", success)

		if bal := utxos.Balance(addrA); bal != 50 {
			t.Fatalf("\t%s\tShould have a balance of 50 for A, got %d.", failed, bal)
		}
		t.Logf("\t%s\tShould have a balance of 50 for A.", success)

		tx := spend(t, pkA, utxos, coinbase.ID, []database.TxOut{{Address: addrB, Amount: 20}, {Address: addrA, Amount: 30}})

		if _, err := database.SignTxIn(tx, 0, pkB, utxos); !errors.Is(err, database.ErrSignerMismatch) {
			t.Fatalf("\t%s\tShould not be able to sign with the wrong key: %v", failed, err)
		}
		t.Logf("\t%s\tShould not be able to sign with the wrong key.", success)

		if err := database.ValidateTransaction(tx, utxos); err != nil {
			t.Fatalf("\t%s\tShould validate the transaction: %v", failed, err)
		}
		t.Logf("\t%s\tShould validate the transaction.", success)

		txs := []database.Tx{database.NewCoinbaseTx(addrB, 2, gen.CoinbaseAmount), tx}
		next, err := database.ProcessTransactions(txs, utxos, 2, gen.CoinbaseAmount)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to process the block transactions: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to process the block transactions.", success)

		if a, b := next.Balance(addrA), next.Balance(addrB); a != 30 || b != 70 {
			t.Fatalf("\t%s\tShould have balances 30/70, got %d/%d.", failed, a, b)
		}
		t.Logf("\t%s\tShould have balances 30/70.", success)

		if total := next.Total(); total != 2*gen.CoinbaseAmount {
			t.Fatalf("\t%s\tShould conserve the minted coins, got %d.", failed, total)
		}
		t.Logf("\t%s\tShould conserve the minted coins.", success)

		if utxos.Balance(addrA) != 50 || utxos.Len() != 1 {
			t.Fatalf("\t%s\tShould leave the previous set untouched.", failed)
		}
		t.Logf("\t%s\tShould leave the previous set untouched.", success)

		if _, exists := next.Find(coinbase.ID, 0); exists {
			t.Fatalf("\t%s\tShould remove the spent output.", failed)
		}
		t.Logf("\t%s\tShould remove the spent output.", success)
	}
}

func Test_InvalidTransactions(t *testing.T) {
	gen := genesis.Default()
	pkA := privateKey(t, keyA)
	pkB := privateKey(t, keyB)
	addrA := signature.PrivateKeyToAddress(pkA)
	addrB := signature.PrivateKeyToAddress(pkB)

	coinbase := database.NewCoinbaseTx(addrA, 1, gen.CoinbaseAmount)
	utxos, err := database.ProcessTransactions([]database.Tx{coinbase}, database.UTXOSet{}, 1, gen.CoinbaseAmount)
	if err != nil {
		t.Fatalf("Should be able to process the coinbase: %v", err)
	}

	type table struct {
		name string
		txs  func() []database.Tx
	}

	tt := []table{
		{
			name: "double spend",
			txs: func() []database.Tx {
				tx1 := spend(t, pkA, utxos, coinbase.ID, []database.TxOut{{Address: addrB, Amount: 50}})
				tx2 := spend(t, pkA, utxos, coinbase.ID, []database.TxOut{{Address: addrB, Amount: 20}, {Address: addrA, Amount: 30}})
				return []database.Tx{database.NewCoinbaseTx(addrA, 2, gen.CoinbaseAmount), tx1, tx2}
			},
		},
		{
			name: "unbalanced",
			txs: func() []database.Tx {
				tx := spend(t, pkA, utxos, coinbase.ID, []database.TxOut{{Address: addrB, Amount: 20}, {Address: addrA, Amount: 40}})
				return []database.Tx{database.NewCoinbaseTx(addrA, 2, gen.CoinbaseAmount), tx}
			},
		},
		{
			name: "unknown output",
			txs: func() []database.Tx {
				tx := spend(t, pkA, utxos, coinbase.ID, []database.TxOut{{Address: addrB, Amount: 50}})
				tx.TxIns[0].TxOutIndex = 1
				tx.ID = database.TransactionID(tx)
				return []database.Tx{database.NewCoinbaseTx(addrA, 2, gen.CoinbaseAmount), tx}
			},
		},
		{
			name: "wrong signer",
			txs: func() []database.Tx {
				tx := spend(t, pkA, utxos, coinbase.ID, []database.TxOut{{Address: addrB, Amount: 50}})
				sig, err := signature.Sign(tx.ID, pkB)
				if err != nil {
					t.Fatalf("Should be able to sign: %v", err)
				}
				tx.TxIns[0].Signature = sig
				return []database.Tx{database.NewCoinbaseTx(addrA, 2, gen.CoinbaseAmount), tx}
			},
		},
		{
			name: "tampered id",
			txs: func() []database.Tx {
				tx := spend(t, pkA, utxos, coinbase.ID, []database.TxOut{{Address: addrB, Amount: 50}})
				tx.TxOuts[0].Address = addrA
				return []database.Tx{database.NewCoinbaseTx(addrA, 2, gen.CoinbaseAmount), tx}
			},
		},
		{
			name: "duplicate txIn",
			txs: func() []database.Tx {
				tx := spendTwice(t, pkA, utxos, coinbase.ID, []database.TxOut{{Address: addrB, Amount: 100}})
				return []database.Tx{database.NewCoinbaseTx(addrA, 2, gen.CoinbaseAmount), tx}
			},
		},
		{
			name: "coinbase claims an output",
			txs: func() []database.Tx {
				cb := database.NewCoinbaseTx(addrA, 2, gen.CoinbaseAmount)
				cb.TxIns[0].TxOutID = coinbase.ID
				cb.ID = database.TransactionID(cb)
				return []database.Tx{cb}
			},
		},
		{
			name: "coinbase reward",
			txs: func() []database.Tx {
				return []database.Tx{database.NewCoinbaseTx(addrA, 2, gen.CoinbaseAmount+1)}
			},
		},
		{
			name: "coinbase height",
			txs: func() []database.Tx {
				return []database.Tx{database.NewCoinbaseTx(addrA, 3, gen.CoinbaseAmount)}
			},
		},
		{
			name: "missing coinbase",
			txs: func() []database.Tx {
				return nil
			},
		},
	}

	t.Log("Given the need to reject invalid block transactions.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling a %s.", testID, tst.name)
			{
				f := func(t *testing.T) {
					_, err := database.ProcessTransactions(tst.txs(), utxos, 2, gen.CoinbaseAmount)
					if !errors.Is(err, database.ErrConsensus) {
						t.Fatalf("\t%s\tTest %d:\tShould get a consensus error: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould get a consensus error.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func Test_HashMatchesDifficulty(t *testing.T) {
	type table struct {
		hash       string
		difficulty uint32
		exp        bool
	}

	hash := "00f" + signature.Hash("x")[3:]

	tt := []table{
		{hash: hash, difficulty: 0, exp: true},
		{hash: hash, difficulty: 8, exp: true},
		{hash: hash, difficulty: 9, exp: false},
		{hash: "1" + hash[1:], difficulty: 4, exp: false},
		{hash: "7" + hash[1:], difficulty: 1, exp: true},
		{hash: hash, difficulty: 257, exp: false},
		{hash: "zz", difficulty: 0, exp: false},
	}

	t.Log("Given the need to check the proof of work.")
	{
		for testID, tst := range tt {
			if got := database.HashMatchesDifficulty(tst.hash, tst.difficulty); got != tst.exp {
				t.Errorf("\t%s\tTest %d:\tShould get %v for %.8s at difficulty %d.", failed, testID, tst.exp, tst.hash, tst.difficulty)
				continue
			}
			t.Logf("\t%s\tTest %d:\tShould get %v for %.8s at difficulty %d.", success, testID, tst.exp, tst.hash, tst.difficulty)
		}
	}
}

func Test_NextDifficulty(t *testing.T) {
	gen := genesis.Default()

	type table struct {
		name       string
		blocks     int
		difficulty uint32
		spacing    uint64
		exp        uint32
	}

	tt := []table{
		{name: "inherit", blocks: 15, difficulty: 3, spacing: 1, exp: 3},
		{name: "increase", blocks: 21, difficulty: 3, spacing: 1, exp: 4},
		{name: "keep", blocks: 21, difficulty: 3, spacing: 10, exp: 3},
		{name: "decrease", blocks: 21, difficulty: 3, spacing: 30, exp: 2},
		{name: "floor", blocks: 21, difficulty: 0, spacing: 30, exp: 0},
	}

	t.Log("Given the need to retarget the difficulty.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen blocks arrive every %d seconds.", testID, tst.spacing)
			{
				f := func(t *testing.T) {
					chain := syntheticChain(t, tst.blocks, tst.difficulty, tst.spacing)

					if got := database.NextDifficulty(chain, gen); got != tst.exp {
						t.Fatalf("\t%s\tTest %d:\tShould get difficulty %d, got %d.", failed, testID, tst.exp, got)
					}
					t.Logf("\t%s\tTest %d:\tShould get difficulty %d.", success, testID, tst.exp)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func Test_AccumulatedDifficulty(t *testing.T) {
	t.Log("Given the need to measure the work of a chain.")
	{
		chain := syntheticChain(t, 3, 0, 1)
		for i := range chain {
			data := database.NewBlockData(chain[i])
			data.Difficulty = uint32(i)
			block, err := database.ToBlock(data)
			if err != nil {
				t.Fatalf("\t%s\tShould be able to convert block data: %v", failed, err)
			}
			chain[i] = block
		}

		if got := database.AccumulatedDifficulty(chain); got.Int64() != 7 {
			t.Fatalf("\t%s\tShould get 1+2+4, got %s.", failed, got)
		}
		t.Logf("\t%s\tShould get 1+2+4.", success)
	}
}

func Test_Database(t *testing.T) {
	gen := genesis.Default()
	pkA := privateKey(t, keyA)
	addrA := signature.PrivateKeyToAddress(pkA)
	addrB := address(t, keyB)

	t.Log("Given the need to persist and reload the chain.")
	{
		storage, err := memory.New()
		if err != nil {
			t.Fatalf("\t%s\tShould be able to open storage: %v", failed, err)
		}

		db, err := database.New(gen, storage, nil)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to open the database: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to open the database.", success)

		if db.LatestBlock().Hash() != gen.Hash {
			t.Fatalf("\t%s\tShould start with the genesis block.", failed)
		}
		t.Logf("\t%s\tShould start with the genesis block.", success)

		block1, utxos := appendBlock(t, db, []database.Tx{database.NewCoinbaseTx(addrA, 1, gen.CoinbaseAmount)})

		tx := spend(t, pkA, utxos, block1.Transactions[0].ID, []database.TxOut{{Address: addrB, Amount: 20}, {Address: addrA, Amount: 30}})
		appendBlock(t, db, []database.Tx{database.NewCoinbaseTx(addrA, 2, gen.CoinbaseAmount), tx})

		reloaded, err := database.New(gen, storage, nil)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to reload the database: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to reload the database.", success)

		if got, exp := reloaded.LatestBlock().Hash(), db.LatestBlock().Hash(); got != exp {
			t.Fatalf("\t%s\tShould reload the same tip, got %.16s, exp %.16s.", failed, got, exp)
		}
		t.Logf("\t%s\tShould reload the same tip.", success)

		utxos = reloaded.UTXOs()
		if a, b := utxos.Balance(addrA), utxos.Balance(addrB); a != 80 || b != 20 {
			t.Fatalf("\t%s\tShould rebuild the balances 80/20, got %d/%d.", failed, a, b)
		}
		t.Logf("\t%s\tShould rebuild the balances 80/20.", success)

		found, block, err := reloaded.GetTransaction(tx.ID)
		if err != nil || found.ID != tx.ID || block.Header.Index != 2 {
			t.Fatalf("\t%s\tShould locate the mined transaction: %v", failed, err)
		}
		t.Logf("\t%s\tShould locate the mined transaction.", success)

		if _, err := reloaded.GetBlock(99); !errors.Is(err, database.ErrNotFound) {
			t.Fatalf("\t%s\tShould not find a block past the tip: %v", failed, err)
		}
		t.Logf("\t%s\tShould not find a block past the tip.", success)

		if err := reloaded.Replace(reloaded.CopyChain()[:2], utxos); err != nil {
			t.Fatalf("\t%s\tShould be able to replace the chain: %v", failed, err)
		}

		if _, err := storage.GetBlock(2); err == nil {
			t.Fatalf("\t%s\tShould drop the replaced blocks from storage.", failed)
		}
		t.Logf("\t%s\tShould drop the replaced blocks from storage.", success)
	}
}

func Test_ReplaceWriteFailure(t *testing.T) {
	gen := genesis.Default()
	addrA := address(t, keyA)
	addrB := address(t, keyB)

	t.Log("Given the need to keep storage intact when a replacement fails.")
	{
		storage, err := memory.New()
		if err != nil {
			t.Fatalf("\t%s\tShould be able to open storage: %v", failed, err)
		}
		faulty := &failingStorage{Memory: storage}

		db, err := database.New(gen, faulty, nil)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to open the database: %v", failed, err)
		}

		for i := uint64(1); i <= 2; i++ {
			appendBlock(t, db, []database.Tx{database.NewCoinbaseTx(addrA, i, gen.CoinbaseAmount)})
		}
		tip := db.LatestBlock().Hash()

		other, err := memory.New()
		if err != nil {
			t.Fatalf("\t%s\tShould be able to open storage: %v", failed, err)
		}

		candidate, err := database.New(gen, other, nil)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to open the database: %v", failed, err)
		}

		for i := uint64(1); i <= 3; i++ {
			appendBlock(t, candidate, []database.Tx{database.NewCoinbaseTx(addrB, i, gen.CoinbaseAmount)})
		}

		faulty.failAt = 3
		if err := db.Replace(candidate.CopyChain(), candidate.UTXOs()); err == nil {
			t.Fatalf("\t%s\tShould fail to replace the chain.", failed)
		}
		t.Logf("\t%s\tShould fail to replace the chain.", success)

		if db.LatestBlock().Hash() != tip {
			t.Fatalf("\t%s\tShould keep the current tip in memory.", failed)
		}
		t.Logf("\t%s\tShould keep the current tip in memory.", success)

		reloaded, err := database.New(gen, storage, nil)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to reload the current chain: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to reload the current chain.", success)

		if reloaded.LatestBlock().Hash() != tip {
			t.Fatalf("\t%s\tShould reload the current tip.", failed)
		}
		t.Logf("\t%s\tShould reload the current tip.", success)
	}
}

func Test_DuplicateTxIn(t *testing.T) {
	gen := genesis.Default()
	pkA := privateKey(t, keyA)
	addrA := signature.PrivateKeyToAddress(pkA)
	addrB := address(t, keyB)

	coinbase := database.NewCoinbaseTx(addrA, 1, gen.CoinbaseAmount)
	utxos, err := database.ProcessTransactions([]database.Tx{coinbase}, database.UTXOSet{}, 1, gen.CoinbaseAmount)
	if err != nil {
		t.Fatalf("Should be able to process the coinbase: %v", err)
	}

	t.Log("Given the need to count every output only once.")
	{
		tx := spendTwice(t, pkA, utxos, coinbase.ID, []database.TxOut{{Address: addrB, Amount: 100}})

		if err := database.ValidateTransaction(tx, utxos); !errors.Is(err, database.ErrConsensus) {
			t.Fatalf("\t%s\tShould reject a transaction spending the same output twice: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject a transaction spending the same output twice.", success)
	}
}

func Test_CoinbaseClaimsOutput(t *testing.T) {
	gen := genesis.Default()
	pkA := privateKey(t, keyA)
	addrA := signature.PrivateKeyToAddress(pkA)
	addrB := address(t, keyB)

	coinbase := database.NewCoinbaseTx(addrA, 1, gen.CoinbaseAmount)
	utxos, err := database.ProcessTransactions([]database.Tx{coinbase}, database.UTXOSet{}, 1, gen.CoinbaseAmount)
	if err != nil {
		t.Fatalf("Should be able to process the coinbase: %v", err)
	}

	// Split the reward so an output of B sits at the index of the next block.
	outs := make([]database.TxOut, 5)
	for i := range outs {
		outs[i] = database.TxOut{Address: addrB, Amount: 10}
	}
	pay := spend(t, pkA, utxos, coinbase.ID, outs)

	utxos, err = database.ProcessTransactions([]database.Tx{database.NewCoinbaseTx(addrA, 2, gen.CoinbaseAmount), pay}, utxos, 2, gen.CoinbaseAmount)
	if err != nil {
		t.Fatalf("Should be able to process the payment: %v", err)
	}

	t.Log("Given the need to protect outputs from the coinbase.")
	{
		cb := database.NewCoinbaseTx(addrA, 3, gen.CoinbaseAmount)
		cb.TxIns[0].TxOutID = pay.ID
		cb.ID = database.TransactionID(cb)

		if _, err := database.ProcessTransactions([]database.Tx{cb}, utxos, 3, gen.CoinbaseAmount); !errors.Is(err, database.ErrConsensus) {
			t.Fatalf("\t%s\tShould reject a coinbase referencing an output: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject a coinbase referencing an output.", success)

		if bal := utxos.Balance(addrB); bal != 50 {
			t.Fatalf("\t%s\tShould keep the balance of B at 50, got %d.", failed, bal)
		}
		t.Logf("\t%s\tShould keep the balance of B at 50.", success)
	}
}

// =============================================================================

func privateKey(t *testing.T, hexKey string) *ecdsa.PrivateKey {
	pk, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		t.Fatalf("Should be able to load the private key: %v", err)
	}

	return pk
}

func address(t *testing.T, hexKey string) string {
	return signature.PrivateKeyToAddress(privateKey(t, hexKey))
}

// spend builds and signs a transaction spending output 0 of txOutID.
func spend(t *testing.T, pk *ecdsa.PrivateKey, utxos database.UTXOSet, txOutID string, outs []database.TxOut) database.Tx {
	tx, err := database.NewTx([]database.TxIn{{TxOutID: txOutID, TxOutIndex: 0}}, outs)
	if err != nil {
		t.Fatalf("Should be able to build the transaction: %v", err)
	}

	sig, err := database.SignTxIn(tx, 0, pk, utxos)
	if err != nil {
		t.Fatalf("Should be able to sign the transaction: %v", err)
	}
	tx.TxIns[0].Signature = sig

	return tx
}

// failingStorage fails to write the block at index failAt.
type failingStorage struct {
	*memory.Memory
	failAt uint64
}

func (fs *failingStorage) Write(blockData database.BlockData) error {
	if fs.failAt != 0 && blockData.Index == fs.failAt {
		return errors.New("disk full")
	}
	return fs.Memory.Write(blockData)
}

// spendTwice builds and signs a transaction listing output 0 of txOutID as
// both of its inputs.
func spendTwice(t *testing.T, pk *ecdsa.PrivateKey, utxos database.UTXOSet, txOutID string, outs []database.TxOut) database.Tx {
	in := database.TxIn{TxOutID: txOutID, TxOutIndex: 0}

	tx, err := database.NewTx([]database.TxIn{in, in}, outs)
	if err != nil {
		t.Fatalf("Should be able to build the transaction: %v", err)
	}

	for i := range tx.TxIns {
		sig, err := database.SignTxIn(tx, i, pk, utxos)
		if err != nil {
			t.Fatalf("Should be able to sign the transaction: %v", err)
		}
		tx.TxIns[i].Signature = sig
	}

	return tx
}

// appendBlock mines the transactions on top of the database tip.
func appendBlock(t *testing.T, db *database.Database, txs []database.Tx) (database.Block, database.UTXOSet) {
	prev, difficulty, utxos := db.Snapshot()

	args := database.FindArgs{
		Index:        prev.Header.Index + 1,
		PreviousHash: prev.Hash(),
		Timestamp:    uint64(time.Now().Unix()),
		Transactions: txs,
		Difficulty:   difficulty,
	}

	block, err := database.FindBlock(context.Background(), args)
	if err != nil {
		t.Fatalf("Should be able to mine the block: %v", err)
	}

	if err := block.ValidateBlock(prev, time.Now(), nil); err != nil {
		t.Fatalf("Should validate the block: %v", err)
	}

	next, err := database.ProcessTransactions(txs, utxos, block.Header.Index, db.Genesis().CoinbaseAmount)
	if err != nil {
		t.Fatalf("Should be able to process the transactions: %v", err)
	}

	if err := db.Append(block, next); err != nil {
		t.Fatalf("Should be able to append the block: %v", err)
	}

	return block, next
}

// syntheticChain builds blocks with fixed spacing that only carry headers.
func syntheticChain(t *testing.T, blocks int, difficulty uint32, spacing uint64) []database.Block {
	chain := make([]database.Block, blocks)
	for i := range chain {
		data := database.BlockData{
			Index:      uint64(i),
			Timestamp:  1_000_000 + uint64(i)*spacing,
			Difficulty: difficulty,
			Hash:       signature.Hash(strconv.Itoa(i)),
		}
		if i > 0 {
			data.PreviousHash = chain[i-1].Hash()
		}

		block, err := database.ToBlock(data)
		if err != nil {
			t.Fatalf("Should be able to build block %d: %v", i, err)
		}
		chain[i] = block
	}

	return chain
}
