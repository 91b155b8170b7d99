package leveldb_test

import (
	"testing"

	"github.com/ardanlabs/utxocoin/foundation/blockchain/database"
	"github.com/ardanlabs/utxocoin/foundation/blockchain/signature"
	"github.com/ardanlabs/utxocoin/foundation/blockchain/storage/leveldb"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_ReadWrite(t *testing.T) {
	t.Log("Given the need to store blocks in leveldb.")
	{
		db, err := leveldb.New(t.TempDir())
		if err != nil {
			t.Fatalf("\t%s\tShould be able to open the database: %v", failed, err)
		}
		defer db.Close()

		for i := uint64(1); i <= 3; i++ {
			bd := database.BlockData{Index: i, Timestamp: i, Hash: signature.Hash("block"), Transactions: []database.Tx{}}
			if err := db.Write(bd); err != nil {
				t.Fatalf("\t%s\tShould be able to write block %d: %v", failed, i, err)
			}
		}
		t.Logf("\t%s\tShould be able to write blocks.", success)

		var count uint64
		iter := db.ForEach()
		for bd, err := iter.Next(); !iter.Done(); bd, err = iter.Next() {
			if err != nil {
				t.Fatalf("\t%s\tShould be able to iterate: %v", failed, err)
			}
			count++
			if bd.Index != count {
				t.Fatalf("\t%s\tShould iterate in order, got %d, exp %d.", failed, bd.Index, count)
			}
		}

		if count != 3 {
			t.Fatalf("\t%s\tShould iterate over 3 blocks, got %d.", failed, count)
		}
		t.Logf("\t%s\tShould iterate over 3 blocks in order.", success)

		if err := db.Reset(); err != nil {
			t.Fatalf("\t%s\tShould be able to reset: %v", failed, err)
		}

		if _, err := db.GetBlock(1); err == nil {
			t.Fatalf("\t%s\tShould have no blocks after a reset.", failed)
		}
		t.Logf("\t%s\tShould have no blocks after a reset.", success)
	}
}
