package wallet

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/ethereum/go-ethereum/crypto"
)

// DefaultKeyPath is where the node keeps its private key unless configured
// otherwise.
const DefaultKeyPath = "zblock/wallet/private_key"

// ErrNoKey is returned by a KeyStore that holds no private key.
var ErrNoKey = errors.New("no private key stored")

// KeyStore represents the behavior required to read and write the single
// private key of a wallet.
type KeyStore interface {
	Read() (*ecdsa.PrivateKey, error)
	Write(privateKey *ecdsa.PrivateKey) error
}

// =============================================================================

// FileStore keeps the private key as a hex encoded scalar in a file.
type FileStore struct {
	path string
}

// NewFileStore constructs a store for the key file at the path.
func NewFileStore(path string) *FileStore {
	if path == "" {
		path = DefaultKeyPath
	}

	return &FileStore{path: path}
}

// Path returns the location of the key file.
func (s *FileStore) Path() string {
	return s.path
}

// Read loads the private key from the file.
func (s *FileStore) Read() (*ecdsa.PrivateKey, error) {
	if _, err := os.Stat(s.path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoKey
		}
		return nil, err
	}

	privateKey, err := crypto.LoadECDSA(s.path)
	if err != nil {
		return nil, fmt.Errorf("load key %s: %w", s.path, err)
	}

	return privateKey, nil
}

// Write saves the private key to the file, creating the directory first.
func (s *FileStore) Write(privateKey *ecdsa.PrivateKey) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return err
	}

	return crypto.SaveECDSA(s.path, privateKey)
}

// Delete removes the key file if it exists.
func (s *FileStore) Delete() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	return nil
}

// =============================================================================

// MemoryStore keeps the private key in memory.
type MemoryStore struct {
	mu         sync.Mutex
	privateKey *ecdsa.PrivateKey
}

// NewMemoryStore constructs a store, optionally holding a key already.
func NewMemoryStore(privateKey *ecdsa.PrivateKey) *MemoryStore {
	return &MemoryStore{privateKey: privateKey}
}

// Read returns the stored private key.
func (ms *MemoryStore) Read() (*ecdsa.PrivateKey, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if ms.privateKey == nil {
		return nil, ErrNoKey
	}

	return ms.privateKey, nil
}

// Write stores the private key.
func (ms *MemoryStore) Write(privateKey *ecdsa.PrivateKey) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.privateKey = privateKey
	return nil
}
