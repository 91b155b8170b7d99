// Package signature provides helper functions for handling the blockchain
// hashing and signature needs.
package signature

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secp "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/ethereum/go-ethereum/crypto"
)

// AddressLength is the number of hex characters in an address. An address
// is an uncompressed secp256k1 public key: the 04 marker followed by the
// 32 byte X and Y coordinates.
const AddressLength = 130

// HashLength is the number of hex characters in a hash.
const HashLength = 64

// addressPrefix marks an uncompressed public key.
const addressPrefix = "04"

// ErrInvalidSignature is returned when a signature can't be parsed or
// doesn't verify against the public key and data.
var ErrInvalidSignature = errors.New("invalid signature")

// =============================================================================

// Hash returns the hex encoded SHA-256 digest of the preimage.
func Hash(preimage string) string {
	hash := sha256.Sum256([]byte(preimage))
	return hex.EncodeToString(hash[:])
}

// IsHash checks the value is a hex encoded 32 byte digest.
func IsHash(value string) bool {
	if len(value) != HashLength {
		return false
	}

	return isHex(value)
}

// =============================================================================

// PublicKeyToAddress converts the public key into the address format used
// by the blockchain.
func PublicKeyToAddress(publicKey ecdsa.PublicKey) string {
	return hex.EncodeToString(crypto.FromECDSAPub(&publicKey))
}

// PrivateKeyToAddress derives the address owned by the private key.
func PrivateKeyToAddress(privateKey *ecdsa.PrivateKey) string {
	return PublicKeyToAddress(privateKey.PublicKey)
}

// PrivateKeyToHex returns the private key scalar as hex.
func PrivateKeyToHex(privateKey *ecdsa.PrivateKey) string {
	return hex.EncodeToString(crypto.FromECDSA(privateKey))
}

// IsAddress checks the shape of an address. It must be 130 hex characters
// and begin with 04. The point itself is checked when a signature is verified.
func IsAddress(address string) bool {
	if len(address) != AddressLength {
		return false
	}

	if !strings.HasPrefix(address, addressPrefix) {
		return false
	}

	return isHex(address)
}

// AddressToPublicKey converts an address back into the public key.
func AddressToPublicKey(address string) (*ecdsa.PublicKey, error) {
	if !IsAddress(address) {
		return nil, fmt.Errorf("address is not properly formatted: %.16s", address)
	}

	data, err := hex.DecodeString(address)
	if err != nil {
		return nil, err
	}

	return crypto.UnmarshalPubkey(data)
}

// =============================================================================

// Sign produces a DER encoded ECDSA signature, as hex, over the bytes
// represented by the hex encoded hash.
func Sign(hash string, privateKey *ecdsa.PrivateKey) (string, error) {
	data, err := hashBytes(hash)
	if err != nil {
		return "", err
	}

	key := secp256k1.PrivKeyFromBytes(crypto.FromECDSA(privateKey))
	defer key.Zero()

	sig := secp.Sign(key, data)

	return hex.EncodeToString(sig.Serialize()), nil
}

// Verify checks the DER encoded signature was produced over the hash by the
// private key that owns the address.
func Verify(address string, hash string, signature string) error {
	if !IsAddress(address) {
		return fmt.Errorf("address is not properly formatted: %.16s", address)
	}

	data, err := hashBytes(hash)
	if err != nil {
		return err
	}

	pubBytes, err := hex.DecodeString(address)
	if err != nil {
		return err
	}

	publicKey, err := secp256k1.ParsePubKey(pubBytes)
	if err != nil {
		return fmt.Errorf("parsing public key: %w", err)
	}

	sigBytes, err := hex.DecodeString(signature)
	if err != nil {
		return fmt.Errorf("%w: not hex", ErrInvalidSignature)
	}

	sig, err := secp.ParseDERSignature(sigBytes)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidSignature, err)
	}

	if !sig.Verify(data, publicKey) {
		return ErrInvalidSignature
	}

	return nil
}

// =============================================================================

// hashBytes decodes the hex hash that is the message being signed.
func hashBytes(hash string) ([]byte, error) {
	if !IsHash(hash) {
		return nil, fmt.Errorf("hash is not properly formatted: %q", hash)
	}

	return hex.DecodeString(hash)
}

// isHex reports if every character is a hex digit in either case.
func isHex(value string) bool {
	for _, c := range value {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}

	return true
}
