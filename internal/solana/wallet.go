package solana

import (
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gagliardetto/solana-go"
)

// Wallet holds an ed25519 keypair. Keypair files use the Solana CLI layout: a JSON array
// of the 64 secret key bytes.
type Wallet struct {
	key solana.PrivateKey
}

// NewWallet generates a random keypair.
func NewWallet() *Wallet {
	return &Wallet{key: solana.NewWallet().PrivateKey}
}

// WalletFromBase58 parses a base58 secret key as printed by wallet export tools.
func WalletFromBase58(secret string) (*Wallet, error) {
	key, err := solana.PrivateKeyFromBase58(secret)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return newWallet(key)
}

// WalletFromFile reads a keypair file.
func WalletFromFile(path string) (*Wallet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keypair %s: %w", path, err)
	}
	key, err := parseKeypair(data)
	if err != nil {
		return nil, fmt.Errorf("keypair %s: %w", path, err)
	}
	return newWallet(key)
}

func newWallet(key solana.PrivateKey) (*Wallet, error) {
	if err := key.Validate(); err != nil {
		return nil, fmt.Errorf("invalid keypair: %w", err)
	}
	return &Wallet{key: key}, nil
}

func parseKeypair(data []byte) (solana.PrivateKey, error) {
	var values []uint8
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parse keypair: %w", err)
	}
	if len(values) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("invalid keypair size: expected %d, got %d", ed25519.PrivateKeySize, len(values))
	}
	return solana.PrivateKey(values), nil
}

// MarshalKeypair encodes the keypair in the CLI file layout.
func (w *Wallet) MarshalKeypair() ([]byte, error) {
	// []byte marshals as base64; the file layout wants numbers.
	values := make([]uint16, len(w.key))
	for i, b := range w.key {
		values[i] = uint16(b)
	}
	return json.Marshal(values)
}

// SaveToFile writes the keypair to path with owner-only permissions. It refuses to
// replace an existing file.
func (w *Wallet) SaveToFile(path string) error {
	data, err := w.MarshalKeypair()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create keypair directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("create keypair %s: %w", path, err)
	}
	_, err = f.Write(data)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write keypair %s: %w", path, err)
	}
	return nil
}

// Sign signs message with the wallet key.
func (w *Wallet) Sign(message []byte) (solana.Signature, error) {
	return w.key.Sign(message)
}

// Owns reports whether key is the wallet's public key.
func (w *Wallet) Owns(key solana.PublicKey) bool {
	return w.PublicKey().Equals(key)
}

func (w *Wallet) PublicKey() solana.PublicKey {
	return w.key.PublicKey()
}

func (w *Wallet) PrivateKey() solana.PrivateKey {
	return w.key
}

func (w *Wallet) String() string {
	return w.PublicKey().String()
}
