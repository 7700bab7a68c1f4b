package ledger

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/lugondev/go-reserve/pkg/buffer"
)

// Account is the state stored at one address.
type Account struct {
	// Lamports is the native balance of the account.
	Lamports uint64

	// Owner is the program allowed to modify Data and debit Lamports.
	Owner solana.PublicKey

	// Data is the program-defined payload.
	Data []byte
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() *Account {
	return &Account{
		Lamports: a.Lamports,
		Owner:    a.Owner,
		Data:     bytes.Clone(a.Data),
	}
}

// IsSystemOwned reports whether the account is a plain wallet.
func (a *Account) IsSystemOwned() bool {
	return a.Owner.Equals(solana.SystemProgramID)
}

func encodeAccount(a *Account) ([]byte, error) {
	raw, err := buffer.Encode(func(buf *bytes.Buffer) error {
		return bin.NewBorshEncoder(buf).Encode(a)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode account: %w", err)
	}
	return raw, nil
}

func decodeAccount(raw []byte) (*Account, error) {
	var a Account
	if err := bin.NewBorshDecoder(raw).Decode(&a); err != nil {
		return nil, fmt.Errorf("failed to decode account: %w", err)
	}
	return &a, nil
}
