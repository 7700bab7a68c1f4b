// Package view provides zero-copy read access to account layouts. A view never copies
// its buffer; it stays valid only as long as the buffer is not modified.
package view

import (
	"encoding/binary"
	"errors"
	"unsafe"

	"github.com/gagliardetto/solana-go"
)

var (
	ErrInvalidBuffer      = errors.New("invalid buffer size")
	ErrInvalidAccountData = errors.New("invalid account data")
)

// Sizes of the SPL token layouts.
const (
	MintSize         = 82
	TokenAccountSize = 165
)

func pubkeyAt(buf []byte, offset int) solana.PublicKey {
	return *(*solana.PublicKey)(unsafe.Pointer(&buf[offset]))
}

// optionalPubkeyAt reads a COption<Pubkey>: a 4-byte tag followed by the key.
func optionalPubkeyAt(buf []byte, offset int) (solana.PublicKey, bool) {
	if binary.LittleEndian.Uint32(buf[offset:offset+4]) == 0 {
		return solana.PublicKey{}, false
	}
	return pubkeyAt(buf, offset+4), true
}

// MintView reads an SPL mint.
type MintView struct {
	buffer []byte
}

func NewMintView(buffer []byte) (*MintView, error) {
	if len(buffer) < MintSize {
		return nil, ErrInvalidBuffer
	}
	return &MintView{buffer: buffer}, nil
}

func (v *MintView) MintAuthority() (solana.PublicKey, bool) {
	return optionalPubkeyAt(v.buffer, 0)
}

func (v *MintView) Supply() uint64 {
	return binary.LittleEndian.Uint64(v.buffer[36:44])
}

func (v *MintView) Decimals() uint8 {
	return v.buffer[44]
}

func (v *MintView) IsInitialized() bool {
	return v.buffer[45] != 0
}

func (v *MintView) FreezeAuthority() (solana.PublicKey, bool) {
	return optionalPubkeyAt(v.buffer, 46)
}

// TokenAccountView reads an SPL token account.
type TokenAccountView struct {
	buffer []byte
}

func NewTokenAccountView(buffer []byte) (*TokenAccountView, error) {
	if len(buffer) < TokenAccountSize {
		return nil, ErrInvalidBuffer
	}
	if buffer[108] == 0 {
		return nil, ErrInvalidAccountData
	}
	return &TokenAccountView{buffer: buffer}, nil
}

func (v *TokenAccountView) Mint() solana.PublicKey {
	return pubkeyAt(v.buffer, 0)
}

func (v *TokenAccountView) Owner() solana.PublicKey {
	return pubkeyAt(v.buffer, 32)
}

func (v *TokenAccountView) Amount() uint64 {
	return binary.LittleEndian.Uint64(v.buffer[64:72])
}

func (v *TokenAccountView) Delegate() (solana.PublicKey, bool) {
	return optionalPubkeyAt(v.buffer, 72)
}

// IsFrozen reports the frozen account state (2).
func (v *TokenAccountView) IsFrozen() bool {
	return v.buffer[108] == 2
}

func (v *TokenAccountView) DelegatedAmount() uint64 {
	return binary.LittleEndian.Uint64(v.buffer[121:129])
}

func (v *TokenAccountView) CloseAuthority() (solana.PublicKey, bool) {
	return optionalPubkeyAt(v.buffer, 129)
}

// DiscriminatedView splits a record into its 8-byte discriminator and body.
type DiscriminatedView struct {
	buffer        []byte
	discriminator [8]byte
}

func NewDiscriminatedView(buffer []byte) (*DiscriminatedView, error) {
	if len(buffer) < 8 {
		return nil, ErrInvalidBuffer
	}

	var disc [8]byte
	copy(disc[:], buffer[:8])

	return &DiscriminatedView{
		buffer:        buffer,
		discriminator: disc,
	}, nil
}

func (v *DiscriminatedView) Discriminator() [8]byte {
	return v.discriminator
}

// Is reports whether the record carries discriminator disc.
func (v *DiscriminatedView) Is(disc [8]byte) bool {
	return v.discriminator == disc
}

func (v *DiscriminatedView) Data() []byte {
	if len(v.buffer) <= 8 {
		return nil
	}
	return v.buffer[8:]
}

func (v *DiscriminatedView) FullData() []byte {
	return v.buffer
}
