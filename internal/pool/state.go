package pool

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	bin "github.com/gagliardetto/binary"

	"github.com/lugondev/go-reserve/pkg/view"
)

// StateSize is the size of a pool state account: discriminator plus the Borsh body.
const StateSize = 8 + 1

// StateDiscriminator prefixes every pool state account.
var StateDiscriminator = accountDiscriminator("PoolState")

// State is the persisted pool record. IsInitialized is set once, when the pool is
// created, and never changes afterwards.
type State struct {
	IsInitialized bool
}

func accountDiscriminator(name string) [8]byte {
	sum := sha256.Sum256([]byte("account:" + name))
	var out [8]byte
	copy(out[:], sum[:8])
	return out
}

// EncodeState serializes s into its account layout.
func EncodeState(s State) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(StateDiscriminator[:])
	if err := bin.NewBorshEncoder(&buf).Encode(s); err != nil {
		return nil, fmt.Errorf("failed to encode pool state: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeState parses a pool state account.
func DecodeState(data []byte) (*State, error) {
	if len(data) < StateSize {
		return nil, fmt.Errorf("pool state too short: %d bytes", len(data))
	}
	v, err := view.NewDiscriminatedView(data)
	if err != nil {
		return nil, err
	}
	if !v.Is(StateDiscriminator) {
		disc := v.Discriminator()
		return nil, fmt.Errorf("account is not a pool state: discriminator %x", disc[:])
	}

	var s State
	if err := bin.NewBorshDecoder(v.Data()).Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode pool state: %w", err)
	}
	return &s, nil
}
