// Package derive maps (seed label, parent address) pairs to program-derived addresses.
//
// Every account the reserve program controls lives at an address computed from a fixed
// seed label, the address of its parent and the program id. The bump byte found while
// searching for an off-curve address is the disambiguating nonce; it is recorded in a
// Registry so the seed path of any derived address can be recovered later, and it is
// what lets the program re-create the address when it co-signs for it.
package derive

import (
	"fmt"
	"sort"
	"sync"

	"github.com/gagliardetto/solana-go"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Seed labels used by the reserve program.
const (
	LabelPoolState  = "pool_state"
	LabelAuthority  = "authority"
	LabelBaseVault  = "vault0"
	LabelQuoteVault = "vault1"
	LabelShareMint  = "pool_mint"
)

// DefaultCacheSize is used when a Deriver is created with a non-positive cache size.
const DefaultCacheSize = 1024

// Address is a derived address together with the seed path that produced it.
type Address struct {
	Label  string           `json:"label" yaml:"label"`
	Parent solana.PublicKey `json:"parent" yaml:"parent"`
	Key    solana.PublicKey `json:"address" yaml:"address"`
	Bump   uint8            `json:"bump" yaml:"bump"`
}

// Seeds returns the seeds that re-create the address with CreateProgramAddress.
func (a Address) Seeds() [][]byte {
	return [][]byte{[]byte(a.Label), a.Parent[:], {a.Bump}}
}

type cacheKey struct {
	label  string
	parent solana.PublicKey
}

// Deriver derives addresses under one program id.
type Deriver struct {
	programID solana.PublicKey
	cache     *lru.Cache[cacheKey, Address]
	registry  *Registry
}

// NewDeriver creates a Deriver for programID with an LRU cache of cacheSize entries.
func NewDeriver(programID solana.PublicKey, cacheSize int) (*Deriver, error) {
	if programID.IsZero() {
		return nil, fmt.Errorf("program id is required")
	}
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}

	cache, err := lru.New[cacheKey, Address](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create address cache: %w", err)
	}

	return &Deriver{
		programID: programID,
		cache:     cache,
		registry:  NewRegistry(),
	}, nil
}

// ProgramID returns the program the addresses are derived under.
func (d *Deriver) ProgramID() solana.PublicKey {
	return d.programID
}

// Registry returns the side table of every address this Deriver produced.
func (d *Deriver) Registry() *Registry {
	return d.registry
}

// Derive returns the program-derived address for label under parent.
func (d *Deriver) Derive(label string, parent solana.PublicKey) (Address, error) {
	key := cacheKey{label: label, parent: parent}
	if addr, ok := d.cache.Get(key); ok {
		return addr, nil
	}

	pda, bump, err := solana.FindProgramAddress([][]byte{[]byte(label), parent[:]}, d.programID)
	if err != nil {
		return Address{}, fmt.Errorf("failed to derive %s address: %w", label, err)
	}

	addr := Address{Label: label, Parent: parent, Key: pda, Bump: bump}
	if err := d.registry.record(addr); err != nil {
		return Address{}, err
	}
	d.cache.Add(key, addr)
	return addr, nil
}

// Verify reports whether addr is the address its own seed path produces under this program.
func (d *Deriver) Verify(addr Address) bool {
	key, err := solana.CreateProgramAddress(addr.Seeds(), d.programID)
	if err != nil {
		return false
	}
	return key.Equals(addr.Key)
}

// Registry records the seed path behind each derived address.
type Registry struct {
	mu      sync.RWMutex
	entries map[solana.PublicKey]Address
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[solana.PublicKey]Address)}
}

func (r *Registry) record(addr Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.entries[addr.Key]; ok {
		if prev.Label != addr.Label || !prev.Parent.Equals(addr.Parent) {
			return fmt.Errorf("address %s already derived from %s/%s", addr.Key, prev.Label, prev.Parent)
		}
		return nil
	}
	r.entries[addr.Key] = addr
	return nil
}

// Lookup returns the seed path that produced key.
func (r *Registry) Lookup(key solana.PublicKey) (Address, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	addr, ok := r.entries[key]
	return addr, ok
}

// Entries returns every recorded address ordered by label, then address.
func (r *Registry) Entries() []Address {
	r.mu.RLock()
	out := make([]Address, 0, len(r.entries))
	for _, addr := range r.entries {
		out = append(out, addr)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Label != out[j].Label {
			return out[i].Label < out[j].Label
		}
		return out[i].Key.String() < out[j].Key.String()
	})
	return out
}

// Len returns the number of recorded addresses.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
