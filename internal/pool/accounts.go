package pool

import (
	"github.com/gagliardetto/solana-go"

	"github.com/lugondev/go-reserve/internal/derive"
)

// Accounts is the set of derived accounts anchored on one base mint.
type Accounts struct {
	BaseMint   solana.PublicKey `json:"base_mint" yaml:"base_mint"`
	PoolState  derive.Address   `json:"pool_state" yaml:"pool_state"`
	Authority  derive.Address   `json:"authority" yaml:"authority"`
	BaseVault  derive.Address   `json:"base_vault" yaml:"base_vault"`
	QuoteVault derive.Address   `json:"quote_vault" yaml:"quote_vault"`
	ShareMint  derive.Address   `json:"share_mint" yaml:"share_mint"`
}

// DeriveAccounts derives the pool state address from baseMint and every other pool
// account from the pool state address.
func DeriveAccounts(d *derive.Deriver, baseMint solana.PublicKey) (*Accounts, error) {
	state, err := d.Derive(derive.LabelPoolState, baseMint)
	if err != nil {
		return nil, err
	}

	accts := &Accounts{BaseMint: baseMint, PoolState: state}
	for _, item := range []struct {
		label string
		dst   *derive.Address
	}{
		{derive.LabelAuthority, &accts.Authority},
		{derive.LabelBaseVault, &accts.BaseVault},
		{derive.LabelQuoteVault, &accts.QuoteVault},
		{derive.LabelShareMint, &accts.ShareMint},
	} {
		addr, err := d.Derive(item.label, state.Key)
		if err != nil {
			return nil, err
		}
		*item.dst = addr
	}
	return accts, nil
}

// All returns the derived addresses in a fixed order.
func (a *Accounts) All() []derive.Address {
	return []derive.Address{a.PoolState, a.Authority, a.BaseVault, a.QuoteVault, a.ShareMint}
}

// Keys returns the derived account keys that hold state, i.e. everything but the authority.
func (a *Accounts) Keys() []solana.PublicKey {
	return []solana.PublicKey{a.PoolState.Key, a.BaseVault.Key, a.QuoteVault.Key, a.ShareMint.Key}
}
