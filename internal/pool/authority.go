package pool

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/lugondev/go-reserve/internal/derive"
	"github.com/lugondev/go-reserve/internal/ledger"
)

// authority is the signing capability of one pool. It is created per operation from the
// pool's derived accounts and is never handed to callers; every privileged movement of
// vault funds goes through it.
type authority struct {
	programID  solana.PublicKey
	addr       derive.Address
	quoteVault solana.PublicKey
}

func newAuthority(d *derive.Deriver, accts *Accounts) (*authority, error) {
	if !d.Verify(accts.Authority) {
		return nil, fmt.Errorf("authority %s does not match its seeds", accts.Authority.Key)
	}
	return &authority{
		programID:  d.ProgramID(),
		addr:       accts.Authority,
		quoteVault: accts.QuoteVault.Key,
	}, nil
}

func (a *authority) key() solana.PublicKey {
	return a.addr.Key
}

// sign runs fn with the authority in the unit's signer set.
func (a *authority) sign(tx *ledger.Tx, fn func(signer solana.PublicKey) error) error {
	return tx.InvokeSigned(a.programID, a.addr.Seeds(), func() error {
		return fn(a.addr.Key)
	})
}

// payNative debits the program-owned quote vault and credits to.
func (a *authority) payNative(tx *ledger.Tx, to solana.PublicKey, lamports uint64) error {
	if err := tx.DebitLamports(a.programID, a.quoteVault, lamports); err != nil {
		return err
	}
	return tx.CreditLamports(to, lamports)
}
