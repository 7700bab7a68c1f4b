package ledger

import "errors"

var (
	// ErrAccountNotFound is returned when no account exists at an address.
	ErrAccountNotFound = errors.New("account not found")

	// ErrAccountInUse is returned when creating an account at an address that already holds one.
	ErrAccountInUse = errors.New("account address already in use")

	// ErrAccountNotWritable is returned when a unit of work writes an account it did not lock.
	ErrAccountNotWritable = errors.New("account was not declared writable")

	// ErrExternalAccountModified is returned when a program writes data of an account it does not own.
	ErrExternalAccountModified = errors.New("program modified data of an account it does not own")

	// ErrExternalLamportSpend is returned when a program debits an account it does not own.
	ErrExternalLamportSpend = errors.New("program spent lamports of an account it does not own")

	// ErrInsufficientLamports is returned when a debit exceeds the account balance.
	ErrInsufficientLamports = errors.New("insufficient lamports")

	// ErrLamportOverflow is returned when a credit overflows the account balance.
	ErrLamportOverflow = errors.New("lamport balance overflow")

	// ErrUnbalancedTransaction is returned when a unit of work creates or destroys lamports.
	ErrUnbalancedTransaction = errors.New("sum of account balances before and after transaction do not match")

	// ErrInvalidSeeds is returned when seeds do not produce a program address.
	ErrInvalidSeeds = errors.New("seeds do not produce a valid program address")

	// ErrPanicked is returned when a unit of work panics.
	ErrPanicked = errors.New("unit of work panicked")
)
