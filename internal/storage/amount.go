package storage

import (
	"fmt"
	"math/big"
	"strconv"

	"github.com/jackc/pgx/v5/pgtype"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Amount is a token, share or lamport quantity. Any uint64 is legal on the ledger, so
// the stored form is a NUMERIC(20,0) column in Postgres and a Decimal128 in MongoDB;
// neither backend has an unsigned 64-bit integer type.
type Amount uint64

func (a Amount) String() string {
	return strconv.FormatUint(uint64(a), 10)
}

// NumericValue implements pgtype.NumericValuer.
func (a Amount) NumericValue() (pgtype.Numeric, error) {
	return pgtype.Numeric{Int: new(big.Int).SetUint64(uint64(a)), Valid: true}, nil
}

// ScanNumeric implements pgtype.NumericScanner.
func (a *Amount) ScanNumeric(n pgtype.Numeric) error {
	if !n.Valid || n.NaN || n.InfinityModifier != pgtype.Finite {
		return fmt.Errorf("amount: cannot scan %v", n)
	}
	v := new(big.Int).Set(n.Int)
	if n.Exp != 0 {
		scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(abs32(n.Exp))), nil)
		if n.Exp > 0 {
			v.Mul(v, scale)
		} else if _, rem := v.QuoRem(v, scale, new(big.Int)); rem.Sign() != 0 {
			return fmt.Errorf("amount: %s has a fraction", n.Int)
		}
	}
	if !v.IsUint64() {
		return fmt.Errorf("amount: %s out of uint64 range", v)
	}
	*a = Amount(v.Uint64())
	return nil
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

// MarshalBSONValue stores the amount as a Decimal128.
func (a Amount) MarshalBSONValue() (bsontype.Type, []byte, error) {
	d, err := primitive.ParseDecimal128(a.String())
	if err != nil {
		return 0, nil, err
	}
	return bson.MarshalValue(d)
}

// UnmarshalBSONValue reads a Decimal128, or an int32/int64 written by older versions.
func (a *Amount) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	if d, ok := raw.Decimal128OK(); ok {
		v, err := strconv.ParseUint(d.String(), 10, 64)
		if err != nil {
			return fmt.Errorf("amount: %w", err)
		}
		*a = Amount(v)
		return nil
	}
	if v, ok := raw.Int64OK(); ok && v >= 0 {
		*a = Amount(v)
		return nil
	}
	if v, ok := raw.Int32OK(); ok && v >= 0 {
		*a = Amount(v)
		return nil
	}
	return fmt.Errorf("amount: cannot decode bson %s", t)
}
