package credit

import (
	"time"

	"github.com/google/uuid"
)

// TxType defines supported credit transaction types.
type TxType string

const (
	TxTypeReward          TxType = "reward"
	TxTypeSessionPurchase TxType = "session_purchase"
	TxTypeAdminGrant      TxType = "admin_grant"
	TxTypeRefund          TxType = "refund"
)

// IsCredit reports whether the type adds credits. Only session purchases spend.
func (t TxType) IsCredit() bool {
	switch t {
	case TxTypeReward, TxTypeAdminGrant, TxTypeRefund:
		return true
	}
	return false
}

// Valid reports whether t is a known transaction type.
func (t TxType) Valid() bool {
	return t.IsCredit() || t == TxTypeSessionPurchase
}

// Meta is attached to every ledger row. ReferenceID, when set, makes the
// adjustment idempotent per (user, type, reference).
type Meta struct {
	ReferenceType string
	ReferenceID   string
	Description   string
}

// Adjustment is a ledger write made inside a caller's transaction. It is
// handed back to Notify once that transaction has committed.
type Adjustment struct {
	UserID  uuid.UUID
	Delta   int64
	TxType  TxType
	Meta    Meta
	Balance int64
}

// Pagination controls simple list pagination.
type Pagination struct {
	Limit  int
	Offset int
}

// Account is the per-user balance row. It is created implicitly with 0 on first access.
type Account struct {
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Balance   int64     `db:"balance" json:"balance"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Transaction is a ledger row.
type Transaction struct {
	ID            uuid.UUID `db:"id" json:"id"`
	UserID        uuid.UUID `db:"user_id" json:"user_id"`
	AmountDelta   int64     `db:"amount_delta" json:"amount_delta"`
	TxType        TxType    `db:"tx_type" json:"tx_type"`
	ReferenceType *string   `db:"reference_type" json:"reference_type,omitempty"`
	ReferenceID   *string   `db:"reference_id" json:"reference_id,omitempty"`
	Description   string    `db:"description" json:"description"`
	BalanceAfter  int64     `db:"balance_after" json:"balance_after"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
