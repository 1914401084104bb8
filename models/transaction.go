package models

import (
	"time"
)

// TransactionType categorizes ledger movements
type TransactionType string

const (
	TransactionTypeEarn       TransactionType = "earn"
	TransactionTypeSpend      TransactionType = "spend"
	TransactionTypeAdjustment TransactionType = "adjustment"
)

// TransactionStatus indicates the lifecycle state of a ledger entry
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusReversed  TransactionStatus = "reversed"
)

// Known metadata keys (v1). Business logic must read these explicitly — never
// assume extra structure inside the metadata map.
const (
	MetaKeyReversalOf   = "reversal_of"   // transaction ID this entry reverses
	MetaKeyActivityType = "activity_type" // reward source activity
	MetaKeySource       = "source"        // e.g. "reconciliation", "admin"
)

// Transaction is an immutable, append-only ledger entry. Completed transactions
// are never edited — corrections are new reversing entries that reference the
// original via metadata.reversal_of, and the original flips to status=reversed.
type Transaction struct {
	ID        string            `gorm:"primaryKey;type:uuid" json:"id"`
	AccountID string            `gorm:"index;not null" json:"account_id"`
	Type      TransactionType   `gorm:"not null" json:"type"`
	Amount    int64             `gorm:"not null" json:"amount"` // signed: earns positive, spends negative
	// Account balance immediately after this transaction applied
	ResultingBalance int64                  `json:"resulting_balance"`
	Description      string                 `gorm:"type:text" json:"description"`
	Status           TransactionStatus      `gorm:"not null;default:'pending';index" json:"status"`
	Metadata         map[string]interface{} `gorm:"serializer:json;type:jsonb" json:"metadata,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
}
