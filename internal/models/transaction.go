package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Transaction types
const (
	TransactionCredit = "credit"
	TransactionDebit  = "debit"
)

// Transaction is an append-only ledger entry. RefID links a credit back
// to the bonus record that produced it. Entries are never updated or
// deleted once written.
type Transaction struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID      primitive.ObjectID `bson:"userId" json:"userId"`
	Type        string             `bson:"type" json:"type"`
	Amount      float64            `bson:"amount" json:"amount"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	RefID       string             `bson:"refId,omitempty" json:"refId,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}
