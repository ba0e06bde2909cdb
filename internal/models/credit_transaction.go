package models

// CreditTransaction is the ledger entry written for every balance change.
type CreditTransaction struct {
	ImmutableModel
	UserID          string                `gorm:"type:uuid;not null;index"`
	TransactionType CreditTransactionType `gorm:"type:varchar(20);not null;index"`
	Amount          int                   `gorm:"not null"`
	BalanceBefore   int                   `gorm:"not null"`
	BalanceAfter    int                   `gorm:"not null"`
	Description     string                `gorm:"type:varchar(255)"`
	// Непустой ReferenceID уникален: повтор платежа не проводится дважды
	ReferenceID     string                `gorm:"type:varchar(100);uniqueIndex:idx_credit_transactions_reference,where:reference_id <> ''"`

	// Relations
	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}
