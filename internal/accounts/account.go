package accounts

import (
	"strings"
	"time"
)

// Account maps an identity-provider subject to a canonical ledger account id.
// Rows are created lazily the first time a subject exchanges an ID token.
type Account struct {
	Issuer     string    `gorm:"column:issuer;primaryKey;size:190;not null"`
	Subject    string    `gorm:"column:subject;primaryKey;size:190;not null"`
	AccountID  string    `gorm:"column:account_id;size:190;not null;index"`
	LastSeenAt time.Time `gorm:"column:last_seen_at;autoUpdateTime"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName exposes the table backing account mappings.
func (Account) TableName() string {
	return "accounts"
}

func normalize(value string) string {
	return strings.TrimSpace(value)
}
