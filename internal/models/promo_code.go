package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PromoCode is an admin-managed credit voucher.
type PromoCode struct {
	Code      string          `bson:"_id" json:"code"`
	Amount    decimal.Decimal `bson:"amount" json:"amount"`
	MaxUses   int             `bson:"maxUses" json:"maxUses"`
	UsedBy    []string        `bson:"usedBy" json:"usedBy"`
	Active    bool            `bson:"active" json:"active"`
	CreatedAt time.Time       `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time       `bson:"updatedAt" json:"updatedAt"`
}

// CreatePromoRequest is the body of POST /admin/promos.
type CreatePromoRequest struct {
	Code    string          `json:"code" binding:"required,min=3,max=32"`
	Amount  decimal.Decimal `json:"amount"`
	MaxUses int             `json:"maxUses" binding:"required,min=1"`
}

// RedeemPromoRequest is the body of POST /promo/redeem.
type RedeemPromoRequest struct {
	Code string `json:"code" binding:"required"`
}
