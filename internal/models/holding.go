package models

// Holding represents an investment position in a single symbol.
//
// AvgCostBasis is the weighted-average purchase price per share in cents;
// each additional purchase recomputes it as
// (oldShares*oldBasis + addedShares*addedBasis) / (oldShares+addedShares).
// Sales reduce shares and leave the per-share basis unchanged.
type Holding struct {
	Base
	UserID       string  `gorm:"type:uuid;not null;index" json:"user_id"`
	AccountID    string  `gorm:"type:uuid;not null;index" json:"account_id"`
	Symbol       string  `gorm:"not null" json:"symbol"`
	Name         string  `json:"name"`
	Shares       float64 `gorm:"not null" json:"shares"`
	AvgCostBasis int64   `gorm:"type:bigint;not null" json:"avg_cost_basis"`
	Currency     string  `gorm:"not null;default:'USD'" json:"currency"`

	// CurrentPrice is populated at query time from the quote source, never
	// persisted.
	CurrentPrice int64 `gorm:"-" json:"current_price"`

	// Relationships
	Account Account `gorm:"foreignKey:AccountID" json:"account,omitempty"`
}

// CurrentValue returns shares x current price in cents.
func (h *Holding) CurrentValue() int64 {
	return int64(h.Shares * float64(h.CurrentPrice))
}

// CostValue returns shares x average cost basis in cents.
func (h *Holding) CostValue() int64 {
	return int64(h.Shares * float64(h.AvgCostBasis))
}
