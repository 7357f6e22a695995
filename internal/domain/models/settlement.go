// internal/domain/models/settlement.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Settlement statuses.
const (
	SettlementDraft     = "draft"
	SettlementFinalized = "finalized"
)

// MoneyLine is a single named revenue or cost line item, in integer cents.
type MoneyLine struct {
	Label  string `bson:"label" json:"label"`
	Amount int64  `bson:"amount_cents" json:"amount_cents"`
}

// Settlement is a periodic computed revenue-split statement between the
// two business parties. Monetary fields are derived entirely from the
// inputs at creation time and are immutable afterwards; only status and
// notes may change.
type Settlement struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PeriodStart time.Time          `bson:"period_start" json:"period_start"`
	PeriodEnd   time.Time          `bson:"period_end" json:"period_end"`

	ProgramRevenues    []MoneyLine `bson:"program_revenues" json:"program_revenues"`
	RevenueTotal       int64       `bson:"revenue_total_cents" json:"revenue_total_cents"`
	DirectProgramCosts []MoneyLine `bson:"direct_program_costs" json:"direct_program_costs"`
	CostsTotal         int64       `bson:"costs_total_cents" json:"costs_total_cents"`

	PlatformRunCostAllowance int64 `bson:"platform_run_cost_allowance_cents" json:"platform_run_cost_allowance_cents"`
	CostRecoveryPool         int64 `bson:"cost_recovery_pool_cents" json:"cost_recovery_pool_cents"`

	NetProgramRevenue int64 `bson:"net_program_revenue_cents" json:"net_program_revenue_cents"`
	KDMShare          int64 `bson:"kdm_share_cents" json:"kdm_share_cents"`
	VPlusShare        int64 `bson:"vplus_share_cents" json:"vplus_share_cents"`
	KDMSharePercent   int   `bson:"kdm_share_percent" json:"kdm_share_percent"`

	Status string `bson:"status" json:"status"`
	Notes  string `bson:"notes,omitempty" json:"notes,omitempty"`

	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	FinalizedAt *time.Time `bson:"finalized_at,omitempty" json:"finalized_at,omitempty"`
}
