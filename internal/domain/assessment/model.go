package assessment

import (
	"time"

	"github.com/yanqian/heartcheck/internal/domain/risk"
)

// Record is one persisted assessment. Anonymous calculations are never
// persisted; a record always belongs to a clinician.
type Record struct {
	ID          string          `json:"id"`
	ClinicianID int64           `json:"-"`
	Parameters  risk.Parameters `json:"parameters"`
	Result      risk.Assessment `json:"result"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Request is the payload accepted by the assess endpoint.
type Request struct {
	Parameters risk.Parameters `json:"parameters"`
}

// Response carries the engine output plus the record ID when persisted.
type Response struct {
	ID     string          `json:"id,omitempty"`
	Result risk.Assessment `json:"result"`
}

// Overrides is the sparse change set applied during a what-if re-simulation.
// Nil fields keep the baseline value.
type Overrides struct {
	Age              *int                  `json:"age,omitempty"`
	Sex              *risk.Sex             `json:"sex,omitempty"`
	Region           *risk.Region          `json:"region,omitempty"`
	Smoking          *risk.Smoking         `json:"smoking,omitempty"`
	SystolicBP       *float64              `json:"systolicBp,omitempty"`
	TotalCholesterol *float64              `json:"totalCholesterol,omitempty"`
	CholesterolUnit  *risk.CholesterolUnit `json:"cholesterolUnit,omitempty"`
	HDLCholesterol   *float64              `json:"hdlCholesterol,omitempty"`
	Diabetes         *bool                 `json:"diabetes,omitempty"`
}

// WhatIfRequest re-simulates a baseline parameter set with overrides applied.
type WhatIfRequest struct {
	Baseline  risk.Parameters `json:"baseline"`
	Overrides Overrides       `json:"overrides"`
}

// WhatIfResponse returns both simulations and the percentage-point delta.
type WhatIfResponse struct {
	Baseline  risk.Assessment `json:"baseline"`
	Adjusted  risk.Assessment `json:"adjusted"`
	RiskDelta float64         `json:"riskDelta"`
}

// SimilarMatch is a prior assessment whose risk profile sits closest to the
// queried record.
type SimilarMatch struct {
	Record   Record  `json:"record"`
	Distance float64 `json:"distance"`
}

// Config drives service behavior.
type Config struct {
	HistoryLimit int
	SimilarLimit int
}
