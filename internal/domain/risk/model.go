package risk

// Sex is the biological sex used by the scoring model.
type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

// Region selects the calibration factor approximating background population risk.
type Region string

const (
	RegionLow      Region = "low"
	RegionModerate Region = "moderate"
	RegionHigh     Region = "high"
	RegionVeryHigh Region = "very-high"
)

// Smoking is the current smoking status.
type Smoking string

const (
	Smoker    Smoking = "smoker"
	NonSmoker Smoking = "non-smoker"
)

// CholesterolUnit is the unit both cholesterol inputs are expressed in.
type CholesterolUnit string

const (
	UnitMmolPerL CholesterolUnit = "mmol/L"
	UnitMgPerDL  CholesterolUnit = "mg/dL"
)

// Category is the age-banded severity tier derived from the percentage.
type Category string

const (
	CategoryLow      Category = "low"
	CategoryModerate Category = "moderate"
	CategoryHigh     Category = "high"
	CategoryVeryHigh Category = "very-high"
)

// Algorithm names the methodology the result was derived with.
type Algorithm string

const (
	AlgorithmScore2   Algorithm = "SCORE2"
	AlgorithmScore2OP Algorithm = "SCORE2-OP"
)

// Parameters is the clinical input set for one calculation. Callers must run
// Validate before Calculate; the engine assumes in-range values.
type Parameters struct {
	Age              int             `json:"age"`
	Sex              Sex             `json:"sex"`
	Region           Region          `json:"region"`
	Smoking          Smoking         `json:"smoking"`
	SystolicBP       float64         `json:"systolicBp"`
	TotalCholesterol float64         `json:"totalCholesterol"`
	CholesterolUnit  CholesterolUnit `json:"cholesterolUnit"`
	HDLCholesterol   *float64        `json:"hdlCholesterol,omitempty"`
	Diabetes         bool            `json:"diabetes,omitempty"`
	// BMI is collected for the report snapshot only; the current formula
	// does not use it.
	BMI *float64 `json:"bmi,omitempty"`
}

// Assessment is the immutable result of one calculation.
type Assessment struct {
	RiskPercentage  float64   `json:"riskPercentage"`
	Category        Category  `json:"riskCategory"`
	HeartAge        int       `json:"heartAge"`
	Algorithm       Algorithm `json:"algorithm"`
	Interpretation  string    `json:"interpretation"`
	Recommendations []string  `json:"recommendations"`
}
