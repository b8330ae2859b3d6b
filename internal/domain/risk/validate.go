package risk

// Validate collects every violated input constraint. It returns an empty
// slice for a well-formed parameter set; it never stops at the first
// violation. The engine itself performs no validation, so callers must
// invoke this before Calculate.
func Validate(p Parameters) []string {
	var problems []string

	if p.Age < 40 || p.Age > 100 {
		problems = append(problems, "age must be between 40 and 100")
	}
	if p.Sex != SexMale && p.Sex != SexFemale {
		problems = append(problems, "sex must be male or female")
	}
	switch p.Region {
	case RegionLow, RegionModerate, RegionHigh, RegionVeryHigh:
	default:
		problems = append(problems, "region must be one of low, moderate, high, very-high")
	}
	if p.Smoking != Smoker && p.Smoking != NonSmoker {
		problems = append(problems, "smoking must be smoker or non-smoker")
	}
	if p.SystolicBP < 80 || p.SystolicBP > 250 {
		problems = append(problems, "systolic blood pressure must be between 80 and 250 mmHg")
	}
	if p.TotalCholesterol <= 0 {
		problems = append(problems, "total cholesterol must be positive")
	}
	if p.CholesterolUnit != UnitMmolPerL && p.CholesterolUnit != UnitMgPerDL {
		problems = append(problems, "cholesterol unit must be mmol/L or mg/dL")
	}
	if p.HDLCholesterol != nil && *p.HDLCholesterol <= 0 {
		problems = append(problems, "HDL cholesterol must be positive when provided")
	}
	if p.BMI != nil && *p.BMI <= 0 {
		problems = append(problems, "BMI must be positive when provided")
	}

	return problems
}
