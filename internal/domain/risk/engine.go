package risk

import (
	"fmt"
	"math"
)

const (
	mgPerDLPerMmolL = 38.67

	opAgeCutoff = 70

	referenceSystolicBP  = 120.0
	referenceCholesterol = 5.0
	referenceHDL         = 1.3

	minPercentage = 0.1
	maxPercentage = 50.0
)

// Calculate turns a validated parameter set into an assessment. It is a pure
// function: no I/O, no retained state, safe for concurrent use. Behavior is
// only defined for inputs that pass Validate.
func Calculate(p Parameters) Assessment {
	useOP := p.Age >= opAgeCutoff

	pct := computePercentage(p, useOP)
	category := categorize(p.Age, pct)
	heartAge := estimateHeartAge(p, pct, useOP)

	// Category and heart age come from the clamped unrounded value; the
	// reported percentage is rounded last.
	reported := round1(pct)

	return Assessment{
		RiskPercentage:  reported,
		Category:        category,
		HeartAge:        heartAge,
		Algorithm:       algorithmFor(useOP),
		Interpretation:  interpret(p.Sex, reported),
		Recommendations: recommend(p, category),
	}
}

// computePercentage runs unit normalization, the log-linear score, regional
// calibration, and the percentage transform. Both the live parameters and the
// healthy-reference profile go through this single path.
func computePercentage(p Parameters, useOP bool) float64 {
	total, hdl := normalizedCholesterol(p)

	score := math.Log(float64(p.Age)/40) * ageCoefficient(p.Sex)
	if p.Sex == SexMale {
		score += 0.5
	}
	if p.Smoking == Smoker {
		score += 0.6
	}
	score += math.Log(p.SystolicBP/120) * 0.4
	score += math.Log(total/5.0) * 0.3
	if hdl != nil {
		score -= math.Log(*hdl/referenceHDL) * 0.2
	}
	if p.Diabetes {
		score += 0.4
	}

	score *= regionFactor(p.Region)
	if useOP {
		score *= 1.2
	}

	baseline := 0.08
	if useOP {
		baseline = 0.15
	}
	pct := (1 - math.Exp(-math.Exp(score)*baseline)) * 100

	return clamp(pct, minPercentage, maxPercentage)
}

// normalizedCholesterol returns both cholesterol inputs in mmol/L.
func normalizedCholesterol(p Parameters) (float64, *float64) {
	total := p.TotalCholesterol
	hdl := p.HDLCholesterol
	if p.CholesterolUnit == UnitMgPerDL {
		total /= mgPerDLPerMmolL
		if hdl != nil {
			converted := *hdl / mgPerDLPerMmolL
			hdl = &converted
		}
	}
	return total, hdl
}

func ageCoefficient(sex Sex) float64 {
	if sex == SexMale {
		return 0.8
	}
	return 0.7
}

// regionFactor defaults to the moderate calibration when the region is not
// recognized; stricter checking belongs to Validate, the engine never fails.
func regionFactor(region Region) float64 {
	switch region {
	case RegionLow:
		return 0.7
	case RegionModerate:
		return 1.0
	case RegionHigh:
		return 1.4
	case RegionVeryHigh:
		return 1.8
	default:
		return 1.0
	}
}

func algorithmFor(useOP bool) Algorithm {
	if useOP {
		return AlgorithmScore2OP
	}
	return AlgorithmScore2
}

func categorize(age int, pct float64) Category {
	if age < 50 {
		switch {
		case pct < 2.5:
			return CategoryLow
		case pct < 7.5:
			return CategoryModerate
		case pct < 10:
			return CategoryHigh
		default:
			return CategoryVeryHigh
		}
	}
	switch {
	case pct < 5:
		return CategoryLow
	case pct < 10:
		return CategoryModerate
	case pct < 15:
		return CategoryHigh
	default:
		return CategoryVeryHigh
	}
}

// estimateHeartAge expresses how much worse the profile is than an
// otherwise-identical peer with healthy modifiable factors, as an age-years
// penalty. Age, sex, region, and HDL stay fixed so only modifiable factors
// are neutralized.
func estimateHeartAge(p Parameters, pct float64, useOP bool) int {
	ref := p
	_, hdl := normalizedCholesterol(p)
	ref.CholesterolUnit = UnitMmolPerL
	ref.HDLCholesterol = hdl
	ref.Smoking = NonSmoker
	ref.SystolicBP = referenceSystolicBP
	ref.TotalCholesterol = referenceCholesterol
	ref.Diabetes = false

	referencePct := computePercentage(ref, useOP)
	ratio := pct / referencePct

	heartAge := int(math.Round(float64(p.Age) + (ratio-1)*10))
	if heartAge < p.Age {
		heartAge = p.Age
	}
	if heartAge > 100 {
		heartAge = 100
	}
	return heartAge
}

func interpret(sex Sex, pct float64) string {
	subject := "women"
	if sex == SexMale {
		subject = "men"
	}
	return fmt.Sprintf("This means out of 100 %s like you, about %d will have a heart attack or stroke in the next 10 years.", subject, int(math.Round(pct)))
}

func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	// NaN from a degenerate input falls through the comparisons above;
	// pin it to the floor so downstream stages stay finite.
	if math.IsNaN(value) {
		return min
	}
	return value
}

func round1(value float64) float64 {
	return math.Round(value*10) / 10
}
