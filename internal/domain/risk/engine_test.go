package risk

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func baseParams() Parameters {
	return Parameters{
		Age:              55,
		Sex:              SexMale,
		Region:           RegionModerate,
		Smoking:          NonSmoker,
		SystolicBP:       130,
		TotalCholesterol: 5.0,
		CholesterolUnit:  UnitMmolPerL,
	}
}

func TestCalculatePercentageStaysInRange(t *testing.T) {
	hdl := 1.0
	extremes := []Parameters{
		{Age: 40, Sex: SexFemale, Region: RegionLow, Smoking: NonSmoker, SystolicBP: 80, TotalCholesterol: 0.5, CholesterolUnit: UnitMmolPerL},
		{Age: 100, Sex: SexMale, Region: RegionVeryHigh, Smoking: Smoker, SystolicBP: 250, TotalCholesterol: 12, CholesterolUnit: UnitMmolPerL, HDLCholesterol: &hdl, Diabetes: true},
	}
	for _, p := range extremes {
		result := Calculate(p)
		require.GreaterOrEqual(t, result.RiskPercentage, 0.1)
		require.LessOrEqual(t, result.RiskPercentage, 50.0)
	}
}

func TestCalculateRiskNonDecreasingInAge(t *testing.T) {
	previous := 0.0
	for age := 40; age <= 100; age += 5 {
		p := baseParams()
		p.Age = age
		pct := computePercentage(p, age >= opAgeCutoff)
		require.GreaterOrEqual(t, pct, previous, "age %d", age)
		previous = pct
	}
}

func TestQuittingSmokingStrictlyLowersRisk(t *testing.T) {
	smoker := baseParams()
	smoker.Smoking = Smoker
	quit := smoker
	quit.Smoking = NonSmoker

	require.Greater(t, computePercentage(smoker, false), computePercentage(quit, false))
}

func TestHeartAgeBounds(t *testing.T) {
	hdl := 0.8
	worst := Parameters{
		Age: 72, Sex: SexMale, Region: RegionVeryHigh, Smoking: Smoker,
		SystolicBP: 240, TotalCholesterol: 11, CholesterolUnit: UnitMmolPerL,
		HDLCholesterol: &hdl, Diabetes: true,
	}
	result := Calculate(worst)
	require.GreaterOrEqual(t, result.HeartAge, worst.Age)
	require.LessOrEqual(t, result.HeartAge, 100)

	healthy := baseParams()
	require.Equal(t, healthy.Age, Calculate(healthy).HeartAge)
}

func TestRegionalFactorOrdering(t *testing.T) {
	regions := []Region{RegionLow, RegionModerate, RegionHigh, RegionVeryHigh}
	previous := 0.0
	for _, region := range regions {
		p := baseParams()
		p.Region = region
		p.Smoking = Smoker
		pct := computePercentage(p, false)
		require.GreaterOrEqual(t, pct, previous, "region %s", region)
		previous = pct
	}
}

func TestUnknownRegionCalibratesAtModerate(t *testing.T) {
	p := baseParams()
	p.Region = Region("atlantis")
	require.Equal(t, computePercentage(baseParams(), false), computePercentage(p, false))
}

func TestAlgorithmSwitchesAtSeventy(t *testing.T) {
	p := baseParams()
	p.Age = 69
	require.Equal(t, AlgorithmScore2, Calculate(p).Algorithm)

	p.Age = 70
	require.Equal(t, AlgorithmScore2OP, Calculate(p).Algorithm)
}

func TestCategoryBoundaries(t *testing.T) {
	cases := []struct {
		age  int
		pct  float64
		want Category
	}{
		{49, 2.4, CategoryLow},
		{49, 2.5, CategoryModerate},
		{49, 7.4, CategoryModerate},
		{49, 7.5, CategoryHigh},
		{49, 10.0, CategoryVeryHigh},
		{50, 4.9, CategoryLow},
		{50, 5.0, CategoryModerate},
		{50, 9.9, CategoryModerate},
		{50, 10.0, CategoryHigh},
		{50, 15.0, CategoryVeryHigh},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, categorize(tc.age, tc.pct), "age=%d pct=%.1f", tc.age, tc.pct)
	}
}

func TestCalculateReferenceProfile(t *testing.T) {
	// Inputs already matching the healthy reference: the ratio is 1, so the
	// heart age equals the chronological age.
	p := Parameters{
		Age: 55, Sex: SexMale, Region: RegionModerate, Smoking: NonSmoker,
		SystolicBP: 120, TotalCholesterol: 5.0, CholesterolUnit: UnitMmolPerL,
	}
	result := Calculate(p)
	require.Equal(t, AlgorithmScore2, result.Algorithm)
	require.Equal(t, 55, result.HeartAge)
	require.Greater(t, result.RiskPercentage, 0.0)
	require.Contains(t, result.Interpretation, "out of 100 men like you")
}

func TestCholesterolUnitEquivalence(t *testing.T) {
	inMg := baseParams()
	inMg.TotalCholesterol = 200
	inMg.CholesterolUnit = UnitMgPerDL

	inMmol := baseParams()
	inMmol.TotalCholesterol = 200 / 38.67
	inMmol.CholesterolUnit = UnitMmolPerL

	require.Equal(t, Calculate(inMmol), Calculate(inMg))
}

func TestHDLIsProtective(t *testing.T) {
	lowHDL, highHDL := 1.0, 2.0

	withLow := baseParams()
	withLow.HDLCholesterol = &lowHDL
	withHigh := baseParams()
	withHigh.HDLCholesterol = &highHDL

	require.Greater(t, computePercentage(withLow, false), computePercentage(withHigh, false))
}

func TestInterpretationSexWording(t *testing.T) {
	p := baseParams()
	p.Sex = SexFemale
	require.Contains(t, Calculate(p).Interpretation, "out of 100 women like you")
}

func TestRecommendationsForSmoker(t *testing.T) {
	p := baseParams()
	p.Smoking = Smoker
	recs := Calculate(p).Recommendations
	for _, advice := range smokingAdvice {
		require.Contains(t, recs, advice)
	}
	// Smoking advice is generated first.
	require.Equal(t, smokingAdvice[0], recs[0])
}

func TestRecommendationsForDiabetes(t *testing.T) {
	p := baseParams()
	p.Diabetes = true
	p.SystolicBP = 200
	p.TotalCholesterol = 7
	recs := Calculate(p).Recommendations
	for _, advice := range diabetesAdvice {
		require.Contains(t, recs, advice)
	}
}

func TestRecommendationsBloodPressureTiers(t *testing.T) {
	monitor := baseParams()
	monitor.SystolicBP = 135
	require.Contains(t, Calculate(monitor).Recommendations, monitorBPAdvice)

	manage := baseParams()
	manage.SystolicBP = 150
	recs := Calculate(manage).Recommendations
	require.NotContains(t, recs, monitorBPAdvice)
	for _, advice := range highBPAdvice {
		require.Contains(t, recs, advice)
	}
}

func TestRecommendationsCategoryGatesAreExclusive(t *testing.T) {
	p := Parameters{
		Age: 50, Sex: SexFemale, Region: RegionLow, Smoking: NonSmoker,
		SystolicBP: 110, TotalCholesterol: 4.2, CholesterolUnit: UnitMmolPerL,
	}
	require.Equal(t, maintenanceAdvice, recommend(p, CategoryLow))

	for _, category := range []Category{CategoryModerate, CategoryHigh, CategoryVeryHigh} {
		recs := recommend(p, category)
		require.Equal(t, elevatedRiskAdvice, recs, "category %s", category)
		for _, advice := range maintenanceAdvice {
			require.NotContains(t, recs, advice)
		}
	}
}

func TestRecommendationOrderAcrossGates(t *testing.T) {
	hdl := 1.0
	p := Parameters{
		Age: 60, Sex: SexMale, Region: RegionHigh, Smoking: Smoker,
		SystolicBP: 150, TotalCholesterol: 6.5, CholesterolUnit: UnitMmolPerL,
		HDLCholesterol: &hdl, Diabetes: true,
	}
	recs := Calculate(p).Recommendations

	var want []string
	want = append(want, smokingAdvice...)
	want = append(want, highBPAdvice...)
	want = append(want, cholesterolAdvice...)
	want = append(want, diabetesAdvice...)
	want = append(want, elevatedRiskAdvice...)
	require.Equal(t, want, recs)
}

func TestBMIDoesNotAffectResult(t *testing.T) {
	bmi := 31.5
	with := baseParams()
	with.BMI = &bmi
	without := baseParams()

	require.Equal(t, Calculate(without).RiskPercentage, Calculate(with).RiskPercentage)
}
