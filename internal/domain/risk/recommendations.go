package risk

// Advisory strings are appended in fixed evaluation order: smoking, blood
// pressure, cholesterol, diabetes, then category-wide advice. The order is
// generation order, not clinical priority.

var smokingAdvice = []string{
	"Quitting smoking is the single most effective step you can take to lower your cardiovascular risk.",
	"Ask your doctor about cessation support such as nicotine replacement therapy or counselling.",
}

var highBPAdvice = []string{
	"Your blood pressure is elevated; discuss blood pressure management with your doctor.",
	"Reduce salt intake to less than 5 grams per day.",
	"Regular aerobic exercise helps lower blood pressure over time.",
}

var monitorBPAdvice = "Your blood pressure is slightly raised; check it regularly and watch the trend."

var cholesterolAdvice = []string{
	"Your total cholesterol is high; ask your doctor for a full lipid profile review.",
	"Favour unsaturated fats such as olive oil, nuts, and oily fish over saturated and trans fats.",
	"Increase soluble fibre from oats, legumes, and vegetables to help lower cholesterol.",
}

var diabetesAdvice = []string{
	"Keep your blood sugar well controlled; good glycaemic control lowers cardiovascular risk.",
	"Attend regular diabetes reviews, including kidney and eye screening.",
	"Managing blood pressure and cholesterol alongside blood sugar gives the largest benefit.",
}

var elevatedRiskAdvice = []string{
	"Aim for at least 150 minutes of moderate-intensity exercise per week.",
	"Follow a Mediterranean-style diet rich in vegetables, whole grains, and fish.",
	"Maintain a healthy weight and waist circumference.",
	"Book a follow-up with your doctor to discuss your cardiovascular risk.",
}

var maintenanceAdvice = []string{
	"Your risk is low; keep up your current healthy habits.",
	"Stay physically active and keep a balanced diet.",
	"Recheck your cardiovascular risk every few years.",
}

func recommend(p Parameters, category Category) []string {
	total, _ := normalizedCholesterol(p)

	out := make([]string, 0, 12)
	if p.Smoking == Smoker {
		out = append(out, smokingAdvice...)
	}
	switch {
	case p.SystolicBP > 140:
		out = append(out, highBPAdvice...)
	case p.SystolicBP > 130:
		out = append(out, monitorBPAdvice)
	}
	if total > 5.5 {
		out = append(out, cholesterolAdvice...)
	}
	if p.Diabetes {
		out = append(out, diabetesAdvice...)
	}
	if category == CategoryLow {
		out = append(out, maintenanceAdvice...)
	} else {
		out = append(out, elevatedRiskAdvice...)
	}
	return out
}
