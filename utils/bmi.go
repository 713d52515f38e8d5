package utils

// BMI returns the body-mass index for the given biometrics, or 0 when either
// value is missing or implausible.
func BMI(heightCm, weightKg float64) float64 {
	if heightCm < 50 || heightCm > 250 || weightKg < 10 || weightKg > 400 {
		return 0
	}
	h := heightCm / 100.0
	return weightKg / (h * h)
}

func BMICategory(bmi float64) string {
	switch {
	case bmi <= 0:
		return ""
	case bmi < 18.5:
		return "Underweight"
	case bmi < 25.0:
		return "Normal weight"
	case bmi < 30.0:
		return "Overweight"
	default:
		return "Obese"
	}
}
