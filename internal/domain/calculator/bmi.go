package calculator

import (
	"fmt"
	"math"
	"strings"
)

type Units string

const (
	UnitsMetric   Units = "metric"   // kilograms, centimetres
	UnitsImperial Units = "imperial" // pounds, inches
)

type BMIInput struct {
	Weight float64 `json:"weight"`
	Height float64 `json:"height"`
	Units  Units   `json:"units,omitempty"`
}

type BMIResult struct {
	BMI      float64 `json:"bmi"`
	Category string  `json:"category"`
	Weight   float64 `json:"weight"`
	Height   float64 `json:"height"`
	Units    Units   `json:"units"`
}

// BMICategory bands a BMI value.
func BMICategory(bmi float64) string {
	switch {
	case bmi < 18.5:
		return "Underweight"
	case bmi < 25:
		return "Normal weight"
	case bmi < 30:
		return "Overweight"
	}
	return "Obese"
}

// CalculateBMI computes weight / height² rounded to one decimal place. The
// category is taken from the rounded value so it always agrees with the
// displayed figure.
func CalculateBMI(in BMIInput) (*BMIResult, error) {
	units := Units(strings.ToLower(strings.TrimSpace(string(in.Units))))
	if units == "" {
		units = UnitsMetric
	}
	if units != UnitsMetric && units != UnitsImperial {
		return nil, &ValidationError{Reason: fmt.Sprintf("units must be %q or %q, got %q", UnitsMetric, UnitsImperial, in.Units)}
	}
	if err := positive(1, "weight", in.Weight); err != nil {
		return nil, err
	}
	if err := positive(2, "height", in.Height); err != nil {
		return nil, err
	}

	var raw float64
	if units == UnitsImperial {
		raw = 703 * in.Weight / (in.Height * in.Height)
	} else {
		m := in.Height / 100
		raw = in.Weight / (m * m)
	}
	bmi := math.Round(raw*10) / 10
	return &BMIResult{
		BMI:      bmi,
		Category: BMICategory(bmi),
		Weight:   in.Weight,
		Height:   in.Height,
		Units:    units,
	}, nil
}

func positive(item int, label string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &ValidationError{Item: item, Label: label, Value: v, Reason: "must be a number"}
	}
	if v <= 0 {
		return &ValidationError{Item: item, Label: label, Value: v, Reason: "must be greater than zero"}
	}
	return nil
}
