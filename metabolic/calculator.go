// Package metabolic turns a profile into a daily calorie target and an
// estimate of how long reaching the target weight takes.
package metabolic

import (
	"fmt"
	"math"
	"strconv"

	"vitalia"
)

const (
	defaultMultiplier = 1.2
	defaultWeeklyRate = 0.5

	// kcal offsets applied to TDEE when the target implies losing or gaining weight
	lossAdjustment = -500
	gainAdjustment = 400

	weeksPerMonth = 4.3

	GoalReachedLabel = "¡Ya estás en tu meta!"
)

// activityMultipliers scale BMR into total daily energy expenditure.
var activityMultipliers = map[vitalia.ActivityLevel]float64{
	vitalia.ActivitySedentary: 1.2,
	vitalia.ActivityLight:     1.375,
	vitalia.ActivityModerate:  1.55,
	vitalia.ActivityIntense:   1.725,
}

// weeklyRates are the expected kg of change per week at each activity level.
var weeklyRates = map[vitalia.ActivityLevel]float64{
	vitalia.ActivitySedentary: 0.5,
	vitalia.ActivityLight:     0.6,
	vitalia.ActivityModerate:  0.7,
	vitalia.ActivityIntense:   0.8,
}

// Timeline estimates the time needed to go from the current to the target weight.
type Timeline struct {
	Weeks  int     `json:"weeks"`
	Months float64 `json:"months"`
	Label  string  `json:"label"`
}

// BMR is the Harris-Benedict basal metabolic rate. Any gender other than male
// uses the female coefficients.
func BMR(p vitalia.Profile) float64 {
	if p.Gender == vitalia.GenderMale {
		return 88.36 + 13.4*p.Weight + 4.8*p.Height - 5.7*float64(p.Age)
	}
	return 447.59 + 9.2*p.Weight + 3.1*p.Height - 4.3*float64(p.Age)
}

// Multiplier returns the TDEE factor for level, falling back to sedentary.
func Multiplier(level vitalia.ActivityLevel) float64 {
	if m, ok := activityMultipliers[level]; ok {
		return m
	}
	return defaultMultiplier
}

func goalAdjustment(p vitalia.Profile) float64 {
	switch {
	case p.TargetWeight < p.Weight:
		return lossAdjustment
	case p.TargetWeight > p.Weight:
		return gainAdjustment
	default:
		return 0
	}
}

// DailyTarget returns the rounded daily kcal goal for the profile.
func DailyTarget(p vitalia.Profile) int {
	tdee := BMR(p) * Multiplier(p.ActivityLevel)
	return int(math.Round(tdee + goalAdjustment(p)))
}

// EstimateTimeline returns zero weeks only when weight equals target exactly.
func EstimateTimeline(p vitalia.Profile) Timeline {
	diff := math.Abs(p.Weight - p.TargetWeight)
	if diff == 0 {
		return Timeline{Weeks: 0, Label: GoalReachedLabel}
	}

	rate, ok := weeklyRates[p.ActivityLevel]
	if !ok {
		rate = defaultWeeklyRate
	}

	weeks := int(math.Ceil(diff / rate))
	months := roundTenth(float64(weeks) / weeksPerMonth)

	label := fmt.Sprintf("%d semanas", weeks)
	if weeks > 4 {
		label = strconv.FormatFloat(months, 'f', 1, 64) + " meses"
	}

	return Timeline{Weeks: weeks, Months: months, Label: label}
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
