package metabolic

import (
	"math"
	"testing"

	"vitalia"

	"github.com/stretchr/testify/assert"
)

func profile(mutate func(p *vitalia.Profile)) vitalia.Profile {
	p := vitalia.DefaultProfile()
	if mutate != nil {
		mutate(&p)
	}
	return p
}

func TestBMR(t *testing.T) {
	tests := []struct {
		name string
		p    vitalia.Profile
		want float64
	}{
		{
			name: "male default profile",
			p:    profile(nil),
			want: 88.36 + 13.4*70 + 4.8*175 - 5.7*30,
		},
		{
			name: "female",
			p:    profile(func(p *vitalia.Profile) { p.Gender = vitalia.GenderFemale; p.Weight = 60; p.Height = 165; p.Age = 40 }),
			want: 447.59 + 9.2*60 + 3.1*165 - 4.3*40,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, BMR(tt.p), 1e-9)
		})
	}
}

func TestDailyTarget(t *testing.T) {
	tests := []struct {
		name string
		p    vitalia.Profile
		want int
	}{
		{
			// BMR 1695.36, TDEE 2034.432, deficit 500
			name: "sedentary male losing weight",
			p:    profile(nil),
			want: 1534,
		},
		{
			name: "sedentary male gaining weight",
			p:    profile(func(p *vitalia.Profile) { p.TargetWeight = 75 }),
			want: 2434,
		},
		{
			name: "maintenance applies no adjustment",
			p:    profile(func(p *vitalia.Profile) { p.TargetWeight = 70 }),
			want: 2034,
		},
		{
			name: "unknown activity level falls back to 1.2",
			p:    profile(func(p *vitalia.Profile) { p.ActivityLevel = "extreme" }),
			want: 1534,
		},
		{
			name: "empty activity level falls back to 1.2",
			p:    profile(func(p *vitalia.Profile) { p.ActivityLevel = "" }),
			want: 1534,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DailyTarget(tt.p))
		})
	}
}

func TestDailyTarget_MatchesFormulaForEveryActivityLevel(t *testing.T) {
	levels := []vitalia.ActivityLevel{
		vitalia.ActivitySedentary,
		vitalia.ActivityLight,
		vitalia.ActivityModerate,
		vitalia.ActivityIntense,
	}
	genders := []vitalia.Gender{vitalia.GenderMale, vitalia.GenderFemale}
	targets := []float64{60, 70, 80}

	for _, level := range levels {
		for _, g := range genders {
			for _, target := range targets {
				p := profile(func(p *vitalia.Profile) {
					p.ActivityLevel = level
					p.Gender = g
					p.TargetWeight = target
				})

				adj := 0.0
				if target < p.Weight {
					adj = -500
				} else if target > p.Weight {
					adj = 400
				}
				want := int(math.Round(BMR(p)*activityMultipliers[level] + adj))

				assert.Equal(t, want, DailyTarget(p), "level=%s gender=%s target=%v", level, g, target)
				assert.Equal(t, DailyTarget(p), DailyTarget(p), "deterministic")
			}
		}
	}
}

func TestMultiplier(t *testing.T) {
	assert.Equal(t, 1.2, Multiplier(vitalia.ActivitySedentary))
	assert.Equal(t, 1.375, Multiplier(vitalia.ActivityLight))
	assert.Equal(t, 1.55, Multiplier(vitalia.ActivityModerate))
	assert.Equal(t, 1.725, Multiplier(vitalia.ActivityIntense))
	assert.Equal(t, 1.2, Multiplier("couch"))
}

func TestEstimateTimeline(t *testing.T) {
	tests := []struct {
		name string
		p    vitalia.Profile
		want Timeline
	}{
		{
			name: "goal already met",
			p:    profile(func(p *vitalia.Profile) { p.TargetWeight = 70 }),
			want: Timeline{Weeks: 0, Label: GoalReachedLabel},
		},
		{
			name: "moderate losing ten kilos",
			p:    profile(func(p *vitalia.Profile) { p.TargetWeight = 60; p.ActivityLevel = vitalia.ActivityModerate }),
			want: Timeline{Weeks: 15, Months: 3.5, Label: "3.5 meses"},
		},
		{
			name: "sedentary losing two kilos stays in weeks",
			p:    profile(nil),
			want: Timeline{Weeks: 4, Months: 0.9, Label: "4 semanas"},
		},
		{
			name: "intense gaining rounds weeks up",
			p:    profile(func(p *vitalia.Profile) { p.TargetWeight = 71; p.ActivityLevel = vitalia.ActivityIntense }),
			want: Timeline{Weeks: 2, Months: 0.5, Label: "2 semanas"},
		},
		{
			name: "light five weeks switches to months",
			p:    profile(func(p *vitalia.Profile) { p.TargetWeight = 67; p.ActivityLevel = vitalia.ActivityLight }),
			want: Timeline{Weeks: 5, Months: 1.2, Label: "1.2 meses"},
		},
		{
			name: "unknown level uses half a kilo per week",
			p:    profile(func(p *vitalia.Profile) { p.TargetWeight = 65; p.ActivityLevel = "" }),
			want: Timeline{Weeks: 10, Months: 2.3, Label: "2.3 meses"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EstimateTimeline(tt.p))
		})
	}
}

func TestEstimateTimeline_ZeroWeeksOnlyWhenEqual(t *testing.T) {
	p := profile(func(p *vitalia.Profile) { p.TargetWeight = 69.99 })
	assert.NotZero(t, EstimateTimeline(p).Weeks)
}
