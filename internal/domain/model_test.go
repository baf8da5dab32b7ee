package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestEvaluateStatus(t *testing.T) {
	d := decimal.RequireFromString
	tests := []struct {
		current, target string
		want            IndicatorStatus
	}{
		{"90", "100", IndicatorOnTrack},
		{"150", "100", IndicatorOnTrack},
		{"89.99", "100", IndicatorAtRisk},
		{"60", "100", IndicatorAtRisk},
		{"59", "100", IndicatorLate},
		{"0", "100", IndicatorLate},
		{"0", "0", IndicatorOnTrack},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EvaluateStatus(d(tt.current), d(tt.target)), "%s/%s", tt.current, tt.target)
	}
}

func TestIndicatorCompletion(t *testing.T) {
	ind := Indicator{TargetValue: decimal.NewFromInt(200), CurrentValue: decimal.NewFromInt(50)}
	assert.True(t, ind.Completion().Equal(decimal.RequireFromString("0.25")))

	ind.CurrentValue = decimal.NewFromInt(500)
	assert.True(t, ind.Completion().Equal(decimal.NewFromInt(1)))
}

func TestVisitTransitions(t *testing.T) {
	assert.NoError(t, ValidateTransition(VisitTransitions, string(VisitScheduled), string(VisitInProgress)))
	assert.NoError(t, ValidateTransition(VisitTransitions, string(VisitInProgress), string(VisitCompleted)))

	err := ValidateTransition(VisitTransitions, string(VisitCompleted), string(VisitScheduled))
	assert.True(t, IsKind(err, KindValidation))
	err = ValidateTransition(VisitTransitions, string(VisitInProgress), string(VisitScheduled))
	assert.True(t, IsKind(err, KindValidation))
	err = ValidateTransition(VisitTransitions, "LOST", string(VisitScheduled))
	assert.True(t, IsKind(err, KindValidation))
}
