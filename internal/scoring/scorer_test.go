package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateWeightings(t *testing.T) {
	tests := []struct {
		name    string
		w       Weightings
		wantErr string
	}{
		{
			name: "all four channels summing to 100",
			w:    Weightings{"cv": 30, "assessment": 40, "interview": 20, "references": 10},
		},
		{
			name: "partial channels summing to 100",
			w:    Weightings{"cv": 60, "assessment": 40},
		},
		{
			name:    "empty weightings",
			w:       Weightings{},
			wantErr: "weightings are required",
		},
		{
			name:    "sum below 100",
			w:       Weightings{"cv": 50, "assessment": 40},
			wantErr: "must sum to 100",
		},
		{
			name:    "sum above 100",
			w:       Weightings{"cv": 60, "assessment": 50},
			wantErr: "must sum to 100",
		},
		{
			name:    "negative weight",
			w:       Weightings{"cv": 120, "assessment": -20},
			wantErr: "must not be negative",
		},
		{
			name:    "unknown channel",
			w:       Weightings{"cv": 50, "vibes": 50},
			wantErr: "unknown weighting channel",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateWeightings(tt.w)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestComposite(t *testing.T) {
	sub := SubScores{CV: 80, Assessment: 70, Interview: 60, References: 90}
	w := Weightings{"cv": 30, "assessment": 40, "interview": 20, "references": 10}

	breakdown := Composite(sub, w)

	// 80*0.3 + 70*0.4 + 60*0.2 + 90*0.1 = 24 + 28 + 12 + 9
	assert.InDelta(t, 73.0, breakdown.Overall, 1e-9)
	assert.Equal(t, sub, breakdown.SubScores)
	assert.Equal(t, w, breakdown.Weightings)
}

func TestComposite_MissingChannelsContributeNothing(t *testing.T) {
	sub := SubScores{CV: 100, Assessment: 50, Interview: 100, References: 100}
	breakdown := Composite(sub, Weightings{"cv": 50, "assessment": 50})

	assert.InDelta(t, 75.0, breakdown.Overall, 1e-9)
}

func TestComposite_SnapshotIsACopy(t *testing.T) {
	w := Weightings{"cv": 100}
	breakdown := Composite(SubScores{CV: 40}, w)

	w["cv"] = 0
	assert.InDelta(t, 100.0, breakdown.Weightings["cv"], 1e-9)
}

func TestComposite_Deterministic(t *testing.T) {
	sub := SubScores{CV: 33.3, Assessment: 66.6, Interview: 12.5, References: 99.9}
	w := Weightings{"cv": 25, "assessment": 25, "interview": 25, "references": 25}

	first := Composite(sub, w)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first.Overall, Composite(sub, w).Overall)
	}
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-5))
	assert.Equal(t, 0.0, Clamp(0))
	assert.Equal(t, 55.5, Clamp(55.5))
	assert.Equal(t, 100.0, Clamp(100))
	assert.Equal(t, 100.0, Clamp(140))
}
