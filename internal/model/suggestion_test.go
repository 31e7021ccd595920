package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cat(id, position int, name string) Category {
	return Category{ID: id, Position: position, Name: name}
}

func TestCategorySuggestion_Validate(t *testing.T) {
	tests := []struct {
		name       string
		errMsg     string
		suggestion CategorySuggestion
		wantErr    bool
	}{
		{
			name:       "valid suggestion",
			suggestion: CategorySuggestion{Category: cat(1, 0, "Food"), Confidence: 0.5},
		},
		{
			name:       "missing category name",
			suggestion: CategorySuggestion{Confidence: 0.5},
			wantErr:    true,
			errMsg:     "category name is required",
		},
		{
			name:       "confidence above one",
			suggestion: CategorySuggestion{Category: cat(1, 0, "Food"), Confidence: 1.2},
			wantErr:    true,
			errMsg:     "confidence must be between",
		},
		{
			name:       "negative confidence",
			suggestion: CategorySuggestion{Category: cat(1, 0, "Food"), Confidence: -0.1},
			wantErr:    true,
			errMsg:     "confidence must be between",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.suggestion.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCategorySuggestions_SortBreaksTiesByPosition(t *testing.T) {
	suggestions := CategorySuggestions{
		{Category: cat(3, 2, "Travel"), Confidence: 0.3},
		{Category: cat(1, 0, "Food"), Confidence: 0.3},
		{Category: cat(2, 1, "Shopping"), Confidence: 0.8},
	}

	suggestions.Sort()

	assert.Equal(t, "Shopping", suggestions[0].Category.Name)
	assert.Equal(t, "Food", suggestions[1].Category.Name)
	assert.Equal(t, "Travel", suggestions[2].Category.Name)
}

func TestCategorySuggestions_TopN(t *testing.T) {
	suggestions := CategorySuggestions{
		{Category: cat(1, 0, "Food"), Confidence: 0.2},
		{Category: cat(2, 1, "Shopping"), Confidence: 0.9},
		{Category: cat(3, 2, "Travel"), Confidence: 0.5},
	}

	top := suggestions.TopN(2)
	require.Len(t, top, 2)
	assert.Equal(t, "Shopping", top[0].Category.Name)
	assert.Equal(t, "Travel", top[1].Category.Name)

	assert.Len(t, suggestions.TopN(10), 3)
	assert.Empty(t, suggestions.TopN(0))

	best := suggestions.Top()
	require.NotNil(t, best)
	assert.Equal(t, "Shopping", best.Category.Name)
	assert.Nil(t, CategorySuggestions{}.Top())
}

func TestCategorySuggestions_AboveThreshold(t *testing.T) {
	suggestions := CategorySuggestions{
		{Category: cat(1, 0, "Food"), Confidence: 0.2},
		{Category: cat(2, 1, "Shopping"), Confidence: 0.4},
		{Category: cat(3, 2, "Travel"), Confidence: 0.7},
	}

	result := suggestions.AboveThreshold(0.4)
	require.Len(t, result, 2)
	assert.Equal(t, "Travel", result[0].Category.Name)
	assert.Equal(t, "Shopping", result[1].Category.Name)
}

func TestCategorySuggestions_ValidateDuplicates(t *testing.T) {
	suggestions := CategorySuggestions{
		{Category: cat(1, 0, "Food"), Confidence: 0.2},
		{Category: cat(1, 0, "Food"), Confidence: 0.4},
	}

	err := suggestions.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate category")
}

func TestLevelFor(t *testing.T) {
	tests := []struct {
		want       ConfidenceLevel
		confidence float64
	}{
		{confidence: 1.0, want: ConfidenceHigh},
		{confidence: 0.7, want: ConfidenceHigh},
		{confidence: 0.69, want: ConfidenceMedium},
		{confidence: 0.4, want: ConfidenceMedium},
		{confidence: 0.39, want: ConfidenceLow},
		{confidence: 0, want: ConfidenceLow},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelFor(tt.confidence), "confidence %.2f", tt.confidence)
	}

	s := CategorySuggestion{Category: cat(1, 0, "Food"), Confidence: 0.45}
	assert.Equal(t, ConfidenceMedium, s.Level())
}

func TestDirection_IsValid(t *testing.T) {
	assert.True(t, DirectionDebit.IsValid())
	assert.True(t, DirectionCredit.IsValid())
	assert.True(t, DirectionUnknown.IsValid())
	assert.False(t, Direction("sideways").IsValid())
}
