package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func titles(n int, length int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = strings.Repeat("m", length)
	}
	return out
}

// TestValidateGoal covers each bound at and just past its limit.
func TestValidateGoal(t *testing.T) {
	tests := []struct {
		name    string
		input   GoalInput
		wantErr string
	}{
		{
			name:  "at limits",
			input: GoalInput{Title: strings.Repeat("t", 100), Description: strings.Repeat("d", 500), MilestoneTitles: titles(10, 100)},
		},
		{
			name:  "empty",
			input: GoalInput{},
		},
		{
			name:    "title too long",
			input:   GoalInput{Title: strings.Repeat("t", 101)},
			wantErr: "title is too long (max 100 characters)",
		},
		{
			name:    "description too long",
			input:   GoalInput{Description: strings.Repeat("d", 501)},
			wantErr: "description is too long (max 500 characters)",
		},
		{
			name:    "too many milestones",
			input:   GoalInput{MilestoneTitles: titles(11, 1)},
			wantErr: "milestone titles has too many entries (max 10)",
		},
		{
			name:    "milestone title too long",
			input:   GoalInput{MilestoneTitles: []string{"ok", strings.Repeat("m", 101)}},
			wantErr: "milestone title [1] is too long (max 100 characters)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateGoal(&tt.input)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, err.Error())
		})
	}
}

// TestValidateGoal_CountsCharacters verifies bounds are measured in characters after NFC.
func TestValidateGoal_CountsCharacters(t *testing.T) {
	// "e" followed by a combining acute accent composes to a single "é".
	decomposed := strings.Repeat("e\u0301", 100)

	in := GoalInput{Title: decomposed}
	require.NoError(t, ValidateGoal(&in))
	assert.Equal(t, strings.Repeat("\u00e9", 100), in.Title)

	in = GoalInput{Title: strings.Repeat("日", 100)}
	assert.NoError(t, ValidateGoal(&in))
}

// TestValidateNotes verifies the notes bound.
func TestValidateNotes(t *testing.T) {
	require.NoError(t, ValidateNotes(&NotesInput{Notes: strings.Repeat("n", 200)}))

	err := ValidateNotes(&NotesInput{Notes: strings.Repeat("n", 201)})
	require.Error(t, err)
	assert.Equal(t, "verification notes is too long (max 200 characters)", err.Error())
}
