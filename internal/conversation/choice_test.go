package conversation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseChoice(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		size    int
		want    int
		wantErr error
	}{
		{name: "uppercase first option", input: "A", size: 3, want: 0},
		{name: "lowercase third option", input: "c", size: 3, want: 2},
		{name: "surrounding whitespace", input: "  b \n", size: 3, want: 1},
		{name: "letter beyond menu", input: "D", size: 3, wantErr: errChoiceOutOfRange},
		{name: "digit", input: "1", size: 3, wantErr: errNotALetter},
		{name: "word", input: "xyz", size: 3, wantErr: errNotALetter},
		{name: "empty", input: "", size: 3, wantErr: errNotALetter},
		{name: "emoji", input: "👍", size: 3, wantErr: errNotALetter},
		{name: "empty menu", input: "a", size: 0, wantErr: errChoiceOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseChoice(tt.input, tt.size)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestChoiceLabelRoundTrip(t *testing.T) {
	for i := 0; i < 26; i++ {
		idx, err := parseChoice(choiceLabel(i), 26)
		require.NoError(t, err)
		require.Equal(t, i, idx)
	}
}
