package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLastFourDigits(t *testing.T) {
	tests := []struct {
		name    string
		card    string
		want    string
		wantErr error
	}{
		{
			name: "16 digits",
			card: "4111111111111111",
			want: "1111",
		},
		{
			name: "13 digits",
			card: "4222222222225",
			want: "2225",
		},
		{
			name:    "12 digits",
			card:    "411111111111",
			wantErr: ErrCardTooShort,
		},
		{
			name:    "17 digits",
			card:    "41111111111111112",
			wantErr: ErrCardTooLong,
		},
		{
			name:    "empty",
			card:    "",
			wantErr: ErrCardTooShort,
		},
		{
			name: "not a number but within bounds",
			card: "abcdefghijklmn",
			want: "klmn",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LastFourDigits(tt.card)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLastFourDigits_AllLengths(t *testing.T) {
	for n := 0; n <= 20; n++ {
		card := strings.Repeat("4", n)
		got, err := LastFourDigits(card)
		if n < MinCardLength || n > MaxCardLength {
			assert.Error(t, err, "length %d", n)
			continue
		}
		require.NoError(t, err, "length %d", n)
		assert.Equal(t, card[n-4:], got)
	}
}

func TestIsVisaNumber(t *testing.T) {
	tests := []struct {
		number string
		valid  bool
	}{
		{"4111111111111111", true},
		{"4222222222222", true},
		{"5111111111111111", false},
		{"41111111111111", false},
		{"4111 1111 1111 1111", false},
		{" 4111111111111111", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.number, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsVisaNumber(tt.number))
		})
	}
}
