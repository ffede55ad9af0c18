package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Amount
		wantErr bool
	}{
		{name: "Whole number", input: "1500", want: 150000},
		{name: "Two decimals", input: "1499.99", want: 149999},
		{name: "One decimal", input: "140.5", want: 14050},
		{name: "Surrounding spaces", input: " 75 ", want: 7500},
		{name: "Negative", input: "-12.30", want: -1230},
		{name: "Too many decimals", input: "1.005", wantErr: true},
		{name: "Empty", input: "", wantErr: true},
		{name: "Not a number", input: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAmount_String(t *testing.T) {
	assert.Equal(t, "1550.00", FromMajor(1550).String())
	assert.Equal(t, "0.05", Amount(5).String())
	assert.Equal(t, "R1499.99", Amount(149999).Format("R"))
	assert.Equal(t, "-R7.50", Amount(-750).Format("R"))
}

func TestAmount_Mul(t *testing.T) {
	assert.Equal(t, FromMajor(900), FromMajor(450).Mul(2))
	assert.Equal(t, Amount(0), FromMajor(450).Mul(0))
}

func TestMax(t *testing.T) {
	assert.Equal(t, Amount(0), Max(0, -80000))
	assert.Equal(t, Amount(10), Max(10, 3))
}
