package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAmountFromLabel(t *testing.T) {
	cases := []struct {
		label  string
		amount int
		ok     bool
	}{
		{"low", AmountLow, true},
		{"medium", AmountMedium, true},
		{" HIGH ", AmountHigh, true},
		{"huge", AmountLow, false},
		{"", AmountLow, false},
	}
	for _, tc := range cases {
		amount, ok := AmountFromLabel(tc.label)
		assert.Equal(t, tc.amount, amount, tc.label)
		assert.Equal(t, tc.ok, ok, tc.label)
	}
}

func TestAmountLabelRoundTrip(t *testing.T) {
	for _, label := range []string{"low", "medium", "high"} {
		n, _ := AmountFromLabel(label)
		assert.Equal(t, label, AmountLabel(n))
	}
}

func TestNormalizeWasteType(t *testing.T) {
	assert.Equal(t, WasteTypePlastic, NormalizeWasteType("Plastic"))
	assert.Equal(t, WasteTypeEWaste, NormalizeWasteType("e-waste"))
	assert.Equal(t, WasteTypeOther, NormalizeWasteType("glass"))
}
