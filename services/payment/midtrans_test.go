package payment

import (
	"context"
	"coursehub/apperror"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestIsSettled(t *testing.T) {
	cases := []struct {
		status, fraud string
		want          bool
	}{
		{"settlement", "", true},
		{"capture", "accept", true},
		{"capture", "challenge", false},
		{"pending", "", false},
		{"expire", "", false},
		{"deny", "deny", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, IsSettled(tc.status, tc.fraud), "%s/%s", tc.status, tc.fraud)
	}
}

func TestCreateIntentRejectsNonPositiveAmount(t *testing.T) {
	m := NewMidtrans("SB-Mid-server-test", false, 0)

	_, err := m.CreateIntent(context.Background(), IntentRequest{OrderID: "ord-1", Amount: 0})
	assert.ErrorIs(t, err, apperror.ErrPayment)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab", truncate("abcdef", 2))

	cut := truncate("Pemrograman Dasar: édition spéciale", 20)
	assert.True(t, utf8.ValidString(cut))
	assert.Equal(t, 20, utf8.RuneCountInString(cut))
	assert.Equal(t, "日本語", truncate("日本語の講座", 3))
}
