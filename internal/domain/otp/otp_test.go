package otp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCode(t *testing.T) {
	for i := 0; i < 100; i++ {
		code, err := GenerateCode()
		require.NoError(t, err)
		assert.Len(t, code, 6)
		for _, c := range code {
			assert.True(t, c >= '0' && c <= '9')
		}
	}
}

func TestHashCode(t *testing.T) {
	h1 := HashCode("123456")
	h2 := HashCode("123456")
	h3 := HashCode("654321")

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 64)
	assert.NotContains(t, h1, "123456")
}

func TestKey(t *testing.T) {
	assert.Equal(t, "otp:SELLER_VERIFICATION:abc", Key(PurposeSellerVerification, "abc"))

	// purposes namespace the key so challenges cannot cross workflows
	assert.NotEqual(t,
		Key(PurposeSettlementBuyer, "txn-1"),
		Key(PurposeSettlementSeller, "txn-1"),
	)
}
