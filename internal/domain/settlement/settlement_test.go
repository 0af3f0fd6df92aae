package settlement

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransaction_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		allowed bool
	}{
		{name: "initiated to slot booked", from: StatusInitiated, to: StatusSlotBooked, allowed: true},
		{name: "initiated cannot skip to buyer verified", from: StatusInitiated, to: StatusBuyerVerified, allowed: false},
		{name: "slot booked to buyer verified", from: StatusSlotBooked, to: StatusBuyerVerified, allowed: true},
		{name: "seller cannot verify before buyer", from: StatusSlotBooked, to: StatusSellerVerified, allowed: false},
		{name: "buyer verified to seller verified", from: StatusBuyerVerified, to: StatusSellerVerified, allowed: true},
		{name: "seller verified to all verified", from: StatusSellerVerified, to: StatusAllVerified, allowed: true},
		{name: "all verified to seller paid", from: StatusAllVerified, to: StatusSellerPaid, allowed: true},
		{name: "seller paid to documents pending", from: StatusSellerPaid, to: StatusDocumentsPending, allowed: true},
		{name: "documents pending to completed", from: StatusDocumentsPending, to: StatusCompleted, allowed: true},
		{name: "all verified cannot complete directly", from: StatusAllVerified, to: StatusCompleted, allowed: false},
		{name: "initiated can cancel", from: StatusInitiated, to: StatusCancelled, allowed: true},
		{name: "documents pending can fail", from: StatusDocumentsPending, to: StatusFailed, allowed: true},
		{name: "completed is terminal", from: StatusCompleted, to: StatusCancelled, allowed: false},
		{name: "cancelled is terminal", from: StatusCancelled, to: StatusSlotBooked, allowed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn := &Transaction{TransactionID: uuid.New(), Status: tt.from}
			assert.Equal(t, tt.allowed, txn.CanTransitionTo(tt.to))
		})
	}
}

func TestTransaction_Terminal(t *testing.T) {
	for _, s := range []Status{StatusCompleted, StatusCancelled, StatusFailed} {
		txn := &Transaction{Status: s}
		assert.True(t, txn.Terminal(), string(s))
	}
	txn := &Transaction{Status: StatusAllVerified}
	assert.False(t, txn.Terminal())
}

func TestTransaction_CheckedIn(t *testing.T) {
	txn := &Transaction{TransactionID: uuid.New()}
	assert.False(t, txn.CheckedIn())
	now := time.Now().UTC()
	txn.AgentCheckedInAt = &now
	assert.True(t, txn.CheckedIn())
}

func TestPayment_Verify(t *testing.T) {
	now := time.Now().UTC()
	admin := uuid.New()

	p := &Payment{PaymentID: uuid.New(), Status: PaymentPending}
	require.NoError(t, p.Verify(PaymentVerified, admin, "matched bank statement", now))
	assert.Equal(t, PaymentVerified, p.Status)
	require.NotNil(t, p.VerifiedBy)
	assert.Equal(t, admin, *p.VerifiedBy)
	require.NotNil(t, p.Note)
	assert.Equal(t, "matched bank statement", *p.Note)

	// second decision conflicts
	err := p.Verify(PaymentRejected, admin, "", now)
	assert.Error(t, err)
	assert.Equal(t, PaymentVerified, p.Status)
}

func TestPayment_Verify_RejectsNonDecision(t *testing.T) {
	p := &Payment{PaymentID: uuid.New(), Status: PaymentPending}
	err := p.Verify(PaymentPending, uuid.New(), "", time.Now().UTC())
	assert.Error(t, err)
}

func TestValidatePaymentType(t *testing.T) {
	for _, pt := range []PaymentType{PaymentToken, PaymentSaleDeedBuyer, PaymentSaleDeedSeller, PaymentRegistrationDoc, PaymentPlatformCommission} {
		assert.NoError(t, ValidatePaymentType(pt), string(pt))
	}
	assert.Error(t, ValidatePaymentType(PaymentType("ESCROW")))
}

func verified(pt PaymentType) *Payment {
	return &Payment{PaymentID: uuid.New(), Type: pt, Status: PaymentVerified}
}

func pending(pt PaymentType) *Payment {
	return &Payment{PaymentID: uuid.New(), Type: pt, Status: PaymentPending}
}

func TestDocumentsVerified(t *testing.T) {
	tests := []struct {
		name     string
		payments []*Payment
		want     bool
	}{
		{
			name: "split deed path",
			payments: []*Payment{
				verified(PaymentToken),
				verified(PaymentSaleDeedBuyer),
				verified(PaymentSaleDeedSeller),
				verified(PaymentPlatformCommission),
			},
			want: true,
		},
		{
			name: "combined registration document path",
			payments: []*Payment{
				verified(PaymentToken),
				verified(PaymentRegistrationDoc),
				verified(PaymentPlatformCommission),
			},
			want: true,
		},
		{
			name: "one deed half missing",
			payments: []*Payment{
				verified(PaymentToken),
				verified(PaymentSaleDeedBuyer),
				verified(PaymentPlatformCommission),
			},
			want: false,
		},
		{
			name: "pending proof does not count",
			payments: []*Payment{
				verified(PaymentToken),
				pending(PaymentRegistrationDoc),
				verified(PaymentPlatformCommission),
			},
			want: false,
		},
		{
			name: "missing commission",
			payments: []*Payment{
				verified(PaymentToken),
				verified(PaymentRegistrationDoc),
			},
			want: false,
		},
		{
			name:     "no payments",
			payments: nil,
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DocumentsVerified(tt.payments))
		})
	}
}
