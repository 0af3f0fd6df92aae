package offer

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOffer_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		allowed bool
	}{
		{name: "pending to accepted", from: StatusPending, to: StatusAccepted, allowed: true},
		{name: "pending to rejected", from: StatusPending, to: StatusRejected, allowed: true},
		{name: "pending to countered", from: StatusPending, to: StatusCountered, allowed: true},
		{name: "pending to expired", from: StatusPending, to: StatusExpired, allowed: true},
		{name: "pending to withdrawn", from: StatusPending, to: StatusWithdrawn, allowed: true},
		{name: "accepted is terminal", from: StatusAccepted, to: StatusRejected, allowed: false},
		{name: "countered is terminal", from: StatusCountered, to: StatusAccepted, allowed: false},
		{name: "expired is terminal", from: StatusExpired, to: StatusPending, allowed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &Offer{OfferID: uuid.New(), Status: tt.from}
			assert.Equal(t, tt.allowed, o.CanTransitionTo(tt.to))
		})
	}
}

func TestOffer_Transition_StampsDecision(t *testing.T) {
	now := time.Now().UTC()
	o := &Offer{OfferID: uuid.New(), Status: StatusPending}
	require.NoError(t, o.Transition(StatusRejected, now))
	require.NotNil(t, o.DecidedAt)
	assert.Equal(t, now, *o.DecidedAt)
}

func TestOffer_ExpiredBy(t *testing.T) {
	now := time.Now().UTC()
	o := &Offer{OfferID: uuid.New(), Status: StatusPending, ExpiresAt: now.Add(time.Hour)}

	assert.False(t, o.ExpiredBy(now))
	assert.True(t, o.ExpiredBy(now.Add(2*time.Hour)))

	// a decided offer never expires
	o.Status = StatusAccepted
	assert.False(t, o.ExpiredBy(now.Add(2*time.Hour)))
}

func TestOffer_Validate(t *testing.T) {
	now := time.Now().UTC()
	o := &Offer{
		OfferID:      uuid.New(),
		OfferedPrice: 8_000_000,
		CreatedAt:    now,
		ExpiresAt:    now.Add(DefaultExpiry),
	}
	require.NoError(t, o.Validate())

	o.OfferedPrice = 0
	assert.Error(t, o.Validate())

	o.OfferedPrice = 8_000_000
	o.ExpiresAt = now.Add(-time.Minute)
	assert.Error(t, o.Validate())
}

func TestThread(t *testing.T) {
	propertyID := uuid.New()
	buyerID := uuid.New()

	first := &Offer{OfferID: uuid.New(), PropertyID: propertyID, BuyerID: buyerID, OfferedPrice: 7_000_000, Status: StatusCountered}
	second := &Offer{OfferID: uuid.New(), PropertyID: propertyID, BuyerID: buyerID, ParentOfferID: &first.OfferID, OfferedPrice: 7_500_000, Status: StatusCountered}
	third := &Offer{OfferID: uuid.New(), PropertyID: propertyID, BuyerID: buyerID, ParentOfferID: &second.OfferID, OfferedPrice: 7_800_000, Status: StatusPending}
	unrelated := &Offer{OfferID: uuid.New(), PropertyID: propertyID, BuyerID: uuid.New(), OfferedPrice: 6_000_000, Status: StatusPending}

	// flat slice in arbitrary order
	chain := Thread([]*Offer{third, unrelated, first, second}, third.OfferID)

	require.Len(t, chain, 3)
	assert.Equal(t, first.OfferID, chain[0].OfferID)
	assert.Equal(t, second.OfferID, chain[1].OfferID)
	assert.Equal(t, third.OfferID, chain[2].OfferID)
}

func TestThread_SingleOffer(t *testing.T) {
	o := &Offer{OfferID: uuid.New(), Status: StatusPending}
	chain := Thread([]*Offer{o}, o.OfferID)
	require.Len(t, chain, 1)
	assert.Equal(t, o.OfferID, chain[0].OfferID)
}

func TestThread_UnknownLeaf(t *testing.T) {
	o := &Offer{OfferID: uuid.New(), Status: StatusPending}
	chain := Thread([]*Offer{o}, uuid.New())
	assert.Empty(t, chain)
}
