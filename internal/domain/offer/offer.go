package offer

import (
	"time"

	"github.com/google/uuid"

	"github.com/estate-hub/estate-hub/internal/domain/fault"
)

// Status represents offer status.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusAccepted  Status = "ACCEPTED"
	StatusRejected  Status = "REJECTED"
	StatusCountered Status = "COUNTERED"
	StatusExpired   Status = "EXPIRED"
	StatusWithdrawn Status = "WITHDRAWN"
)

// DefaultExpiry is the window a pending offer stays open.
const DefaultExpiry = 48 * time.Hour

var transitions = map[Status][]Status{
	StatusPending:   {StatusAccepted, StatusRejected, StatusCountered, StatusExpired, StatusWithdrawn},
	StatusAccepted:  {},
	StatusRejected:  {},
	StatusCountered: {},
	StatusExpired:   {},
	StatusWithdrawn: {},
}

// Offer is a buyer's priced proposal on a property. Counter-offers
// chain through ParentOfferID; offers live flat in one store and the
// chain is reconstructed by following parent references.
type Offer struct {
	ID            int64      `json:"id"`
	OfferID       uuid.UUID  `json:"offerId"`
	PropertyID    uuid.UUID  `json:"propertyId"`
	BuyerID       uuid.UUID  `json:"buyerId"`
	ParentOfferID *uuid.UUID `json:"parentOfferId,omitempty"`
	OfferedPrice  int64      `json:"offeredPrice"`
	CounterPrice  *int64     `json:"counterPrice,omitempty"`
	Message       *string    `json:"message,omitempty"`
	Status        Status     `json:"status"`
	ExpiresAt     time.Time  `json:"expiresAt"`
	DecidedAt     *time.Time `json:"decidedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// CanTransitionTo validates offer status transition.
func (o *Offer) CanTransitionTo(target Status) bool {
	for _, s := range transitions[o.Status] {
		if s == target {
			return true
		}
	}
	return false
}

// Transition moves the offer to target, stamping decision time.
func (o *Offer) Transition(target Status, now time.Time) error {
	if !o.CanTransitionTo(target) {
		return &fault.InvalidTransitionError{
			Entity: "offer",
			ID:     o.OfferID.String(),
			From:   string(o.Status),
			To:     string(target),
		}
	}
	o.Status = target
	if target != StatusPending {
		o.DecidedAt = &now
	}
	return nil
}

// ExpiredBy reports whether a still-pending offer passed its deadline.
func (o *Offer) ExpiredBy(now time.Time) bool {
	return o.Status == StatusPending && now.After(o.ExpiresAt)
}

// Validate checks offer fields before creation.
func (o *Offer) Validate() error {
	if o.OfferedPrice <= 0 {
		return &fault.ValidationError{Field: "offeredPrice", Reason: "offered price must be positive"}
	}
	if !o.ExpiresAt.After(o.CreatedAt) {
		return &fault.ValidationError{Field: "expiresAt", Reason: "expiry must be after creation"}
	}
	return nil
}

// Thread reconstructs the counter-offer chain ending at leaf, oldest
// first, from a flat slice of the property's offers.
func Thread(offers []*Offer, leaf uuid.UUID) []*Offer {
	byID := make(map[uuid.UUID]*Offer, len(offers))
	for _, o := range offers {
		byID[o.OfferID] = o
	}
	var chain []*Offer
	for id := leaf; ; {
		o, ok := byID[id]
		if !ok {
			break
		}
		chain = append([]*Offer{o}, chain...)
		if o.ParentOfferID == nil {
			break
		}
		id = *o.ParentOfferID
	}
	return chain
}
