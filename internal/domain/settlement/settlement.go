package settlement

import (
	"time"

	"github.com/google/uuid"

	"github.com/estate-hub/estate-hub/internal/domain/fault"
)

// Status represents transaction settlement status.
type Status string

const (
	StatusInitiated        Status = "INITIATED"
	StatusSlotBooked       Status = "SLOT_BOOKED"
	StatusBuyerVerified    Status = "BUYER_VERIFIED"
	StatusSellerVerified   Status = "SELLER_VERIFIED"
	StatusAllVerified      Status = "ALL_VERIFIED"
	StatusSellerPaid       Status = "SELLER_PAID"
	StatusDocumentsPending Status = "DOCUMENTS_PENDING"
	StatusCompleted        Status = "COMPLETED"
	StatusCancelled        Status = "CANCELLED"
	StatusFailed           Status = "FAILED"
)

// transitions is the settlement reachability table. CANCELLED and
// FAILED are reachable from every non-terminal state; buyer OTP
// verification strictly precedes seller OTP verification.
var transitions = map[Status][]Status{
	StatusInitiated:        {StatusSlotBooked, StatusCancelled, StatusFailed},
	StatusSlotBooked:       {StatusBuyerVerified, StatusCancelled, StatusFailed},
	StatusBuyerVerified:    {StatusSellerVerified, StatusCancelled, StatusFailed},
	StatusSellerVerified:   {StatusAllVerified, StatusCancelled, StatusFailed},
	StatusAllVerified:      {StatusSellerPaid, StatusCancelled, StatusFailed},
	StatusSellerPaid:       {StatusDocumentsPending, StatusCancelled, StatusFailed},
	StatusDocumentsPending: {StatusCompleted, StatusCancelled, StatusFailed},
	StatusCompleted:        {},
	StatusCancelled:        {},
	StatusFailed:           {},
}

// Party identifies which side of the deal an OTP addresses.
type Party string

const (
	PartyBuyer  Party = "BUYER"
	PartySeller Party = "SELLER"
)

// Transaction is the settlement record created when an offer is
// accepted. It is the sole path from RESERVED to SOLD.
type Transaction struct {
	ID                   int64      `json:"id"`
	TransactionID        uuid.UUID  `json:"transactionId"`
	OfferID              uuid.UUID  `json:"offerId"`
	PropertyID           uuid.UUID  `json:"propertyId"`
	BuyerID              uuid.UUID  `json:"buyerId"`
	SellerID             uuid.UUID  `json:"sellerId"`
	AgentID              uuid.UUID  `json:"agentId"`
	Status               Status     `json:"status"`
	TotalPrice           int64      `json:"totalPrice"`
	TokenAmount          int64      `json:"tokenAmount"`
	TotalCommission      int64      `json:"totalCommission"`
	AgentShare           int64      `json:"agentShare"`
	PlatformShare        int64      `json:"platformShare"`
	RegistrationDate     *time.Time `json:"registrationDate,omitempty"`
	RegistrationOffice   *string    `json:"registrationOffice,omitempty"`
	RegistrationLocation *string    `json:"registrationLocation,omitempty"`
	AgentGPSLat          *float64   `json:"agentGpsLat,omitempty"`
	AgentGPSLng          *float64   `json:"agentGpsLng,omitempty"`
	AgentCheckedInAt     *time.Time `json:"agentCheckedInAt,omitempty"`
	BuyerVerifiedAt      *time.Time `json:"buyerVerifiedAt,omitempty"`
	SellerVerifiedAt     *time.Time `json:"sellerVerifiedAt,omitempty"`
	CancelReason         *string    `json:"cancelReason,omitempty"`
	CompletedAt          *time.Time `json:"completedAt,omitempty"`
	Version              int        `json:"version"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

// CanTransitionTo validates settlement status transition.
func (t *Transaction) CanTransitionTo(target Status) bool {
	for _, s := range transitions[t.Status] {
		if s == target {
			return true
		}
	}
	return false
}

// Transition moves the transaction to target.
func (t *Transaction) Transition(target Status) error {
	if !t.CanTransitionTo(target) {
		return &fault.InvalidTransitionError{
			Entity: "transaction",
			ID:     t.TransactionID.String(),
			From:   string(t.Status),
			To:     string(target),
		}
	}
	t.Status = target
	return nil
}

// Terminal reports whether no further transitions are possible.
func (t *Transaction) Terminal() bool {
	return len(transitions[t.Status]) == 0
}

// CheckedIn reports whether the agent recorded a GPS check-in. A
// transaction cannot complete without one.
func (t *Transaction) CheckedIn() bool {
	return t.AgentCheckedInAt != nil
}
