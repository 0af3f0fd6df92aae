package settlement

import (
	"time"

	"github.com/google/uuid"

	"github.com/estate-hub/estate-hub/internal/domain/fault"
)

// PaymentType identifies a staged settlement payment. The legacy path
// uses split buyer/seller sale-deed proofs; the newer workflow uses a
// single combined registration document. Both resolve to the same
// DocumentsVerified signal.
type PaymentType string

const (
	PaymentToken              PaymentType = "TOKEN"
	PaymentSaleDeedBuyer      PaymentType = "SALE_DEED_BUYER"
	PaymentSaleDeedSeller     PaymentType = "SALE_DEED_SELLER"
	PaymentRegistrationDoc    PaymentType = "REGISTRATION_DOC"
	PaymentPlatformCommission PaymentType = "PLATFORM_COMMISSION"
)

// PaymentStatus represents verification state of a payment proof.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentVerified PaymentStatus = "VERIFIED"
	PaymentRejected PaymentStatus = "REJECTED"
)

// Payment is an externally-verified payment proof. The core records
// proofs, it does not move money.
type Payment struct {
	ID            int64         `json:"id"`
	PaymentID     uuid.UUID     `json:"paymentId"`
	TransactionID uuid.UUID     `json:"transactionId"`
	Type          PaymentType   `json:"type"`
	Amount        int64         `json:"amount"`
	ProofRef      string        `json:"proofRef"`
	Status        PaymentStatus `json:"status"`
	Note          *string       `json:"note,omitempty"`
	VerifiedBy    *uuid.UUID    `json:"verifiedBy,omitempty"`
	VerifiedAt    *time.Time    `json:"verifiedAt,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
}

// ValidatePaymentType reports whether t is a known type literal.
func ValidatePaymentType(t PaymentType) error {
	switch t {
	case PaymentToken, PaymentSaleDeedBuyer, PaymentSaleDeedSeller, PaymentRegistrationDoc, PaymentPlatformCommission:
		return nil
	default:
		return &fault.ValidationError{Field: "type", Reason: "unknown payment type: " + string(t)}
	}
}

// Verify marks the proof VERIFIED or REJECTED. Single decision per
// proof; a second decision conflicts.
func (p *Payment) Verify(status PaymentStatus, verifier uuid.UUID, note string, now time.Time) error {
	if p.Status != PaymentPending {
		return &fault.ConflictError{Entity: "payment", Constraint: "proof already decided"}
	}
	if status != PaymentVerified && status != PaymentRejected {
		return &fault.ValidationError{Field: "status", Reason: "decision must be VERIFIED or REJECTED"}
	}
	p.Status = status
	p.VerifiedBy = &verifier
	p.VerifiedAt = &now
	if note != "" {
		p.Note = &note
	}
	return nil
}

// DocumentsVerified reports whether every settlement gate is VERIFIED.
// Either the legacy split deed path or the combined registration
// document satisfies the deed gate; the token and platform commission
// gates apply to both paths.
func DocumentsVerified(payments []*Payment) bool {
	verified := make(map[PaymentType]bool)
	for _, p := range payments {
		if p.Status == PaymentVerified {
			verified[p.Type] = true
		}
	}
	deeds := (verified[PaymentSaleDeedBuyer] && verified[PaymentSaleDeedSeller]) ||
		verified[PaymentRegistrationDoc]
	return verified[PaymentToken] && verified[PaymentPlatformCommission] && deeds
}

// PayoutStatus represents commission payout state.
type PayoutStatus string

const (
	PayoutPending         PayoutStatus = "PENDING"
	PayoutReadyToDisburse PayoutStatus = "READY_TO_DISBURSE"
	PayoutPaid            PayoutStatus = "PAID"
	PayoutWaived          PayoutStatus = "WAIVED"
)

// CommissionRecord tracks the agent's earned share until disbursement.
type CommissionRecord struct {
	ID              int64        `json:"id"`
	RecordID        uuid.UUID    `json:"recordId"`
	TransactionID   uuid.UUID    `json:"transactionId"`
	TotalCommission int64        `json:"totalCommission"`
	AgentShare      int64        `json:"agentShare"`
	PlatformShare   int64        `json:"platformShare"`
	Status          PayoutStatus `json:"status"`
	DisbursementRef *string      `json:"disbursementRef,omitempty"`
	DisbursedAt     *time.Time   `json:"disbursedAt,omitempty"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}
