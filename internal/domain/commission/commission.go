// Package commission derives the platform/agent/seller splits from a
// fixed fee schedule. Calculate is a pure function of the sale price
// so disbursement amounts can be re-derived from the transaction alone
// and independently audited.
package commission

import "github.com/estate-hub/estate-hub/internal/domain/fault"

// Schedule is the fixed fee schedule. Percentages are expressed in
// basis points to keep the arithmetic integral.
type Schedule struct {
	// CommissionBps is the total commission taken on the sale price.
	CommissionBps int64
	// AgentShareBps is the agent's share of the total commission.
	AgentShareBps int64
	// PlatformFeeBps is the booking-token fee taken on the sale price.
	PlatformFeeBps int64
}

// DefaultSchedule: 2% commission, 60% of it to the agent, 1% booking
// token.
var DefaultSchedule = Schedule{
	CommissionBps:  200,
	AgentShareBps:  6000,
	PlatformFeeBps: 100,
}

// Breakdown is the derived split for a sale.
type Breakdown struct {
	TotalPrice      int64 `json:"totalPrice"`
	TokenAmount     int64 `json:"tokenAmount"`
	TotalCommission int64 `json:"totalCommission"`
	AgentShare      int64 `json:"agentShare"`
	PlatformShare   int64 `json:"platformShare"`
	SellerProceeds  int64 `json:"sellerProceeds"`
}

// Validate checks the schedule bounds.
func (s Schedule) Validate() error {
	if s.CommissionBps < 0 || s.CommissionBps > 10000 {
		return &fault.ValidationError{Field: "commissionBps", Reason: "must be between 0 and 10000"}
	}
	if s.AgentShareBps < 0 || s.AgentShareBps > 10000 {
		return &fault.ValidationError{Field: "agentShareBps", Reason: "must be between 0 and 10000"}
	}
	if s.PlatformFeeBps < 0 || s.PlatformFeeBps > 10000 {
		return &fault.ValidationError{Field: "platformFeeBps", Reason: "must be between 0 and 10000"}
	}
	return nil
}

// Calculate derives the full breakdown for totalPrice. Fractions round
// down; the platform absorbs the commission remainder so the shares
// always sum exactly to the total commission.
func (s Schedule) Calculate(totalPrice int64) (Breakdown, error) {
	if totalPrice <= 0 {
		return Breakdown{}, &fault.ValidationError{Field: "totalPrice", Reason: "price must be positive"}
	}
	if err := s.Validate(); err != nil {
		return Breakdown{}, err
	}
	total := totalPrice * s.CommissionBps / 10000
	agent := total * s.AgentShareBps / 10000
	return Breakdown{
		TotalPrice:      totalPrice,
		TokenAmount:     totalPrice * s.PlatformFeeBps / 10000,
		TotalCommission: total,
		AgentShare:      agent,
		PlatformShare:   total - agent,
		SellerProceeds:  totalPrice - total,
	}, nil
}
