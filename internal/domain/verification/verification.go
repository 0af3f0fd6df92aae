package verification

import (
	"time"

	"github.com/google/uuid"

	"github.com/estate-hub/estate-hub/internal/domain/fault"
)

// Result represents the verification outcome.
type Result string

const (
	ResultApproved Result = "APPROVED"
	ResultRejected Result = "REJECTED"
)

// Verification records an agent's on-site property verification. One
// incomplete verification may exist per property at a time.
type Verification struct {
	ID                  int64      `json:"id"`
	VerificationID      uuid.UUID  `json:"verificationId"`
	PropertyID          uuid.UUID  `json:"propertyId"`
	AgentID             uuid.UUID  `json:"agentId"`
	StartedAt           time.Time  `json:"startedAt"`
	GPSLat              *float64   `json:"gpsLat,omitempty"`
	GPSLng              *float64   `json:"gpsLng,omitempty"`
	GPSDistanceMeters   *float64   `json:"gpsDistanceMeters,omitempty"`
	GPSVerifiedAt       *time.Time `json:"gpsVerifiedAt,omitempty"`
	SellerOTPVerifiedAt *time.Time `json:"sellerOtpVerifiedAt,omitempty"`
	Result              *Result    `json:"result,omitempty"`
	Notes               *string    `json:"notes,omitempty"`
	RejectionReason     *string    `json:"rejectionReason,omitempty"`
	CompletedAt         *time.Time `json:"completedAt,omitempty"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

// Completed reports whether the verification reached a result.
func (v *Verification) Completed() bool {
	return v.CompletedAt != nil
}

// CaptureGPS stores the agent's location. Capturing does not approve.
func (v *Verification) CaptureGPS(lat, lng, distanceMeters float64, now time.Time) error {
	if v.Completed() {
		return &fault.ConflictError{Entity: "verification", Constraint: "already completed"}
	}
	v.GPSLat = &lat
	v.GPSLng = &lng
	v.GPSDistanceMeters = &distanceMeters
	v.GPSVerifiedAt = &now
	return nil
}

// Complete records the result. Rejection requires a non-empty reason;
// approval requires both the GPS capture and the seller OTP.
func (v *Verification) Complete(result Result, notes string, rejectionReason string, now time.Time) error {
	if v.Completed() {
		return &fault.ConflictError{Entity: "verification", Constraint: "already completed"}
	}
	switch result {
	case ResultApproved:
		if v.GPSVerifiedAt == nil {
			return &fault.ValidationError{Field: "gps", Reason: "GPS capture is required before approval"}
		}
		if v.SellerOTPVerifiedAt == nil {
			return &fault.ValidationError{Field: "sellerOtp", Reason: "seller OTP must be verified before approval"}
		}
	case ResultRejected:
		if rejectionReason == "" {
			return &fault.ValidationError{Field: "rejectionReason", Reason: "rejection requires a reason"}
		}
		v.RejectionReason = &rejectionReason
	default:
		return &fault.ValidationError{Field: "result", Reason: "unknown verification result: " + string(result)}
	}
	v.Result = &result
	if notes != "" {
		v.Notes = &notes
	}
	v.CompletedAt = &now
	return nil
}
