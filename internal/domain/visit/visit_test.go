package visit

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestRequest_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		allowed bool
	}{
		{name: "requested to approved", from: StatusRequested, to: StatusApproved, allowed: true},
		{name: "requested to rejected", from: StatusRequested, to: StatusRejected, allowed: true},
		{name: "requested to cancelled", from: StatusRequested, to: StatusCancelled, allowed: true},
		{name: "requested cannot check in", from: StatusRequested, to: StatusCheckedIn, allowed: false},
		{name: "approved to checked in", from: StatusApproved, to: StatusCheckedIn, allowed: true},
		{name: "approved to no-show", from: StatusApproved, to: StatusNoShow, allowed: true},
		{name: "approved to cancelled", from: StatusApproved, to: StatusCancelled, allowed: true},
		{name: "checked in to completed", from: StatusCheckedIn, to: StatusCompleted, allowed: true},
		{name: "checked in cannot cancel", from: StatusCheckedIn, to: StatusCancelled, allowed: false},
		{name: "completed is terminal", from: StatusCompleted, to: StatusApproved, allowed: false},
		{name: "no-show is terminal", from: StatusNoShow, to: StatusApproved, allowed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Request{VisitID: uuid.New(), Status: tt.from}
			assert.Equal(t, tt.allowed, r.CanTransitionTo(tt.to))
		})
	}
}

func TestRequest_Transition_Invalid(t *testing.T) {
	r := &Request{VisitID: uuid.New(), Status: StatusRejected}
	err := r.Transition(StatusApproved)
	assert.Error(t, err)
	assert.Equal(t, StatusRejected, r.Status)
}

func TestRequest_Open(t *testing.T) {
	for _, s := range []Status{StatusRequested, StatusApproved} {
		r := &Request{Status: s}
		assert.True(t, r.Open(), string(s))
	}
	for _, s := range []Status{StatusRejected, StatusCheckedIn, StatusCompleted, StatusNoShow, StatusCancelled} {
		r := &Request{Status: s}
		assert.False(t, r.Open(), string(s))
	}
}

func TestValidateRating(t *testing.T) {
	for rating := 1; rating <= 5; rating++ {
		assert.NoError(t, ValidateRating(rating))
	}
	assert.Error(t, ValidateRating(0))
	assert.Error(t, ValidateRating(6))
	assert.Error(t, ValidateRating(-1))
}
