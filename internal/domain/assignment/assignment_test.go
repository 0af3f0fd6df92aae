package assignment

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignment_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		allowed bool
	}{
		{name: "requested to accepted", from: StatusRequested, to: StatusAccepted, allowed: true},
		{name: "requested to declined", from: StatusRequested, to: StatusDeclined, allowed: true},
		{name: "requested to cancelled", from: StatusRequested, to: StatusCancelled, allowed: true},
		{name: "requested cannot complete", from: StatusRequested, to: StatusCompleted, allowed: false},
		{name: "accepted to completed", from: StatusAccepted, to: StatusCompleted, allowed: true},
		{name: "accepted to cancelled", from: StatusAccepted, to: StatusCancelled, allowed: true},
		{name: "declined is terminal", from: StatusDeclined, to: StatusAccepted, allowed: false},
		{name: "completed is terminal", from: StatusCompleted, to: StatusCancelled, allowed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &Assignment{AssignmentID: uuid.New(), Status: tt.from}
			assert.Equal(t, tt.allowed, a.CanTransitionTo(tt.to))
		})
	}
}

func TestAssignment_Transition_Timestamps(t *testing.T) {
	now := time.Now().UTC()
	a := &Assignment{AssignmentID: uuid.New(), Status: StatusRequested}

	require.NoError(t, a.Transition(StatusAccepted, now))
	require.NotNil(t, a.RespondedAt)
	assert.Equal(t, now, *a.RespondedAt)

	later := now.Add(time.Hour)
	require.NoError(t, a.Transition(StatusCompleted, later))
	require.NotNil(t, a.CompletedAt)
	assert.Equal(t, later, *a.CompletedAt)
}

func TestAssignment_Active(t *testing.T) {
	for _, s := range []Status{StatusRequested, StatusAccepted} {
		a := &Assignment{Status: s}
		assert.True(t, a.Active(), string(s))
	}
	for _, s := range []Status{StatusDeclined, StatusCompleted, StatusCancelled} {
		a := &Assignment{Status: s}
		assert.False(t, a.Active(), string(s))
	}
}
