package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAuditLog(t *testing.T) {
	log, err := NewAuditLog(&Entry{
		EntityType: EntityTypeProperty,
		EntityID:   "prop-1",
		Action:     ActionStatusChange,
		Actor:      "agent.kumar",
		ActorRole:  "AGENT",
		OldValues:  map[string]string{"status": "RESERVED"},
		NewValues:  map[string]string{"status": "SOLD"},
	})
	require.NoError(t, err)

	assert.Equal(t, EntityTypeProperty, log.EntityType)
	assert.Equal(t, "prop-1", log.EntityID)
	assert.Equal(t, ActionStatusChange, log.Action)
	assert.Equal(t, "agent.kumar", log.Actor)
	assert.Equal(t, RiskLevelLow, log.RiskLevel)
	assert.JSONEq(t, `{"status":"RESERVED"}`, string(log.OldValues))
	assert.JSONEq(t, `{"status":"SOLD"}`, string(log.NewValues))
	assert.False(t, log.CreatedAt.IsZero())
}

func TestNewAuditLog_Defaults(t *testing.T) {
	log, err := NewAuditLog(&Entry{
		EntityType: EntityTypeOffer,
		EntityID:   "offer-1",
		Action:     ActionExpire,
	})
	require.NoError(t, err)
	assert.Equal(t, "system", log.Actor)
	assert.Equal(t, RiskLevelLow, log.RiskLevel)
}

func TestNewAuditLog_RequiresIdentity(t *testing.T) {
	_, err := NewAuditLog(nil)
	assert.Error(t, err)

	_, err = NewAuditLog(&Entry{EntityID: "x", Action: ActionCreate})
	assert.Error(t, err)

	_, err = NewAuditLog(&Entry{EntityType: EntityTypeOffer, Action: ActionCreate})
	assert.Error(t, err)

	_, err = NewAuditLog(&Entry{EntityType: EntityTypeOffer, EntityID: "x"})
	assert.Error(t, err)
}

func TestSignAndVerifyAuditLog(t *testing.T) {
	key := []byte("test-signing-key")
	log, err := NewAuditLog(&Entry{
		EntityType: EntityTypeCommission,
		EntityID:   "rec-1",
		Action:     ActionDisburse,
		Actor:      "admin",
		RiskLevel:  RiskLevelCritical,
		NewValues:  map[string]int64{"agentShare": 105_600},
	})
	require.NoError(t, err)

	sig, err := SignAuditLog(log, key)
	require.NoError(t, err)
	log.Signature = sig

	ok, err := VerifyAuditLogSignature(log, key)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyAuditLogSignature_Tampered(t *testing.T) {
	key := []byte("test-signing-key")
	log, err := NewAuditLog(&Entry{
		EntityType: EntityTypePayment,
		EntityID:   "pay-1",
		Action:     ActionVerify,
		Actor:      "admin",
	})
	require.NoError(t, err)

	sig, err := SignAuditLog(log, key)
	require.NoError(t, err)
	log.Signature = sig

	log.Actor = "intruder"
	ok, err := VerifyAuditLogSignature(log, key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyAuditLogSignature_WrongKey(t *testing.T) {
	log, err := NewAuditLog(&Entry{
		EntityType: EntityTypeUser,
		EntityID:   "user-1",
		Action:     ActionLogin,
		Actor:      "buyer.r",
	})
	require.NoError(t, err)

	sig, err := SignAuditLog(log, []byte("key-a"))
	require.NoError(t, err)
	log.Signature = sig

	ok, err := VerifyAuditLogSignature(log, []byte("key-b"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyAuditLogSignature_Unsigned(t *testing.T) {
	log, err := NewAuditLog(&Entry{
		EntityType: EntityTypeVisit,
		EntityID:   "visit-1",
		Action:     ActionCreate,
	})
	require.NoError(t, err)

	ok, err := VerifyAuditLogSignature(log, []byte("key"))
	require.NoError(t, err)
	assert.False(t, ok)
}
