package rule

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRule_Validate(t *testing.T) {
	r := &Rule{RuleID: uuid.New(), Name: "floor", Expression: "offered_price >= list_price * 0.5"}
	require.NoError(t, r.Validate())

	r.Name = ""
	assert.Error(t, r.Validate())

	r.Name = "floor"
	r.Expression = ""
	assert.Error(t, r.Validate())

	r.Expression = "offered_price >="
	assert.Error(t, r.Validate())
}

func TestRule_Evaluate(t *testing.T) {
	r := &Rule{RuleID: uuid.New(), Name: "floor", Expression: "offered_price >= list_price * 0.5", Enabled: true}

	ok, err := r.Evaluate(OfferParams(5_000_000, 8_000_000))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.Evaluate(OfferParams(3_000_000, 8_000_000))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRule_Evaluate_NonBoolean(t *testing.T) {
	r := &Rule{RuleID: uuid.New(), Name: "broken", Expression: "offered_price + list_price"}
	_, err := r.Evaluate(OfferParams(1, 2))
	assert.Error(t, err)
}

func TestOfferParams_Ratio(t *testing.T) {
	params := OfferParams(4_000_000, 8_000_000)
	assert.Equal(t, 0.5, params["ratio"])

	// zero list price leaves the ratio out rather than dividing by zero
	params = OfferParams(4_000_000, 0)
	_, ok := params["ratio"]
	assert.False(t, ok)
}

func TestScreen(t *testing.T) {
	floor := &Rule{RuleID: uuid.New(), Name: "half of list", Expression: "ratio >= 0.5", Enabled: true}
	cap := &Rule{RuleID: uuid.New(), Name: "sane ceiling", Expression: "offered_price <= list_price * 2", Enabled: true}
	disabled := &Rule{RuleID: uuid.New(), Name: "never", Expression: "false", Enabled: false}

	rules := []*Rule{floor, cap, disabled}

	assert.NoError(t, Screen(rules, OfferParams(6_000_000, 8_000_000)))

	err := Screen(rules, OfferParams(1_000_000, 8_000_000))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "half of list")

	err = Screen(rules, OfferParams(20_000_000, 8_000_000))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sane ceiling")
}

func TestScreen_NoRules(t *testing.T) {
	assert.NoError(t, Screen(nil, OfferParams(1, 1)))
}
