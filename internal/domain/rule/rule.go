// Package rule holds admin-managed screening rules applied to offer
// submission. A rule is a boolean expression over the offer and the
// listing; a rule that evaluates false rejects the submission before
// any state mutation.
package rule

import (
	"time"

	"github.com/Knetic/govaluate"
	"github.com/google/uuid"

	"github.com/estate-hub/estate-hub/internal/domain/fault"
)

// Rule is a named screening expression, e.g.
// "offered_price >= list_price * 0.5".
type Rule struct {
	ID         int64     `json:"id"`
	RuleID     uuid.UUID `json:"ruleId"`
	Name       string    `json:"name"`
	Expression string    `json:"expression"`
	Enabled    bool      `json:"enabled"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Validate parses the expression to catch syntax errors at write time.
func (r *Rule) Validate() error {
	if r.Name == "" {
		return &fault.ValidationError{Field: "name", Reason: "name is required"}
	}
	if r.Expression == "" {
		return &fault.ValidationError{Field: "expression", Reason: "expression is required"}
	}
	if _, err := govaluate.NewEvaluableExpression(r.Expression); err != nil {
		return &fault.ValidationError{Field: "expression", Reason: err.Error()}
	}
	return nil
}

// OfferParams builds the evaluation parameters for an offer screening.
func OfferParams(offeredPrice, listPrice int64) map[string]interface{} {
	params := map[string]interface{}{
		"offered_price": float64(offeredPrice),
		"list_price":    float64(listPrice),
	}
	if listPrice > 0 {
		params["ratio"] = float64(offeredPrice) / float64(listPrice)
	}
	return params
}

// Evaluate runs the rule against params. A non-boolean result is a
// validation error on the rule itself.
func (r *Rule) Evaluate(params map[string]interface{}) (bool, error) {
	expr, err := govaluate.NewEvaluableExpression(r.Expression)
	if err != nil {
		return false, &fault.ValidationError{Field: "expression", Reason: err.Error()}
	}
	result, err := expr.Evaluate(params)
	if err != nil {
		return false, &fault.ValidationError{Field: "expression", Reason: err.Error()}
	}
	b, ok := result.(bool)
	if !ok {
		return false, &fault.ValidationError{Field: "expression", Reason: "rule did not evaluate to boolean: " + r.Name}
	}
	return b, nil
}

// Screen applies every enabled rule; the first failing rule rejects.
func Screen(rules []*Rule, params map[string]interface{}) error {
	for _, r := range rules {
		if !r.Enabled {
			continue
		}
		ok, err := r.Evaluate(params)
		if err != nil {
			return err
		}
		if !ok {
			return &fault.ValidationError{Field: "offer", Reason: "rejected by rule: " + r.Name}
		}
	}
	return nil
}
