package scenario

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"tamio-engine/internal/domain"
)

type scopeKind int

const (
	scopeNone scopeKind = iota
	scopeClient
	scopeBucket
)

// scopeRule reports which scope field a scenario type reads and whether it
// must be set.
func scopeRule(t domain.ScenarioType) (kind scopeKind, required bool) {
	switch t {
	case domain.ScenarioClientLoss, domain.ScenarioClientChange, domain.ScenarioPaymentDelayIn:
		return scopeClient, true
	case domain.ScenarioClientGain:
		return scopeClient, false
	case domain.ScenarioPaymentDelayOut:
		return scopeBucket, true
	case domain.ScenarioIncreasedExpense, domain.ScenarioDecreasedExpense:
		return scopeBucket, false
	case domain.ScenarioHiring, domain.ScenarioFiring,
		domain.ScenarioContractorGain, domain.ScenarioContractorLoss:
		return scopeNone, false
	default:
		return scopeNone, false
	}
}

// amountRule reports whether a type reads parameters.amount and whether a
// missing amount can fall back to the scoped entity's recurring amount.
func amountRule(t domain.ScenarioType) (uses, derivable bool) {
	switch t {
	case domain.ScenarioPaymentDelayIn, domain.ScenarioPaymentDelayOut:
		return false, false
	case domain.ScenarioClientLoss, domain.ScenarioClientGain,
		domain.ScenarioIncreasedExpense, domain.ScenarioDecreasedExpense:
		return true, true
	default:
		return true, false
	}
}

// validate checks every delta and reports all problems at once.
func (s *Simulator) validate(deltas []domain.Delta) error {
	var result *multierror.Error

	for i, d := range deltas {
		field := func(name string) string {
			if i == 0 {
				return name
			}
			return fmt.Sprintf("layers[%d].%s", i-1, name)
		}
		typeField := field("scenario_type")
		if i > 0 {
			typeField = field("layer_type")
		}

		if !d.Type.Valid() {
			result = multierror.Append(result, domain.Invalid(typeField, "unknown scenario type %q", d.Type))
			continue
		}
		if d.Parameters.EffectiveDate.IsZero() {
			result = multierror.Append(result, domain.Invalid(field("parameters.effective_date"), "required"))
		}

		kind, required := scopeRule(d.Type)
		scoped := false
		switch kind {
		case scopeClient:
			if d.Scope.ClientID == "" {
				if required {
					result = multierror.Append(result, domain.Invalid(field("scope_config.client_id"), "required for %s", d.Type))
				}
			} else if _, ok := s.clients[d.Scope.ClientID]; !ok {
				result = multierror.Append(result, domain.Missing("client", d.Scope.ClientID))
			} else {
				scoped = true
			}
		case scopeBucket:
			if d.Scope.BucketID == "" {
				if required {
					result = multierror.Append(result, domain.Invalid(field("scope_config.bucket_id"), "required for %s", d.Type))
				}
			} else if _, ok := s.buckets[d.Scope.BucketID]; !ok {
				result = multierror.Append(result, domain.Missing("bucket", d.Scope.BucketID))
			} else {
				scoped = true
			}
		}

		uses, derivable := amountRule(d.Type)
		amount := d.Parameters.Amount
		switch {
		case !uses:
			if d.Parameters.DelayDays <= 0 {
				result = multierror.Append(result, domain.Invalid(field("parameters.delay_days"), "must be positive for %s", d.Type))
			}
		case amount == nil:
			if !derivable || !scoped {
				result = multierror.Append(result, domain.Invalid(field("parameters.amount"), "required for %s", d.Type))
			}
		case d.Type == domain.ScenarioClientChange:
			if amount.IsZero() {
				result = multierror.Append(result, domain.Invalid(field("parameters.amount"), "must not be zero for %s", d.Type))
			}
		case !amount.IsPositive():
			result = multierror.Append(result, domain.Invalid(field("parameters.amount"), "must be positive for %s", d.Type))
		}
	}

	return result.ErrorOrNil()
}
