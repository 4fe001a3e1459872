package scenario

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"tamio-engine/internal/domain"
)

// scenarioSource tags events added by an unscoped delta.
const scenarioSource = "scenario"

// apply mutates f's cash_in, cash_out and events for one validated delta.
// Balances are left stale; the caller rebalances once at the end.
func (s *Simulator) apply(f *domain.Forecast, d domain.Delta) error {
	switch d.Type {
	case domain.ScenarioClientGain, domain.ScenarioContractorGain:
		s.addRecurring(f, d, domain.DirectionIn, s.amountFor(d))
	case domain.ScenarioIncreasedExpense, domain.ScenarioHiring:
		s.addRecurring(f, d, domain.DirectionOut, s.amountFor(d))
	case domain.ScenarioClientLoss, domain.ScenarioContractorLoss:
		s.removeRecurring(f, d, domain.DirectionIn, s.amountFor(d))
	case domain.ScenarioDecreasedExpense, domain.ScenarioFiring:
		s.removeRecurring(f, d, domain.DirectionOut, s.amountFor(d))
	case domain.ScenarioClientChange:
		amount := s.amountFor(d)
		if amount.IsNegative() {
			s.removeRecurring(f, d, domain.DirectionIn, amount.Neg())
		} else {
			s.addRecurring(f, d, domain.DirectionIn, amount)
		}
	case domain.ScenarioPaymentDelayIn:
		return shift(f, d, domain.DirectionIn, d.Scope.ClientID)
	case domain.ScenarioPaymentDelayOut:
		return shift(f, d, domain.DirectionOut, d.Scope.BucketID)
	default:
		return domain.Invalid("scenario_type", "unknown scenario type %q", d.Type)
	}
	return nil
}

// amountFor returns the explicit amount or, when absent, the scoped
// entity's recurring amount. Validation guarantees one of them exists.
func (s *Simulator) amountFor(d domain.Delta) decimal.Decimal {
	if d.Parameters.Amount != nil {
		return *d.Parameters.Amount
	}
	switch kind, _ := scopeRule(d.Type); kind {
	case scopeClient:
		return s.clients[d.Scope.ClientID].BillingAmount
	case scopeBucket:
		return s.buckets[d.Scope.BucketID].Amount
	default:
		return decimal.Zero
	}
}

// entityFor returns the scoped entity id and its recurrence. Unscoped
// deltas repeat weekly.
func (s *Simulator) entityFor(d domain.Delta) (string, domain.Frequency) {
	switch kind, _ := scopeRule(d.Type); kind {
	case scopeClient:
		if c, ok := s.clients[d.Scope.ClientID]; ok {
			return c.ID, c.BillingFrequency
		}
	case scopeBucket:
		if b, ok := s.buckets[d.Scope.BucketID]; ok {
			return b.ID, b.Frequency
		}
	}
	return "", domain.FrequencyWeekly
}

// occurrences maps every recurrence from the effective date to the end of
// the horizon onto week indexes. Effective dates before week 1 start at
// week 1.
func occurrences(f *domain.Forecast, from time.Time, freq domain.Frequency) []int {
	if from.Before(f.StartDate) {
		from = f.StartDate
	}
	end := f.End()

	var idx []int
	for t := from; t.Before(end); t = freq.Next(t) {
		if i, ok := f.WeekIndexOf(t); ok {
			idx = append(idx, i)
		}
	}
	return idx
}

func (s *Simulator) addRecurring(f *domain.Forecast, d domain.Delta, dir domain.Direction, amount decimal.Decimal) {
	entity, freq := s.entityFor(d)
	source := entity
	if source == "" {
		source = scenarioSource
	}

	for _, i := range occurrences(f, d.Parameters.EffectiveDate, freq) {
		w := &f.Weeks[i]
		side := w.Side(dir)
		*side = side.Add(amount)
		w.Events = append(w.Events, domain.CashEvent{
			Amount:     amount,
			Direction:  dir,
			Category:   string(d.Type),
			SourceRef:  source,
			Confidence: domain.ConfidenceMedium,
		})
	}
}

// removeRecurring takes amount off one side. A scoped entity that has
// events in the forecast loses up to amount from each of its own events at
// or after the effective week; otherwise the removal follows the calendar
// schedule, never below zero.
func (s *Simulator) removeRecurring(f *domain.Forecast, d domain.Delta, dir domain.Direction, amount decimal.Decimal) {
	entity, freq := s.entityFor(d)
	if entity != "" && hasEvents(f, entity, dir) {
		removeEvents(f, d.Parameters.EffectiveDate, entity, dir, amount)
		return
	}

	for _, i := range occurrences(f, d.Parameters.EffectiveDate, freq) {
		w := &f.Weeks[i]
		side := w.Side(dir)
		removed := decimal.Min(amount, *side)
		if !removed.IsPositive() {
			continue
		}
		*side = side.Sub(removed)
		if entity != "" {
			w.Events = drainEvents(w.Events, entity, dir, removed)
		}
	}
}

func hasEvents(f *domain.Forecast, entity string, dir domain.Direction) bool {
	for _, w := range f.Weeks {
		for _, ev := range w.Events {
			if ev.SourceRef == entity && ev.Direction == dir {
				return true
			}
		}
	}
	return false
}

// removeEvents reduces each of the entity's events from the effective week
// on by up to amount, dropping events that reach zero.
func removeEvents(f *domain.Forecast, from time.Time, entity string, dir domain.Direction, amount decimal.Decimal) {
	first, ok := f.WeekIndexOf(from)
	if !ok {
		return
	}
	for i := first; i < len(f.Weeks); i++ {
		w := &f.Weeks[i]
		side := w.Side(dir)
		kept := make([]domain.CashEvent, 0, len(w.Events))
		for _, ev := range w.Events {
			if ev.SourceRef == entity && ev.Direction == dir {
				take := decimal.Min(amount, ev.Amount, *side)
				ev.Amount = ev.Amount.Sub(take)
				*side = side.Sub(take)
				if !ev.Amount.IsPositive() {
					continue
				}
			}
			kept = append(kept, ev)
		}
		w.Events = kept
	}
}

// drainEvents reduces matching events by up to amount, dropping events
// that reach zero. It returns a new slice.
func drainEvents(events []domain.CashEvent, entity string, dir domain.Direction, amount decimal.Decimal) []domain.CashEvent {
	out := make([]domain.CashEvent, 0, len(events))
	left := amount
	for _, ev := range events {
		if left.IsPositive() && ev.SourceRef == entity && ev.Direction == dir {
			take := decimal.Min(left, ev.Amount)
			ev.Amount = ev.Amount.Sub(take)
			left = left.Sub(take)
			if !ev.Amount.IsPositive() {
				continue
			}
		}
		out = append(out, ev)
	}
	return out
}

// shift moves the entity's first cash event at or after the effective week
// forward by delay_days rounded to whole weeks. The amount is moved, not
// copied; a target past the horizon lands in the final week.
func shift(f *domain.Forecast, d domain.Delta, dir domain.Direction, entity string) error {
	from, ok := f.WeekIndexOf(d.Parameters.EffectiveDate)
	if !ok {
		return nil
	}

	srcWeek, srcEvent := -1, -1
	for i := from; i < len(f.Weeks) && srcWeek < 0; i++ {
		for j, ev := range f.Weeks[i].Events {
			if ev.SourceRef == entity && ev.Direction == dir {
				srcWeek, srcEvent = i, j
				break
			}
		}
	}
	if srcWeek < 0 {
		field := "scope_config.client_id"
		if dir == domain.DirectionOut {
			field = "scope_config.bucket_id"
		}
		return domain.Invalid(field, "no %s cash event for %s at or after %s", dir, entity, d.Parameters.EffectiveDate.Format(time.DateOnly))
	}

	weeks := int(math.Round(float64(d.Parameters.DelayDays) / 7))
	target := srcWeek + weeks
	if target > len(f.Weeks)-1 {
		target = len(f.Weeks) - 1
	}
	if target == srcWeek {
		return nil
	}

	src := &f.Weeks[srcWeek]
	ev := src.Events[srcEvent]
	src.Events = append(append([]domain.CashEvent(nil), src.Events[:srcEvent]...), src.Events[srcEvent+1:]...)

	dst := &f.Weeks[target]
	if dir == domain.DirectionIn {
		src.CashIn = src.CashIn.Sub(ev.Amount)
		dst.CashIn = dst.CashIn.Add(ev.Amount)
	} else {
		src.CashOut = src.CashOut.Sub(ev.Amount)
		dst.CashOut = dst.CashOut.Add(ev.Amount)
	}
	dst.Events = append(dst.Events, ev)
	return nil
}
