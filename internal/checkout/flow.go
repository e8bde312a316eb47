package checkout

import (
	"github.com/google/uuid"

	"github.com/viraldeals/viraldeals-backend/pkg/enums"
)

// Step is one stage of the linear checkout flow.
type Step string

const (
	StepAddress Step = "selecting_address"
	StepPayment Step = "selecting_payment"
	StepReview  Step = "reviewing_order"
)

func (s Step) IsValid() bool {
	switch s {
	case StepAddress, StepPayment, StepReview:
		return true
	}
	return false
}

// Flow is a user's in-progress checkout. It only ever moves between
// adjacent steps and resets to the address step after a placed order.
type Flow struct {
	Step          Step                `json:"step"`
	AddressID     *uuid.UUID          `json:"address_id,omitempty"`
	PaymentMethod enums.PaymentMethod `json:"payment_method,omitempty"`
}

func newFlow() *Flow {
	return &Flow{Step: StepAddress}
}

// canAdvance reports whether the current step's selection has been made.
func (f *Flow) canAdvance() bool {
	switch f.Step {
	case StepAddress:
		return f.AddressID != nil
	case StepPayment:
		return f.PaymentMethod.IsValid()
	default:
		return false
	}
}

func (f *Flow) next() Step {
	switch f.Step {
	case StepAddress:
		return StepPayment
	case StepPayment:
		return StepReview
	default:
		return f.Step
	}
}

func (f *Flow) prev() Step {
	switch f.Step {
	case StepReview:
		return StepPayment
	case StepPayment:
		return StepAddress
	default:
		return f.Step
	}
}

// readyToPlace reports whether an order can be placed from this flow.
func (f *Flow) readyToPlace() bool {
	return f.Step == StepReview && f.AddressID != nil && f.PaymentMethod.IsValid()
}
