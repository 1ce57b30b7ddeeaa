package domain

import (
	"fmt"
	"slices"
	"strings"

	apperrors "github.com/utafrali/ShopyKart/pkg/errors"
)

// PaymentType labels how the customer pays. No gateway is involved.
type PaymentType string

const (
	PaymentCash PaymentType = "cash"
	PaymentCard PaymentType = "card"
	PaymentUPI  PaymentType = "upi"
)

// ParsePaymentType accepts a payment type in any letter case.
func ParsePaymentType(s string) (PaymentType, error) {
	pt := PaymentType(strings.ToLower(strings.TrimSpace(s)))
	if !pt.Valid() {
		return "", apperrors.InvalidInput(fmt.Sprintf("unknown payment type %q", s))
	}
	return pt, nil
}

// Valid reports whether pt is a known payment type.
func (pt PaymentType) Valid() bool {
	switch pt {
	case PaymentCash, PaymentCard, PaymentUPI:
		return true
	}
	return false
}

// PayOnDelivery reports whether money changes hands at delivery.
func (pt PaymentType) PayOnDelivery() bool {
	return pt == PaymentCash
}

// PaymentStatus records whether money has been collected.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending: {PaymentPaid, PaymentFailed},
	PaymentFailed:  {PaymentPaid},
	PaymentPaid:    {},
}

// ParsePaymentStatus accepts a status name in any letter case. "completed"
// is accepted as an alias of paid.
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "completed" {
		v = string(PaymentPaid)
	}
	ps := PaymentStatus(v)
	if _, ok := paymentTransitions[ps]; !ok {
		return "", apperrors.InvalidInput(fmt.Sprintf("unknown payment status %q", s))
	}
	return ps, nil
}

// CanTransitionTo reports whether target is directly reachable from ps.
func (ps PaymentStatus) CanTransitionTo(target PaymentStatus) bool {
	return slices.Contains(paymentTransitions[ps], target)
}
