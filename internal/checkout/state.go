// Package checkout implements the three-step checkout wizard: method
// selection, details capture, and receipt generation.
package checkout

import "fmt"

// Method — способ получения заказа.
type Method string

const (
	MethodPickup   Method = "pickup"
	MethodDelivery Method = "delivery"
)

func ParseMethod(s string) (Method, error) {
	switch m := Method(s); m {
	case MethodPickup, MethodDelivery:
		return m, nil
	}
	return "", fmt.Errorf("unknown fulfillment method %q", s)
}

// Step — номер шага мастера оформления.
type Step int

const (
	StepMethodSelection Step = 1
	StepDetailsCapture  Step = 2
	StepReceiptReady    Step = 3
)

func (s Step) String() string {
	switch s {
	case StepMethodSelection:
		return "method_selection"
	case StepDetailsCapture:
		return "details_capture"
	case StepReceiptReady:
		return "receipt_ready"
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// State is one of MethodSelection, DetailsCapture, ReceiptReady. Only
// ReceiptReady carries a token, so a token cannot exist at an earlier step.
type State interface {
	Step() Step
	state()
}

type MethodSelection struct{}

type DetailsCapture struct{}

// ReceiptReady is terminal; Token is never empty.
type ReceiptReady struct {
	Token   string
	Receipt Receipt
}

func (MethodSelection) Step() Step { return StepMethodSelection }
func (DetailsCapture) Step() Step  { return StepDetailsCapture }
func (ReceiptReady) Step() Step    { return StepReceiptReady }

func (MethodSelection) state() {}
func (DetailsCapture) state()  {}
func (ReceiptReady) state()    {}
