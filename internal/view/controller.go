// Package view is the screen state machine of a storefront session.
package view

import (
	"errors"
	"fmt"

	"github.com/brunorcoelho/storefront/internal/domain"
)

type State string

const (
	StateLoading      State = "loading"
	StateCatalog      State = "catalog"
	StateCart         State = "cart"
	StateCheckout     State = "checkout"
	StateConfirmation State = "confirmation"
)

func (s State) String() string {
	return string(s)
}

type Event string

const (
	EventLoaded            Event = "loaded"
	EventOpenCart          Event = "open_cart"
	EventProceedToCheckout Event = "checkout"
	EventBack              Event = "back"
	EventConfirm           Event = "confirm"
	EventNewOrder          Event = "new_order"
)

var (
	ErrIllegalTransition = errors.New("illegal view transition")
	ErrUnknownEvent      = errors.New("unknown view event")
)

var transitions = map[State]map[Event]State{
	StateLoading:      {EventLoaded: StateCatalog},
	StateCatalog:      {EventOpenCart: StateCart},
	StateCart:         {EventProceedToCheckout: StateCheckout, EventBack: StateCatalog},
	StateCheckout:     {EventBack: StateCart, EventConfirm: StateConfirmation},
	StateConfirmation: {EventNewOrder: StateCatalog},
}

// Next returns the state reached from `from` on ev.
func Next(from State, ev Event) (State, error) {
	to, ok := transitions[from][ev]
	if !ok {
		return from, fmt.Errorf("%w: %s on %s", ErrIllegalTransition, ev, from)
	}
	return to, nil
}

// ParseEvent accepts the events a shopper can trigger directly. Loaded and
// confirm are driven by the session itself.
func ParseEvent(s string) (Event, error) {
	switch ev := Event(s); ev {
	case EventOpenCart, EventProceedToCheckout, EventBack, EventNewOrder:
		return ev, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEvent, s)
}

// Controller is not safe for concurrent use.
type Controller struct {
	state State
	order *domain.Order
}

func NewController() *Controller {
	return &Controller{state: StateLoading}
}

func (c *Controller) State() State {
	return c.state
}

// Order is the confirmed order shown on the confirmation screen.
func (c *Controller) Order() *domain.Order {
	return c.order
}

// Fire applies ev. Confirm must go through Confirm.
func (c *Controller) Fire(ev Event) error {
	to, err := Next(c.state, ev)
	if err != nil {
		return err
	}
	c.enter(to, nil)
	return nil
}

// Confirm moves Checkout to Confirmation showing order.
func (c *Controller) Confirm(order *domain.Order) error {
	to, err := Next(c.state, EventConfirm)
	if err != nil {
		return err
	}
	c.enter(to, order)
	return nil
}

func (c *Controller) enter(to State, order *domain.Order) {
	if to == StateConfirmation && order == nil {
		panic("view: entering confirmation without an order")
	}
	c.state = to
	c.order = order
}
