package billing

import (
	"sync"

	"go.uber.org/zap"

	"github.com/myket-community/bridge-server/bridge"
	"github.com/myket-community/bridge-server/iab"
	"github.com/myket-community/bridge-server/model"
)

// State is the position of one purchase flow in its lifecycle.
type State uint8

const (
	StateIdle State = iota
	StateInFlight
	StatePurchased
	StateCancelled
	StateFailed
	StateFailedToBegin
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateInFlight:
		return "InFlight"
	case StatePurchased:
		return "Purchased"
	case StateCancelled:
		return "Cancelled"
	case StateFailed:
		return "Failed"
	case StateFailedToBegin:
		return "FailedToBegin"
	}
	return "Unknown"
}

// legalTransitions defines the allowed moves of the purchase state machine.
// Terminal states have no outgoing transitions, which is what guarantees at
// most one terminal resolution per flow.
var legalTransitions = map[State]map[State]bool{
	StateIdle: {
		StateInFlight:      true,
		StateFailedToBegin: true,
	},
	StateInFlight: {
		StatePurchased:     true,
		StateCancelled:     true,
		StateFailed:        true,
		StateFailedToBegin: true,
	},
	StatePurchased:     {},
	StateCancelled:     {},
	StateFailed:        {},
	StateFailedToBegin: {},
}

// flow is one in-progress purchase: the pending call it must retire, the
// request context echoed on events, and the current state.
type flow struct {
	mu      sync.Mutex
	state   State
	call    bridge.Call
	context model.Object
}

// transition moves the flow to next if the state machine allows it.
func (f *flow) transition(next State) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !legalTransitions[f.state][next] {
		return false
	}
	f.state = next
	return true
}

// Coordinator drives the purchase state machine for one product at a time.
// It assumes the provider permits at most one in-flight purchase per
// session and keeps no queue of its own; an overlapping purchase is left to
// the helper to refuse.
type Coordinator struct {
	log       *zap.Logger
	session   *Session
	publisher Publisher
}

func NewCoordinator(log *zap.Logger, session *Session, publisher Publisher) *Coordinator {
	return &Coordinator{
		log:       log,
		session:   session,
		publisher: publisher,
	}
}

// Begin launches the purchase flow for req and takes ownership of call
// until exactly one terminal transition retires it.
func (c *Coordinator) Begin(call bridge.Call, activity iab.Activity, req model.PurchaseRequest) {
	helper, err := c.session.Helper()
	if err != nil {
		reject(call, notInitialized(""))
		return
	}

	f := &flow{
		state:   StateIdle,
		call:    call,
		context: req.Context(),
	}

	call.SetKeepAlive(true)

	f.transition(StateInFlight)
	c.publisher.NotifyPurchaseState(model.StatePurchaseBegin, f.context)

	err = helper.LaunchPurchaseFlow(activity, req.ProductID, req.Type, req.Payload, func(result iab.Result, purchase *iab.Purchase) {
		c.onPurchaseFinished(f, result, purchase)
	})
	if err != nil {
		if !f.transition(StateFailedToBegin) {
			return
		}
		c.log.Warn("Failed to launch purchase flow",
			zap.String("product_id", req.ProductID),
			zap.Error(err),
		)
		c.publisher.NotifyPurchaseState(model.StateFailedToBegin, f.context)
		reject(call, &Error{
			Kind:    KindLaunchError,
			Message: "Launch purchase flow error: " + err.Error(),
			Cause:   err,
		})
	}
}

func (c *Coordinator) onPurchaseFinished(f *flow, result iab.Result, purchase *iab.Purchase) {
	if result.IsSuccess() {
		if !f.transition(StatePurchased) {
			return
		}

		data := model.Object{
			"purchase": model.PurchaseToObject(purchase),
			"state":    model.StatePurchased,
		}
		c.publisher.NotifyPurchaseState(model.StatePurchased, data)
		f.call.Resolve(data)
		return
	}

	code := classifyFailureCode(result.Message)

	next := StateFailed
	if code == model.StateCancelled {
		next = StateCancelled
	}
	if !f.transition(next) {
		return
	}

	// The outbound event tag is CANCELLED for every non-success outcome,
	// even when the rejection code is FAILED. Hosts depend on this
	// asymmetry.
	c.publisher.NotifyPurchaseState(model.StateCancelled, f.context)

	kind := KindFailed
	if code == model.StateCancelled {
		kind = KindCancelled
	}
	reject(f.call, &Error{
		Kind:    kind,
		Code:    code,
		Message: "Purchase failed: " + result.Message,
	})
}
