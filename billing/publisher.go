package billing

import (
	"go.uber.org/zap"

	"github.com/myket-community/bridge-server/bridge"
	"github.com/myket-community/bridge-server/model"
)

// EventPurchaseStateChanged is the single named channel purchase lifecycle
// events go out on.
const EventPurchaseStateChanged = "purchaseStateChanged"

// Publisher fans purchase-state events out to host subscribers. Emission is
// fire-and-forget and never fails the caller.
type Publisher interface {
	NotifyPurchaseState(state string, data model.Object)
}

// EventPublisher forwards purchase-state events to the host emitter,
// merging the state tag into the payload.
type EventPublisher struct {
	log     *zap.Logger
	emitter bridge.EventEmitter
}

func NewEventPublisher(log *zap.Logger, emitter bridge.EventEmitter) *EventPublisher {
	return &EventPublisher{
		log:     log,
		emitter: emitter,
	}
}

func (p *EventPublisher) NotifyPurchaseState(state string, data model.Object) {
	p.log.Debug("Purchase state changed", zap.String("state", state))
	p.emitter.Emit(EventPurchaseStateChanged, model.Merged(model.Object{"state": state}, data))
}

var _ Publisher = (*EventPublisher)(nil)
