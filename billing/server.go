// Package billing is the bridge core between a host runtime and an in-app
// billing provider: it enforces the initialization precondition, drives the
// purchase lifecycle state machine, and mirrors asynchronous provider
// outcomes back to the host as call resolutions and purchaseStateChanged
// events.
package billing

import (
	"go.uber.org/zap"

	"github.com/myket-community/bridge-server/bridge"
	"github.com/myket-community/bridge-server/iab"
	"github.com/myket-community/bridge-server/model"
)

// Host-facing operation names.
const (
	MethodInitialize         = "initialize"
	MethodPurchaseProduct    = "purchaseProduct"
	MethodConsumeProduct     = "consumeProduct"
	MethodGetProducts        = "getProducts"
	MethodGetPurchaseInfo    = "getPurchaseInfo"
	MethodGetConnectionState = "getConnectionState"
	MethodDisconnect         = "disconnect"
)

// Server exposes the billing operations to the host runtime. One Server
// instance lives as long as the host bridge instance; OnHostDestroy must
// run on teardown.
type Server struct {
	log        *zap.Logger
	session    *Session
	guard      *Guard
	coord      *Coordinator
	inventory  *InventoryQuery
	activities bridge.ActivityProvider
}

func NewServer(
	log *zap.Logger,
	factory iab.HelperFactory,
	emitter bridge.EventEmitter,
	activities bridge.ActivityProvider,
) *Server {
	session := NewSession(log, factory)
	publisher := NewEventPublisher(log, emitter)

	return &Server{
		log:        log,
		session:    session,
		guard:      NewGuard(session),
		coord:      NewCoordinator(log, session, publisher),
		inventory:  NewInventoryQuery(log, session),
		activities: activities,
	}
}

// Dispatch routes a named host call to its operation. It reports false for
// an unknown method, leaving the call untouched.
func (s *Server) Dispatch(method string, call bridge.Call) bool {
	switch method {
	case MethodInitialize:
		s.Initialize(call)
	case MethodPurchaseProduct:
		s.PurchaseProduct(call)
	case MethodConsumeProduct:
		s.ConsumeProduct(call)
	case MethodGetProducts:
		s.GetProducts(call)
	case MethodGetPurchaseInfo:
		s.GetPurchaseInfo(call)
	case MethodGetConnectionState:
		s.GetConnectionState(call)
	case MethodDisconnect:
		s.Disconnect(call)
	default:
		return false
	}
	return true
}

// Initialize binds the provider. Re-initializing an initialized session
// resolves immediately without re-setup.
func (s *Server) Initialize(call bridge.Call) {
	if s.session.Initialized() {
		call.Resolve(model.Object{"message": "Already initialized"})
		return
	}

	rsaKey := call.GetString("rsaPublicKey", "")
	if rsaKey == "" {
		call.Reject("RSA public key is required", "")
		return
	}

	err := s.session.Setup(rsaKey, func(result iab.Result) {
		if result.IsFailure() {
			reject(call, &Error{
				Kind:    KindSetupFailed,
				Code:    result.ResponseCode(),
				Message: "Setup failed: " + result.Message,
			})
			return
		}
		call.Resolve(model.Object{"connected": true})
	})
	if err == ErrAlreadyInitialized {
		call.Resolve(model.Object{"message": "Already initialized"})
	} else if err != nil {
		s.log.Warn("Failed to bind billing helper", zap.Error(err))
		reject(call, &Error{
			Kind:    KindSetupFailed,
			Message: "Setup failed: " + err.Error(),
			Cause:   err,
		})
	}
}

// PurchaseProduct launches the purchase flow for one product.
func (s *Server) PurchaseProduct(call bridge.Call) {
	if err := s.guard.CheckInitialized(""); err != nil {
		reject(call, err)
		return
	}

	productID, argErr := RequireString(call, "productId")
	if argErr != nil {
		reject(call, argErr)
		return
	}

	req := model.PurchaseRequest{
		ProductID: productID,
		Type:      call.GetString("type", iab.ItemTypeInApp),
		Payload:   call.GetString("payload", ""),
	}
	s.coord.Begin(call, s.activities.CurrentActivity(), req)
}

// ConsumeProduct consumes the owned purchase carrying the given token.
func (s *Server) ConsumeProduct(call bridge.Call) {
	if err := s.guard.CheckInitialized(model.StateFailed); err != nil {
		reject(call, err)
		return
	}

	token, argErr := RequireString(call, "token")
	if argErr != nil {
		argErr.Code = model.StateFailed
		reject(call, argErr)
		return
	}

	s.inventory.ConsumeProduct(call, token)
}

// GetProducts resolves catalog details for the requested skus.
func (s *Server) GetProducts(call bridge.Call) {
	if err := s.guard.CheckInitialized(""); err != nil {
		reject(call, err)
		return
	}

	s.inventory.GetProducts(call, call.GetStringArray("skus"))
}

// GetPurchaseInfo resolves all purchases currently owned by the user.
func (s *Server) GetPurchaseInfo(call bridge.Call) {
	if err := s.guard.CheckInitialized(""); err != nil {
		reject(call, err)
		return
	}

	s.inventory.GetPurchaseInfo(call)
}

// GetConnectionState reports whether the session is ready. Never fails.
func (s *Server) GetConnectionState(call bridge.Call) {
	state := model.ConnectionStateNotInitialized
	if s.session.Initialized() {
		state = model.ConnectionStateConnected
	}
	call.Resolve(model.Object{"state": state})
}

// Disconnect releases the helper. Idempotent; resolves successfully even
// when nothing is bound.
func (s *Server) Disconnect(call bridge.Call) {
	s.session.Release()
	call.Resolve(model.Object{"disconnected": true})
}

// OnHostDestroy releases the session on host teardown. Unlike Disconnect it
// is not observable to the host.
func (s *Server) OnHostDestroy() {
	s.session.Release()
}
