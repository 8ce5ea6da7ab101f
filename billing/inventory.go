package billing

import (
	"go.uber.org/zap"

	"github.com/myket-community/bridge-server/bridge"
	"github.com/myket-community/bridge-server/iab"
	"github.com/myket-community/bridge-server/model"
)

// InventoryQuery wraps the provider's inventory refresh for catalog lookup,
// owned-purchase listing, and consume's lookup-by-token. The provider has
// no direct lookup-by-token; consuming needs the full purchase record, so a
// refresh followed by a linear scan is the only way to materialize it.
type InventoryQuery struct {
	log     *zap.Logger
	session *Session
}

func NewInventoryQuery(log *zap.Logger, session *Session) *InventoryQuery {
	return &InventoryQuery{
		log:     log,
		session: session,
	}
}

// GetProducts refreshes catalog details for skus and resolves them in input
// order, omitting entries the provider returned no details for.
func (q *InventoryQuery) GetProducts(call bridge.Call, skus []string) {
	helper, err := q.session.Helper()
	if err != nil {
		reject(call, notInitialized(""))
		return
	}

	helper.QueryInventoryAsync(true, skus, func(result iab.Result, inv *iab.Inventory) {
		if result.IsFailure() {
			q.log.Warn("Failed to query inventory", zap.String("result", result.String()))
			reject(call, &Error{
				Kind:    KindQueryFailed,
				Code:    result.ResponseCode(),
				Message: "Query failed: " + result.Message,
			})
			return
		}

		products := make([]model.Object, 0, len(skus))
		for _, sku := range skus {
			if d := inv.GetSkuDetails(sku); d != nil {
				products = append(products, model.SkuToObject(d))
			}
		}
		call.Resolve(model.Object{"products": products})
	})
}

// ConsumeProduct finds the owned purchase carrying token and consumes it.
// No event is emitted; only the call resolution reports CONSUMED.
func (q *InventoryQuery) ConsumeProduct(call bridge.Call, token string) {
	helper, err := q.session.Helper()
	if err != nil {
		reject(call, notInitialized(model.StateFailed))
		return
	}

	call.SetKeepAlive(true)

	helper.QueryInventoryAsync(true, []string{}, func(result iab.Result, inv *iab.Inventory) {
		if result.IsFailure() {
			q.log.Warn("Failed to query inventory before consume", zap.String("result", result.String()))
			reject(call, &Error{
				Kind:    KindFailed,
				Code:    model.StateFailed,
				Message: "Query before consume failed: " + result.Message,
			})
			return
		}

		var target *iab.Purchase
		for _, p := range inv.AllPurchases() {
			if p.Token == token {
				target = p
				break
			}
		}
		if target == nil {
			reject(call, &Error{
				Kind:    KindFailed,
				Code:    model.StateFailed,
				Message: "Purchase with given token not found",
			})
			return
		}

		helper.ConsumeAsync(target, func(purchase *iab.Purchase, result iab.Result) {
			if result.IsFailure() {
				q.log.Warn("Failed to consume purchase",
					zap.String("sku", purchase.Sku),
					zap.String("result", result.String()),
				)
				reject(call, &Error{
					Kind:    KindFailed,
					Code:    model.StateFailed,
					Message: "Consume failed: " + result.Message,
				})
				return
			}

			call.Resolve(model.Object{
				"state":    model.StateConsumed,
				"consumed": true,
			})
		})
	})
}

// GetPurchaseInfo resolves every purchase currently owned by the user.
func (q *InventoryQuery) GetPurchaseInfo(call bridge.Call) {
	helper, err := q.session.Helper()
	if err != nil {
		reject(call, notInitialized(""))
		return
	}

	helper.QueryInventoryAsync(false, nil, func(result iab.Result, inv *iab.Inventory) {
		if result.IsFailure() {
			q.log.Warn("Failed to query purchases", zap.String("result", result.String()))
			reject(call, &Error{
				Kind:    KindQueryFailed,
				Code:    result.ResponseCode(),
				Message: "Query failed: " + result.Message,
			})
			return
		}

		owned := inv.AllPurchases()
		purchases := make([]model.Object, 0, len(owned))
		for _, p := range owned {
			purchases = append(purchases, model.PurchaseToObject(p))
		}
		call.Resolve(model.Object{"purchases": purchases})
	})
}
