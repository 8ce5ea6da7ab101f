package model

import "github.com/myket-community/bridge-server/iab"

// Purchase lifecycle state tags carried on the purchaseStateChanged channel
// and in call resolutions.
const (
	StatePurchaseBegin = "PURCHASE_BEGIN"
	StateFailedToBegin = "FAILED_TO_BEGIN"
	StatePurchased     = "PURCHASED"
	StateCancelled     = "CANCELLED"
	StateFailed        = "FAILED"
	StateConsumed      = "CONSUMED"
)

// Connection states reported by getConnectionState.
const (
	ConnectionStateConnected      = "CONNECTED"
	ConnectionStateNotInitialized = "NOT_INITIALIZED"
)

// PurchaseRequest is the validated input of one purchaseProduct call.
type PurchaseRequest struct {
	ProductID string
	Type      string // iab.ItemTypeInApp (default) or iab.ItemTypeSubs
	Payload   string // developer payload, may be empty
}

// Context returns the request fields echoed on begin/cancel/failure events.
func (r PurchaseRequest) Context() Object {
	return Object{
		"productId": r.ProductID,
		"type":      r.Type,
		"payload":   r.Payload,
	}
}

// PurchaseToObject maps a provider purchase to the host-facing record.
func PurchaseToObject(p *iab.Purchase) Object {
	return Object{
		"orderId":       p.OrderID,
		"packageName":   p.PackageName,
		"productId":     p.Sku,
		"purchaseTime":  p.PurchaseTime,
		"purchaseState": p.PurchaseState,
		"purchaseToken": p.Token,
		"payload":       p.DeveloperPayload,
		"signature":     p.Signature,
		"itemType":      p.ItemType,
	}
}

// SkuToObject maps a provider catalog entry to the host-facing record.
func SkuToObject(d *iab.SkuDetails) Object {
	return Object{
		"sku":         d.Sku,
		"type":        d.Type,
		"price":       d.Price,
		"title":       d.Title,
		"description": d.Description,
	}
}
