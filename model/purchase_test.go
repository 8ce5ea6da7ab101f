package model

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/myket-community/bridge-server/iab"
)

func TestPurchaseToObject(t *testing.T) {
	obj := PurchaseToObject(&iab.Purchase{
		OrderID:          "O1",
		PackageName:      "com.example.app",
		Sku:              "gold_coin",
		PurchaseTime:     1700000000000,
		PurchaseState:    0,
		Token:            "T1",
		DeveloperPayload: "u123",
		Signature:        "sig",
		ItemType:         iab.ItemTypeInApp,
	})

	require.Equal(t, Object{
		"orderId":       "O1",
		"packageName":   "com.example.app",
		"productId":     "gold_coin",
		"purchaseTime":  int64(1700000000000),
		"purchaseState": 0,
		"purchaseToken": "T1",
		"payload":       "u123",
		"signature":     "sig",
		"itemType":      "inapp",
	}, obj)
}

func TestSkuToObject(t *testing.T) {
	obj := SkuToObject(&iab.SkuDetails{
		Sku:         "gold_coin",
		Type:        iab.ItemTypeInApp,
		Price:       "20000 Rials",
		Title:       "Gold coin",
		Description: "shiny",
	})

	require.Equal(t, Object{
		"sku":         "gold_coin",
		"type":        "inapp",
		"price":       "20000 Rials",
		"title":       "Gold coin",
		"description": "shiny",
	}, obj)
}

func TestMerged(t *testing.T) {
	base := Object{"state": "PURCHASE_BEGIN", "a": 1}
	extra := Object{"a": 2, "b": 3}

	merged := Merged(base, extra)
	require.Equal(t, Object{"state": "PURCHASE_BEGIN", "a": 2, "b": 3}, merged)

	// Inputs stay untouched.
	require.Equal(t, 1, base["a"])

	require.Equal(t, Object{}, Merged(nil, nil))
}

func TestPurchaseRequestContext(t *testing.T) {
	req := PurchaseRequest{ProductID: "gold_coin", Type: iab.ItemTypeSubs, Payload: "u123"}
	require.Equal(t, Object{
		"productId": "gold_coin",
		"type":      "subs",
		"payload":   "u123",
	}, req.Context())
}
