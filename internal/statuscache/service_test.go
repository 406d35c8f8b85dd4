package statuscache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kafkax "github.com/MICGolf/backend/internal/kafka"
	"github.com/MICGolf/backend/internal/orders"
)

func envelope(eventType string, payload any) orders.Envelope {
	return orders.Envelope{
		EventID:   "evt-1",
		EventType: eventType,
		Payload:   kafkax.MustMarshal(payload),
	}
}

func TestStatusFor(t *testing.T) {
	id, status, err := statusFor(envelope(orders.EventOrderCreated, orders.OrderCreatedPayload{
		OrderID: 7, OrderNumber: "ORD-7",
	}))
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.Equal(t, "PENDING", status)

	id, status, err = statusFor(envelope(orders.EventShippingUpdated, orders.ShippingUpdatedPayload{
		OrderID: 8, Status: "SHIPPING",
	}))
	require.NoError(t, err)
	assert.Equal(t, int64(8), id)
	assert.Equal(t, "SHIPPING", status)

	id, status, err = statusFor(envelope(orders.EventClaimFiled, orders.ClaimFiledPayload{
		OrderID: 9, ClaimType: "RETURN", Outcome: "RETURN",
	}))
	require.NoError(t, err)
	assert.Equal(t, int64(9), id)
	assert.Equal(t, "RETURN", status)
}

func TestStatusForSkipsUnknownEvents(t *testing.T) {
	_, status, err := statusFor(envelope(orders.EventPurchaseConfirmed, orders.PurchaseConfirmedPayload{
		OrderID: 7,
	}))
	require.NoError(t, err)
	assert.Empty(t, status, "purchase confirmation does not change the customer-facing status")

	_, status, err = statusFor(envelope("SomethingElse", map[string]any{}))
	require.NoError(t, err)
	assert.Empty(t, status)
}

func TestStatusForBadPayload(t *testing.T) {
	env := orders.Envelope{
		EventID:   "evt-2",
		EventType: orders.EventOrderCreated,
		Payload:   []byte(`{"order_id": "not-a-number"}`),
	}
	_, _, err := statusFor(env)
	assert.Error(t, err)
}
