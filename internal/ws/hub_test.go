package ws

import (
	"encoding/json"
	"testing"

	"microwallet/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(h *Hub, userID int64, queue int) *Client {
	return &Client{UserID: userID, Hub: h, Send: make(chan []byte, queue)}
}

func TestPublishReachesOnlyOwner(t *testing.T) {
	h := NewHub()
	a1 := testClient(h, 1, 4)
	a2 := testClient(h, 1, 4)
	b := testClient(h, 2, 4)
	h.Register(a1)
	h.Register(a2)
	h.Register(b)
	assert.Equal(t, 2, h.Sessions(1))

	h.Publish(domain.BalanceEvent{
		UserID:      1,
		Balance:     decimal.RequireFromString("0.60"),
		Delta:       decimal.RequireFromString("0.10"),
		Type:        domain.TxReferralBonus,
		Description: "bonus",
	})

	for _, c := range []*Client{a1, a2} {
		require.Len(t, c.Send, 1)
		var got map[string]interface{}
		require.NoError(t, json.Unmarshal(<-c.Send, &got))
		assert.Equal(t, "balance_update", got["type"])
		assert.Equal(t, "0.6", got["balance"])
		assert.Equal(t, "0.1", got["delta"])
		assert.Equal(t, "referral_bonus", got["tx_type"])
		assert.Equal(t, "bonus", got["description"])
	}
	assert.Len(t, b.Send, 0)
}

func TestSlowSessionIsDropped(t *testing.T) {
	h := NewHub()
	c := testClient(h, 1, 1)
	h.Register(c)

	ev := domain.BalanceEvent{UserID: 1}
	h.Publish(ev, ev)

	assert.Equal(t, 0, h.Sessions(1))
	_, open := <-c.Send
	assert.True(t, open, "queued message is still readable")
	_, open = <-c.Send
	assert.False(t, open)
}

func TestUnregisterTwice(t *testing.T) {
	h := NewHub()
	c := testClient(h, 5, 1)
	h.Register(c)
	h.Unregister(c)
	assert.NotPanics(t, func() { h.Unregister(c) })
	assert.NotPanics(t, func() { h.Publish(domain.BalanceEvent{UserID: 5}) })
}
