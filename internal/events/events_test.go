package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockDelivery struct {
	mock.Mock
}

func (m *mockDelivery) Ack(multiple bool) error {
	return m.Called(multiple).Error(0)
}

func (m *mockDelivery) Nack(multiple, requeue bool) error {
	return m.Called(multiple, requeue).Error(0)
}

func TestLedgerNetsCanceledQuantities(t *testing.T) {
	l := NewLedger()
	l.Record(Event{Type: OrderCreated, OrderNo: 1, Items: []Item{{ProductID: 7, Quantity: 3}, {ProductID: 8, Quantity: 1}}})
	l.Record(Event{Type: OrderCreated, OrderNo: 2, Items: []Item{{ProductID: 7, Quantity: 2}}})
	l.Record(Event{Type: OrderCanceled, OrderNo: 2, Items: []Item{{ProductID: 7, Quantity: 2}}})
	l.Record(Event{Type: OrderPaid, OrderNo: 1, Items: []Item{{ProductID: 7, Quantity: 3}}})

	assert.Equal(t, int64(2), l.Count(OrderCreated))
	assert.Equal(t, int64(1), l.Count(OrderCanceled))
	assert.Equal(t, int64(1), l.Count(OrderPaid))
	assert.Equal(t, int64(3), l.Sold(7))
	assert.Equal(t, int64(1), l.Sold(8))

	s := l.Summary()
	s.Sold[7] = 100
	assert.Equal(t, int64(3), l.Sold(7), "summary must be a copy")
}

func TestWorkerAcksValidEvent(t *testing.T) {
	w := &Worker{id: 1, ledger: NewLedger()}
	body, err := json.Marshal(Event{
		Type:       OrderCreated,
		OrderNo:    42,
		Payment:    decimal.RequireFromString("19.90"),
		Items:      []Item{{ProductID: 3, Quantity: 2}},
		OccurredAt: time.Now(),
	})
	require.NoError(t, err)

	d := new(mockDelivery)
	d.On("Ack", false).Return(nil).Once()

	w.handle(body, d)

	d.AssertExpectations(t)
	d.AssertNotCalled(t, "Nack", mock.Anything, mock.Anything)
	assert.Equal(t, int64(2), w.ledger.Sold(3))
}

func TestWorkerDropsMalformedEvent(t *testing.T) {
	w := &Worker{id: 1, ledger: NewLedger()}
	for _, body := range [][]byte{[]byte("{not json"), []byte(`{"orderNo":1}`)} {
		d := new(mockDelivery)
		d.On("Nack", false, false).Return(nil).Once()

		w.handle(body, d)

		d.AssertExpectations(t)
		d.AssertNotCalled(t, "Ack", mock.Anything)
	}
	assert.Empty(t, w.ledger.Summary().Counts)
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), Event{Type: OrderPaid}))
}
