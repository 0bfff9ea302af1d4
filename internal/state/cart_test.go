package state

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplysync-backend/internal/models"
)

func TestAddToCart(t *testing.T) {
	s, _, p1, _ := seeded(t)
	s.AddToCart(p1)
	s.AddToCart(p1)
	s.AddToCart(12345)
	assert.Equal(t, []models.CartItem{{ProductID: p1, Quantity: 2}}, s.Cart)
}

func TestUpdateCartQuantity(t *testing.T) {
	s, _, p1, p2 := seeded(t)
	s.AddToCart(p1)

	s.UpdateCartQuantity(p1, 4)
	assert.Equal(t, 5, s.Cart[0].Quantity)

	s.UpdateCartQuantity(p2, 3)
	assert.Len(t, s.Cart, 1)

	s.UpdateCartQuantity(p1, -9)
	assert.Empty(t, s.Cart)
}

func TestCartQuantitiesMatchNetIncrements(t *testing.T) {
	s, _, p1, p2 := seeded(t)
	products := []int64{p1, p2}
	want := map[int64]int{}
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 500; i++ {
		pid := products[rng.Intn(len(products))]
		if rng.Intn(2) == 0 {
			s.AddToCart(pid)
			want[pid]++
			continue
		}
		delta := rng.Intn(5) - 2
		s.UpdateCartQuantity(pid, delta)
		if q, ok := want[pid]; ok {
			if q+delta <= 0 {
				delete(want, pid)
			} else {
				want[pid] = q + delta
			}
		}
	}

	got := map[int64]int{}
	for _, it := range s.Cart {
		require.Positive(t, it.Quantity)
		got[it.ProductID] = it.Quantity
	}
	assert.Equal(t, want, got)
}

func TestClearCartAndSetters(t *testing.T) {
	s, _, p1, _ := seeded(t)
	s.AddToCart(p1)
	s.ClearCart()
	assert.NotNil(t, s.Cart)
	assert.Empty(t, s.Cart)

	s.ToggleVAT(true)
	assert.True(t, s.VATEnabled)

	num, paid := "PO-7", true
	s.UpdateOrderDetails(OrderDetailsPatch{OrderNumber: &num, IsPaid: &paid})
	assert.Equal(t, "PO-7", s.OrderDetails.OrderNumber)
	assert.True(t, s.OrderDetails.IsPaid)
	assert.Equal(t, "2024-03-15", s.OrderDetails.OrderDate)
	assert.Equal(t, models.DefaultPaymentMethod, s.OrderDetails.PaymentMethod)
}
