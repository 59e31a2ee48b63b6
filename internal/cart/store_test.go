package cart

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tboniifacio/Restaurante-Sabor-Vivo/internal/storage"
)

// mockSlot is an in-memory slot with injectable failures.
type mockSlot struct {
	mu      sync.Mutex
	value   []byte
	present bool
	getErr  error
	setErr  error
}

func (m *mockSlot) Get(context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	if !m.present {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), m.value...), nil
}

func (m *mockSlot) Set(_ context.Context, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.value = append([]byte(nil), value...)
	m.present = true
	return nil
}

func (m *mockSlot) Remove(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = nil
	m.present = false
	return nil
}

func feijoada() ItemInput {
	return ItemInput{ID: "feijoada", Name: "Feijoada Completa", Price: 4590, Qty: 1, Type: "food"}
}

func newTestStore() (*Store, *mockSlot) {
	slot := &mockSlot{}
	return NewStore(slot), slot
}

func TestAddItem_AppendsAndMerges(t *testing.T) {
	sut, _ := newTestStore()
	ctx := context.Background()

	in := feijoada()
	in.Qty = 2
	sut.AddItem(ctx, in)

	in.Qty = 3
	snapshot := sut.AddItem(ctx, in)

	require.Len(t, snapshot.Items, 1, "same id must merge, not duplicate")
	assert.Equal(t, 5, snapshot.Items[0].Qty)
}

func TestAddItem_InvalidDescriptorIsNoop(t *testing.T) {
	sut, _ := newTestStore()
	ctx := context.Background()

	notified := 0
	sut.Subscribe(func(Change) { notified++ })

	snapshot := sut.AddItem(ctx, ItemInput{Name: "sem id", Price: 4590})
	assert.Empty(t, snapshot.Items)
	assert.Zero(t, notified, "failed normalization must not notify")
}

func TestRemoveItem(t *testing.T) {
	sut, _ := newTestStore()
	ctx := context.Background()

	sut.AddItem(ctx, feijoada())
	snapshot := sut.RemoveItem(ctx, "feijoada")
	assert.Empty(t, snapshot.Items)

	// Absent id is tolerated.
	snapshot = sut.RemoveItem(ctx, "nada")
	assert.Empty(t, snapshot.Items)
}

func TestUpdateQty(t *testing.T) {
	sut, _ := newTestStore()
	ctx := context.Background()
	sut.AddItem(ctx, feijoada())

	snapshot := sut.UpdateQty(ctx, "feijoada", 4)
	require.Len(t, snapshot.Items, 1)
	assert.Equal(t, 4, snapshot.Items[0].Qty)

	snapshot = sut.UpdateQty(ctx, "feijoada", 2.5)
	assert.Equal(t, 3, snapshot.Items[0].Qty, "quantity rounds")

	snapshot = sut.UpdateQty(ctx, "feijoada", 0)
	assert.Empty(t, snapshot.Items, "zero quantity removes the item")

	sut.AddItem(ctx, feijoada())
	snapshot = sut.UpdateQty(ctx, "feijoada", -2)
	assert.Empty(t, snapshot.Items, "negative quantity removes the item")
}

func TestUpdateQty_UnknownIDIsNoop(t *testing.T) {
	sut, _ := newTestStore()
	ctx := context.Background()
	sut.AddItem(ctx, feijoada())

	notified := 0
	sut.Subscribe(func(Change) { notified++ })

	snapshot := sut.UpdateQty(ctx, "nada", 5)
	require.Len(t, snapshot.Items, 1)
	assert.Equal(t, 1, snapshot.Items[0].Qty)
	assert.Zero(t, notified)
}

func TestClear(t *testing.T) {
	sut, _ := newTestStore()
	ctx := context.Background()

	sut.AddItem(ctx, feijoada())
	sut.SetFee(ctx, 500)
	require.True(t, sut.ApplyCoupon(ctx, "SABOR10"))

	snapshot := sut.Clear(ctx)
	assert.Empty(t, snapshot.Items)
	assert.Nil(t, snapshot.Coupon)
	assert.Equal(t, ServiceFeeCents, snapshot.Fee)

	assert.Equal(t, Totals{}, sut.GetTotals(ctx), "cleared cart totals are all zero")
}

func TestSetFee(t *testing.T) {
	sut, _ := newTestStore()
	ctx := context.Background()

	snapshot := sut.SetFee(ctx, 300)
	assert.Equal(t, int64(300), snapshot.Fee)

	snapshot = sut.SetFee(ctx, "3,50")
	assert.Equal(t, int64(350), snapshot.Fee)

	snapshot = sut.SetFee(ctx, -100)
	assert.Equal(t, int64(0), snapshot.Fee, "fee clamps to zero")
}

func TestApplyCoupon(t *testing.T) {
	sut, _ := newTestStore()
	ctx := context.Background()

	require.True(t, sut.ApplyCoupon(ctx, "sabor10"), "lookup is case-insensitive")
	snapshot := sut.GetCart(ctx)
	require.NotNil(t, snapshot.Coupon)
	assert.Equal(t, Coupon{Code: "SABOR10", Percent: 10}, *snapshot.Coupon)

	assert.False(t, sut.ApplyCoupon(ctx, "nope"))
	snapshot = sut.GetCart(ctx)
	require.NotNil(t, snapshot.Coupon, "failed apply must leave prior coupon")
	assert.Equal(t, "SABOR10", snapshot.Coupon.Code)

	sut.RemoveCoupon(ctx)
	assert.Nil(t, sut.GetCart(ctx).Coupon)
}

func TestGetTotals(t *testing.T) {
	sut, _ := newTestStore()
	ctx := context.Background()

	sut.AddItem(ctx, ItemInput{ID: "a", Price: 1000, Qty: 2})
	sut.AddItem(ctx, ItemInput{ID: "b", Price: 500, Qty: 1})
	sut.SetFee(ctx, 300)
	require.True(t, sut.ApplyCoupon(ctx, "SABOR10"))

	totals := sut.GetTotals(ctx)
	assert.Equal(t, int64(2500), totals.Subtotal)
	assert.Equal(t, int64(300), totals.Fee)
	assert.Equal(t, int64(250), totals.Discount)
	assert.Equal(t, int64(2550), totals.Total)
}

func TestComputeTotals_NeverNegative(t *testing.T) {
	assert.Equal(t, int64(0), ComputeTotals(Cart{}).Total)

	c := Cart{Items: []Item{{ID: "x", Price: 100, Qty: 1}}, Coupon: &Coupon{Code: "C", Percent: 90}}
	totals := ComputeTotals(c)
	assert.Equal(t, int64(90), totals.Discount)
	assert.Equal(t, int64(10), totals.Total)
}

func TestComputeTotals_DiscountCappedAtSubtotal(t *testing.T) {
	c := Cart{Items: []Item{{ID: "x", Price: 1, Qty: 1}}, Coupon: &Coupon{Code: "C", Percent: 90}}
	totals := ComputeTotals(c)
	assert.LessOrEqual(t, totals.Discount, totals.Subtotal)
}

func TestPersistence_RoundTrip(t *testing.T) {
	slot := &mockSlot{}
	ctx := context.Background()

	first := NewStore(slot)
	first.AddItem(ctx, feijoada())
	first.SetFee(ctx, 300)
	require.True(t, first.ApplyCoupon(ctx, "saborvip"))
	want := first.GetCart(ctx)

	// A new store over the same slot rehydrates the same cart.
	second := NewStore(slot)
	got := second.GetCart(ctx)

	assert.Equal(t, want.Items, got.Items)
	assert.Equal(t, want.Coupon, got.Coupon)
	assert.Equal(t, want.Fee, got.Fee)
}

func TestGetCart_ReturnsDefensiveCopy(t *testing.T) {
	sut, _ := newTestStore()
	ctx := context.Background()
	sut.AddItem(ctx, feijoada())

	snapshot := sut.GetCart(ctx)
	snapshot.Items[0].Qty = 99
	snapshot.Items = nil

	fresh := sut.GetCart(ctx)
	require.Len(t, fresh.Items, 1)
	assert.Equal(t, 1, fresh.Items[0].Qty)
}

func TestNotification_CarriesSnapshotAndTotals(t *testing.T) {
	sut, slot := newTestStore()
	ctx := context.Background()

	var got []Change
	unsubscribe := sut.Subscribe(func(c Change) { got = append(got, c) })

	sut.AddItem(ctx, ItemInput{ID: "a", Price: 1000, Qty: 2})

	require.Len(t, got, 1)
	assert.Equal(t, int64(2000), got[0].Totals.Subtotal)
	require.Len(t, got[0].Cart.Items, 1)
	assert.True(t, slot.present, "notification is ordered after persistence")

	unsubscribe()
	sut.Clear(ctx)
	assert.Len(t, got, 1, "unsubscribed listener must not fire")
}

func TestStore_SlotFailuresDegradeToMemory(t *testing.T) {
	sut, slot := newTestStore()
	ctx := context.Background()

	slot.mu.Lock()
	slot.getErr = errors.New("disk on fire")
	slot.setErr = errors.New("disk on fire")
	slot.mu.Unlock()

	snapshot := sut.AddItem(ctx, feijoada())
	require.Len(t, snapshot.Items, 1, "operation completes against the memory copy")

	snapshot = sut.GetCart(ctx)
	assert.Len(t, snapshot.Items, 1)
}

func TestStore_CorruptedSlotResets(t *testing.T) {
	slot := &mockSlot{}
	require.NoError(t, slot.Set(context.Background(), []byte(`{"items":[`)))

	sut := NewStore(slot)
	snapshot := sut.GetCart(context.Background())
	assert.Empty(t, snapshot.Items)
	assert.Equal(t, ServiceFeeCents, snapshot.Fee)
}

func TestAdoptExternal_RenormalizesAndNotifies(t *testing.T) {
	sut, _ := newTestStore()

	var got []Change
	sut.Subscribe(func(c Change) { got = append(got, c) })

	sut.adoptExternal([]byte(`{"items":[{"id":"moqueca","price":6890,"qty":2},{"id":"","price":1}],"fee":300}`))

	require.Len(t, got, 1)
	require.Len(t, got[0].Cart.Items, 1, "external value is re-normalized before adoption")
	assert.Equal(t, "moqueca", got[0].Cart.Items[0].ID)
	assert.Equal(t, int64(14080), got[0].Totals.Total)
}

func TestAdoptExternal_MalformedLeavesStateUnchanged(t *testing.T) {
	sut, _ := newTestStore()
	ctx := context.Background()
	sut.AddItem(ctx, feijoada())

	notified := 0
	sut.Subscribe(func(Change) { notified++ })

	sut.adoptExternal([]byte(`{"items":[`))

	assert.Zero(t, notified)
	assert.Len(t, sut.GetCart(ctx).Items, 1)
}

func TestAdoptExternal_NilValueResets(t *testing.T) {
	sut, slot := newTestStore()
	ctx := context.Background()
	sut.AddItem(ctx, feijoada())

	var got []Change
	sut.Subscribe(func(c Change) { got = append(got, c) })

	// The other context removed the slot.
	require.NoError(t, slot.Remove(ctx))
	sut.adoptExternal(nil)

	require.Len(t, got, 1)
	assert.Empty(t, got[0].Cart.Items)
	assert.Equal(t, Totals{}, got[0].Totals)
}

func TestMutation_RefreshesUpdatedAt(t *testing.T) {
	sut, _ := newTestStore()
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	current := base
	sut.now = func() time.Time { return current }

	first := sut.AddItem(ctx, feijoada())
	assert.Equal(t, base.UnixMilli(), first.UpdatedAt)

	current = base.Add(time.Minute)
	second := sut.SetFee(ctx, 100)
	assert.Equal(t, base.Add(time.Minute).UnixMilli(), second.UpdatedAt)
	assert.Greater(t, second.UpdatedAt, first.UpdatedAt)
}
