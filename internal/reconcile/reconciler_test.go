package reconcile

import (
	"testing"

	"github.com/TienxDun/DigiBook-sub002/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCart() domain.Cart {
	return domain.Cart{
		Lines: []domain.CartLine{
			{BookID: 1, Title: "Dế Mèn Phiêu Lưu Ký", UnitPrice: 55000, Quantity: 3},
			{BookID: 2, Title: "Số Đỏ", UnitPrice: 72000, Quantity: 4},
			{BookID: 3, Title: "Truyện Kiều", UnitPrice: 98000, Quantity: 1},
		},
		Selected: []int64{1, 2, 3},
	}
}

func TestApply_NoViolations(t *testing.T) {
	cart := testCart()

	out, summary := Apply(cart, nil)

	assert.True(t, summary.Empty())
	assert.Equal(t, cart.Lines, out.Lines)
	assert.Equal(t, cart.Selected, out.Selected)
}

func TestApply_ClampsInsufficient(t *testing.T) {
	cart := testCart()
	violations := []domain.Violation{
		{BookID: 2, Title: "Số Đỏ", Type: domain.ViolationInsufficient, Available: 2, Requested: 4},
	}

	out, summary := Apply(cart, violations)

	_, line := out.Line(2)
	require.NotNil(t, line)
	assert.Equal(t, int32(2), line.Quantity)

	require.Len(t, summary.Changes, 1)
	assert.Equal(t, int64(2), summary.Changes[0].BookID)
	assert.Equal(t, int32(4), summary.Changes[0].Before)
	assert.Equal(t, int32(2), summary.Changes[0].After)
	assert.False(t, summary.Changes[0].Removed)

	// untouched lines keep their quantities
	_, other := out.Line(1)
	assert.Equal(t, int32(3), other.Quantity)
}

func TestApply_RemovesOutOfStock(t *testing.T) {
	cart := testCart()
	violations := []domain.Violation{
		{BookID: 3, Title: "Truyện Kiều", Type: domain.ViolationOutOfStock, Available: 0, Requested: 1},
	}

	out, summary := Apply(cart, violations)

	i, _ := out.Line(3)
	assert.Equal(t, -1, i)
	assert.False(t, out.IsSelected(3), "removed line must be pruned from selection")

	require.Len(t, summary.Changes, 1)
	assert.True(t, summary.Changes[0].Removed)
	assert.Equal(t, "Truyện Kiều", summary.Changes[0].Title)
}

func TestApply_InsufficientWithZeroAvailableRemoves(t *testing.T) {
	cart := testCart()
	violations := []domain.Violation{
		{BookID: 1, Type: domain.ViolationInsufficient, Available: 0, Requested: 3},
	}

	out, summary := Apply(cart, violations)

	i, _ := out.Line(1)
	assert.Equal(t, -1, i)
	require.Len(t, summary.Changes, 1)
	assert.True(t, summary.Changes[0].Removed)
}

func TestApply_NeverExceedsAvailable(t *testing.T) {
	cart := testCart()
	violations := []domain.Violation{
		{BookID: 1, Type: domain.ViolationInsufficient, Available: 1, Requested: 3},
		{BookID: 2, Type: domain.ViolationInsufficient, Available: 3, Requested: 4},
		{BookID: 3, Type: domain.ViolationOutOfStock, Available: 0, Requested: 1},
	}

	out, _ := Apply(cart, violations)

	available := map[int64]int32{1: 1, 2: 3, 3: 0}
	for _, l := range out.Lines {
		assert.LessOrEqual(t, l.Quantity, available[l.BookID])
	}
}

func TestApply_Idempotent(t *testing.T) {
	cart := testCart()
	violations := []domain.Violation{
		{BookID: 1, Type: domain.ViolationInsufficient, Available: 2, Requested: 3},
		{BookID: 3, Type: domain.ViolationOutOfStock, Available: 0, Requested: 1},
	}

	once, _ := Apply(cart, violations)
	twice, summary := Apply(once, violations)

	assert.Equal(t, once, twice)
	assert.True(t, summary.Empty(), "reapplying the same violations must be a no-op")
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	cart := testCart()
	violations := []domain.Violation{
		{BookID: 2, Type: domain.ViolationInsufficient, Available: 1, Requested: 4},
	}

	Apply(cart, violations)

	_, line := cart.Line(2)
	assert.Equal(t, int32(4), line.Quantity)
}

func TestApply_ViolationForAbsentLineIgnored(t *testing.T) {
	cart := testCart()
	violations := []domain.Violation{
		{BookID: 999, Type: domain.ViolationOutOfStock, Available: 0, Requested: 2},
	}

	out, summary := Apply(cart, violations)

	assert.True(t, summary.Empty())
	assert.Len(t, out.Lines, 3)
}
