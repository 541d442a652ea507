package cart

import (
	"testing"

	"github.com/TienxDun/DigiBook-sub002/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func localCart() domain.Cart {
	return domain.Cart{
		Lines: []domain.CartLine{
			{BookID: 1, Title: "Đất Rừng Phương Nam", Quantity: 2},
			{BookID: 2, Title: "Vang Bóng Một Thời", Quantity: 1},
		},
		Selected: []int64{1},
	}
}

func remoteCart() domain.Cart {
	return domain.Cart{
		Lines: []domain.CartLine{
			{BookID: 2, Title: "Vang Bóng Một Thời", Quantity: 3},
			{BookID: 3, Title: "Chí Phèo", Quantity: 1},
		},
		Selected: []int64{2, 3},
	}
}

func TestMerge_RemoteWins(t *testing.T) {
	out := Merge(localCart(), remoteCart(), RemoteWins)

	assert.Equal(t, remoteCart().Lines, out.Lines)
	assert.Equal(t, remoteCart().Selected, out.Selected)
}

func TestMerge_RemoteWinsFallsBackWhenRemoteEmpty(t *testing.T) {
	out := Merge(localCart(), domain.Cart{}, RemoteWins)

	assert.Equal(t, localCart().Lines, out.Lines)
}

func TestMerge_LocalWins(t *testing.T) {
	out := Merge(localCart(), remoteCart(), LocalWins)

	assert.Equal(t, localCart().Lines, out.Lines)
}

func TestMerge_LocalWinsFallsBackWhenLocalEmpty(t *testing.T) {
	out := Merge(domain.Cart{}, remoteCart(), LocalWins)

	assert.Equal(t, remoteCart().Lines, out.Lines)
}

func TestMerge_SumQuantities(t *testing.T) {
	out := Merge(localCart(), remoteCart(), SumQuantities)

	require.Len(t, out.Lines, 3)

	_, shared := out.Line(2)
	require.NotNil(t, shared)
	assert.Equal(t, int32(4), shared.Quantity, "shared books add their quantities")

	_, localOnly := out.Line(1)
	require.NotNil(t, localOnly)
	assert.Equal(t, int32(2), localOnly.Quantity)

	// selection is the union of both sides
	assert.True(t, out.IsSelected(1))
	assert.True(t, out.IsSelected(2))
	assert.True(t, out.IsSelected(3))
}

func TestMerge_UnknownStrategyDefaultsToRemoteWins(t *testing.T) {
	out := Merge(localCart(), remoteCart(), MergeStrategy("whatever"))

	assert.Equal(t, remoteCart().Lines, out.Lines)
}

func TestMerge_DoesNotAliasInputs(t *testing.T) {
	local := localCart()
	out := Merge(local, domain.Cart{}, RemoteWins)

	out.Lines[0].Quantity = 99

	assert.Equal(t, int32(2), local.Lines[0].Quantity)
}
