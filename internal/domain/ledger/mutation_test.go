package ledger

import (
	"testing"

	"stockcore/internal/core/id"
	"stockcore/internal/core/ref"
	"stockcore/internal/core/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMutationDerivesKind(t *testing.T) {
	product := id.New()
	w1 := id.New()
	w2 := id.New()
	lot := id.New()

	credit := NewMutation(product, w1, nil, &lot, types.NewQuantityFromInt(5))
	assert.Equal(t, KindAdd, credit.Kind)
	assert.True(t, credit.IsCredit())
	assert.False(t, credit.IsDebit())

	debit := NewMutation(product, w1, nil, &lot, types.NewQuantityFromInt(5).Neg())
	assert.Equal(t, KindSubtract, debit.Kind)
	assert.True(t, debit.IsDebit())

	// Either leg of a move is a transfer regardless of sign.
	in := NewMutation(product, w2, &w1, &lot, types.NewQuantityFromInt(5))
	out := NewMutation(product, w1, &w2, &lot, types.NewQuantityFromInt(5).Neg())
	assert.Equal(t, KindTransfer, in.Kind)
	assert.Equal(t, KindTransfer, out.Kind)
}

func TestNewMutationIdentity(t *testing.T) {
	product := id.New()
	warehouse := id.New()

	a := NewMutation(product, warehouse, nil, nil, types.NewQuantityFromInt(1))
	b := NewMutation(product, warehouse, nil, nil, types.NewQuantityFromInt(1))

	require.False(t, id.IsNil(a.ID))
	assert.NotEqual(t, a.ID, b.ID)
	assert.False(t, a.CreatedAt.IsZero())
}

func TestMutationChaining(t *testing.T) {
	docRef := &ref.Ref{Kind: ref.KindDocument, ID: id.New()}

	m := NewMutation(id.New(), id.New(), nil, nil, types.NewQuantityFromInt(2)).
		WithReference(docRef).
		WithDescription("goods receipt")

	assert.Equal(t, docRef, m.Reference)
	assert.Equal(t, "goods receipt", m.Description)
}
