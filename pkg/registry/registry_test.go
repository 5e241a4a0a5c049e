package registry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qwe8652591/ai-builder-core-sub002/pkg/memory"
	"github.com/qwe8652591/ai-builder-core-sub002/pkg/types"
)

func TestAdapterSingleton(t *testing.T) {
	calls := 0
	engine := memory.New()
	reg := New(func(entity string) (types.Adapter, error) {
		calls++
		return engine.Adapter(entity), nil
	})

	first, err := reg.Adapter("Product")
	require.NoError(t, err)
	second, err := reg.Adapter("Product")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, calls)

	_, err = reg.Adapter("Order")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestFactoryErrorIsNotCached(t *testing.T) {
	fail := true
	engine := memory.New()
	reg := New(func(entity string) (types.Adapter, error) {
		if fail {
			return nil, errors.New("backend down")
		}
		return engine.Adapter(entity), nil
	})

	_, err := reg.Adapter("Product")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"Product"`)

	fail = false
	a, err := reg.Adapter("Product")
	require.NoError(t, err)
	assert.NotNil(t, a)
}

func TestForEngine(t *testing.T) {
	engine := memory.New()
	reg := ForEngine(engine)

	products, err := reg.Adapter("Product")
	require.NoError(t, err)

	created, err := products.Create(types.Entity{"name": "Pen"})
	require.NoError(t, err)
	assert.Equal(t, "product_1", created[types.FieldID])

	// The registry hands out the engine's own singleton.
	assert.Same(t, engine.Adapter("Product"), products)
}

func TestIndependentRegistries(t *testing.T) {
	regA := ForEngine(memory.New())
	regB := ForEngine(memory.New())

	a, err := regA.Adapter("Product")
	require.NoError(t, err)
	b, err := regB.Adapter("Product")
	require.NoError(t, err)

	_, err = a.Create(types.Entity{"name": "Pen"})
	require.NoError(t, err)

	n, err := b.Count(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
