package shared

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type diffSample struct {
	BaseEntity
	Name     string `diff:"Nome"`
	Code     int
	SeiID    *int64 `diff:"Código no SEI"`
	Secret   string `diff:"-"`
	Tags     []string
	Child    *diffSample
	internal string
}

func TestDiff(t *testing.T) {
	id := uuid.New()
	seiID := int64(10)
	oldObj := diffSample{BaseEntity: BaseEntity{ID: id}, Name: "Ana", Code: 1, Secret: "a", internal: "x"}
	newObj := diffSample{BaseEntity: BaseEntity{ID: uuid.New()}, Name: "Ana Maria", Code: 1, SeiID: &seiID,
		Secret: "b", Tags: []string{"t"}, Child: &diffSample{}, internal: "y"}

	t.Run("reports labelled scalar changes in declaration order", func(t *testing.T) {
		changes := Diff(newObj, oldObj)
		require.Len(t, changes, 2)
		assert.Equal(t, Change{Name: "Nome", Old: "Ana", New: "Ana Maria"}, changes[0])
		assert.Equal(t, "Código no SEI", changes[1].Name)
		assert.Nil(t, changes[1].Old)
		assert.Equal(t, int64(10), changes[1].New)
	})

	t.Run("key fields only with WithKeys", func(t *testing.T) {
		changes := Diff(&newObj, &oldObj, WithKeys())
		require.Len(t, changes, 3)
		assert.Equal(t, "ID", changes[0].Name)
		assert.Equal(t, id, changes[0].Old)
	})

	t.Run("ignored fields", func(t *testing.T) {
		changes := Diff(newObj, oldObj, Ignoring("Name", "SeiID"))
		assert.Empty(t, changes)
	})

	t.Run("equal values produce no change", func(t *testing.T) {
		assert.Empty(t, Diff(oldObj, oldObj))
	})

	t.Run("mismatched types produce nothing", func(t *testing.T) {
		assert.Nil(t, Diff(oldObj, BaseEntity{}))
		assert.Nil(t, Diff(nil, oldObj))
	})
}

func TestChange_String(t *testing.T) {
	assert.Equal(t, "Identidade: 456 => 123", Change{Name: "Identidade", Old: "456", New: "123"}.String())
	assert.Equal(t, "Código no SEI:  => 7", Change{Name: "Código no SEI", Old: nil, New: int64(7)}.String())
}
