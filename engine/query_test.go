package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type queryPos struct{ X, Y int }
type queryGlyph struct{ Rune rune }

func TestQueryBuilder(t *testing.T) {
	w := NewTestWorld()
	positions := GetStore[queryPos](w)
	glyphs := GetStore[queryGlyph](w)

	e1 := w.CreateEntity()
	positions.Set(e1, queryPos{1, 1})
	glyphs.Set(e1, queryGlyph{'A'})

	e2 := w.CreateEntity()
	positions.Set(e2, queryPos{2, 2})

	e3 := w.CreateEntity()
	glyphs.Set(e3, queryGlyph{'B'})

	e4 := w.CreateEntity()
	positions.Set(e4, queryPos{4, 4})
	glyphs.Set(e4, queryGlyph{'C'})

	both := w.Query().With(positions).With(glyphs).Execute()
	assert.ElementsMatch(t, []any{e1, e4}, toAny(both))

	onlyPos := w.Query().With(positions).Execute()
	assert.Len(t, onlyPos, 3)

	assert.Empty(t, w.Query().Execute())
}

func TestQueryBuilder_CachedAndSealed(t *testing.T) {
	w := NewTestWorld()
	positions := GetStore[queryPos](w)
	positions.Set(w.CreateEntity(), queryPos{})

	q := w.Query().With(positions)
	first := q.Execute()
	positions.Set(w.CreateEntity(), queryPos{})
	assert.Equal(t, first, q.Execute(), "second Execute returns cached result")

	assert.Panics(t, func() { q.With(positions) })
}

func toAny[T any](in []T) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}
