package rummikub

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBoard_TileCount(t *testing.T) {
	board := Board{Melds: []Meld{
		NewMeld(red(1), red(2), red(3)),
		NewMeld(blue(7), red(7), black(7), orange(7)),
	}}

	assert.Equal(t, 7, board.TileCount())
	assert.Len(t, board.Tiles(), 7)
}

func TestBoard_DiffPlacedAndUnchanged(t *testing.T) {
	current := Board{Melds: []Meld{
		NewMeld(red(1), red(2), red(3)),
		NewMeld(blue(7), red(7), black(7)),
	}}
	proposed := Board{Melds: []Meld{
		NewMeld(black(7), blue(7), red(7)),
		NewMeld(red(1), red(2), red(3), red(4)),
	}}

	diff := current.Diff(proposed)

	assert.Equal(t, []Tile{red(4)}, diff.Placed)
	assert.Empty(t, diff.Missing)
	assert.Equal(t, []int{1}, diff.Changed)
	assert.Equal(t, map[int]int{0: 1}, diff.Unchanged)
}

func TestBoard_DiffMissing(t *testing.T) {
	current := Board{Melds: []Meld{NewMeld(red(1), red(2), red(3))}}
	proposed := Board{Melds: []Meld{NewMeld(red(2), red(3), red(4), red(5))}}

	diff := current.Diff(proposed)

	assert.Equal(t, []Tile{red(1)}, diff.Missing)
	assert.Equal(t, []Tile{red(4), red(5)}, diff.Placed)
}

func TestBoard_DiffJokersMatchByFlag(t *testing.T) {
	current := Board{Melds: []Meld{NewMeld(red(1), NewJoker(ColorBlue), red(3))}}
	proposed := Board{Melds: []Meld{NewMeld(red(1), NewJoker(ColorBlack), red(3), red(4))}}

	diff := current.Diff(proposed)

	assert.Empty(t, diff.Missing)
	assert.Equal(t, []Tile{red(4)}, diff.Placed)
	assert.Equal(t, []int{0}, diff.Changed)
}

func TestBoard_DiffConsumesOnce(t *testing.T) {
	current := Board{Melds: []Meld{NewMeld(red(5), blue(5), black(5))}}
	proposed := Board{Melds: []Meld{
		NewMeld(red(5), blue(5), black(5)),
		NewMeld(red(5), red(6), red(7)),
	}}

	diff := current.Diff(proposed)

	assert.Equal(t, []Tile{red(5), red(6), red(7)}, diff.Placed)
	assert.Equal(t, []int{1}, diff.Changed)
}
