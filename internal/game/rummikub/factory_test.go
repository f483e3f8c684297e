package rummikub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTiles_FourPlayers(t *testing.T) {
	tiles, err := BuildTiles(DefaultRules(), NewRandom(1))
	require.NoError(t, err)
	require.Len(t, tiles, 106)

	assert.Equal(t, 2, CountTile(tiles, joker()))
	for _, color := range Colors() {
		for n := 1; n <= 13; n++ {
			assert.Equal(t, 2, CountTile(tiles, NewTile(n, color)), "%d-%s", n, color)
		}
	}
}

func TestBuildTiles_SixPlayers(t *testing.T) {
	rules := DefaultRules()
	rules.MaxPlayers = 6

	tiles, err := BuildTiles(rules, NewRandom(1))
	require.NoError(t, err)
	require.Len(t, tiles, 160)

	assert.Equal(t, 4, CountTile(tiles, joker()))
	assert.Equal(t, 3, CountTile(tiles, blue(7)))
}

func TestBuildTiles_JokerColorIsCosmetic(t *testing.T) {
	tiles, err := BuildTiles(DefaultRules(), &fixedRandom{next: 2})
	require.NoError(t, err)

	last := tiles[len(tiles)-1]
	assert.True(t, last.Joker)
	assert.Equal(t, ColorOrange, last.Color)
	assert.True(t, last.Equal(NewJoker(ColorBlack)))
}

func TestBuildTiles_ConfigError(t *testing.T) {
	rules := DefaultRules()
	rules.MaxPlayers = 8

	_, err := BuildTiles(rules, NewRandom(1))
	assert.ErrorIs(t, err, ErrConfig)
}
