package rummikub

import (
	"fmt"
	"sort"
)

// Color 牌的颜色
type Color int8

const (
	ColorBlack Color = iota
	ColorBlue
	ColorOrange
	ColorRed
)

// ColorCount 颜色数量
const ColorCount = 4

// Colors 全部颜色，按字母序
func Colors() []Color {
	return []Color{ColorBlack, ColorBlue, ColorOrange, ColorRed}
}

func (c Color) String() string {
	switch c {
	case ColorBlack:
		return "BLACK"
	case ColorBlue:
		return "BLUE"
	case ColorOrange:
		return "ORANGE"
	case ColorRed:
		return "RED"
	default:
		return "UNKNOWN"
	}
}

// Valid 是否为有效颜色
func (c Color) Valid() bool {
	return c >= ColorBlack && c <= ColorRed
}

// Tile 牌
// 百搭牌（Joker）的数字在任何地方都被忽略，颜色只是外观
type Tile struct {
	Number int   `json:"number"`
	Color  Color `json:"color"`
	Joker  bool  `json:"joker"`
}

// NewTile 创建数字牌
func NewTile(number int, color Color) Tile {
	return Tile{Number: number, Color: color}
}

// NewJoker 创建百搭牌
func NewJoker(color Color) Tile {
	return Tile{Color: color, Joker: true}
}

// Equal 值相等：百搭牌之间互相等价
func (t Tile) Equal(other Tile) bool {
	if t.Joker || other.Joker {
		return t.Joker == other.Joker
	}
	return t.Number == other.Number && t.Color == other.Color
}

// key 用于多重集合计数的规范化键
func (t Tile) key() Tile {
	if t.Joker {
		return Tile{Joker: true}
	}
	return t
}

func (t Tile) String() string {
	if t.Joker {
		return "JOKER"
	}
	return fmt.Sprintf("%d-%s", t.Number, t.Color)
}

// SortTiles 按颜色、数字排序，百搭牌排最后
func SortTiles(tiles []Tile) {
	sort.SliceStable(tiles, func(i, j int) bool {
		a, b := tiles[i], tiles[j]
		if a.Joker != b.Joker {
			return !a.Joker
		}
		if a.Color != b.Color {
			return a.Color < b.Color
		}
		return a.Number < b.Number
	})
}

// CloneTiles 克隆牌组
func CloneTiles(tiles []Tile) []Tile {
	if tiles == nil {
		return nil
	}
	result := make([]Tile, len(tiles))
	copy(result, tiles)
	return result
}

// CountTile 统计某张牌的数量
func CountTile(tiles []Tile, target Tile) int {
	count := 0
	for _, t := range tiles {
		if t.Equal(target) {
			count++
		}
	}
	return count
}

// RemoveTile 从牌组中移除一张牌，返回新牌组和是否找到
func RemoveTile(tiles []Tile, target Tile) ([]Tile, bool) {
	for i, t := range tiles {
		if t.Equal(target) {
			result := make([]Tile, 0, len(tiles)-1)
			result = append(result, tiles[:i]...)
			return append(result, tiles[i+1:]...), true
		}
	}
	return tiles, false
}

// countByKey 统计多重集合
func countByKey(tiles []Tile) map[Tile]int {
	counts := make(map[Tile]int, len(tiles))
	for _, t := range tiles {
		counts[t.key()]++
	}
	return counts
}

// sameMultiset 两组牌作为多重集合是否相同
func sameMultiset(a, b []Tile) bool {
	if len(a) != len(b) {
		return false
	}
	counts := countByKey(a)
	for _, t := range b {
		k := t.key()
		if counts[k] == 0 {
			return false
		}
		counts[k]--
	}
	return true
}
