package rummikub

import "sort"

// MeldKind 牌组类型
type MeldKind string

const (
	MeldRaw MeldKind = ""    // 未校验
	MeldRun MeldKind = "RUN" // 同色顺子
	MeldSet MeldKind = "SET" // 同数不同色
)

// MinMeldSize 牌组最少张数
const MinMeldSize = 3

// Meld 牌组
// 校验后的牌组按规范顺序排列，Values 记录每个位置代表的数字（百搭牌已解析）
type Meld struct {
	Kind   MeldKind `json:"kind"`
	Tiles  []Tile   `json:"tiles"`
	Values []int    `json:"values,omitempty"`
}

// NewMeld 创建未校验的牌组
func NewMeld(tiles ...Tile) Meld {
	return Meld{Tiles: tiles}
}

// Score 牌组分值，按解析后的数字求和
func (m Meld) Score() int {
	total := 0
	for _, v := range m.Values {
		total += v
	}
	return total
}

// Clone 深拷贝
func (m Meld) Clone() Meld {
	c := Meld{Kind: m.Kind, Tiles: CloneTiles(m.Tiles)}
	if m.Values != nil {
		c.Values = make([]int, len(m.Values))
		copy(c.Values, m.Values)
	}
	return c
}

// ValidateMeld 校验牌组，成功时返回新的规范牌组，不修改入参
// 同时满足顺子和刻子时（例如全是百搭牌）标记为顺子
func ValidateMeld(tiles []Tile, bounds Bounds) (Meld, error) {
	if bounds.MinTile > bounds.MaxTile {
		return Meld{}, configError("bounds", "min_tile greater than max_tile").
			WithContext("minTile", bounds.MinTile).
			WithContext("maxTile", bounds.MaxTile)
	}
	if len(tiles) < MinMeldSize {
		return Meld{}, ErrMeldTooFew.WithContext("count", len(tiles))
	}

	for _, t := range tiles {
		if !t.Joker && (!bounds.Contains(t.Number) || !t.Color.Valid()) {
			return Meld{}, ErrMeldNotSetOrRun.WithContext("tile", t.String())
		}
	}

	if meld, ok := resolveRun(tiles, bounds); ok {
		return meld, nil
	}
	if meld, ok := resolveSet(tiles, bounds); ok {
		return meld, nil
	}
	return Meld{}, ErrMeldNotSetOrRun.WithContext("count", len(tiles))
}

// splitJokers 拆分百搭牌和数字牌，返回副本
func splitJokers(tiles []Tile) (numbered, jokers []Tile) {
	for _, t := range tiles {
		if t.Joker {
			jokers = append(jokers, t)
		} else {
			numbered = append(numbered, t)
		}
	}
	return numbered, jokers
}

// resolveRun 尝试解析为顺子
// 中间缺口消耗百搭牌；剩余百搭牌优先放高端，放不下放低端，再放不下两端拆分
func resolveRun(tiles []Tile, bounds Bounds) (Meld, bool) {
	numbered, jokers := splitJokers(tiles)

	if len(numbered) == 0 {
		if len(jokers) > bounds.Span() {
			return Meld{}, false
		}
		return buildRun(nil, jokers, bounds.MinTile, bounds.MinTile+len(jokers)-1), true
	}

	color := numbered[0].Color
	for _, t := range numbered[1:] {
		if t.Color != color {
			return Meld{}, false
		}
	}

	sort.Slice(numbered, func(i, j int) bool {
		return numbered[i].Number < numbered[j].Number
	})

	needed := 0
	for i := 1; i < len(numbered); i++ {
		gap := numbered[i].Number - numbered[i-1].Number
		if gap < 1 {
			return Meld{}, false
		}
		needed += gap - 1
	}
	if needed > len(jokers) {
		return Meld{}, false
	}

	lowest := numbered[0].Number
	highest := numbered[len(numbered)-1].Number
	leftover := len(jokers) - needed
	lowRoom := lowest - bounds.MinTile
	highRoom := bounds.MaxTile - highest

	var low, high int
	switch {
	case leftover <= highRoom:
		high = leftover
	case leftover <= lowRoom:
		low = leftover
	case leftover <= lowRoom+highRoom:
		high = highRoom
		low = leftover - highRoom
	default:
		return Meld{}, false
	}

	return buildRun(numbered, jokers, lowest-low, highest+high), true
}

// buildRun 按 [from, to] 逐位放置，数字牌已按升序排列
func buildRun(numbered, jokers []Tile, from, to int) Meld {
	meld := Meld{
		Kind:   MeldRun,
		Tiles:  make([]Tile, 0, to-from+1),
		Values: make([]int, 0, to-from+1),
	}

	next := 0
	for v := from; v <= to; v++ {
		if next < len(numbered) && numbered[next].Number == v {
			meld.Tiles = append(meld.Tiles, numbered[next])
			next++
		} else {
			meld.Tiles = append(meld.Tiles, jokers[0])
			jokers = jokers[1:]
		}
		meld.Values = append(meld.Values, v)
	}
	return meld
}

// resolveSet 尝试解析为刻子，百搭牌补缺失的颜色，排在最后
func resolveSet(tiles []Tile, bounds Bounds) (Meld, bool) {
	if len(tiles) > ColorCount {
		return Meld{}, false
	}

	numbered, jokers := splitJokers(tiles)

	number := bounds.MinTile
	if len(numbered) > 0 {
		number = numbered[0].Number
	}

	seen := make(map[Color]bool, ColorCount)
	for _, t := range numbered {
		if t.Number != number || seen[t.Color] {
			return Meld{}, false
		}
		seen[t.Color] = true
	}

	sort.Slice(numbered, func(i, j int) bool {
		return numbered[i].Color < numbered[j].Color
	})

	meld := Meld{
		Kind:   MeldSet,
		Tiles:  append(numbered, jokers...),
		Values: make([]int, len(tiles)),
	}
	for i := range meld.Values {
		meld.Values[i] = number
	}
	return meld, true
}
