package rummikub

// Board 桌面上的牌组
type Board struct {
	Melds []Meld `json:"melds"`
}

// TileCount 桌面上的总牌数
func (b Board) TileCount() int {
	total := 0
	for _, m := range b.Melds {
		total += len(m.Tiles)
	}
	return total
}

// Tiles 桌面上所有的牌
func (b Board) Tiles() []Tile {
	tiles := make([]Tile, 0, b.TileCount())
	for _, m := range b.Melds {
		tiles = append(tiles, m.Tiles...)
	}
	return tiles
}

// Clone 深拷贝
func (b Board) Clone() Board {
	c := Board{Melds: make([]Meld, len(b.Melds))}
	for i, m := range b.Melds {
		c.Melds[i] = m.Clone()
	}
	return c
}

// BoardDiff 新旧桌面的差异
type BoardDiff struct {
	// Placed 新桌面上多出来的牌，必须来自手牌
	Placed []Tile
	// Missing 旧桌面上在新桌面找不到的牌
	Missing []Tile
	// Changed 新桌面中与旧桌面任何牌组都不相同的牌组下标
	Changed []int
	// Unchanged 新桌面中原样保留的牌组下标 -> 对应旧牌组下标
	Unchanged map[int]int
}

// Diff 计算 proposed 相对当前桌面的差异
// 牌按值匹配，每张旧牌只能匹配一次；牌组按多重集合匹配，每个旧牌组只能匹配一次
func (b Board) Diff(proposed Board) BoardDiff {
	diff := BoardDiff{Unchanged: make(map[int]int)}

	remaining := countByKey(b.Tiles())
	for _, t := range proposed.Tiles() {
		k := t.key()
		if remaining[k] > 0 {
			remaining[k]--
			continue
		}
		diff.Placed = append(diff.Placed, t)
	}
	for _, t := range b.Tiles() {
		k := t.key()
		if remaining[k] > 0 {
			remaining[k]--
			diff.Missing = append(diff.Missing, t)
		}
	}

	used := make([]bool, len(b.Melds))
	for i, m := range proposed.Melds {
		matched := false
		for j, old := range b.Melds {
			if !used[j] && sameMultiset(m.Tiles, old.Tiles) {
				used[j] = true
				diff.Unchanged[i] = j
				matched = true
				break
			}
		}
		if !matched {
			diff.Changed = append(diff.Changed, i)
		}
	}

	return diff
}
