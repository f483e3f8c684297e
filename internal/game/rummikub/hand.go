package rummikub

// JokerPenalty 终局时每张百搭牌的罚分
const JokerPenalty = 30

// Hand 玩家手牌
type Hand struct {
	OwnerID string `json:"owner_id"`
	Tiles   []Tile `json:"tiles"`
	Score   int    `json:"score"`
}

// NewHand 创建空手牌
func NewHand(ownerID string) *Hand {
	return &Hand{OwnerID: ownerID, Tiles: make([]Tile, 0)}
}

// Size 手牌数量
func (h *Hand) Size() int {
	if h == nil {
		return 0
	}
	return len(h.Tiles)
}

// Add 加入一张牌
func (h *Hand) Add(tile Tile) {
	h.Tiles = append(h.Tiles, tile)
}

// Remove 移除一张值相等的牌
func (h *Hand) Remove(tile Tile) bool {
	tiles, ok := RemoveTile(h.Tiles, tile)
	if ok {
		h.Tiles = tiles
	}
	return ok
}

// CalculateScore 每次从零重新求和
// 数字牌按负数计分，百搭牌计 0；终局时每张百搭牌再扣 JokerPenalty
func (h *Hand) CalculateScore(endgame bool) int {
	score := 0
	for _, t := range h.Tiles {
		if t.Joker {
			if endgame {
				score -= JokerPenalty
			}
			continue
		}
		score -= t.Number
	}
	return score
}

// UpdateScore 重新计算并保存分数
func (h *Hand) UpdateScore(endgame bool) int {
	h.Score = h.CalculateScore(endgame)
	return h.Score
}

// Clone 深拷贝
func (h *Hand) Clone() *Hand {
	if h == nil {
		return nil
	}
	return &Hand{OwnerID: h.OwnerID, Tiles: CloneTiles(h.Tiles), Score: h.Score}
}
