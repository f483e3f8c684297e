package rummikub

// Pool 牌池，玩家看不到牌池中的牌
type Pool struct {
	Tiles []Tile `json:"tiles"`
}

// NewPool 创建牌池
func NewPool(tiles []Tile) *Pool {
	return &Pool{Tiles: tiles}
}

// Size 剩余牌数
func (p *Pool) Size() int {
	return len(p.Tiles)
}

// Draw 随机取出一张牌
// 随机下标与末尾交换后截断，与牌在切片中的位置无关
func (p *Pool) Draw(rng Random) (Tile, error) {
	n := len(p.Tiles)
	if n == 0 {
		return Tile{}, ErrPoolExhausted
	}

	i := rng.Intn(n)
	tile := p.Tiles[i]
	p.Tiles[i] = p.Tiles[n-1]
	p.Tiles = p.Tiles[:n-1]
	return tile, nil
}

// Clone 深拷贝
func (p *Pool) Clone() *Pool {
	if p == nil {
		return nil
	}
	return &Pool{Tiles: CloneTiles(p.Tiles)}
}
