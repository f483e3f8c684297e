package rummikub

// BuildTiles 按规则生成整副牌
// 每个颜色每个数字生成 SetMultiplier/4 张，之后追加百搭牌（颜色随机，仅作外观）
func BuildTiles(rules Rules, rng Random) ([]Tile, error) {
	rules, err := rules.Normalize()
	if err != nil {
		return nil, err
	}

	repetitions := SetMultiplier(rules.MaxPlayers) / ColorCount
	colors := Colors()
	tiles := make([]Tile, 0, rules.ExpectedTileCount())

	for rep := 0; rep < repetitions; rep++ {
		for _, color := range colors {
			for number := rules.MinTile; number <= rules.MaxTile; number++ {
				tiles = append(tiles, NewTile(number, color))
			}
		}
	}

	for i := 0; i < rules.JokerCount; i++ {
		tiles = append(tiles, NewJoker(colors[rng.Intn(len(colors))]))
	}

	return tiles, nil
}
