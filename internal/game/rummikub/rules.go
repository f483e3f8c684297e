package rummikub

import "fmt"

const (
	// MaxTileCount 牌的总数上限
	MaxTileCount = 1_000_000
	// MinPlayers 最少玩家数
	MinPlayers = 4
	// MaxPlayers 最多玩家数
	MaxPlayers = 6
	// MaxTurnTimeLimit 回合时限上限（秒），与时间轮槽位数一致
	MaxTurnTimeLimit = 60
	// AutoJokerCount 百搭牌数量自动计算
	AutoJokerCount = -1
)

// WinCondition 胜利条件
type WinCondition string

const (
	// WinEmptyHand 出完手牌获胜，分数只用于打破平局
	WinEmptyHand WinCondition = "EMPTY_HAND"
	// WinHighestScore 有人出完牌时分数最高者获胜
	WinHighestScore WinCondition = "HIGHEST_SCORE"
)

// Rules 游戏规则配置
type Rules struct {
	MinTile           int          `json:"min_tile" mapstructure:"min_tile" yaml:"min_tile"`
	MaxTile           int          `json:"max_tile" mapstructure:"max_tile" yaml:"max_tile"`
	ColorCount        int          `json:"color_count" mapstructure:"color_count" yaml:"color_count"`
	MaxPlayers        int          `json:"max_players" mapstructure:"max_players" yaml:"max_players"`
	JokerCount        int          `json:"joker_count" mapstructure:"joker_count" yaml:"joker_count"`
	StartingHandCount int          `json:"starting_hand_count" mapstructure:"starting_hand_count" yaml:"starting_hand_count"`
	MinEntryMeldScore int          `json:"min_entry_meld_score" mapstructure:"min_entry_meld_score" yaml:"min_entry_meld_score"`
	TurnTimeLimit     int          `json:"turn_time_limit" mapstructure:"turn_time_limit" yaml:"turn_time_limit"` // 秒，0 表示不限时
	WinCondition      WinCondition `json:"win_condition" mapstructure:"win_condition" yaml:"win_condition"`
}

// DefaultRules 默认规则：4人，1-13，自动百搭数量，每人14张
func DefaultRules() Rules {
	return Rules{
		MinTile:           1,
		MaxTile:           13,
		ColorCount:        ColorCount,
		MaxPlayers:        4,
		JokerCount:        AutoJokerCount,
		StartingHandCount: 14,
		MinEntryMeldScore: 30,
		TurnTimeLimit:     60,
		WinCondition:      WinHighestScore,
	}
}

// Bounds 牌面数字范围
type Bounds struct {
	MinTile int `json:"min_tile"`
	MaxTile int `json:"max_tile"`
}

// Span 范围内的数字个数
func (b Bounds) Span() int {
	return b.MaxTile - b.MinTile + 1
}

// Contains 数字是否在范围内
func (b Bounds) Contains(n int) bool {
	return n >= b.MinTile && n <= b.MaxTile
}

// Bounds 返回规则的数字范围
func (r Rules) Bounds() Bounds {
	return Bounds{MinTile: r.MinTile, MaxTile: r.MaxTile}
}

// SetMultiplier 每个数字的牌数：4人及以下 8 张（两副四色），5人以上 12 张
func SetMultiplier(maxPlayers int) int {
	if maxPlayers < 5 {
		return 8
	}
	return 12
}

// ResolvedJokerCount 自动模式下按人数计算百搭牌数量
func (r Rules) ResolvedJokerCount() int {
	if r.JokerCount >= 0 {
		return r.JokerCount
	}
	if r.MaxPlayers < 5 {
		return 2
	}
	return 4
}

// ExpectedTileCount 整副牌的张数
func (r Rules) ExpectedTileCount() int {
	return SetMultiplier(r.MaxPlayers)*(r.MaxTile-r.MinTile+1) + r.ResolvedJokerCount()
}

// Normalize 校验规则并解析自动字段，返回新的规则
func (r Rules) Normalize() (Rules, error) {
	if r.ColorCount == 0 {
		r.ColorCount = ColorCount
	}
	if r.WinCondition == "" {
		r.WinCondition = WinHighestScore
	}

	switch {
	case r.MaxPlayers < MinPlayers || r.MaxPlayers > MaxPlayers:
		return r, configError("max_players", fmt.Sprintf("must be between %d and %d", MinPlayers, MaxPlayers))
	case r.ColorCount != ColorCount:
		return r, configError("color_count", fmt.Sprintf("must be %d", ColorCount))
	case r.MinTile < 1:
		return r, configError("min_tile", "must be at least 1")
	case r.MaxTile < r.MinTile:
		return r, configError("max_tile", "must not be below min_tile")
	case r.JokerCount < AutoJokerCount:
		return r, configError("joker_count", "must be -1 (auto) or non-negative")
	case r.StartingHandCount < 1:
		return r, configError("starting_hand_count", "must be at least 1")
	case r.MinEntryMeldScore < 0:
		return r, configError("min_entry_meld_score", "must not be negative")
	case r.TurnTimeLimit < 0 || r.TurnTimeLimit > MaxTurnTimeLimit:
		return r, configError("turn_time_limit", fmt.Sprintf("must be between 0 and %d seconds", MaxTurnTimeLimit))
	case r.WinCondition != WinEmptyHand && r.WinCondition != WinHighestScore:
		return r, configError("win_condition", "unknown win condition")
	}

	// 超大的范围先按 int64 判断，避免溢出
	span := int64(r.MaxTile) - int64(r.MinTile) + 1
	if int64(SetMultiplier(r.MaxPlayers))*span+int64(r.ResolvedJokerCount()) > MaxTileCount {
		return r, configError("max_tile", fmt.Sprintf("tile count exceeds the maximum of %d", MaxTileCount))
	}

	r.JokerCount = r.ResolvedJokerCount()

	if r.StartingHandCount*r.MaxPlayers > r.ExpectedTileCount() {
		return r, configError("starting_hand_count", "not enough tiles to deal every hand")
	}

	return r, nil
}

func configError(field, reason string) *GameError {
	return ErrConfig.WithContext("field", field).WithContext("reason", reason)
}
