package game

import "github.com/wiz-rd/Rummikub/internal/game/rummikub"

// Standing 单个玩家的结算
type Standing struct {
	PlayerID  string `json:"player_id"`
	TurnSlot  int    `json:"turn_slot"`
	Remaining int    `json:"remaining"` // 剩余手牌数
	Score     int    `json:"score"`     // 终局手牌分
	Delta     int    `json:"delta"`     // 本局得失分
	Winner    bool   `json:"winner"`
}

// Settlement 结算结果
type Settlement struct {
	GameID       string                `json:"game_id"`
	WinCondition rummikub.WinCondition `json:"win_condition"`
	Winner       string                `json:"winner"`
	Standings    []Standing            `json:"standings"`
}

// Settle 结算，按终局规则重算所有手牌分数并写入 game.Winner
// HIGHEST_SCORE：终局分最高者获胜，出完牌的玩家分数为 0，必然最高
// EMPTY_HAND：出完牌者获胜；没有人出完时剩余张数最少者获胜，分数只用于打破平局
// 最后都相同时取座位靠前者
// 赢家得分为所有输家分数绝对值之和，输家得分为自己的手牌分
func Settle(game *rummikub.Game) *Settlement {
	settlement := &Settlement{
		GameID:       game.ID,
		WinCondition: game.Rules.WinCondition,
		Standings:    make([]Standing, len(game.Players)),
	}

	winner := -1
	for i, p := range game.Players {
		score := p.Hand.UpdateScore(true)
		settlement.Standings[i] = Standing{
			PlayerID:  p.PlayerID,
			TurnSlot:  p.TurnSlot,
			Remaining: p.Hand.Size(),
			Score:     score,
		}
		if winner < 0 || better(game.Rules.WinCondition, p, game.Players[winner]) {
			winner = i
		}
	}
	if winner < 0 {
		return settlement
	}

	total := 0
	for i := range settlement.Standings {
		s := &settlement.Standings[i]
		if i == winner {
			continue
		}
		s.Delta = s.Score
		total -= s.Score
	}

	settlement.Standings[winner].Winner = true
	settlement.Standings[winner].Delta = total
	settlement.Winner = game.Players[winner].PlayerID
	game.Winner = settlement.Winner
	return settlement
}

// better a 是否排在 b 前面，两者的终局分已经算好
func better(cond rummikub.WinCondition, a, b *rummikub.Player) bool {
	if cond == rummikub.WinEmptyHand && a.Hand.Size() != b.Hand.Size() {
		return a.Hand.Size() < b.Hand.Size()
	}
	if a.Hand.Score != b.Hand.Score {
		return a.Hand.Score > b.Hand.Score
	}
	return a.TurnSlot < b.TurnSlot
}
