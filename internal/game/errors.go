package game

import "github.com/wiz-rd/Rummikub/internal/game/rummikub"

// 服务层错误代码
const (
	CodeGameNotFound = "GAME_NOT_FOUND"
	CodeGameBusy     = "GAME_BUSY"
)

var (
	// ErrGameNotFound 游戏不存在
	ErrGameNotFound = rummikub.NewGameError(CodeGameNotFound, "game not found")

	// ErrGameBusy 游戏正被其他实例操作
	ErrGameBusy = rummikub.NewGameError(CodeGameBusy, "game is busy, retry later")
)
