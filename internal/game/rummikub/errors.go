package rummikub

import "fmt"

// GameError 游戏错误类型
// 所有错误都是可恢复的调用方错误，返回错误时游戏状态保持不变
type GameError struct {
	Code    string         // 错误代码
	Message string         // 错误消息
	Cause   error          // 原因错误
	Context map[string]any // 错误上下文
}

func (e *GameError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *GameError) Unwrap() error {
	return e.Cause
}

// Is 按错误代码比较，带上下文的副本与预定义错误相等
func (e *GameError) Is(target error) bool {
	t, ok := target.(*GameError)
	return ok && t.Code == e.Code
}

// NewGameError 创建游戏错误
func NewGameError(code, message string) *GameError {
	return &GameError{
		Code:    code,
		Message: message,
	}
}

// WithCause 返回带原因错误的副本
func (e *GameError) WithCause(cause error) *GameError {
	c := e.clone()
	c.Cause = cause
	return c
}

// WithContext 返回带上下文信息的副本，不修改预定义错误
func (e *GameError) WithContext(key string, value any) *GameError {
	c := e.clone()
	c.Context[key] = value
	return c
}

func (e *GameError) clone() *GameError {
	c := *e
	c.Context = make(map[string]any, len(e.Context)+1)
	for k, v := range e.Context {
		c.Context[k] = v
	}
	return &c
}

// 错误代码
const (
	CodeConfigError         = "CONFIG_ERROR"
	CodeAlreadyStarted      = "ALREADY_STARTED"
	CodeGameNotStarted      = "GAME_NOT_STARTED"
	CodePlayerNotInGame     = "PLAYER_NOT_IN_GAME"
	CodeOutOfTurn           = "OUT_OF_TURN"
	CodePoolExhausted       = "POOL_EXHAUSTED"
	CodeInvalidMeld         = "INVALID_MELD"
	CodeMeldTooFew          = "MELD_TOO_FEW"
	CodeMeldNotSetOrRun     = "MELD_NOT_SET_OR_RUN"
	CodeMeldBelowEntryScore = "MELD_BELOW_ENTRY_SCORE"
	CodeTileConservation    = "TILE_CONSERVATION_VIOLATION"
	CodeHandMismatch        = "HAND_MISMATCH"
	CodeInvariantViolation  = "INVARIANT_VIOLATION"
)

// 配置与状态相关错误
var (
	ErrConfig         = NewGameError(CodeConfigError, "invalid game configuration")
	ErrAlreadyStarted = NewGameError(CodeAlreadyStarted, "game has already started")
	ErrGameNotStarted = NewGameError(CodeGameNotStarted, "game is not ongoing")
	ErrPlayerNotFound = NewGameError(CodePlayerNotInGame, "player is not part of this game")
	ErrOutOfTurn      = NewGameError(CodeOutOfTurn, "it is not this player's turn")
)

// 牌池与手牌相关错误
var (
	ErrPoolExhausted = NewGameError(CodePoolExhausted, "tile pool is empty")
	ErrHandMismatch  = NewGameError(CodeHandMismatch, "placed tile is not in the player's hand")
)

// 牌组相关错误，具体原因都包装 ErrInvalidMeld，errors.Is(err, ErrInvalidMeld) 可以匹配全部
var (
	ErrInvalidMeld         = NewGameError(CodeInvalidMeld, "invalid meld")
	ErrMeldTooFew          = NewGameError(CodeMeldTooFew, "a meld needs at least three tiles").WithCause(ErrInvalidMeld)
	ErrMeldNotSetOrRun     = NewGameError(CodeMeldNotSetOrRun, "tiles form neither a set nor a run").WithCause(ErrInvalidMeld)
	ErrMeldBelowEntryScore = NewGameError(CodeMeldBelowEntryScore, "initial meld is below the entry score").WithCause(ErrInvalidMeld)
	ErrTileConservation    = NewGameError(CodeTileConservation, "proposed board does not conserve tiles")
)

// ErrInvariantViolation 内部一致性错误，说明代码有缺陷而不是玩家输入错误
var ErrInvariantViolation = NewGameError(CodeInvariantViolation, "internal tile count invariant violated")
