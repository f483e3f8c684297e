package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wiz-rd/Rummikub/internal/game"
	"github.com/wiz-rd/Rummikub/internal/game/rummikub"
)

// Response 统一响应结构
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// ErrorData 游戏错误的详细信息
type ErrorData struct {
	Error   string         `json:"error"`
	Context map[string]any `json:"context,omitempty"`
}

const (
	CodeSuccess = 0

	// 认证相关 10000-10999
	CodeTokenInvalid = 10003
	CodeTokenExpired = 10004

	// 参数相关 11000-11999
	CodeInvalidParams = 11002

	// 游戏状态相关 20000-20999
	CodeGameNotFound    = 20001
	CodeGameBusy        = 20002
	CodeAlreadyStarted  = 20003
	CodeGameNotStarted  = 20004
	CodePlayerNotInGame = 20005
	CodeOutOfTurn       = 20006
	CodePoolExhausted   = 20007
	CodeConfigError     = 20008

	// 出牌相关 21000-21999
	CodeInvalidMeld         = 21001
	CodeMeldTooFew          = 21002
	CodeMeldNotSetOrRun     = 21003
	CodeMeldBelowEntryScore = 21004
	CodeTileConservation    = 21005
	CodeHandMismatch        = 21006

	// 系统错误 50000-50999
	CodeServerError = 50001
)

var codeMessages = map[int]string{
	CodeSuccess:       "success",
	CodeTokenInvalid:  "Token 无效",
	CodeTokenExpired:  "Token 已过期",
	CodeInvalidParams: "参数校验失败",
	CodeServerError:   "服务器内部错误",
}

// mapping 游戏错误代码对应的响应码和 HTTP 状态
type mapping struct {
	code   int
	status int
}

var gameErrors = map[string]mapping{
	game.CodeGameNotFound:            {CodeGameNotFound, http.StatusNotFound},
	game.CodeGameBusy:                {CodeGameBusy, http.StatusConflict},
	rummikub.CodeAlreadyStarted:      {CodeAlreadyStarted, http.StatusConflict},
	rummikub.CodeGameNotStarted:      {CodeGameNotStarted, http.StatusConflict},
	rummikub.CodePlayerNotInGame:     {CodePlayerNotInGame, http.StatusForbidden},
	rummikub.CodeOutOfTurn:           {CodeOutOfTurn, http.StatusConflict},
	rummikub.CodePoolExhausted:       {CodePoolExhausted, http.StatusConflict},
	rummikub.CodeConfigError:         {CodeConfigError, http.StatusBadRequest},
	rummikub.CodeInvalidMeld:         {CodeInvalidMeld, http.StatusUnprocessableEntity},
	rummikub.CodeMeldTooFew:          {CodeMeldTooFew, http.StatusUnprocessableEntity},
	rummikub.CodeMeldNotSetOrRun:     {CodeMeldNotSetOrRun, http.StatusUnprocessableEntity},
	rummikub.CodeMeldBelowEntryScore: {CodeMeldBelowEntryScore, http.StatusUnprocessableEntity},
	rummikub.CodeTileConservation:    {CodeTileConservation, http.StatusUnprocessableEntity},
	rummikub.CodeHandMismatch:        {CodeHandMismatch, http.StatusUnprocessableEntity},
}

// FromError 把错误转换成响应和 HTTP 状态
// 未知错误和内部不变量错误都按服务器错误处理，不向调用方暴露细节
func FromError(err error) (int, Response) {
	var gameErr *rummikub.GameError
	if errors.As(err, &gameErr) {
		if m, ok := gameErrors[gameErr.Code]; ok {
			return m.status, Response{
				Code:    m.code,
				Message: gameErr.Message,
				Data:    ErrorData{Error: gameErr.Code, Context: gameErr.Context},
			}
		}
	}
	return http.StatusInternalServerError, Response{
		Code:    CodeServerError,
		Message: codeMessages[CodeServerError],
	}
}

// Success 成功响应
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

// Error 按错误码响应
func Error(c *gin.Context, status, code int) {
	message := codeMessages[code]
	if message == "" {
		message = "unknown error"
	}
	c.JSON(status, Response{
		Code:    code,
		Message: message,
	})
}

// ErrorWithMsg 自定义错误消息
func ErrorWithMsg(c *gin.Context, status, code int, message string) {
	c.JSON(status, Response{
		Code:    code,
		Message: message,
	})
}

// ErrorFromErr 从错误生成响应
func ErrorFromErr(c *gin.Context, err error) {
	status, resp := FromError(err)
	c.JSON(status, resp)
}

// InvalidParams 参数错误
func InvalidParams(c *gin.Context, err error) {
	ErrorWithMsg(c, http.StatusBadRequest, CodeInvalidParams, err.Error())
}

// Unauthorized 未认证
func Unauthorized(c *gin.Context, code int) {
	Error(c, http.StatusUnauthorized, code)
}
