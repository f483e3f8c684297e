package nats

// NATS Subject 常量定义
const (
	// SubjectCommand 调用方 -> 游戏服务 的请求/应答命令
	SubjectCommand = "rummikub.command"

	// SubjectEventPrefix 游戏服务 -> 订阅方 的事件前缀
	// 完整格式: rummikub.events.{game_id}
	SubjectEventPrefix = "rummikub.events."

	// SubjectEventAll 订阅所有游戏事件
	SubjectEventAll = SubjectEventPrefix + ">"

	// QueueGroupGame 游戏服务队列组名称，多个实例分摊命令
	QueueGroupGame = "rummikub-game"
)

// BuildEventSubject 构建单局游戏的事件 Subject
func BuildEventSubject(gameID string) string {
	return SubjectEventPrefix + gameID
}
