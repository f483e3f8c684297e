package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/wiz-rd/Rummikub/internal/game"
	"github.com/wiz-rd/Rummikub/internal/game/rummikub"
	"github.com/wiz-rd/Rummikub/internal/redis"
	"github.com/wiz-rd/Rummikub/internal/task"
)

// EnvPrefix 环境变量前缀，例如 RUMMIKUB_HTTP_ADDR 覆盖 http.addr
const EnvPrefix = "RUMMIKUB"

type Config struct {
	App       AppConfig          `mapstructure:"app"`
	HTTP      HTTPConfig         `mapstructure:"http"`
	Game      GameConfig         `mapstructure:"game"`
	Manager   game.ManagerConfig `mapstructure:"manager"`
	Scheduler task.Config        `mapstructure:"scheduler"`
	Database  DatabaseConfig     `mapstructure:"database"`
	Redis     RedisConfig        `mapstructure:"redis"`
	NATS      NATSConfig         `mapstructure:"nats"`
	JWT       JWTConfig          `mapstructure:"jwt"`
}

type AppConfig struct {
	Name     string `mapstructure:"name"`
	Mode     string `mapstructure:"mode"` // gin 模式：debug / release / test
	NodeID   int64  `mapstructure:"node_id"`
	LogLevel string `mapstructure:"log_level"`
}

type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// GameConfig 创建游戏时的默认规则
// Preset 不为空时从 PresetsFile 中取同名规则，覆盖 Rules
type GameConfig struct {
	Rules       rummikub.Rules `mapstructure:"rules"`
	Preset      string         `mapstructure:"preset"`
	PresetsFile string         `mapstructure:"presets_file"`
	Seed        int64          `mapstructure:"seed"`         // 0 表示按时间播种
	NotifyQueue int            `mapstructure:"notify_queue"` // 事件投递队列长度
}

type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"` // 关闭时使用内存仓库
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN PostgreSQL 连接串
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Name,
	)
}

type RedisConfig struct {
	Enabled  bool             `mapstructure:"enabled"` // 开启后使用分布式游戏锁
	Host     string           `mapstructure:"host"`
	Port     int              `mapstructure:"port"`
	Password string           `mapstructure:"password"`
	DB       int              `mapstructure:"db"`
	PoolSize int              `mapstructure:"pool_size"`
	Lock     redis.LockConfig `mapstructure:"lock"`
}

// Addr Redis 地址
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type NATSConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	URL            string        `mapstructure:"url"`
	MaxReconnects  int           `mapstructure:"max_reconnects"`
	ReconnectWait  time.Duration `mapstructure:"reconnect_wait"`
	WorkerCount    int           `mapstructure:"worker_count"`
	BufferSize     int           `mapstructure:"buffer_size"`
	PublishRetries int           `mapstructure:"publish_retries"`
}

type JWTConfig struct {
	SecretKey    string        `mapstructure:"secret_key"`
	Issuer       string        `mapstructure:"issuer"`
	AccessExpire time.Duration `mapstructure:"access_expire"`
}

// Load 读取配置文件，path 为空时只使用默认值和环境变量
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	rules := rummikub.DefaultRules()

	v.SetDefault("app.name", "rummikub")
	v.SetDefault("app.mode", "release")
	v.SetDefault("app.node_id", 1)
	v.SetDefault("app.log_level", "info")

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.read_timeout", 10*time.Second)
	v.SetDefault("http.write_timeout", 10*time.Second)
	v.SetDefault("http.shutdown_timeout", 15*time.Second)

	v.SetDefault("game.rules.min_tile", rules.MinTile)
	v.SetDefault("game.rules.max_tile", rules.MaxTile)
	v.SetDefault("game.rules.color_count", rules.ColorCount)
	v.SetDefault("game.rules.max_players", rules.MaxPlayers)
	v.SetDefault("game.rules.joker_count", rules.JokerCount)
	v.SetDefault("game.rules.starting_hand_count", rules.StartingHandCount)
	v.SetDefault("game.rules.min_entry_meld_score", rules.MinEntryMeldScore)
	v.SetDefault("game.rules.turn_time_limit", rules.TurnTimeLimit)
	v.SetDefault("game.rules.win_condition", string(rules.WinCondition))
	v.SetDefault("game.preset", "")
	v.SetDefault("game.presets_file", "configs/rules.yaml")
	v.SetDefault("game.seed", 0)
	v.SetDefault("game.notify_queue", 1024)

	v.SetDefault("manager.evict_interval", time.Minute)
	v.SetDefault("manager.evict_timeout", 30*time.Minute)

	v.SetDefault("scheduler.tick_interval", time.Second)
	v.SetDefault("scheduler.worker_count", 10)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "rummikub")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", time.Hour)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 20)
	v.SetDefault("redis.lock.ttl", redis.DefaultLockTTL)
	v.SetDefault("redis.lock.retry_count", 20)
	v.SetDefault("redis.lock.retry_interval", 50*time.Millisecond)

	v.SetDefault("nats.enabled", false)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.max_reconnects", 60)
	v.SetDefault("nats.reconnect_wait", 2*time.Second)
	v.SetDefault("nats.worker_count", 32)
	v.SetDefault("nats.buffer_size", 1024)
	v.SetDefault("nats.publish_retries", 3)

	v.SetDefault("jwt.secret_key", "")
	v.SetDefault("jwt.issuer", "rummikub")
	v.SetDefault("jwt.access_expire", 24*time.Hour)
}

// DefaultRules 解析创建游戏使用的默认规则
func (c *Config) DefaultRules() (rummikub.Rules, error) {
	rules := c.Game.Rules
	if c.Game.Preset != "" {
		presets, err := LoadPresets(c.Game.PresetsFile)
		if err != nil {
			return rummikub.Rules{}, err
		}
		preset, err := presets.Get(c.Game.Preset)
		if err != nil {
			return rummikub.Rules{}, err
		}
		rules = preset
	}
	return rules.Normalize()
}
