// internal/service/config.go
package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀，例如 SWAPHISTORY_PAIR_ADDRESS
const EnvPrefix = "SWAPHISTORY"

type Config struct {
	Pusher  PusherConfig  `mapstructure:"Pusher"`
	History HistoryConfig `mapstructure:"History"`
	Pair    PairConfig    `mapstructure:"Pair"`
	Display DisplayConfig `mapstructure:"Display"`
	Server  ServerConfig  `mapstructure:"Server"`
	Kafka   KafkaConfig   `mapstructure:"Kafka"`
	Log     LogConfig     `mapstructure:"Log"`
}

// PusherConfig 定义了推送服务的连接信息
type PusherConfig struct {
	URL               string
	Channel           string
	Auth              string // 公共频道为空
	ReconnectDelay    time.Duration
	MaxReconnectDelay time.Duration
	WriteTimeout      time.Duration
	HandshakeTimeout  time.Duration
	ReadTimeout       time.Duration // 超过该时长没有任何帧视为连接失效
	PingInterval      time.Duration // 客户端 pusher:ping 间隔
}

type HistoryConfig struct {
	Capacity int // 超出后淘汰最旧的成交
}

// PairConfig 启动时的交易对选择
type PairConfig struct {
	Status       string // loading / not_exists / invalid / ready
	Address      string // 流动性代币地址
	Token0Symbol string
	Token1Symbol string
}

type DisplayConfig struct {
	Enabled  bool
	Interval time.Duration
	Locale   string
	Limit    int // 0 表示显示全部
}

type ServerConfig struct {
	Enabled bool
	Addr    string
}

type KafkaConfig struct {
	Brokers      []string
	Topic        string
	BatchTimeout time.Duration
	WriteTimeout time.Duration
}

type LogConfig struct {
	Level string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("Pusher.URL", "wss://ws-eu.pusher.com/app/068f5f33d82a69845215")
	v.SetDefault("Pusher.Channel", "live_transactions")
	v.SetDefault("Pusher.Auth", "")
	v.SetDefault("Pusher.ReconnectDelay", time.Second)
	v.SetDefault("Pusher.MaxReconnectDelay", 30*time.Second)
	v.SetDefault("Pusher.WriteTimeout", 10*time.Second)
	v.SetDefault("Pusher.HandshakeTimeout", 10*time.Second)
	v.SetDefault("Pusher.ReadTimeout", 150*time.Second)
	v.SetDefault("Pusher.PingInterval", 60*time.Second)

	v.SetDefault("History.Capacity", 1000)

	v.SetDefault("Pair.Status", "invalid")
	v.SetDefault("Pair.Address", "")
	v.SetDefault("Pair.Token0Symbol", "")
	v.SetDefault("Pair.Token1Symbol", "")

	v.SetDefault("Display.Enabled", true)
	v.SetDefault("Display.Interval", time.Second)
	v.SetDefault("Display.Locale", "en")
	v.SetDefault("Display.Limit", 50)

	v.SetDefault("Server.Enabled", true)
	v.SetDefault("Server.Addr", ":8080")

	v.SetDefault("Kafka.Brokers", []string{})
	v.SetDefault("Kafka.Topic", "swap-history")
	v.SetDefault("Kafka.BatchTimeout", 10*time.Millisecond)
	v.SetDefault("Kafka.WriteTimeout", 5*time.Second)

	v.SetDefault("Log.Level", "info")
}

// LoadConfig 读取并解析配置文件 (configPath/config.yaml)
// 配置文件不存在时使用默认值，环境变量优先级最高
func LoadConfig(configPath string) (*Config, error) {
	// .env 可选
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if cfg.History.Capacity <= 0 {
		return nil, fmt.Errorf("History.Capacity must be positive, got %d", cfg.History.Capacity)
	}

	return &cfg, nil
}
