package config

import (
	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	DB      DBConfig
	Redis   RedisConfig
	NATS    NATSConfig
	Auction AuctionConfig
}

type ServerConfig struct {
	Address        string
	FrontendOrigin string // CORS 允許的前端來源
}

// StorageConfig 選擇房間狀態的儲存後端
type StorageConfig struct {
	Driver string // "postgres" 或 "redis"
}

type DBConfig struct {
	Host     string
	User     string
	Password string
	Name     string
	Port     int
	SSLMode  string
	TimeZone string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NATSConfig 若設定了 URL，所有廣播事件會同步發佈到 NATS
type NATSConfig struct {
	URL string
}

type AuctionConfig struct {
	NextRoundDelay int // 回合結算後到下一回合開始的間隔（秒）
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./internal/config")
	viper.AddConfigPath(".")

	viper.SetDefault("server.address", ":5000")
	viper.SetDefault("storage.driver", "postgres")
	viper.SetDefault("db.sslmode", "disable")
	viper.SetDefault("db.timezone", "UTC")
	viper.SetDefault("auction.nextrounddelay", 1)

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
