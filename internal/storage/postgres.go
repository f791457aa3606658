package storage

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"auction_web/internal/config"
)

// PostgresDB 包裝 gorm 連線，房間文件儲存庫建構在其上
type PostgresDB struct {
	*gorm.DB
}

func NewPostgresDB(cfg config.DBConfig) (*PostgresDB, error) {
	db, err := gorm.Open(postgres.Open(postgresDSN(cfg)), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// 建立時先測試連線，與 redis 後端的行為一致
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresDB{DB: db}, nil
}

// postgresDSN 由配置組出連線字串，sslmode 與時區都來自配置而非寫死
func postgresDSN(cfg config.DBConfig) string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=%s",
		cfg.Host, cfg.User, cfg.Password, cfg.Name, cfg.Port, cfg.SSLMode, cfg.TimeZone)
}

func (db *PostgresDB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
