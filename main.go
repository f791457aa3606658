package main

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"auction_web/internal/api"
	"auction_web/internal/config"
	"auction_web/internal/repository"
	"auction_web/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	// 載入應用程式配置
	// 從配置文件中讀取設置，如儲存後端與服務器地址等
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// 依配置初始化儲存後端（postgres 或 redis）並建立儲存庫
	repos, closeStorage, err := repository.NewRepositories(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize storage")
	}
	// 確保在程序結束時關閉儲存連接
	defer closeStorage()

	// 初始化服務：拍賣生命週期、計時器、WebSocket 連線管理
	services, err := service.NewServices(repos, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize services")
	}

	// 設置 Gin 路由
	r := gin.Default()
	api.SetupRoutes(r, services, cfg)

	// 啟動伺服器
	log.Info().Str("address", cfg.Server.Address).Msg("auction server listening")
	if err := r.Run(cfg.Server.Address); err != nil {
		log.Fatal().Err(err).Msg("failed to run server")
	}
}
