// 手动灌入演示数据脚本
//
// 同样的功能已通过 /api/admin/seed 接口提供。
// 此脚本用于首次部署时在没有管理员账号的情况下初始化演示数据。
//
// 用法: go run scripts/seed_logs.go

package main

import (
	"learning_dropout_backend/internal/config"
	"learning_dropout_backend/internal/repository"
	"learning_dropout_backend/internal/service"
	"learning_dropout_backend/pkg/database"
	"learning_dropout_backend/pkg/logger"
	"log"
	"math/rand"
	"os"

	"gopkg.in/yaml.v3"
)

func main() {
	data, err := os.ReadFile("configs/config.yaml")
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}

	var cfg config.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		log.Fatalf("解析配置文件失败: %v", err)
	}

	logger.InitLogger(&cfg)

	db, err := database.InitDB(&cfg.Database, database.ShouldMigrate(cfg.Server.Mode, false))
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	generator := service.NewDataGeneratorService(
		rand.New(rand.NewSource(42)),
		repository.NewCourseRepository(db),
		repository.NewEnrollmentRepository(db),
		repository.NewLearningLogRepository(db),
	)

	log.Println("开始灌入演示数据...")
	logs, err := generator.SeedDemoData(5, 100, 10000)
	if err != nil {
		log.Fatalf("灌入演示数据失败: %v", err)
	}
	log.Printf("完成！共写入 %d 条学习日志", logs)
}
