/*
 * @module service/init
 * @description 服务初始化模块，负责数据库连接、迁移、基础数据播种与服务装配
 * @architecture 分层架构 - 服务层
 * @documentReference ai_docs/backend_requirements.md
 * @stateFlow 应用启动时执行初始化流程
 * @rules 确保数据库迁移与参考标样播种完成后才提供API服务
 * @dependencies gorm.io/gorm, gorm.io/driver/postgres, gorm.io/driver/sqlite
 * @refs service/database, api/routes.go
 */

package service

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"labqc-service/service/auth"
	"labqc-service/service/cleanup"
	"labqc-service/service/database"
	"labqc-service/service/qcreport"
	"labqc-service/service/runs"
	"labqc-service/service/samples"
	"labqc-service/service/schema"

	"github.com/spf13/cast"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var (
	DB                   *gorm.DB
	Schema               *schema.Set
	GlobalRunService     *runs.RunService
	GlobalReportService  *qcreport.Service
	GlobalSampleService  *samples.Service
	GlobalAuthService    *auth.AuthService
	GlobalCleanupService *cleanup.FileCleanupService
)

func init() {
	initDatabase()
	runMigrations()
	initServices()
}

// initDatabase 初始化数据库连接
// 设置DATABASE_URL时连PostgreSQL，否则使用本地SQLite文件
func initDatabase() {
	var err error
	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		DB, err = gorm.Open(postgres.Open(databaseURL), &gorm.Config{})
	} else {
		dbPath := getEnvWithDefault("DB_PATH", "data/labqc.db")
		if mkErr := os.MkdirAll(filepath.Dir(dbPath), 0o755); mkErr != nil {
			log.Fatalf("创建数据库目录失败: %v", mkErr)
		}
		DB, err = gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	}
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}
	log.Println("数据库连接成功")
}

// getEnvWithDefault 获取环境变量，如果不存在则返回默认值
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// runMigrations 运行数据库迁移并播种基础数据
func runMigrations() {
	Schema = schema.Derive()

	if err := database.AutoMigrate(DB); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}
	log.Println("数据库表结构迁移完成")

	if err := database.Seed(DB, Schema); err != nil {
		log.Fatalf("基础数据初始化失败: %v", err)
	}
	log.Println("基础数据初始化完成")
}

// initServices 初始化服务
func initServices() {
	uploadDir := getEnvWithDefault("UPLOAD_DIR", "uploads")
	sessionTTL := time.Duration(cast.ToInt(getEnvWithDefault("SESSION_TTL_HOURS", "24"))) * time.Hour
	cleanupSpec := getEnvWithDefault("CLEANUP_CRON", "0 0 3 * * *")

	GlobalRunService = runs.NewRunService(DB, Schema, uploadDir)
	GlobalReportService = qcreport.NewService(DB, Schema)
	GlobalSampleService = samples.NewService(DB, Schema)
	GlobalAuthService = auth.NewAuthService(DB, sessionTTL)
	GlobalCleanupService = cleanup.NewFileCleanupService(DB, GlobalAuthService, uploadDir, cleanupSpec)

	if err := GlobalCleanupService.StartScheduledCleanup(); err != nil {
		log.Fatalf("启动定时清理任务失败: %v", err)
	}
	log.Println("服务初始化完成")
}
