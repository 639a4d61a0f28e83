/*
 * @module service/database/migrate
 * @description 数据库迁移模块，负责创建和更新数据库表结构。
 *              迁移必须在规范模式推导之后执行，列式值表的布局以模式输出为依据
 * @architecture 数据访问层 - 迁移管理
 * @documentReference ai_docs/data_model.md
 * @stateFlow 应用启动时执行数据库迁移
 * @rules 活动批次文件名唯一性由部分唯一索引在插入时强制，关闭先查后插的竞态
 * @dependencies labqc-service/service/models, gorm.io/gorm
 * @refs service/init.go
 */

package database

import (
	"log/slog"

	"labqc-service/service/models"

	"gorm.io/gorm"
)

// AutoMigrate 自动迁移数据库表结构
func AutoMigrate(db *gorm.DB) error {
	slog.Info("开始数据库迁移")

	// 批次与样品相关表
	err := db.AutoMigrate(
		&models.Run{},
		&models.Sample{},
		&models.SampleValue{},
		&models.SampleExtra{},
		&models.RunSample{},
	)
	if err != nil {
		return err
	}

	// 质控与参考标样相关表
	err = db.AutoMigrate(
		&models.ControlRow{},
		&models.ControlValue{},
		&models.ReferenceRow{},
		&models.ReferenceValue{},
	)
	if err != nil {
		return err
	}

	// 用户与会话表
	err = db.AutoMigrate(
		&models.User{},
		&models.Session{},
	)
	if err != nil {
		return err
	}

	// 活动批次间文件名唯一（隐藏批次不占用文件名）
	err = db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_runs_active_filename ON runs (filename) WHERE NOT hidden`,
	).Error
	if err != nil {
		return err
	}

	slog.Info("数据库迁移完成")
	return nil
}
