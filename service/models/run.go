/*
 * @module service/models/run
 * @description 摄取批次（上传文件）相关模型定义，包括批次与样品的多对多关联
 * @architecture DDD领域驱动设计 - 实体模型
 * @documentReference ai_docs/data_model.md
 * @stateFlow 摄取事务末尾创建；仅支持软删除（隐藏并为文件名追加后缀）
 * @rules 活动批次间文件名唯一，由部分唯一索引在插入时强制
 * @dependencies gorm.io/gorm
 * @refs service/runs, service/database
 */

package models

import (
	"time"

	"labqc-service/service/meta"
)

// Run 一次成功摄取的仪器导出文件（可附伴随文档）
type Run struct {
	ID             string              `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Filename       string              `json:"filename" gorm:"not null;size:255;index"`
	Path           string              `json:"path" gorm:"not null;size:512"`
	CompanionName  *string             `json:"companion_name,omitempty" gorm:"size:255"`
	CompanionPath  *string             `json:"companion_path,omitempty" gorm:"size:512"`
	UploadedAt     time.Time           `json:"uploaded_at" gorm:"not null;index"`
	InstrumentType meta.InstrumentType `json:"instrument_type" gorm:"not null;size:10"`
	Hidden         bool                `json:"hidden" gorm:"not null;default:false"`
}

// TableName 指定表名
func (Run) TableName() string {
	return "runs"
}

// RunSample 批次与样品的关联。同一样品可同时出现在两种仪器类型的批次中。
type RunSample struct {
	ID       uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	RunID    string `json:"run_id" gorm:"not null;type:varchar(36);uniqueIndex:idx_run_samples_pair"`
	SampleID string `json:"sample_id" gorm:"not null;type:varchar(36);uniqueIndex:idx_run_samples_pair;index"`

	Run    Run    `json:"-" gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE"`
	Sample Sample `json:"-" gorm:"foreignKey:SampleID;constraint:OnDelete:CASCADE"`
}

// TableName 指定表名
func (RunSample) TableName() string {
	return "run_samples"
}
