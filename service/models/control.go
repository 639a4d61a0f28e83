/*
 * @module service/models/control
 * @description 质控行模型。每行属于且仅属于一个批次，按标签类别归类，
 *              值采用列式键值表示，校正引擎回写 _Corrected 伴生值
 * @architecture DDD领域驱动设计 - 实体模型
 * @documentReference ai_docs/data_model.md
 * @stateFlow 摄取时创建；随批次级联，不单独删除
 * @rules 值行以 (control_row_id, name) 唯一，保证校正回写幂等
 * @dependencies gorm.io/gorm
 * @refs service/runs, service/correction, service/qcreport
 */

package models

import "time"

// ControlRow 一条质控测量行（空白、校准标样、校准核查、二级标样、清洗液）
type ControlRow struct {
	ID         uint       `json:"id" gorm:"primaryKey;autoIncrement"`
	RunID      string     `json:"run_id" gorm:"not null;type:varchar(36);index"`
	Label      string     `json:"label" gorm:"not null;size:255;index"`
	Category   string     `json:"category" gorm:"not null;size:50"`
	AcquiredAt *time.Time `json:"acquired_at,omitempty" gorm:"index"`

	Run Run `json:"-" gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE"`
}

// TableName 指定表名
func (ControlRow) TableName() string {
	return "control_rows"
}

// ControlValue 质控行的单元格，含原始值、数值镜像
type ControlValue struct {
	ID           uint     `json:"id" gorm:"primaryKey;autoIncrement"`
	ControlRowID uint     `json:"control_row_id" gorm:"not null;uniqueIndex:idx_control_values_name;index"`
	Name         string   `json:"name" gorm:"not null;size:255;uniqueIndex:idx_control_values_name"`
	Value        string   `json:"value" gorm:"size:255"`
	NumValue     *float64 `json:"num_value,omitempty"`

	ControlRow ControlRow `json:"-" gorm:"foreignKey:ControlRowID;constraint:OnDelete:CASCADE"`
}

// TableName 指定表名
func (ControlValue) TableName() string {
	return "control_values"
}
