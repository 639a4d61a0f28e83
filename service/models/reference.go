/*
 * @module service/models/reference
 * @description 二级标样参考表模型：一行认证值、一行误差界，横跨两种仪器类型伴生列的并集
 * @architecture DDD领域驱动设计 - 实体模型
 * @documentReference ai_docs/reference_standard.md
 * @stateFlow 迁移时一次性写入种子数据，此后只读
 * @rules 恰好两行固定记录，值行以 (reference_row_id, name) 唯一
 * @dependencies gorm.io/gorm
 * @refs service/database/seed.go, service/qcreport
 */

package models

// ReferenceRow 参考表行：SJS-Std 认证行或 Error 误差界行
type ReferenceRow struct {
	ID    uint   `json:"id" gorm:"primaryKey"`
	Label string `json:"label" gorm:"not null;uniqueIndex;size:50"`
}

// TableName 指定表名
func (ReferenceRow) TableName() string {
	return "reference_rows"
}

// ReferenceValue 参考表单元格，键为 _Corrected 伴生列名
type ReferenceValue struct {
	ID             uint     `json:"id" gorm:"primaryKey;autoIncrement"`
	ReferenceRowID uint     `json:"reference_row_id" gorm:"not null;uniqueIndex:idx_reference_values_name;index"`
	Name           string   `json:"name" gorm:"not null;size:255;uniqueIndex:idx_reference_values_name"`
	NumValue       *float64 `json:"num_value,omitempty"`

	ReferenceRow ReferenceRow `json:"-" gorm:"foreignKey:ReferenceRowID;constraint:OnDelete:CASCADE"`
}

// TableName 指定表名
func (ReferenceValue) TableName() string {
	return "reference_values"
}
