/*
 * @module service/models/sample
 * @description 样品记录模型。物理样品以 Solution Label 全局唯一，
 *              分析值采用按校验后表头名为键的列式键值表示
 * @architecture DDD领域驱动设计 - 实体模型
 * @documentReference ai_docs/data_model.md
 * @stateFlow 标签首次出现时创建；标签在后续批次再次出现时更新既有记录
 * @rules 标签唯一性是全局的而非批次内的；值行以 (sample_id, name) 唯一
 * @dependencies gorm.io/gorm
 * @refs service/runs, service/correction
 */

package models

// Sample 物理样品，标签全局唯一
type Sample struct {
	ID            string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	SolutionLabel string `json:"solution_label" gorm:"not null;uniqueIndex;size:255"`
}

// TableName 指定表名
func (Sample) TableName() string {
	return "samples"
}

// SampleValue 样品主表分区的单元格：非元素列、分析物列及其 _Corrected 伴生列。
// Value 保留原始文本，NumValue 为可解析时的数值镜像，供聚合查询使用。
type SampleValue struct {
	ID       uint     `json:"id" gorm:"primaryKey;autoIncrement"`
	SampleID string   `json:"sample_id" gorm:"not null;type:varchar(36);uniqueIndex:idx_sample_values_name;index"`
	Name     string   `json:"name" gorm:"not null;size:255;uniqueIndex:idx_sample_values_name"`
	Value    string   `json:"value" gorm:"size:255"`
	NumValue *float64 `json:"num_value,omitempty"`

	Sample Sample `json:"-" gorm:"foreignKey:SampleID;constraint:OnDelete:CASCADE"`
}

// TableName 指定表名
func (SampleValue) TableName() string {
	return "sample_values"
}

// SampleExtra 辅助分区的单元格：不可报告的原始字段（CPS、ISTD、强度列等）
type SampleExtra struct {
	ID       uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	SampleID string `json:"sample_id" gorm:"not null;type:varchar(36);uniqueIndex:idx_sample_extras_name;index"`
	Name     string `json:"name" gorm:"not null;size:255;uniqueIndex:idx_sample_extras_name"`
	Value    string `json:"value" gorm:"size:255"`

	Sample Sample `json:"-" gorm:"foreignKey:SampleID;constraint:OnDelete:CASCADE"`
}

// TableName 指定表名
func (SampleExtra) TableName() string {
	return "sample_extras"
}
