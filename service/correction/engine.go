/*
 * @module service/correction/engine
 * @description 漂移修正引擎。以批次内校准核查行（QC MES）的逐分析物均值对照
 *              认证目标浓度推导修正因子，回写样品与二级标样行的 _Corrected 伴生值
 * @architecture 分层架构 - 领域服务层
 * @documentReference ai_docs/correction.md
 * @stateFlow 摄取事务内执行；伴生值以 (owner, name) 冲突更新，重复执行结果不变
 * @rules 因子 = (目标值 - 均值) / 目标值；修正值 = 原始值 × (1 + 因子)。
 *        均值无法计算的分析物跳过，不写伴生值。参考表只读，不参与回写
 * @dependencies labqc-service/service/models, gorm.io/gorm
 * @refs service/runs, service/qcreport
 */

package correction

import (
	"fmt"
	"log/slog"
	"strconv"

	"labqc-service/service/meta"
	"labqc-service/service/models"
	"labqc-service/service/schema"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Engine 漂移修正引擎
type Engine struct {
	set *schema.Set
}

// NewEngine 创建修正引擎实例
func NewEngine(set *schema.Set) *Engine {
	return &Engine{set: set}
}

// Factors 计算批次的逐分析物修正因子。
// 仅统计校准核查行中数值非空的单元格；无可用数据的分析物不出现在结果中
func (e *Engine) Factors(tx *gorm.DB, run *models.Run) (map[string]float64, error) {
	label := meta.CalibrationCheckLabel[run.InstrumentType]
	target := meta.CertifiedTarget[run.InstrumentType]

	type avgRow struct {
		Name string
		Avg  float64
	}
	var rows []avgRow
	err := tx.Model(&models.ControlValue{}).
		Select("control_values.name AS name, AVG(control_values.num_value) AS avg").
		Joins("JOIN control_rows ON control_rows.id = control_values.control_row_id").
		Where("control_rows.run_id = ? AND control_rows.label = ?", run.ID, label).
		Where("control_values.num_value IS NOT NULL").
		Group("control_values.name").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("计算校准核查均值失败: %w", err)
	}

	ts := e.set.ForType(run.InstrumentType)
	factors := make(map[string]float64, len(rows))
	for _, row := range rows {
		if !ts.IsAnalyte(row.Name) {
			continue
		}
		factors[row.Name] = (target - row.Avg) / target
	}
	return factors, nil
}

// Apply 对批次执行漂移修正：样品主表值与本批次的二级标样行各回写一份伴生值
func (e *Engine) Apply(tx *gorm.DB, run *models.Run) error {
	factors, err := e.Factors(tx, run)
	if err != nil {
		return err
	}
	if len(factors) == 0 {
		slog.Warn("批次无可用修正因子，跳过漂移修正", "run_id", run.ID)
		return nil
	}

	if err := e.correctSamples(tx, run, factors); err != nil {
		return err
	}
	return e.correctSecondaryStandard(tx, run, factors)
}

func (e *Engine) correctSamples(tx *gorm.DB, run *models.Run, factors map[string]float64) error {
	var values []models.SampleValue
	err := tx.Model(&models.SampleValue{}).
		Joins("JOIN run_samples ON run_samples.sample_id = sample_values.sample_id").
		Where("run_samples.run_id = ?", run.ID).
		Where("sample_values.num_value IS NOT NULL").
		Find(&values).Error
	if err != nil {
		return fmt.Errorf("查询批次样品值失败: %w", err)
	}

	for _, v := range values {
		factor, ok := factors[v.Name]
		if !ok {
			continue
		}
		corrected := *v.NumValue * (1 + factor)
		row := models.SampleValue{
			SampleID: v.SampleID,
			Name:     schema.Corrected(v.Name),
			Value:    formatValue(corrected),
			NumValue: &corrected,
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "sample_id"}, {Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "num_value"}),
		}).Create(&row).Error
		if err != nil {
			return fmt.Errorf("回写样品修正值失败: %w", err)
		}
	}
	return nil
}

func (e *Engine) correctSecondaryStandard(tx *gorm.DB, run *models.Run, factors map[string]float64) error {
	var values []models.ControlValue
	err := tx.Model(&models.ControlValue{}).
		Joins("JOIN control_rows ON control_rows.id = control_values.control_row_id").
		Where("control_rows.run_id = ? AND control_rows.label = ?", run.ID, meta.SecondaryStandardLabel).
		Where("control_values.num_value IS NOT NULL").
		Find(&values).Error
	if err != nil {
		return fmt.Errorf("查询二级标样值失败: %w", err)
	}

	for _, v := range values {
		factor, ok := factors[v.Name]
		if !ok {
			continue
		}
		corrected := *v.NumValue * (1 + factor)
		row := models.ControlValue{
			ControlRowID: v.ControlRowID,
			Name:         schema.Corrected(v.Name),
			Value:        formatValue(corrected),
			NumValue:     &corrected,
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "control_row_id"}, {Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "num_value"}),
		}).Create(&row).Error
		if err != nil {
			return fmt.Errorf("回写二级标样修正值失败: %w", err)
		}
	}
	return nil
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
