/*
 * @module service/samples/service
 * @description 样品浏览服务：活动批次关联的样品清单、单样品的校准核查
 *              比对表（按仪器类型分区，附文件链接），以及单元素明细
 * @architecture 分层架构 - 领域服务层
 * @documentReference ai_docs/qc_reporting.md
 * @stateFlow 无状态只读查询
 * @rules 仅统计精确匹配核查标签的质控行；同类型多批次时取最近上传的活动批次
 * @dependencies labqc-service/service/models, gorm.io/gorm
 * @refs api/controllers/sample_controller.go
 */

package samples

import (
	"fmt"
	"math"
	"strings"

	"labqc-service/service/meta"
	"labqc-service/service/models"
	"labqc-service/service/schema"

	"gorm.io/gorm"
)

// Service 样品浏览服务
type Service struct {
	db  *gorm.DB
	set *schema.Set
}

// NewService 创建样品服务实例
func NewService(db *gorm.DB, set *schema.Set) *Service {
	return &Service{db: db, set: set}
}

// SampleInfo 样品清单项
type SampleInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SampleRow 样品比对表的一行：分析物在所属批次中的校准核查均值、
// 相对目标浓度的误差百分比与判定，以及该样品的修正测量值
type SampleRow struct {
	Element       string   `json:"element"`
	SolutionLabel string   `json:"solutionLabel"`
	Avg           *float64 `json:"avg"`
	Error         *float64 `json:"error"`
	WithinLimit   *bool    `json:"withinLimit"`
	Corrected     *float64 `json:"corrected"`
}

// FileLink 样品表底部的来源文件链接
type FileLink struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
}

// SampleTable 单样品比对表，主量元素分区在前
type SampleTable struct {
	TableData []SampleRow `json:"tableData"`
	FileLinks []FileLink  `json:"fileLinks"`
}

// ElementDetails 单样品单元素的核查明细
type ElementDetails struct {
	Element    string              `json:"element"`
	Instrument meta.InstrumentType `json:"instrument"`
	RunID      string              `json:"runId"`
	Avg        *float64            `json:"avg"`
	RSD        *float64            `json:"rsd"`
}

// List 活动批次关联的样品清单，按溶液标签排序
func (s *Service) List() ([]SampleInfo, error) {
	var rows []SampleInfo
	err := s.db.Model(&models.Sample{}).
		Distinct("samples.id AS id, samples.solution_label AS name").
		Joins("JOIN run_samples ON run_samples.sample_id = samples.id").
		Joins("JOIN runs ON runs.id = run_samples.run_id").
		Where("runs.hidden = ?", false).
		Order("samples.solution_label ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("查询样品清单失败: %w", err)
	}
	if rows == nil {
		rows = []SampleInfo{}
	}
	return rows, nil
}

// runForType 样品关联的指定类型活动批次，同类型多批次时取最近上传
func (s *Service) runForType(sampleID string, t meta.InstrumentType) (*models.Run, error) {
	var run models.Run
	err := s.db.Model(&models.Run{}).
		Joins("JOIN run_samples ON run_samples.run_id = runs.id").
		Where("run_samples.sample_id = ?", sampleID).
		Where("runs.instrument_type = ? AND runs.hidden = ?", t, false).
		Order("runs.uploaded_at DESC").
		First(&run).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("查询样品关联批次失败: %w", err)
	}
	return &run, nil
}

type checkStat struct {
	avg *float64
	rsd *float64
}

// checkStats 批次内精确匹配核查标签的逐分析物均值与 RSD
func (s *Service) checkStats(runID string, label string) (map[string]checkStat, error) {
	type aggRow struct {
		Name  string
		Avg   float64
		AvgSq float64
		Cnt   int64
	}
	var rows []aggRow
	err := s.db.Model(&models.ControlValue{}).
		Select("control_values.name AS name, "+
			"AVG(control_values.num_value) AS avg, "+
			"AVG(control_values.num_value * control_values.num_value) AS avg_sq, "+
			"COUNT(control_values.num_value) AS cnt").
		Joins("JOIN control_rows ON control_rows.id = control_values.control_row_id").
		Where("control_rows.run_id = ? AND control_rows.label = ?", runID, label).
		Where("control_values.num_value IS NOT NULL").
		Group("control_values.name").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("核查均值查询失败: %w", err)
	}

	stats := make(map[string]checkStat, len(rows))
	for _, row := range rows {
		if row.Cnt == 0 {
			continue
		}
		avg := row.Avg
		var rsd float64
		if avg != 0 {
			variance := math.Max(row.AvgSq-avg*avg, 0)
			rsd = math.Sqrt(variance) / avg * 100
		}
		stats[row.Name] = checkStat{avg: &avg, rsd: &rsd}
	}
	return stats, nil
}

// correctedValues 样品修正列的数值，以伴生列名为键
func (s *Service) correctedValues(sampleID string) (map[string]float64, error) {
	var values []models.SampleValue
	err := s.db.
		Where("sample_id = ? AND name LIKE ?", sampleID, "%"+schema.CorrectedSuffix).
		Find(&values).Error
	if err != nil {
		return nil, fmt.Errorf("查询样品修正值失败: %w", err)
	}
	corrected := make(map[string]float64, len(values))
	for _, v := range values {
		if v.NumValue != nil {
			corrected[v.Name] = *v.NumValue
		}
	}
	return corrected, nil
}

// Table 单样品比对表。每个关联仪器类型产出一个分区：逐分析物给出
// 核查均值、相对目标浓度的误差与判定，并并列该样品的修正测量值
func (s *Service) Table(sampleID string) (*SampleTable, error) {
	var sample models.Sample
	if err := s.db.First(&sample, "id = ?", sampleID).Error; err != nil {
		return nil, fmt.Errorf("样品不存在: %w", err)
	}

	corrected, err := s.correctedValues(sampleID)
	if err != nil {
		return nil, err
	}

	table := &SampleTable{TableData: []SampleRow{}, FileLinks: []FileLink{}}
	for _, t := range []meta.InstrumentType{meta.InstrumentMajor, meta.InstrumentTrace} {
		run, err := s.runForType(sampleID, t)
		if err != nil {
			return nil, err
		}
		if run == nil {
			continue
		}
		table.FileLinks = append(table.FileLinks, FileLink{ID: run.ID, Filename: run.Filename})

		label := meta.CalibrationCheckLabel[t]
		target := meta.CertifiedTarget[t]
		stats, err := s.checkStats(run.ID, label)
		if err != nil {
			return nil, err
		}

		for _, analyte := range s.set.ForType(t).Analytes {
			row := SampleRow{Element: analyte, SolutionLabel: label}
			if stat, ok := stats[analyte]; ok {
				pct := round2(math.Abs(*stat.avg-target) / target * 100)
				within := pct <= meta.ToleranceLimit
				row.Avg = stat.avg
				row.Error = &pct
				row.WithinLimit = &within
			}
			if v, ok := corrected[schema.Corrected(analyte)]; ok {
				value := v
				row.Corrected = &value
			}
			table.TableData = append(table.TableData, row)
		}
	}
	return table, nil
}

// Details 单样品单元素的核查均值与 RSD。元素名允许带修正后缀，
// 按去掉后缀的原始列名归属仪器类型
func (s *Service) Details(sampleID, element string) (*ElementDetails, error) {
	clean := strings.TrimSuffix(element, schema.CorrectedSuffix)

	var t meta.InstrumentType
	switch {
	case s.set.Major.IsAnalyte(clean):
		t = meta.InstrumentMajor
	case s.set.Trace.IsAnalyte(clean):
		t = meta.InstrumentTrace
	default:
		return nil, fmt.Errorf("未知分析列: %s", element)
	}

	run, err := s.runForType(sampleID, t)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, fmt.Errorf("样品无关联批次: %w", gorm.ErrRecordNotFound)
	}

	stats, err := s.checkStats(run.ID, meta.CalibrationCheckLabel[t])
	if err != nil {
		return nil, err
	}

	details := &ElementDetails{Element: clean, Instrument: t, RunID: run.ID}
	if stat, ok := stats[clean]; ok {
		details.Avg = stat.avg
		details.RSD = stat.rsd
	}
	return details, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
