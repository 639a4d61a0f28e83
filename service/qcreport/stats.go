/*
 * @module service/qcreport/stats
 * @description 聚合统计底层查询：对指定范围与质控行筛选条件的列式值表
 *              逐分析物计算均值与相对标准偏差（RSD）
 * @architecture 分层架构 - 领域服务层
 * @documentReference ai_docs/qc_reporting.md
 * @stateFlow 无状态只读查询
 * @rules avg 无匹配行时未定义；avg == 0 时 RSD 为 0；否则
 *        RSD = sqrt(avg(x²) - avg(x)²) / avg × 100
 * @dependencies labqc-service/service/models, gorm.io/gorm
 * @refs service/qcreport/table.go, service/qcreport/summary.go
 */

package qcreport

import (
	"fmt"
	"math"

	"labqc-service/service/models"

	"gorm.io/gorm"
)

// Stat 单个分析物的聚合统计。Avg 为 nil 表示无匹配行，此时 RSD 同样未定义
type Stat struct {
	Avg   *float64
	RSD   *float64
	Count int64
}

type aggRow struct {
	Name  string
	Avg   float64
	AvgSq float64
	Cnt   int64
}

// controlFilter 质控行筛选条件。校准核查行按精确标签匹配，目标浓度随标签
// 而变，混入其他 QC MES 标签会污染均值；二级标样行按类别归并，标签允许带后缀
type controlFilter struct {
	Label    string
	Category string
}

func byLabel(label string) controlFilter {
	return controlFilter{Label: label}
}

func byCategory(category string) controlFilter {
	return controlFilter{Category: category}
}

func (f controlFilter) apply(q *gorm.DB) *gorm.DB {
	if f.Label != "" {
		return q.Where("control_rows.label = ?", f.Label)
	}
	return q.Where("control_rows.category = ?", f.Category)
}

// aggregate 按范围与筛选条件对数值单元格分组聚合。
// RSD 在 Go 侧由 avg(x) 与 avg(x²) 推得，避免依赖存储引擎的 SQRT 实现
func (s *Service) aggregate(scope Scope, filter controlFilter, names []string) (map[string]Stat, error) {
	q := s.db.Model(&models.ControlValue{}).
		Select("control_values.name AS name, " +
			"AVG(control_values.num_value) AS avg, " +
			"AVG(control_values.num_value * control_values.num_value) AS avg_sq, " +
			"COUNT(control_values.num_value) AS cnt").
		Joins("JOIN control_rows ON control_rows.id = control_values.control_row_id").
		Where("control_values.num_value IS NOT NULL").
		Group("control_values.name")
	q = filter.apply(q)

	if scope.RunID != "" {
		q = q.Where("control_rows.run_id = ?", scope.RunID)
	} else {
		q = q.Joins("JOIN runs ON runs.id = control_rows.run_id").
			Where("runs.hidden = ?", false).
			Where("runs.uploaded_at >= ? AND runs.uploaded_at < ?",
				scope.Start, scope.End.AddDate(0, 0, 1))
	}

	var rows []aggRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("聚合统计查询失败: %w", err)
	}

	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}

	stats := make(map[string]Stat)
	for _, row := range rows {
		if !wanted[row.Name] || row.Cnt == 0 {
			continue
		}
		avg := row.Avg
		var rsd float64
		if avg != 0 {
			// 浮点误差可能使方差略小于零
			variance := math.Max(row.AvgSq-avg*avg, 0)
			rsd = math.Sqrt(variance) / avg * 100
		}
		stats[row.Name] = Stat{Avg: &avg, RSD: &rsd, Count: row.Cnt}
	}
	return stats, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func roundPtr2(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := round2(*v)
	return &r
}

func roundPtr3(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := round3(*v)
	return &r
}
