/*
 * @module service/qcreport/minitable
 * @description 单分析物迷你表：按时间排列的（采集时间、测量值、误差百分比、
 *              判定）序列，支持分页；二级标样模式改用修正列与参考表认证值
 * @architecture 分层架构 - 领域服务层
 * @documentReference ai_docs/qc_reporting.md
 * @stateFlow 无状态只读查询
 * @rules 采集时间或数值缺失的行不进入序列；分页在内存序列上切片
 * @dependencies labqc-service/service/models, gorm.io/gorm
 * @refs api/controllers/table_controller.go
 */

package qcreport

import (
	"fmt"
	"time"

	"labqc-service/service/meta"
	"labqc-service/service/models"
	"labqc-service/service/schema"
)

// MiniRow 校准核查迷你表的一个时间点
type MiniRow struct {
	Timestamp       time.Time `json:"timestamp"`
	Value           float64   `json:"value"`
	Units           string    `json:"units"`
	ErrorPercentage float64   `json:"errorPercentage"`
	Status          string    `json:"status"`
}

// SJSMiniRow 二级标样迷你表的一个时间点
type SJSMiniRow struct {
	Timestamp         time.Time `json:"timestamp"`
	Value             float64   `json:"value"`
	SJSStd            float64   `json:"sjsStd"`
	Tolerance         float64   `json:"tolerance"`
	Actual            *float64  `json:"actual"`
	IsWithinTolerance *bool     `json:"isWithinTolerance"`
}

// MiniTablePage 分页后的迷你表
type MiniTablePage[T any] struct {
	MiniTable  []T   `json:"miniTable"`
	TotalItems int   `json:"totalItems"`
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
}

func paginate[T any](rows []T, page, pageSize int) *MiniTablePage[T] {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	total := len(rows)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return &MiniTablePage[T]{
		MiniTable:  rows[start:end],
		TotalItems: total,
		Page:       page,
		PageSize:   pageSize,
	}
}

type miniRaw struct {
	AcquiredAt *time.Time
	NumValue   *float64
}

// miniSeries 指定列名与质控行筛选条件的时间序列，缺时间戳或数值的行丢弃
func (s *Service) miniSeries(scope Scope, filter controlFilter, name string) ([]miniRaw, error) {
	q := s.db.Model(&models.ControlValue{}).
		Select("control_rows.acquired_at AS acquired_at, control_values.num_value AS num_value").
		Joins("JOIN control_rows ON control_rows.id = control_values.control_row_id").
		Where("control_values.name = ?", name).
		Order("control_rows.acquired_at ASC")
	q = filter.apply(q)

	if scope.RunID != "" {
		q = q.Where("control_rows.run_id = ?", scope.RunID)
	} else {
		q = q.Joins("JOIN runs ON runs.id = control_rows.run_id").
			Where("runs.hidden = ?", false).
			Where("runs.uploaded_at >= ? AND runs.uploaded_at < ?",
				scope.Start, scope.End.AddDate(0, 0, 1))
	}

	var rows []miniRaw
	if err := q.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("迷你表查询失败: %w", err)
	}

	series := rows[:0]
	for _, row := range rows {
		if row.AcquiredAt != nil && row.NumValue != nil {
			series = append(series, row)
		}
	}
	return series, nil
}

// elementType 判断分析列归属的仪器类型
func (s *Service) elementType(element string) (meta.InstrumentType, bool) {
	if s.set.Major.IsAnalyte(element) {
		return meta.InstrumentMajor, true
	}
	if s.set.Trace.IsAnalyte(element) {
		return meta.InstrumentTrace, true
	}
	return "", false
}

// QCMiniTable 校准核查迷你表，与目标浓度逐点比对
func (s *Service) QCMiniTable(scope Scope, element string, page, pageSize int) (*MiniTablePage[MiniRow], error) {
	t, ok := s.elementType(element)
	if !ok {
		return paginate([]MiniRow{}, page, pageSize), nil
	}
	target := meta.CertifiedTarget[t]
	unit := meta.Unit[t]

	series, err := s.miniSeries(scope, byLabel(meta.CalibrationCheckLabel[t]), element)
	if err != nil {
		return nil, err
	}

	rows := make([]MiniRow, 0, len(series))
	for _, point := range series {
		pct := round2(absPct(*point.NumValue, target))
		status := "Fail"
		if pct <= meta.ToleranceLimit {
			status = "Pass"
		}
		rows = append(rows, MiniRow{
			Timestamp:       *point.AcquiredAt,
			Value:           *point.NumValue,
			Units:           unit,
			ErrorPercentage: pct,
			Status:          status,
		})
	}
	return paginate(rows, page, pageSize), nil
}

// SJSMiniTable 二级标样迷你表，对修正列与参考表认证值逐点比对
func (s *Service) SJSMiniTable(scope Scope, element string, page, pageSize int) (*MiniTablePage[SJSMiniRow], error) {
	corrected := schema.Corrected(element)

	series, err := s.miniSeries(scope, byCategory(meta.CategorySecondaryStandard), corrected)
	if err != nil {
		return nil, err
	}

	certified, bounds, err := s.loadReference()
	if err != nil {
		return nil, err
	}
	std, hasStd := certified[corrected]
	_, hasBound := bounds[corrected]
	valid := hasStd && hasBound && std != 0

	rows := make([]SJSMiniRow, 0, len(series))
	for _, point := range series {
		row := SJSMiniRow{
			Timestamp: *point.AcquiredAt,
			Value:     *point.NumValue,
			SJSStd:    std,
		}
		if valid {
			pct := round2(absPct(*point.NumValue, std))
			within := pct <= meta.ToleranceLimit
			row.Tolerance = meta.ToleranceLimit
			row.Actual = &pct
			row.IsWithinTolerance = &within
		}
		rows = append(rows, row)
	}
	return paginate(rows, page, pageSize), nil
}
