/*
 * @module service/qcreport/dashboard
 * @description 仪表盘汇总：活动批次数、样品总数、近七天质控合格率
 * @architecture 分层架构 - 领域服务层
 * @documentReference ai_docs/qc_reporting.md
 * @stateFlow 无状态只读查询
 * @rules 合格率以分析列为计数单位：每个批次的每个分析列记一次核查
 * @dependencies labqc-service/service/models, gorm.io/gorm
 * @refs api/controllers/dashboard_controller.go
 */

package qcreport

import (
	"fmt"
	"math"
	"time"

	"labqc-service/service/meta"
	"labqc-service/service/models"
)

// QCStats 近七天质控核查计数
type QCStats struct {
	TotalChecks  int `json:"totalChecks"`
	PassedChecks int `json:"passedChecks"`
	PassRate     int `json:"passRate"`
}

// Dashboard 仪表盘汇总
type Dashboard struct {
	TotalFiles   int64   `json:"totalFiles"`
	TotalSamples int64   `json:"totalSamples"`
	QCPassRate   int     `json:"qcPassRate"`
	QCStats      QCStats `json:"qcStats"`
}

// DashboardSummary 构建仪表盘汇总
func (s *Service) DashboardSummary() (*Dashboard, error) {
	var totalFiles int64
	err := s.db.Model(&models.Run{}).Where("hidden = ?", false).Count(&totalFiles).Error
	if err != nil {
		return nil, fmt.Errorf("统计批次数失败: %w", err)
	}

	var totalSamples int64
	if err := s.db.Model(&models.Sample{}).Count(&totalSamples).Error; err != nil {
		return nil, fmt.Errorf("统计样品数失败: %w", err)
	}

	stats, err := s.qcPassRateLastWeek()
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		TotalFiles:   totalFiles,
		TotalSamples: totalSamples,
		QCPassRate:   stats.PassRate,
		QCStats:      *stats,
	}, nil
}

// qcPassRateLastWeek 近七天含校准核查行的活动批次，逐批汇总合格分析列占比
func (s *Service) qcPassRateLastWeek() (*QCStats, error) {
	since := time.Now().AddDate(0, 0, -7)

	var runIDs []string
	err := s.db.Model(&models.ControlRow{}).
		Distinct("control_rows.run_id").
		Joins("JOIN runs ON runs.id = control_rows.run_id").
		Where("runs.hidden = ?", false).
		Where("runs.uploaded_at >= ?", since).
		Where("control_rows.category = ?", meta.CategoryCalibrationCheck).
		Pluck("control_rows.run_id", &runIDs).Error
	if err != nil {
		return nil, fmt.Errorf("查询近七天质控批次失败: %w", err)
	}

	stats := &QCStats{}
	for _, runID := range runIDs {
		summary, err := s.QCSummary(runID)
		if err != nil {
			return nil, err
		}
		stats.TotalChecks += summary.TotalElements
		stats.PassedChecks += summary.ElementsWithinTolerance
	}
	if stats.TotalChecks > 0 {
		stats.PassRate = int(math.Round(
			float64(stats.PassedChecks) / float64(stats.TotalChecks) * 100))
	}
	return stats, nil
}
