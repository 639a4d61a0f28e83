/*
 * @module service/qcreport/service
 * @description 质控报表服务入口。持有数据库连接与规范模式，向控制器层暴露
 *              汇总、表格、迷你表、图表与仪表盘查询
 * @architecture 分层架构 - 领域服务层
 * @documentReference ai_docs/qc_reporting.md
 * @stateFlow 只读查询，无状态；每次调用从已存储的修正值重新计算
 * @rules 查询范围二选一：单批次按批次标识，多批次按上传日期闭区间且仅含活动批次
 * @dependencies labqc-service/service/models, gorm.io/gorm
 * @refs api/controllers
 */

package qcreport

import (
	"fmt"
	"time"

	"labqc-service/service/meta"
	"labqc-service/service/models"
	"labqc-service/service/schema"

	"gorm.io/gorm"
)

// Service 质控报表服务
type Service struct {
	db  *gorm.DB
	set *schema.Set
}

// NewService 创建报表服务实例
func NewService(db *gorm.DB, set *schema.Set) *Service {
	return &Service{db: db, set: set}
}

// Scope 查询范围：RunID 非空为单批次查询，否则为日期区间查询
type Scope struct {
	RunID string
	Start time.Time
	End   time.Time
}

// RunScope 单批次范围
func RunScope(runID string) Scope {
	return Scope{RunID: runID}
}

// DateScope 日期闭区间范围，按上传日入组
func DateScope(start, end time.Time) Scope {
	return Scope{Start: start, End: end}
}

func (s *Service) getRun(runID string) (*models.Run, error) {
	var run models.Run
	if err := s.db.First(&run, "id = ?", runID).Error; err != nil {
		return nil, fmt.Errorf("批次不存在: %w", err)
	}
	return &run, nil
}

// loadReference 加载参考标样表，返回以修正列名为键的认证值与误差界
func (s *Service) loadReference() (certified, bounds map[string]float64, err error) {
	var rows []models.ReferenceValue
	if err := s.db.Find(&rows).Error; err != nil {
		return nil, nil, fmt.Errorf("加载参考标样表失败: %w", err)
	}
	certified = make(map[string]float64)
	bounds = make(map[string]float64)
	for _, row := range rows {
		if row.NumValue == nil {
			continue
		}
		switch row.ReferenceRowID {
		case meta.ReferenceCertifiedRowID:
			certified[row.Name] = *row.NumValue
		case meta.ReferenceErrorRowID:
			bounds[row.Name] = *row.NumValue
		}
	}
	return certified, bounds, nil
}
