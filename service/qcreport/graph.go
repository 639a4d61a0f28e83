/*
 * @module service/qcreport/graph
 * @description 图表数据与可选元素列表：单分析物的校准核查时间序列，
 *              以及单批次/日期区间内可供绘图的分析列清单
 * @architecture 分层架构 - 领域服务层
 * @documentReference ai_docs/qc_reporting.md
 * @stateFlow 无状态只读查询
 * @rules 日期区间的元素清单按区间内出现的仪器类型取并集
 * @dependencies labqc-service/service/models, gorm.io/gorm
 * @refs api/controllers/graph_controller.go
 */

package qcreport

import (
	"fmt"
	"strings"
	"time"

	"labqc-service/service/meta"
	"labqc-service/service/models"
	"labqc-service/service/schema"
)

// GraphPoint 图表上的一个时间点
type GraphPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// GraphData 以分析列名为键的序列集合，查询无数据时为空映射
type GraphData map[string][]GraphPoint

// GraphSeries 单分析物的校准核查时间序列
func (s *Service) GraphSeries(scope Scope, element string) (GraphData, error) {
	t, ok := s.elementType(element)
	if !ok {
		return GraphData{}, nil
	}
	series, err := s.miniSeries(scope, byLabel(meta.CalibrationCheckLabel[t]), element)
	if err != nil {
		return nil, err
	}

	points := make([]GraphPoint, 0, len(series))
	for _, point := range series {
		points = append(points, GraphPoint{
			Timestamp: *point.AcquiredAt,
			Value:     *point.NumValue,
		})
	}

	data := GraphData{}
	if len(points) > 0 {
		data[element] = points
	}
	return data, nil
}

// SJSGraphPoint 二级标样图表上的一个时间点，携带认证值与误差上下界
type SJSGraphPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
	Mid       float64   `json:"mid"`
	Upper     float64   `json:"upper"`
	Lower     float64   `json:"lower"`
}

// SJSGraphData 以去掉修正后缀的元素名为键的序列集合
type SJSGraphData map[string][]SJSGraphPoint

// SJSGraphSeries 二级标样全元素时间序列。仅包含参考表同时定义认证值与
// 误差界的修正列；单批次范围取该批次仪器类型的伴生列，日期区间取并集
func (s *Service) SJSGraphSeries(scope Scope) (SJSGraphData, error) {
	var companions []string
	if scope.RunID != "" {
		run, err := s.getRun(scope.RunID)
		if err != nil {
			return nil, err
		}
		companions = s.set.ForType(run.InstrumentType).Companions
	} else {
		companions = s.set.AllCompanions()
	}

	certified, bounds, err := s.loadReference()
	if err != nil {
		return nil, err
	}

	data := SJSGraphData{}
	for _, companion := range companions {
		mid, hasMid := certified[companion]
		bound, hasBound := bounds[companion]
		if !hasMid || !hasBound {
			continue
		}
		series, err := s.miniSeries(scope, byCategory(meta.CategorySecondaryStandard), companion)
		if err != nil {
			return nil, err
		}
		if len(series) == 0 {
			continue
		}
		points := make([]SJSGraphPoint, 0, len(series))
		for _, point := range series {
			points = append(points, SJSGraphPoint{
				Timestamp: *point.AcquiredAt,
				Value:     *point.NumValue,
				Mid:       mid,
				Upper:     mid + bound,
				Lower:     mid - bound,
			})
		}
		data[strings.TrimSuffix(companion, schema.CorrectedSuffix)] = points
	}
	return data, nil
}

// ElementsByRun 单批次可绘图的分析列清单
func (s *Service) ElementsByRun(runID string) ([]string, error) {
	run, err := s.getRun(runID)
	if err != nil {
		return nil, err
	}
	return s.set.ForType(run.InstrumentType).Analytes, nil
}

// ElementsByDates 日期区间内可绘图的分析列清单，按出现的仪器类型取并集
func (s *Service) ElementsByDates(scope Scope) ([]string, error) {
	var types []meta.InstrumentType
	err := s.db.Model(&models.Run{}).
		Distinct("instrument_type").
		Where("hidden = ?", false).
		Where("uploaded_at >= ? AND uploaded_at < ?",
			scope.Start, scope.End.AddDate(0, 0, 1)).
		Pluck("instrument_type", &types).Error
	if err != nil {
		return nil, fmt.Errorf("查询区间仪器类型失败: %w", err)
	}

	var elements []string
	for _, t := range []meta.InstrumentType{meta.InstrumentMajor, meta.InstrumentTrace} {
		for _, seen := range types {
			if seen == t {
				elements = append(elements, s.set.ForType(t).Analytes...)
				break
			}
		}
	}
	if elements == nil {
		elements = []string{}
	}
	return elements, nil
}

// AllElements 两种仪器类型分析列的全集，供搜索框补全
func (s *Service) AllElements() []string {
	return s.set.AllAnalytes()
}
