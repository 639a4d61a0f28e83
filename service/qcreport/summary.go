/*
 * @module service/qcreport/summary
 * @description 质控汇总：在校准核查表格之上做合格计数、平均 RSD、
 *              平均误差百分比与不合格元素清单的滚动汇总
 * @architecture 分层架构 - 领域服务层
 * @documentReference ai_docs/qc_reporting.md
 * @stateFlow 无状态只读查询
 * @rules 平均 RSD 与平均误差百分比仅对已定义的值求均，未定义的分析物不计入分母
 * @dependencies labqc-service/service/meta
 * @refs api/controllers/qc_check_controller.go, service/qcreport/dashboard.go
 */

package qcreport

// Summary 质控汇总结果
type Summary struct {
	TotalElements              int      `json:"totalElements"`
	ElementsWithinTolerance    int      `json:"elementsWithinTolerance"`
	ElementsNotWithinTolerance int      `json:"elementsNotWithinTolerance"`
	AverageRSD                 float64  `json:"averageRSD"`
	AverageErrorPercentage     float64  `json:"averageErrorPercentage"`
	FailedElements             []string `json:"failedElements"`
}

func summarize(rows []TableRow) *Summary {
	s := &Summary{FailedElements: []string{}}
	s.TotalElements = len(rows)

	var rsdSum, pctSum float64
	var rsdCount, pctCount int
	for _, row := range rows {
		if row.IsWithinTolerance != nil && !*row.IsWithinTolerance {
			s.ElementsNotWithinTolerance++
			s.FailedElements = append(s.FailedElements, row.FullElementName)
		}
		if row.RSD != nil {
			rsdSum += *row.RSD
			rsdCount++
		}
		if row.ErrorPercentage != nil {
			pctSum += *row.ErrorPercentage
			pctCount++
		}
	}
	s.ElementsWithinTolerance = s.TotalElements - s.ElementsNotWithinTolerance
	if rsdCount > 0 {
		s.AverageRSD = round2(rsdSum / float64(rsdCount))
	}
	if pctCount > 0 {
		s.AverageErrorPercentage = round2(pctSum / float64(pctCount))
	}
	return s
}

// QCSummary 单批次质控汇总
func (s *Service) QCSummary(runID string) (*Summary, error) {
	table, err := s.QCTable(runID)
	if err != nil {
		return nil, err
	}
	return summarize(table.TableData), nil
}

// QCSummaryByDates 日期区间质控汇总，合并两种仪器类型的表格
func (s *Service) QCSummaryByDates(scope Scope) (*Summary, error) {
	table, err := s.QCTableByDates(scope)
	if err != nil {
		return nil, err
	}
	return summarize(table.TableData), nil
}
