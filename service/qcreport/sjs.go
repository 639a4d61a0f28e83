/*
 * @module service/qcreport/sjs
 * @description 二级标样表格构建。对本批次（或日期区间内）SJS-Std 行的修正值
 *              聚合，与参考表认证值比对判定容差
 * @architecture 分层架构 - 领域服务层
 * @documentReference ai_docs/qc_reporting.md
 * @stateFlow 无状态只读查询
 * @rules 认证值或误差界为零/缺失时容差判定为不适用，而非合格/不合格
 * @dependencies labqc-service/service/meta, labqc-service/service/schema
 * @refs api/controllers/table_controller.go
 */

package qcreport

import (
	"strings"

	"labqc-service/service/meta"
	"labqc-service/service/schema"
)

// SJSRow 二级标样表格的一行。列名已剥离 _Corrected 后缀
type SJSRow struct {
	FullElementName     string   `json:"fullElementName"`
	Element             string   `json:"element"`
	ValueAvg            *float64 `json:"valueAvg"`
	SJSStd              *float64 `json:"sjsStd"`
	ErrorAllowedPercent *float64 `json:"errorAllowedPercent"`
	ActualErrorPercent  *float64 `json:"actualErrorPercent"`
	IsWithinTolerance   *bool    `json:"isWithinTolerance"`
	RSD                 *float64 `json:"rsd"`
}

// SJSResult 二级标样表格数据与列名列表
type SJSResult struct {
	TableData []SJSRow `json:"tableData"`
	Elements  []string `json:"elements"`
}

func buildSJSRows(stats map[string]Stat, companions []string,
	certified, bounds map[string]float64) []SJSRow {

	rows := make([]SJSRow, 0, len(companions))
	for _, name := range companions {
		clean := strings.TrimSuffix(name, schema.CorrectedSuffix)
		row := SJSRow{
			FullElementName: clean,
			Element:         displayName(clean),
		}

		std, hasStd := certified[name]
		_, hasBound := bounds[name]
		if hasStd {
			rounded := round3(std)
			row.SJSStd = &rounded
		}

		stat, hasStat := stats[name]
		if hasStat {
			row.ValueAvg = roundPtr3(stat.Avg)
			row.RSD = roundPtr2(stat.RSD)
		}

		if hasStd && hasBound && std != 0 && hasStat && stat.Avg != nil {
			allowed := meta.ToleranceLimit
			pct := absPct(*stat.Avg, std)
			within := pct <= allowed
			row.ErrorAllowedPercent = &allowed
			row.ActualErrorPercent = roundPtr2(&pct)
			row.IsWithinTolerance = &within
		}
		rows = append(rows, row)
	}
	return rows
}

// collapseSJSVariants 与校准核查表同样的变体折叠规则
func collapseSJSVariants(rows []SJSRow) []SJSRow {
	order := make([]string, 0, len(rows))
	groups := make(map[string][]SJSRow)
	for _, row := range rows {
		if _, ok := groups[row.Element]; !ok {
			order = append(order, row.Element)
		}
		groups[row.Element] = append(groups[row.Element], row)
	}

	final := make([]SJSRow, 0, len(rows))
	for _, el := range order {
		group := groups[el]
		if len(group) != 2 {
			final = append(final, group...)
			continue
		}
		var pass, fail []SJSRow
		for _, row := range group {
			if row.IsWithinTolerance != nil && *row.IsWithinTolerance {
				pass = append(pass, row)
			} else {
				fail = append(fail, row)
			}
		}
		if len(pass) == 1 && len(fail) == 1 {
			final = append(final, pass[0])
		} else {
			final = append(final, group...)
		}
	}
	return final
}

func sjsResult(rows []SJSRow) *SJSResult {
	elements := make([]string, 0, len(rows))
	seen := make(map[string]bool, len(rows))
	for _, row := range rows {
		if !seen[row.FullElementName] {
			seen[row.FullElementName] = true
			elements = append(elements, row.FullElementName)
		}
	}
	return &SJSResult{TableData: rows, Elements: elements}
}

// SJSTable 单批次的二级标样表格
func (s *Service) SJSTable(runID string) (*SJSResult, error) {
	run, err := s.getRun(runID)
	if err != nil {
		return nil, err
	}
	ts := s.set.ForType(run.InstrumentType)

	stats, err := s.aggregate(RunScope(runID), byCategory(meta.CategorySecondaryStandard), ts.Companions)
	if err != nil {
		return nil, err
	}
	certified, bounds, err := s.loadReference()
	if err != nil {
		return nil, err
	}
	return sjsResult(collapseSJSVariants(
		buildSJSRows(stats, ts.Companions, certified, bounds))), nil
}

// SJSTableByDates 日期区间的二级标样表格，聚合两种仪器类型的全部修正列
func (s *Service) SJSTableByDates(scope Scope) (*SJSResult, error) {
	companions := s.set.AllCompanions()
	stats, err := s.aggregate(scope, byCategory(meta.CategorySecondaryStandard), companions)
	if err != nil {
		return nil, err
	}
	certified, bounds, err := s.loadReference()
	if err != nil {
		return nil, err
	}
	return sjsResult(collapseSJSVariants(
		buildSJSRows(stats, companions, certified, bounds))), nil
}
