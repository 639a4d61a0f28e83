/*
 * @module service/qcreport/table
 * @description 校准核查表格构建。目标浓度从标签内嵌数字解析，逐分析物计算
 *              均值、RSD、误差百分比与容差判定，并按元素短名折叠变体行
 * @architecture 分层架构 - 领域服务层
 * @documentReference ai_docs/qc_reporting.md
 * @stateFlow 无状态只读查询
 * @rules 容差判定：误差百分比 ≤ 10.0 为合格。同短名成对变体中恰有一条合格时
 *        仅保留合格的一条；同合格或同不合格保留两条；其他分组规模不过滤
 * @dependencies labqc-service/service/meta, labqc-service/service/schema
 * @refs api/controllers/table_controller.go
 */

package qcreport

import (
	"regexp"
	"strings"

	"labqc-service/service/meta"

	"github.com/spf13/cast"
)

var labelNumberPattern = regexp.MustCompile(`[\d.]+`)

// TableRow 校准核查表格的一行，对应一个分析列
type TableRow struct {
	FullElementName   string   `json:"fullElementName"`
	Element           string   `json:"element"`
	ValueAvg          *float64 `json:"valueAvg"`
	RSD               *float64 `json:"rsd"`
	ErrorPercentage   *float64 `json:"errorPercentage"`
	ErrorFactor       float64  `json:"errorFactor"`
	IsWithinTolerance *bool    `json:"isWithinTolerance"`
}

// TableResult 表格数据与出现的完整列名列表
type TableResult struct {
	TableData []TableRow `json:"tableData"`
	Elements  []string   `json:"elements"`
}

// TargetFromLabel 从质控标签内嵌的数字解析目标浓度，如 "QC MES 5 ppm" → 5
func TargetFromLabel(label string) float64 {
	m := labelNumberPattern.FindString(label)
	if m == "" {
		return 1
	}
	target, err := cast.ToFloat64E(m)
	if err != nil || target == 0 {
		return 1
	}
	return target
}

// displayName 元素短名，取列名首个空格前的部分
func displayName(full string) string {
	if i := strings.IndexByte(full, ' '); i >= 0 {
		return full[:i]
	}
	return full
}

// buildCheckRows 从聚合统计构建校准核查行。无统计数据的分析物保留行但各值为空
func buildCheckRows(stats map[string]Stat, analytes []string, label string) []TableRow {
	target := TargetFromLabel(label)

	rows := make([]TableRow, 0, len(analytes))
	for _, name := range analytes {
		row := TableRow{
			FullElementName: name,
			Element:         displayName(name),
			ErrorFactor:     target,
		}
		if stat, ok := stats[name]; ok && stat.Avg != nil {
			pct := absPct(*stat.Avg, target)
			within := pct <= meta.ToleranceLimit
			row.ValueAvg = roundPtr3(stat.Avg)
			row.RSD = roundPtr2(stat.RSD)
			row.ErrorPercentage = roundPtr2(&pct)
			row.IsWithinTolerance = &within
		}
		rows = append(rows, row)
	}
	return rows
}

func absPct(avg, target float64) float64 {
	if avg < target {
		return (target - avg) / target * 100
	}
	return (avg - target) / target * 100
}

// collapseVariants 按元素短名折叠变体行
func collapseVariants(rows []TableRow) []TableRow {
	order := make([]string, 0, len(rows))
	groups := make(map[string][]TableRow)
	for _, row := range rows {
		if _, ok := groups[row.Element]; !ok {
			order = append(order, row.Element)
		}
		groups[row.Element] = append(groups[row.Element], row)
	}

	final := make([]TableRow, 0, len(rows))
	for _, el := range order {
		group := groups[el]
		if len(group) != 2 {
			final = append(final, group...)
			continue
		}
		var pass, fail []TableRow
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

func tableResult(rows []TableRow) *TableResult {
	elements := make([]string, 0, len(rows))
	seen := make(map[string]bool, len(rows))
	for _, row := range rows {
		if !seen[row.FullElementName] {
			seen[row.FullElementName] = true
			elements = append(elements, row.FullElementName)
		}
	}
	return &TableResult{TableData: rows, Elements: elements}
}

// QCTable 单批次的校准核查表格
func (s *Service) QCTable(runID string) (*TableResult, error) {
	run, err := s.getRun(runID)
	if err != nil {
		return nil, err
	}
	ts := s.set.ForType(run.InstrumentType)
	label := meta.CalibrationCheckLabel[run.InstrumentType]

	stats, err := s.aggregate(RunScope(runID), byLabel(label), ts.Analytes)
	if err != nil {
		return nil, err
	}
	return tableResult(collapseVariants(buildCheckRows(stats, ts.Analytes, label))), nil
}

// QCTableByDates 日期区间的校准核查表格，两种仪器类型分别聚合后拼接
func (s *Service) QCTableByDates(scope Scope) (*TableResult, error) {
	var rows []TableRow
	for _, t := range []meta.InstrumentType{meta.InstrumentMajor, meta.InstrumentTrace} {
		ts := s.set.ForType(t)
		stats, err := s.aggregate(scope, byLabel(meta.CalibrationCheckLabel[t]), ts.Analytes)
		if err != nil {
			return nil, err
		}
		if len(stats) == 0 {
			continue
		}
		rows = append(rows,
			collapseVariants(buildCheckRows(stats, ts.Analytes, meta.CalibrationCheckLabel[t]))...)
	}
	return tableResult(rows), nil
}
