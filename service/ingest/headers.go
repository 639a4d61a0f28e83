/*
 * @module service/ingest/headers
 * @description 表头提取与校验：从首个表头标记判定仪器类型；主量文件为单行扁平表头，
 *              微量文件为两行合并表头，以显式状态机按列位展开
 * @architecture 分层架构 - 数据接入层
 * @documentReference ai_docs/ingestion_pipeline.md
 * @stateFlow 类型判定 -> 表头提取 -> 归一化 -> 与规范模式逐一比对
 * @rules 两行表头的展开是按列位的而非按名称匹配的，必须精确复现厂商列序；
 *        任何未命中规范集合的表头都整体拒绝该批次
 * @dependencies labqc-service/service/meta, labqc-service/service/schema
 * @refs service/ingest/parse.go
 */

package ingest

import (
	"encoding/csv"
	"strings"

	"labqc-service/service/meta"
	"labqc-service/service/schema"
)

// readRecords 解析 CSV 内容为记录集，允许行间字段数不一致
func readRecords(data []byte) ([][]string, error) {
	r := csv.NewReader(strings.NewReader(string(data)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, NewFormatError("CSV 解析失败: %v", err)
	}
	return records, nil
}

// DetectType 根据首行第一个表头标记判定仪器类型
func DetectType(records [][]string) (meta.InstrumentType, error) {
	if len(records) == 0 || len(records[0]) == 0 {
		return "", NewFormatError("无法识别的 CSV 结构: 文件为空")
	}
	switch schema.Normalize(records[0][0]) {
	case meta.MajorFirstToken:
		return meta.InstrumentMajor, nil
	case meta.TraceFirstToken:
		return meta.InstrumentTrace, nil
	}
	return "", NewFormatError("无法识别的 CSV 结构: 首个表头为 %q", records[0][0])
}

// mergeState 两行表头合并状态机的状态
type mergeState int

const (
	// awaitingBase 等待下一个基名或普通列
	awaitingBase mergeState = iota
	// expandingTriplet 正在展开一个基名下的三个子列
	expandingTriplet
)

// mergeTwoRowHeaders 按列位合并两行表头：上行含方括号的单元格为基名，
// 与下行紧随其后的三个子标签组合为三个扁平表头并前进 3 列；
// 不含方括号的单元格原样输出并前进 1 列。
func mergeTwoRowHeaders(top, sub []string) []string {
	cell := func(row []string, i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	var headers []string
	state := awaitingBase
	base := ""
	expanded := 0

	i := 0
	for i < len(top) || state == expandingTriplet {
		switch state {
		case awaitingBase:
			v := cell(top, i)
			if strings.Contains(v, "[") {
				base = v
				expanded = 0
				state = expandingTriplet
				continue
			}
			headers = append(headers, v)
			i++
		case expandingTriplet:
			headers = append(headers, strings.TrimSpace(base+" "+cell(sub, i)))
			i++
			expanded++
			if expanded == len(meta.TraceSubLabels) {
				state = awaitingBase
			}
		}
	}
	return headers
}

// ExtractHeaders 按仪器类型提取并归一化表头
func ExtractHeaders(instrumentType meta.InstrumentType, records [][]string) ([]string, error) {
	if len(records) == 0 {
		return nil, NewFormatError("无法识别的 CSV 结构: 文件为空")
	}

	var raw []string
	switch instrumentType {
	case meta.InstrumentMajor:
		for _, h := range records[0] {
			if strings.TrimSpace(h) != "" {
				raw = append(raw, h)
			}
		}
	case meta.InstrumentTrace:
		if len(records) < 2 {
			return nil, NewFormatError("微量元素文件缺少第二行表头")
		}
		raw = mergeTwoRowHeaders(records[0], records[1])
	default:
		return nil, NewFormatError("不支持的仪器类型: %s", instrumentType)
	}

	return schema.NormalizeAll(raw), nil
}

// ValidateHeaders 校验提取出的表头必须全部存在于该类型的规范集合中
func ValidateHeaders(headers []string, ts *schema.TypeSchema) error {
	for _, h := range headers {
		if !ts.HasHeader(h) {
			return NewValidationError("表头 %q 不在 %s 类型的规范表头集合中", h, ts.Type)
		}
	}
	return nil
}
