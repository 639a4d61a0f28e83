/*
 * @module service/ingest/parse
 * @description 数据行解析与分类：无条件跳过两行物理表头，解析其余非空行为有序键值记录，
 *              按标签前缀划分样品行与质控行，并校验必需质控类别
 * @architecture 分层架构 - 数据接入层
 * @documentReference ai_docs/ingestion_pipeline.md
 * @stateFlow 解码 -> 类型判定 -> 表头校验 -> 行解析 -> 样品/质控分类 -> 质控标签校验
 * @rules 缺失的尾部单元格映射为空串而非空值；质控类别缺失或标签未命中任何类别
 *        都会中止摄取，错误中必须同时列出缺失类别与非法标签
 * @dependencies labqc-service/service/meta, labqc-service/service/schema, github.com/spf13/cast
 * @refs service/runs
 */

package ingest

import (
	"strings"
	"time"

	"labqc-service/service/meta"
	"labqc-service/service/schema"

	"github.com/spf13/cast"
)

// SolutionLabelColumn 样品/质控标签所在列
const SolutionLabelColumn = "Solution Label"

// Record 一条数据行，键为校验后的表头名
type Record map[string]string

// Label 返回记录的溶液标签
func (r Record) Label() string {
	return strings.TrimSpace(r[SolutionLabelColumn])
}

// Result 一次完整摄取解析的产物
type Result struct {
	Type     meta.InstrumentType
	Headers  []string
	Samples  []Record
	Controls []Record
}

// ParseRows 跳过两行物理表头，将其余非空行解析为键值记录。
// 行内缺失的尾部单元格填空串。
func ParseRows(records [][]string, headers []string) []Record {
	if len(records) <= 2 {
		return nil
	}

	var rows []Record
	for _, record := range records[2:] {
		empty := true
		for _, cell := range record {
			if strings.TrimSpace(cell) != "" {
				empty = false
				break
			}
		}
		if empty {
			continue
		}

		row := make(Record, len(headers))
		for i, h := range headers {
			if i < len(record) {
				row[h] = strings.TrimSpace(record[i])
			} else {
				row[h] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// Classify 按标签前缀划分样品行与质控行
func Classify(rows []Record) (samples, controls []Record) {
	for _, row := range rows {
		if strings.HasPrefix(row.Label(), meta.SamplePrefix) {
			samples = append(samples, row)
		} else {
			controls = append(controls, row)
		}
	}
	return samples, controls
}

// ValidateControlLabels 校验质控行必须覆盖全部必需类别，且每个标签都能归类
func ValidateControlLabels(controls []Record) error {
	found := make(map[string]bool, len(meta.ControlCategories))
	var invalid []string

	for _, row := range controls {
		label := row.Label()
		if label == "" {
			continue
		}
		category := meta.MatchControlCategory(label)
		if category == "" {
			invalid = append(invalid, label)
			continue
		}
		found[category] = true
	}

	var missing []string
	for _, c := range meta.ControlCategories {
		if !found[c.Name] {
			missing = append(missing, c.Name)
		}
	}

	if len(missing) > 0 || len(invalid) > 0 {
		return NewValidationError("质控行校验失败。缺失类别: [%s]；非法标签: [%s]",
			strings.Join(missing, ", "), strings.Join(invalid, ", "))
	}
	return nil
}

// Partition 将一条记录拆分为两个分区：
// 主分区（非元素列 + 分析物列，入样品主表）与辅助分区（非元素列 + 其余列）。
func Partition(row Record, ts *schema.TypeSchema) (primary, aux Record) {
	primary = make(Record)
	aux = make(Record)
	for key, value := range row {
		switch {
		case ts.IsNonElement(key):
			primary[key] = value
			aux[key] = value
		case ts.IsAnalyte(key):
			primary[key] = value
		default:
			aux[key] = value
		}
	}
	return primary, aux
}

// Numeric 宽松解析单元格数值，空串或不可解析返回 nil
func Numeric(value string) *float64 {
	v := strings.TrimSpace(value)
	if v == "" {
		return nil
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return nil
	}
	return &f
}

// timestampLayouts 两种仪器导出的时间格式
var timestampLayouts = []string{
	"02-01-2006 15:04:05",
	"02/01/2006 15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// ParseTimestamp 解析数据行中的采集时间，无法解析返回 nil
func ParseTimestamp(value string) *time.Time {
	v := strings.TrimSpace(value)
	if v == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return &t
		}
	}
	return nil
}

// ParseAndValidate 执行完整的摄取前校验管线：
// 字符集归一化、类型判定、表头提取与校验、行解析、样品/质控分类、质控标签校验。
func ParseAndValidate(set *schema.Set, data []byte) (*Result, error) {
	records, err := readRecords(DecodeBytes(data))
	if err != nil {
		return nil, err
	}

	instrumentType, err := DetectType(records)
	if err != nil {
		return nil, err
	}

	headers, err := ExtractHeaders(instrumentType, records)
	if err != nil {
		return nil, err
	}

	ts := set.ForType(instrumentType)
	if err := ValidateHeaders(headers, ts); err != nil {
		return nil, err
	}

	rows := ParseRows(records, headers)
	if len(rows) == 0 {
		return nil, NewValidationError("文件中没有有效数据行")
	}

	samples, controls := Classify(rows)
	if len(samples) == 0 || len(controls) == 0 {
		return nil, NewValidationError("文件缺少样品行或质控行")
	}

	if err := ValidateControlLabels(controls); err != nil {
		return nil, err
	}

	return &Result{
		Type:     instrumentType,
		Headers:  headers,
		Samples:  samples,
		Controls: controls,
	}, nil
}
