/*
 * @module service/ingest/headers_test
 * @description 类型判定与两行表头合并状态机单元测试
 * @architecture 测试层
 * @documentReference .specify/memory/test_plan.md
 * @stateFlow 构造表头行 -> 合并展开 -> 断言列序
 * @rules 按列位展开必须精确复现厂商列序
 * @dependencies testing, stretchr/testify
 */

package ingest

import (
	"testing"

	"labqc-service/service/meta"
	"labqc-service/service/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDetectType 根据首个表头标记判定仪器类型
func TestDetectType(t *testing.T) {
	typ, err := DetectType([][]string{{"Rack:Tube", "Solution Label"}})
	require.NoError(t, err)
	assert.Equal(t, meta.InstrumentMajor, typ)

	typ, err = DetectType([][]string{{"Sample", "Solution Label"}})
	require.NoError(t, err)
	assert.Equal(t, meta.InstrumentTrace, typ)

	_, err = DetectType([][]string{{"Tube", "Label"}})
	require.Error(t, err)
	assert.IsType(t, &FormatError{}, err)

	_, err = DetectType(nil)
	require.Error(t, err)
	assert.IsType(t, &FormatError{}, err)
}

// TestMergeTwoRowHeaders 含方括号的基名展开为三个扁平表头并前进三列
func TestMergeTwoRowHeaders(t *testing.T) {
	top := []string{"Sample", "107 Ag [He]", "", ""}
	sub := []string{"", "Conc.", "CPS", "ISTD"}

	merged := mergeTwoRowHeaders(top, sub)
	assert.Equal(t, []string{
		"Sample",
		"107 Ag [He] Conc.",
		"107 Ag [He] CPS",
		"107 Ag [He] ISTD",
	}, merged)
}

// TestMergeTwoRowHeadersShortSubRow 下行缺失的子单元格按空串处理
func TestMergeTwoRowHeadersShortSubRow(t *testing.T) {
	top := []string{"208 Pb [He]", "", ""}
	sub := []string{"Conc."}

	merged := mergeTwoRowHeaders(top, sub)
	assert.Equal(t, []string{
		"208 Pb [He] Conc.",
		"208 Pb [He]",
		"208 Pb [He]",
	}, merged)
}

// TestExtractHeadersTrace 微量元素模板经两行合并后与规范集合完全一致
func TestExtractHeadersTrace(t *testing.T) {
	set := schema.Derive()

	records, err := readRecords([]byte(traceFixtureHeader()))
	require.NoError(t, err)

	headers, err := ExtractHeaders(meta.InstrumentTrace, records)
	require.NoError(t, err)
	assert.Equal(t, set.Trace.Headers, headers)
	require.NoError(t, ValidateHeaders(headers, set.Trace))
}

// TestValidateHeadersRejectsUnknown 未命中规范集合的表头整体拒绝
func TestValidateHeadersRejectsUnknown(t *testing.T) {
	set := schema.Derive()
	err := ValidateHeaders([]string{"Rack:Tube", "Unobtainium 123 nm ppm"}, set.Major)
	require.Error(t, err)
	assert.IsType(t, &ValidationError{}, err)
	assert.Contains(t, err.Error(), "Unobtainium 123 nm ppm")
}

// traceFixtureHeader 构造微量元素两行物理表头
func traceFixtureHeader() string {
	top := ""
	sub := ""
	for i, h := range meta.TraceLeadingHeaders {
		if i > 0 {
			top += ","
			sub += ","
		}
		top += h
	}
	for _, base := range meta.TraceElementBases {
		top += `,"` + base + `",,`
		for _, s := range meta.TraceSubLabels {
			sub += "," + s
		}
	}
	return top + "\n" + sub + "\n"
}
