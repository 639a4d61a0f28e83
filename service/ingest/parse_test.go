/*
 * @module service/ingest/parse_test
 * @description 数据行解析、分类与质控标签校验单元测试
 * @architecture 测试层
 * @documentReference .specify/memory/test_plan.md
 * @stateFlow 构造夹具文件 -> 解析管线 -> 断言分类与校验结果
 * @rules 缺失类别与非法标签必须同时出现在错误信息中
 * @dependencies testing, stretchr/testify, labqc-service/testutil
 */

package ingest

import (
	"strings"
	"testing"

	"labqc-service/service/meta"
	"labqc-service/service/schema"
	"labqc-service/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseRowsSkipsHeaderRows 无条件跳过两行物理表头，尾部缺失单元格填空串
func TestParseRowsSkipsHeaderRows(t *testing.T) {
	records := [][]string{
		{"Rack:Tube", "Solution Label", "Type"},
		{"", "", ""},
		{"1:1", "MCS-001"},
		{"", "", ""},
		{"1:2", "Blank", "QC"},
	}
	rows := ParseRows(records, []string{"Rack:Tube", "Solution Label", "Type"})

	require.Len(t, rows, 2)
	assert.Equal(t, "", rows[0]["Type"])
	assert.Equal(t, "MCS-001", rows[0].Label())
	assert.Equal(t, "QC", rows[1]["Type"])
}

// TestClassify 标签前缀 MCS 为样品行，其余为质控行
func TestClassify(t *testing.T) {
	rows := []Record{
		{SolutionLabelColumn: "MCS-001"},
		{SolutionLabelColumn: "Blank"},
		{SolutionLabelColumn: "MCS-100"},
		{SolutionLabelColumn: "QC MES 5 ppm"},
	}
	samples, controls := Classify(rows)
	assert.Len(t, samples, 2)
	assert.Len(t, controls, 2)
}

// TestValidateControlLabels 缺失类别与非法标签同时报告
func TestValidateControlLabels(t *testing.T) {
	controls := []Record{
		{SolutionLabelColumn: "Blank"},
		{SolutionLabelColumn: "Standard 1"},
		{SolutionLabelColumn: "Mystery-Row"},
	}
	err := ValidateControlLabels(controls)
	require.Error(t, err)
	assert.IsType(t, &ValidationError{}, err)
	assert.Contains(t, err.Error(), "QC MES")
	assert.Contains(t, err.Error(), "SJS-Std")
	assert.Contains(t, err.Error(), "Mystery-Row")
}

// TestValidateControlLabelsComplete 覆盖全部类别时通过
func TestValidateControlLabelsComplete(t *testing.T) {
	controls := []Record{
		{SolutionLabelColumn: "Blank"},
		{SolutionLabelColumn: "standard 2"},
		{SolutionLabelColumn: "blk-1"},
		{SolutionLabelColumn: "qc mes 5 ppm"},
		{SolutionLabelColumn: "SJS-Std"},
		{SolutionLabelColumn: "Wash"},
	}
	assert.NoError(t, ValidateControlLabels(controls))
}

// TestPartition 主分区与辅助分区的列划分
func TestPartition(t *testing.T) {
	set := schema.Derive()
	row := Record{
		"Solution Label":    "MCS-001",
		"Al 396.152 nm ppm": "4.0",
		"Al 396.152 nm c/s": "120433",
		"Timestamp":         "01-06-2026 10:00:00",
	}
	primary, aux := Partition(row, set.Major)

	assert.Equal(t, "MCS-001", primary["Solution Label"])
	assert.Equal(t, "4.0", primary["Al 396.152 nm ppm"])
	_, hasNoise := primary["Al 396.152 nm c/s"]
	assert.False(t, hasNoise)

	assert.Equal(t, "MCS-001", aux["Solution Label"])
	assert.Equal(t, "120433", aux["Al 396.152 nm c/s"])
	_, hasConc := aux["Al 396.152 nm ppm"]
	assert.False(t, hasConc)
}

// TestNumeric 宽松数值解析
func TestNumeric(t *testing.T) {
	require.NotNil(t, Numeric(" 4.55 "))
	assert.InDelta(t, 4.55, *Numeric("4.55"), 1e-9)
	assert.Nil(t, Numeric(""))
	assert.Nil(t, Numeric("N/A"))
	assert.Nil(t, Numeric("<0.01"))
}

// TestParseAndValidateMajor 完整管线解析主量元素夹具文件
func TestParseAndValidateMajor(t *testing.T) {
	set := schema.Derive()
	result, err := ParseAndValidate(set, testutil.ValidMajorCSV())
	require.NoError(t, err)

	assert.Equal(t, meta.InstrumentMajor, result.Type)
	assert.Len(t, result.Samples, 2)
	assert.Len(t, result.Controls, 8)
	assert.Equal(t, set.Major.Headers, result.Headers)
}

// TestParseAndValidateBOM 带 UTF-8 BOM 的文件同样可解析
func TestParseAndValidateBOM(t *testing.T) {
	set := schema.Derive()
	data := append([]byte{0xEF, 0xBB, 0xBF}, testutil.ValidMajorCSV()...)
	_, err := ParseAndValidate(set, data)
	assert.NoError(t, err)
}

// TestParseAndValidateUnknownFormat 未知首表头返回格式错误
func TestParseAndValidateUnknownFormat(t *testing.T) {
	set := schema.Derive()
	_, err := ParseAndValidate(set, []byte("Foo,Bar\n,,\nMCS-1,2\n"))
	require.Error(t, err)
	assert.IsType(t, &FormatError{}, err)
	assert.True(t, strings.Contains(err.Error(), "无法识别"))
}

// TestParseAndValidateMissingControls 缺少质控行返回校验错误
func TestParseAndValidateMissingControls(t *testing.T) {
	set := schema.Derive()
	data := testutil.MajorCSV(testutil.MajorSampleRows())
	_, err := ParseAndValidate(set, data)
	require.Error(t, err)
	assert.IsType(t, &ValidationError{}, err)
}
