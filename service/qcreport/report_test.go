/*
 * @module service/qcreport/report_test
 * @description 质控报表服务单元测试：聚合统计、容差判定、变体折叠、
 *              汇总、迷你表分页与隐藏批次排除
 */

package qcreport

import (
	"testing"
	"time"

	"labqc-service/service/meta"
	"labqc-service/service/models"
	"labqc-service/service/schema"
	"labqc-service/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	alColumn = "Al 396.152 nm ppm"
	kColumn  = "K 766.491 nm ppm"
	naColumn = "Na 588.995 nm ppm"
	naAlt    = "Na 589.592 nm ppm"
	tiColumn = "Ti 334.941 nm ppm"
)

func newReportService(t *testing.T) (*Service, *testutil.TestDB) {
	t.Helper()
	tdb := testutil.NewTestDB()
	return NewService(tdb.DB, schema.Derive()), tdb
}

func createControlRow(t *testing.T, tdb *testutil.TestDB, runID, label, category string,
	acquired time.Time, values map[string]float64) {
	t.Helper()
	row := models.ControlRow{RunID: runID, Label: label, Category: category, AcquiredAt: &acquired}
	require.NoError(t, tdb.DB.Create(&row).Error)
	for name, v := range values {
		num := v
		require.NoError(t, tdb.DB.Create(&models.ControlValue{
			ControlRowID: row.ID, Name: name, Value: "x", NumValue: &num,
		}).Error)
	}
}

// seedMajorRun 构造一个主量批次：
//   - 两条校准核查行：Al 4.5/4.6（合格），K 6.0/6.0（不合格），
//     Na 588.995 为 5.0/5.0（合格）而 Na 589.592 为 6.0/6.0（不合格）
//   - 一条二级标样行，含 Al 与 Ti 的修正值
func seedMajorRun(t *testing.T, tdb *testutil.TestDB, id string, uploadedAt time.Time, hidden bool) {
	t.Helper()
	run := models.Run{
		ID: id, Filename: id + ".csv", Path: "/tmp/" + id + ".csv",
		UploadedAt: uploadedAt, InstrumentType: meta.InstrumentMajor, Hidden: hidden,
	}
	require.NoError(t, tdb.DB.Create(&run).Error)

	base := uploadedAt
	createControlRow(t, tdb, id, "QC MES 5 ppm", meta.CategoryCalibrationCheck, base,
		map[string]float64{alColumn: 4.5, kColumn: 6.0, naColumn: 5.0, naAlt: 6.0})
	createControlRow(t, tdb, id, "QC MES 5 ppm", meta.CategoryCalibrationCheck, base.Add(time.Hour),
		map[string]float64{alColumn: 4.6, kColumn: 6.0, naColumn: 5.0, naAlt: 6.0})
	createControlRow(t, tdb, id, meta.SecondaryStandardLabel, meta.CategorySecondaryStandard, base.Add(2*time.Hour),
		map[string]float64{
			schema.Corrected(alColumn): 8.5,
			schema.Corrected(tiColumn): 1.0,
		})
}

func findRow(rows []TableRow, fullName string) *TableRow {
	for i := range rows {
		if rows[i].FullElementName == fullName {
			return &rows[i]
		}
	}
	return nil
}

func TestAggregateRSD(t *testing.T) {
	svc, tdb := newReportService(t)
	now := time.Now()
	seedMajorRun(t, tdb, "run-1", now, false)

	stats, err := svc.aggregate(RunScope("run-1"), byLabel(meta.CalibrationCheckLabel[meta.InstrumentMajor]),
		[]string{alColumn, kColumn, "Mg 285.213 nm ppm"})
	require.NoError(t, err)

	al, ok := stats[alColumn]
	require.True(t, ok)
	require.NotNil(t, al.Avg)
	assert.InDelta(t, 4.55, *al.Avg, 1e-9)
	require.NotNil(t, al.RSD)
	assert.InDelta(t, 1.0989, *al.RSD, 1e-3)

	// 重复相同值时方差为零
	k := stats[kColumn]
	require.NotNil(t, k.RSD)
	assert.InDelta(t, 0, *k.RSD, 1e-9)

	// 无数据的分析物不出现在统计中
	_, ok = stats["Mg 285.213 nm ppm"]
	assert.False(t, ok)
}

func TestAggregateRSDZeroWhenAvgZero(t *testing.T) {
	svc, tdb := newReportService(t)
	run := models.Run{
		ID: "run-z", Filename: "z.csv", Path: "/tmp/z.csv",
		UploadedAt: time.Now(), InstrumentType: meta.InstrumentMajor,
	}
	require.NoError(t, tdb.DB.Create(&run).Error)
	createControlRow(t, tdb, "run-z", "QC MES 5 ppm", meta.CategoryCalibrationCheck,
		time.Now(), map[string]float64{alColumn: 0})

	stats, err := svc.aggregate(RunScope("run-z"), byLabel(meta.CalibrationCheckLabel[meta.InstrumentMajor]), []string{alColumn})
	require.NoError(t, err)
	al := stats[alColumn]
	require.NotNil(t, al.Avg)
	assert.Zero(t, *al.Avg)
	require.NotNil(t, al.RSD)
	assert.Zero(t, *al.RSD)
}

// 同一批次允许出现多个合法的 QC MES 标签，但聚合只取本仪器类型的精确核查标签
func TestQCTableIgnoresOtherCheckLabels(t *testing.T) {
	svc, tdb := newReportService(t)
	now := time.Now()
	seedMajorRun(t, tdb, "run-1", now, false)
	createControlRow(t, tdb, "run-1", "QC MES 10 ppm", meta.CategoryCalibrationCheck,
		now.Add(30*time.Minute), map[string]float64{alColumn: 10.0})

	result, err := svc.QCTable("run-1")
	require.NoError(t, err)

	al := findRow(result.TableData, alColumn)
	require.NotNil(t, al)
	require.NotNil(t, al.ValueAvg)
	assert.InDelta(t, 4.55, *al.ValueAvg, 1e-9)
	require.NotNil(t, al.ErrorPercentage)
	assert.InDelta(t, 9.0, *al.ErrorPercentage, 1e-9)
	require.NotNil(t, al.IsWithinTolerance)
	assert.True(t, *al.IsWithinTolerance)

	// 迷你表与图形序列同样不包含异标签行
	page, err := svc.QCMiniTable(RunScope("run-1"), alColumn, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, page.TotalItems)

	data, err := svc.GraphSeries(RunScope("run-1"), alColumn)
	require.NoError(t, err)
	assert.Len(t, data[alColumn], 2)
}

func TestQCTableToleranceAndCollapse(t *testing.T) {
	svc, tdb := newReportService(t)
	seedMajorRun(t, tdb, "run-1", time.Now(), false)

	result, err := svc.QCTable("run-1")
	require.NoError(t, err)

	al := findRow(result.TableData, alColumn)
	require.NotNil(t, al)
	require.NotNil(t, al.ErrorPercentage)
	assert.InDelta(t, 9.0, *al.ErrorPercentage, 1e-9)
	require.NotNil(t, al.IsWithinTolerance)
	assert.True(t, *al.IsWithinTolerance)

	k := findRow(result.TableData, kColumn)
	require.NotNil(t, k)
	require.NotNil(t, k.IsWithinTolerance)
	assert.False(t, *k.IsWithinTolerance)

	// Na 变体对中仅合格的一条保留
	assert.NotNil(t, findRow(result.TableData, naColumn))
	assert.Nil(t, findRow(result.TableData, naAlt))

	// 无数据的 Ca 变体对整组保留，判定为空
	ca := findRow(result.TableData, "Ca 317.933 nm ppm")
	require.NotNil(t, ca)
	assert.Nil(t, ca.ValueAvg)
	assert.Nil(t, ca.IsWithinTolerance)
	assert.NotNil(t, findRow(result.TableData, "Ca 396.847 nm ppm"))

	// 15 个分析列，Na 对折叠掉一条
	assert.Len(t, result.TableData, 14)
}

func TestQCSummary(t *testing.T) {
	svc, tdb := newReportService(t)
	seedMajorRun(t, tdb, "run-1", time.Now(), false)

	summary, err := svc.QCSummary("run-1")
	require.NoError(t, err)

	assert.Equal(t, 14, summary.TotalElements)
	assert.Equal(t, 1, summary.ElementsNotWithinTolerance)
	assert.Equal(t, 13, summary.ElementsWithinTolerance)
	assert.Equal(t, []string{kColumn}, summary.FailedElements)
	assert.Greater(t, summary.AverageErrorPercentage, 0.0)
}

func TestSJSTable(t *testing.T) {
	svc, tdb := newReportService(t)
	tdb.SeedReference(schema.Derive())
	seedMajorRun(t, tdb, "run-1", time.Now(), false)

	result, err := svc.SJSTable("run-1")
	require.NoError(t, err)

	var al, ti *SJSRow
	for i := range result.TableData {
		switch result.TableData[i].FullElementName {
		case alColumn:
			al = &result.TableData[i]
		case tiColumn:
			ti = &result.TableData[i]
		}
	}

	// Al 修正值 8.5 对认证值 8.42，偏差约 0.95%
	require.NotNil(t, al)
	require.NotNil(t, al.ActualErrorPercent)
	assert.InDelta(t, 0.95, *al.ActualErrorPercent, 0.01)
	require.NotNil(t, al.IsWithinTolerance)
	assert.True(t, *al.IsWithinTolerance)

	// Ti 认证值为零，判定不适用
	require.NotNil(t, ti)
	assert.Nil(t, ti.IsWithinTolerance)
	assert.Nil(t, ti.ActualErrorPercent)
}

func TestSJSGraphSeries(t *testing.T) {
	svc, tdb := newReportService(t)
	tdb.SeedReference(schema.Derive())
	seedMajorRun(t, tdb, "run-1", time.Now(), false)

	data, err := svc.SJSGraphSeries(RunScope("run-1"))
	require.NoError(t, err)

	// 序列键为去掉修正后缀的原始列名
	points, ok := data[alColumn]
	require.True(t, ok)
	require.Len(t, points, 1)
	assert.InDelta(t, 8.5, points[0].Value, 1e-9)
	assert.InDelta(t, 8.42, points[0].Mid, 1e-9)
	assert.InDelta(t, 8.73, points[0].Upper, 1e-9)
	assert.InDelta(t, 8.11, points[0].Lower, 1e-9)

	// 参考表未定义的伴生列不出现
	_, ok = data[kColumn]
	assert.False(t, ok)
}

func TestQCMiniTablePagination(t *testing.T) {
	svc, tdb := newReportService(t)
	seedMajorRun(t, tdb, "run-1", time.Now(), false)

	page1, err := svc.QCMiniTable(RunScope("run-1"), alColumn, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, page1.TotalItems)
	require.Len(t, page1.MiniTable, 1)
	assert.InDelta(t, 4.5, page1.MiniTable[0].Value, 1e-9)
	assert.Equal(t, "Pass", page1.MiniTable[0].Status)
	assert.Equal(t, "ppm", page1.MiniTable[0].Units)

	page2, err := svc.QCMiniTable(RunScope("run-1"), alColumn, 2, 1)
	require.NoError(t, err)
	require.Len(t, page2.MiniTable, 1)
	assert.InDelta(t, 4.6, page2.MiniTable[0].Value, 1e-9)

	// 超出范围的页返回空行集
	page3, err := svc.QCMiniTable(RunScope("run-1"), alColumn, 9, 10)
	require.NoError(t, err)
	assert.Empty(t, page3.MiniTable)
	assert.Equal(t, 2, page3.TotalItems)
}

func TestHiddenRunExcludedFromDateRange(t *testing.T) {
	svc, tdb := newReportService(t)
	now := time.Now()
	seedMajorRun(t, tdb, "run-active", now, false)

	hidden := models.Run{
		ID: "run-hidden", Filename: "hidden.csv", Path: "/tmp/hidden.csv",
		UploadedAt: now, InstrumentType: meta.InstrumentMajor, Hidden: true,
	}
	require.NoError(t, tdb.DB.Create(&hidden).Error)
	createControlRow(t, tdb, "run-hidden", "QC MES 5 ppm", meta.CategoryCalibrationCheck,
		now, map[string]float64{alColumn: 100})

	scope := DateScope(now.AddDate(0, 0, -1), now)
	result, err := svc.QCTableByDates(scope)
	require.NoError(t, err)

	al := findRow(result.TableData, alColumn)
	require.NotNil(t, al)
	require.NotNil(t, al.ValueAvg)
	assert.InDelta(t, 4.55, *al.ValueAvg, 1e-9)
}

func TestElementsByDates(t *testing.T) {
	svc, tdb := newReportService(t)
	now := time.Now()
	seedMajorRun(t, tdb, "run-1", now, false)

	elements, err := svc.ElementsByDates(DateScope(now.AddDate(0, 0, -1), now))
	require.NoError(t, err)
	assert.Equal(t, schema.Derive().Major.Analytes, elements)

	empty, err := svc.ElementsByDates(DateScope(now.AddDate(0, 0, -10), now.AddDate(0, 0, -5)))
	require.NoError(t, err)
	assert.Empty(t, empty)
}
