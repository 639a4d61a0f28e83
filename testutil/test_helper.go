/*
 * @module testutil/test_helper
 * @description 测试工具和辅助函数：内存 sqlite 测试库、CSV 夹具构造器
 * @architecture 测试基础设施 - 提供测试通用工具和数据工厂
 * @documentReference .specify/memory/test_plan.md
 * @stateFlow 测试环境初始化 -> 测试数据创建 -> 测试执行 -> 清理资源
 * @rules 提供可重用的测试工具，确保测试环境的一致性
 * @dependencies gorm, sqlite, testify
 * @refs service/models, service/meta
 */

package testutil

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"labqc-service/service/meta"
	"labqc-service/service/models"
	"labqc-service/service/schema"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB 测试数据库配置
type TestDB struct {
	DB *gorm.DB
}

// NewTestDB 创建内存测试数据库并迁移全部模型
func NewTestDB() *TestDB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		panic(fmt.Sprintf("failed to connect test database: %v", err))
	}

	err = db.AutoMigrate(
		&models.Run{},
		&models.Sample{},
		&models.SampleValue{},
		&models.SampleExtra{},
		&models.RunSample{},
		&models.ControlRow{},
		&models.ControlValue{},
		&models.ReferenceRow{},
		&models.ReferenceValue{},
		&models.User{},
		&models.Session{},
	)
	if err != nil {
		panic(fmt.Sprintf("failed to migrate test database: %v", err))
	}

	return &TestDB{DB: db}
}

// CleanDB 清空所有表的数据
func (tdb *TestDB) CleanDB() {
	tables := []string{
		"control_values",
		"control_rows",
		"run_samples",
		"sample_values",
		"sample_extras",
		"samples",
		"runs",
		"reference_values",
		"reference_rows",
		"sessions",
		"users",
	}
	for _, table := range tables {
		tdb.DB.Exec(fmt.Sprintf("DELETE FROM %s", table))
	}
}

// SeedReference 写入参考标样种子行，值覆盖两种类型伴生列的并集
func (tdb *TestDB) SeedReference(set *schema.Set) {
	std := models.ReferenceRow{ID: 1, Label: meta.SecondaryStandardLabel}
	errRow := models.ReferenceRow{ID: 2, Label: meta.ReferenceErrorLabel}
	tdb.DB.Create(&std)
	tdb.DB.Create(&errRow)

	seed := func(t meta.InstrumentType, ts *schema.TypeSchema) {
		values := meta.ReferenceValues(t)
		for i, analyte := range ts.Analytes {
			rv, ok := values[analyte]
			if !ok {
				continue
			}
			certified, bound := rv.Certified, rv.Error
			tdb.DB.Create(&models.ReferenceValue{ReferenceRowID: 1, Name: ts.Companions[i], NumValue: &certified})
			tdb.DB.Create(&models.ReferenceValue{ReferenceRowID: 2, Name: ts.Companions[i], NumValue: &bound})
		}
	}
	seed(meta.InstrumentMajor, set.Major)
	seed(meta.InstrumentTrace, set.Trace)
}

// writeCSV 以 CSV 编码记录集
func writeCSV(records [][]string) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, record := range records {
		_ = w.Write(record)
	}
	w.Flush()
	return buf.Bytes()
}

// MajorCSV 构造主量元素导出文件。rows 以归一化列名为键，未给出的列填空。
func MajorCSV(rows []map[string]string) []byte {
	headers := schema.NormalizeAll(meta.MajorRawHeaders)
	records := [][]string{meta.MajorRawHeaders, make([]string, len(headers))}
	for _, row := range rows {
		record := make([]string, len(headers))
		for i, h := range headers {
			record[i] = row[h]
		}
		records = append(records, record)
	}
	return writeCSV(records)
}

// TraceCSV 构造微量元素导出文件，生成两行物理表头。
// rows 以合并归一化后的列名为键。
func TraceCSV(rows []map[string]string) []byte {
	var top, sub []string
	for _, h := range meta.TraceLeadingHeaders {
		top = append(top, h)
		sub = append(sub, "")
	}
	for _, base := range meta.TraceElementBases {
		for i, s := range meta.TraceSubLabels {
			if i == 0 {
				top = append(top, base)
			} else {
				top = append(top, "")
			}
			sub = append(sub, s)
		}
	}

	headers := schema.NormalizeAll(meta.TraceRawHeaders)
	records := [][]string{top, sub}
	for _, row := range rows {
		record := make([]string, len(headers))
		for i, h := range headers {
			record[i] = row[h]
		}
		records = append(records, record)
	}
	return writeCSV(records)
}

// MajorControlRows 一组覆盖全部必需质控类别的主量质控行。
// 两条校准核查行的 Al 均值为 4.55，对应校正因子 0.09。
func MajorControlRows() []map[string]string {
	return []map[string]string{
		{"Solution Label": "Blank", "Timestamp": "01-06-2026 09:00:00"},
		{"Solution Label": "BLK-1", "Timestamp": "01-06-2026 09:05:00"},
		{"Solution Label": "Standard 1", "Timestamp": "01-06-2026 09:10:00", "Al 396.152 nm ppm": "1.0"},
		{"Solution Label": "Standard 2", "Timestamp": "01-06-2026 09:15:00", "Al 396.152 nm ppm": "5.0"},
		{
			"Solution Label": "QC MES 5 ppm", "Timestamp": "01-06-2026 09:20:00",
			"Al 396.152 nm ppm": "4.5", "Fe 238.204 nm ppm": "5.0",
		},
		{
			"Solution Label": "QC MES 5 ppm", "Timestamp": "01-06-2026 09:25:00",
			"Al 396.152 nm ppm": "4.6", "Fe 238.204 nm ppm": "5.0",
		},
		{"Solution Label": "SJS-Std", "Timestamp": "01-06-2026 09:30:00", "Al 396.152 nm ppm": "8.2"},
		{"Solution Label": "Wash", "Timestamp": "01-06-2026 09:35:00"},
	}
}

// MajorSampleRows 一组样品行，MCS-001 的 Al 原始值为 4.0
func MajorSampleRows() []map[string]string {
	return []map[string]string{
		{
			"Rack:Tube": "1:1", "Solution Label": "MCS-001", "Type": "Samp",
			"Timestamp": "01-06-2026 10:00:00", "Al 396.152 nm ppm": "4.0",
			"Fe 238.204 nm ppm": "2.5", "Al 396.152 nm c/s": "120433",
		},
		{
			"Rack:Tube": "1:2", "Solution Label": "MCS-002", "Type": "Samp",
			"Timestamp": "01-06-2026 10:05:00", "Al 396.152 nm ppm": "6.1",
		},
	}
}

// ValidMajorCSV 可通过全部摄取校验的主量元素文件
func ValidMajorCSV() []byte {
	return MajorCSV(append(MajorControlRows(), MajorSampleRows()...))
}
