/*
 * @module service/runs/bundle
 * @description 批次下载打包：原始文件、全部修正值、合格/不合格元素拆分三份
 *              派生 CSV，以及可选伴随文档，合并为一个 ZIP
 * @architecture 分层架构 - 领域服务层
 * @documentReference ai_docs/download_bundle.md
 * @stateFlow 只读查询，打包在内存中完成
 * @rules 合格判定以校准核查均值落入目标值 ±10% 区间为准；
 *        质控行的原始分析值在派生 CSV 中并入修正列呈现
 * @dependencies archive/zip, labqc-service/service/models
 * @refs api/controllers/run_controller.go
 */

package runs

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"labqc-service/service/ingest"
	"labqc-service/service/meta"
	"labqc-service/service/models"
	"labqc-service/service/schema"
)

// Bundle 打包结果
type Bundle struct {
	Filename string
	Data     []byte
}

const bundleTimeLayout = "02-01-2006 15:04:05"

type bundleRow struct {
	label     string
	timestamp string
	values    map[string]string
}

// Bundle 构建批次的下载包
func (s *RunService) Bundle(runID string) (*Bundle, error) {
	var run models.Run
	if err := s.db.First(&run, "id = ?", runID).Error; err != nil {
		return nil, fmt.Errorf("批次不存在: %w", err)
	}
	ts := s.set.ForType(run.InstrumentType)
	target := meta.CertifiedTarget[run.InstrumentType]

	qcRows, averages, err := s.loadCheckRows(run.ID, ts, meta.CalibrationCheckLabel[run.InstrumentType])
	if err != nil {
		return nil, err
	}
	sampleRows, err := s.loadSampleRows(run.ID, run.InstrumentType)
	if err != nil {
		return nil, err
	}

	// 合格判定：均值落入目标值 ±10% 区间
	var passed, failed []string
	for _, analyte := range ts.Analytes {
		avg, ok := averages[analyte]
		if !ok {
			continue
		}
		if avg >= target*0.9 && avg <= target*1.1 {
			passed = append(passed, analyte)
		} else {
			failed = append(failed, analyte)
		}
	}

	rows := append(qcRows, sampleRows...)
	allCSV := renderBundleCSV(rows, ts.Analytes)
	passedCSV := renderBundleCSV(rows, passed)
	failedCSV := renderBundleCSV(rows, failed)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	raw, err := os.ReadFile(run.Path)
	if err != nil {
		return nil, fmt.Errorf("读取原始文件失败: %w", err)
	}
	ext := filepath.Ext(run.Filename)
	rawName := strings.TrimSuffix(run.Filename, ext) + "_RAW" + ext
	type entry struct {
		name string
		data []byte
	}
	entries := []entry{
		{rawName, raw},
		{"All_Elements_Corrected.csv", allCSV},
		{"Passed_Elements.csv", passedCSV},
		{"Failed_Elements.csv", failedCSV},
	}
	if run.CompanionPath != nil {
		pdf, err := os.ReadFile(*run.CompanionPath)
		if err == nil {
			entries = append(entries, entry{filepath.Base(*run.CompanionName), pdf})
		}
	}

	for _, e := range entries {
		w, err := zw.Create(e.name)
		if err != nil {
			return nil, fmt.Errorf("写入压缩条目失败: %w", err)
		}
		if _, err := w.Write(e.data); err != nil {
			return nil, fmt.Errorf("写入压缩条目失败: %w", err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("关闭压缩包失败: %w", err)
	}

	return &Bundle{
		Filename: strings.TrimSuffix(run.Filename, ext) + "_bundle.zip",
		Data:     buf.Bytes(),
	}, nil
}

// loadCheckRows 读取批次的校准核查行，原始分析值记入修正列名下。
// 合格判定均值只累计精确匹配核查标签的行，其余 QC MES 行仅进入清单
func (s *RunService) loadCheckRows(runID string, ts *schema.TypeSchema, label string) ([]bundleRow, map[string]float64, error) {
	var controls []models.ControlRow
	err := s.db.Where("run_id = ? AND category = ?", runID, meta.CategoryCalibrationCheck).
		Order("acquired_at ASC").Find(&controls).Error
	if err != nil {
		return nil, nil, fmt.Errorf("查询校准核查行失败: %w", err)
	}

	sums := make(map[string]float64)
	counts := make(map[string]int)
	rows := make([]bundleRow, 0, len(controls))
	for _, control := range controls {
		var values []models.ControlValue
		err := s.db.Where("control_row_id = ?", control.ID).Find(&values).Error
		if err != nil {
			return nil, nil, fmt.Errorf("查询质控值失败: %w", err)
		}

		row := bundleRow{label: control.Label, values: make(map[string]string)}
		if control.AcquiredAt != nil {
			row.timestamp = control.AcquiredAt.Format(bundleTimeLayout)
		}
		for _, v := range values {
			if !ts.IsAnalyte(v.Name) {
				continue
			}
			row.values[schema.Corrected(v.Name)] = v.Value
			if control.Label == label && v.NumValue != nil {
				sums[v.Name] += *v.NumValue
				counts[v.Name]++
			}
		}
		rows = append(rows, row)
	}

	averages := make(map[string]float64, len(sums))
	for name, sum := range sums {
		averages[name] = sum / float64(counts[name])
	}
	return rows, averages, nil
}

// loadSampleRows 读取批次样品的修正值行
func (s *RunService) loadSampleRows(runID string, t meta.InstrumentType) ([]bundleRow, error) {
	var samples []models.Sample
	err := s.db.Model(&models.Sample{}).
		Joins("JOIN run_samples ON run_samples.sample_id = samples.id").
		Where("run_samples.run_id = ?", runID).
		Find(&samples).Error
	if err != nil {
		return nil, fmt.Errorf("查询批次样品失败: %w", err)
	}

	tsColumn := meta.TimestampColumn[t]
	rows := make([]bundleRow, 0, len(samples))
	for _, sample := range samples {
		var values []models.SampleValue
		err := s.db.Where("sample_id = ?", sample.ID).Find(&values).Error
		if err != nil {
			return nil, fmt.Errorf("查询样品值失败: %w", err)
		}

		row := bundleRow{label: sample.SolutionLabel, values: make(map[string]string)}
		for _, v := range values {
			if v.Name == tsColumn {
				if at := ingest.ParseTimestamp(v.Value); at != nil {
					row.timestamp = at.Format(bundleTimeLayout)
				} else {
					row.timestamp = v.Value
				}
				continue
			}
			if strings.HasSuffix(v.Name, schema.CorrectedSuffix) {
				row.values[v.Name] = v.Value
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func renderBundleCSV(rows []bundleRow, analytes []string) []byte {
	header := []string{ingest.SolutionLabelColumn, "Timestamp"}
	for _, analyte := range analytes {
		header = append(header, schema.Corrected(analyte))
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(header)
	for _, row := range rows {
		record := make([]string, 0, len(header))
		record = append(record, row.label, row.timestamp)
		for _, analyte := range analytes {
			record = append(record, row.values[schema.Corrected(analyte)])
		}
		_ = w.Write(record)
	}
	w.Flush()
	return buf.Bytes()
}
