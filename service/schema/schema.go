/*
 * @module service/schema/schema
 * @description 规范表头模式推导：归一化原始表头模板，筛选分析物列并派生 _Corrected 伴生列
 * @architecture 分层架构 - 领域模型层
 * @documentReference ai_docs/ingestion_pipeline.md
 * @stateFlow 进程启动时由模板推导一次，之后不可变，显式传入下游组件
 * @rules 伴生列严格按分析物列 1:1 派生且保持原列序，任何存储结构创建之前必须先完成推导
 * @dependencies labqc-service/service/meta
 * @refs service/ingest, service/correction, service/qcreport
 */

package schema

import (
	"regexp"
	"strings"

	"labqc-service/service/meta"
)

// CorrectedSuffix 校正值伴生列后缀
const CorrectedSuffix = "_Corrected"

var (
	collapseSpace = regexp.MustCompile(`\s+`)
	// analytePattern 分析物浓度列的单位标记
	analytePattern = regexp.MustCompile(`(?i)(nm\s*ppm|Conc\.)`)
)

// Normalize 归一化单个表头：去首尾空白、去包围引号、压缩内部空白。
// 变换是全量且确定的，没有失败分支。
func Normalize(header string) string {
	h := strings.TrimSpace(header)
	h = strings.TrimPrefix(h, `"`)
	h = strings.TrimSuffix(h, `"`)
	h = collapseSpace.ReplaceAllString(h, " ")
	return strings.TrimSpace(h)
}

// NormalizeAll 归一化一组表头
func NormalizeAll(headers []string) []string {
	out := make([]string, len(headers))
	for i, h := range headers {
		out[i] = Normalize(h)
	}
	return out
}

// isNoise 判断列是否为内标/比值类噪声列（CPS、ISTD、C/S）
func isNoise(header string) bool {
	upper := strings.ToUpper(header)
	return strings.Contains(upper, "CPS") ||
		strings.Contains(upper, "ISTD") ||
		strings.Contains(upper, "C/S")
}

// IsAnalyteColumn 判断列是否为分析物浓度列
func IsAnalyteColumn(header string) bool {
	return analytePattern.MatchString(header) && !isNoise(header)
}

// Corrected 返回分析物列对应的伴生列名
func Corrected(header string) string {
	return header + CorrectedSuffix
}

// TypeSchema 单一仪器类型的规范模式
type TypeSchema struct {
	Type meta.InstrumentType
	// Headers 归一化后的全部规范表头，作为表头校验集合
	Headers []string
	// Analytes 分析物浓度列（已剔除噪声列），顺序与原始模板一致
	Analytes []string
	// NonElement 非元素列
	NonElement []string
	// Companions 与 Analytes 按序 1:1 对应的 _Corrected 伴生列
	Companions []string

	headerSet  map[string]struct{}
	analyteSet map[string]struct{}
	nonElemSet map[string]struct{}
}

// HasHeader 表头是否属于该类型的规范集合
func (s *TypeSchema) HasHeader(h string) bool {
	_, ok := s.headerSet[h]
	return ok
}

// IsAnalyte 列是否为该类型的分析物列
func (s *TypeSchema) IsAnalyte(h string) bool {
	_, ok := s.analyteSet[h]
	return ok
}

// IsNonElement 列是否为该类型的非元素列
func (s *TypeSchema) IsNonElement(h string) bool {
	_, ok := s.nonElemSet[h]
	return ok
}

// nonElementOf 按类型区分非元素列：主量文件剔除含 nm 的列，微量文件剔除含方括号的列
func nonElementOf(t meta.InstrumentType, header string) bool {
	if t == meta.InstrumentMajor {
		return !strings.Contains(strings.ToLower(header), "nm")
	}
	return !strings.Contains(header, "[")
}

// deriveType 从原始模板推导单一类型的规范模式
func deriveType(t meta.InstrumentType, raw []string) *TypeSchema {
	s := &TypeSchema{
		Type:       t,
		headerSet:  make(map[string]struct{}),
		analyteSet: make(map[string]struct{}),
		nonElemSet: make(map[string]struct{}),
	}
	for _, h := range NormalizeAll(raw) {
		s.Headers = append(s.Headers, h)
		s.headerSet[h] = struct{}{}
		if IsAnalyteColumn(h) {
			s.Analytes = append(s.Analytes, h)
			s.analyteSet[h] = struct{}{}
			s.Companions = append(s.Companions, Corrected(h))
		}
		if nonElementOf(t, h) {
			s.NonElement = append(s.NonElement, h)
			s.nonElemSet[h] = struct{}{}
		}
	}
	return s
}

// Set 两种仪器类型的完整规范模式，进程启动时推导一次
type Set struct {
	Major *TypeSchema
	Trace *TypeSchema
}

// Derive 从固定模板推导规范模式。幂等：任何存储结构都以其输出为布局依据。
func Derive() *Set {
	return &Set{
		Major: deriveType(meta.InstrumentMajor, meta.MajorRawHeaders),
		Trace: deriveType(meta.InstrumentTrace, meta.TraceRawHeaders),
	}
}

// ForType 返回指定仪器类型的模式
func (s *Set) ForType(t meta.InstrumentType) *TypeSchema {
	if t == meta.InstrumentMajor {
		return s.Major
	}
	return s.Trace
}

// AllAnalytes 两种类型分析物列的并集（去重，保持顺序）
func (s *Set) AllAnalytes() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, h := range append(append([]string{}, s.Major.Analytes...), s.Trace.Analytes...) {
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, h)
	}
	return out
}

// AllCompanions 两种类型伴生列的并集，参考标样表按此布局铺列
func (s *Set) AllCompanions() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, h := range append(append([]string{}, s.Trace.Companions...), s.Major.Companions...) {
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, h)
	}
	return out
}
