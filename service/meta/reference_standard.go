/*
 * @module service/meta/reference_standard
 * @description 二级标样（SJS）认证值与误差界，迁移时写入参考表，此后只读
 * @architecture 分层架构 - 元数据层
 * @documentReference ai_docs/reference_standard.md
 * @stateFlow 迁移时一次性写种子数据
 * @rules 认证值缺失或为零的分析物在容差判定中返回不适用，而非通过/失败
 * @refs service/database/seed.go, service/qcreport
 */

package meta

// 参考表固定的两行：认证值行与误差界行
const (
	ReferenceCertifiedRowID uint = 1
	ReferenceErrorRowID     uint = 2
)

// ReferenceValue 单个分析物的认证值与误差界
type ReferenceValue struct {
	Certified float64
	Error     float64
}

// MajorReferenceValues 主量元素认证值（ppm），键为归一化后的分析物列名
var MajorReferenceValues = map[string]ReferenceValue{
	"Al 396.152 nm ppm": {Certified: 8.42, Error: 0.31},
	"Ba 455.403 nm ppm": {Certified: 0.68, Error: 0.04},
	"Ca 317.933 nm ppm": {Certified: 11.6, Error: 0.42},
	"Ca 396.847 nm ppm": {Certified: 11.6, Error: 0.42},
	"Fe 238.204 nm ppm": {Certified: 9.87, Error: 0.35},
	"K 766.491 nm ppm":  {Certified: 1.48, Error: 0.09},
	"Mg 285.213 nm ppm": {Certified: 5.21, Error: 0.22},
	"Mn 257.610 nm ppm": {Certified: 0.17, Error: 0.01},
	"Na 588.995 nm ppm": {Certified: 2.36, Error: 0.12},
	"Na 589.592 nm ppm": {Certified: 2.36, Error: 0.12},
	"P 177.434 nm ppm":  {Certified: 0.12, Error: 0.01},
	"Si 251.611 nm ppm": {Certified: 24.3, Error: 0.88},
	"Sr 407.771 nm ppm": {Certified: 0.40, Error: 0.02},
	// Ti 无认证值，容差判定返回不适用
	"Ti 334.941 nm ppm": {Certified: 0, Error: 0},
	"Zn 206.200 nm ppm": {Certified: 0.11, Error: 0.01},
}

// TraceReferenceValues 微量元素认证值（ppb），键为归一化后的分析物列名
var TraceReferenceValues = map[string]ReferenceValue{
	"7 Li [He] Conc.":   {Certified: 9.4, Error: 0.5},
	"9 Be [He] Conc.":   {Certified: 1.2, Error: 0.1},
	"51 V [He] Conc.":   {Certified: 318, Error: 11},
	"52 Cr [He] Conc.":  {Certified: 287, Error: 10},
	"55 Mn [He] Conc.":  {Certified: 1320, Error: 44},
	"59 Co [He] Conc.":  {Certified: 45.3, Error: 1.6},
	"60 Ni [He] Conc.":  {Certified: 119, Error: 5},
	"63 Cu [He] Conc.":  {Certified: 128, Error: 5},
	"65 Cu [He] Conc.":  {Certified: 128, Error: 5},
	"66 Zn [He] Conc.":  {Certified: 104, Error: 4},
	"75 As [He] Conc.":  {Certified: 1.3, Error: 0.1},
	"78 Se [He] Conc.":  {Certified: 0.9, Error: 0.1},
	"107 Ag [He] Conc.": {Certified: 0.03, Error: 0.01},
	"111 Cd [He] Conc.": {Certified: 0.13, Error: 0.01},
	"114 Cd [He] Conc.": {Certified: 0.13, Error: 0.01},
	"137 Ba [He] Conc.": {Certified: 680, Error: 23},
	// Tl 无认证值
	"205 Tl [He] Conc.": {Certified: 0, Error: 0},
	"208 Pb [He] Conc.": {Certified: 11.2, Error: 0.4},
	"238 U [He] Conc.":  {Certified: 0.45, Error: 0.02},
}

// ReferenceValues 返回指定仪器类型的认证值表
func ReferenceValues(t InstrumentType) map[string]ReferenceValue {
	if t == InstrumentMajor {
		return MajorReferenceValues
	}
	return TraceReferenceValues
}
