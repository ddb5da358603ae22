package types

// DocumentKind 表示文档类型
type DocumentKind string

const (
	// KindResume 简历文档
	KindResume DocumentKind = "resume"
	// KindPayslip 工资单文档
	KindPayslip DocumentKind = "payslip"
	// KindExperienceLetter 离职/工作证明信
	KindExperienceLetter DocumentKind = "experience_letter"
	// KindCertificate 学历/课程证书
	KindCertificate DocumentKind = "certificate"
)

// AllKinds 返回引擎支持的全部文档类型
func AllKinds() []DocumentKind {
	return []DocumentKind{KindResume, KindPayslip, KindExperienceLetter, KindCertificate}
}

// Valid 判断文档类型是否受支持
func (k DocumentKind) Valid() bool {
	switch k {
	case KindResume, KindPayslip, KindExperienceLetter, KindCertificate:
		return true
	}
	return false
}

// ExtractionMethod 表示字段值的来源方式
type ExtractionMethod string

const (
	// MethodExplicitPattern 显式模式规则命中
	MethodExplicitPattern ExtractionMethod = "explicit_pattern"
	// MethodFallbackHeuristic 类型级兜底启发式命中
	MethodFallbackHeuristic ExtractionMethod = "fallback_heuristic"
	// MethodComputed 由其他已解析字段推导
	MethodComputed ExtractionMethod = "computed"
	// MethodUnresolved 所有规则和兜底均未命中
	MethodUnresolved ExtractionMethod = "unresolved"
)

// RawDocument 外部文本获取方的产物，生成后不可变
type RawDocument struct {
	SourcePath string       `json:"source_path"`
	Kind       DocumentKind `json:"document_kind"`
	RawText    string       `json:"raw_text,omitempty"`
	// FailureReason 非空表示文本获取失败，该文档不进入抽取管线
	FailureReason string `json:"extraction_failure,omitempty"`
}

// Failed 文本获取是否失败
func (d *RawDocument) Failed() bool {
	return d.FailureReason != ""
}

// FieldValue 单个字段的抽取结果
type FieldValue struct {
	// Value 字符串值；未解析时为空且 Resolved 为 false
	Value string `json:"value"`
	// Number 数值型字段的解析值，仅在 IsNumeric 为 true 时有意义
	Number    float64 `json:"number,omitempty"`
	IsNumeric bool    `json:"is_numeric,omitempty"`
	// RawMatches 保留全部候选命中，最可信的在前，供后续启发式替换时复用
	RawMatches []string         `json:"raw_matches,omitempty"`
	Method     ExtractionMethod `json:"extraction_method"`
	Resolved   bool             `json:"resolved"`
}

// FieldExtractionResult 字段名到抽取值的有序映射。
// 不变量：文档类型必备字段集中的每个字段键都存在（值可以未解析）。
type FieldExtractionResult struct {
	Kind DocumentKind `json:"document_kind"`
	// Order 字段的固定顺序，由模式库定义
	Order  []string               `json:"field_order"`
	Fields map[string]*FieldValue `json:"fields"`
	// Resume 仅简历文档填充的结构化实体
	Resume *ResumeEntities `json:"resume_entities,omitempty"`
	// Signals 归一化阶段产出的附加信号
	Signals NormalizeSignals `json:"normalize_signals,omitempty"`
}

// Field 按名称取字段，键不存在时返回未解析占位值
func (r *FieldExtractionResult) Field(name string) *FieldValue {
	if fv, ok := r.Fields[name]; ok {
		return fv
	}
	return &FieldValue{Method: MethodUnresolved}
}

// NumberOf 返回数值字段的值，未解析或非数值时 ok 为 false
func (r *FieldExtractionResult) NumberOf(name string) (float64, bool) {
	fv, ok := r.Fields[name]
	if !ok || !fv.Resolved || !fv.IsNumeric {
		return 0, false
	}
	return fv.Number, true
}

// NormalizeSignals 文本归一化的副产物信号
type NormalizeSignals struct {
	CurrencyDetected bool   `json:"currency_detected,omitempty"`
	CurrencySymbol   string `json:"currency_symbol,omitempty"`
}

// ResumeEntities 简历的结构化实体
type ResumeEntities struct {
	PersonalInfo   PersonalInfo      `json:"personal_info"`
	Education      []EducationEntry  `json:"education"`
	Experience     []ExperienceEntry `json:"experience"`
	Skills         SkillSet          `json:"skills"`
	Certifications []string          `json:"certifications"`
	Languages      []string          `json:"languages"`
}

// PersonalInfo 简历中的个人信息
type PersonalInfo struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
	GitHub   string `json:"github,omitempty"`
	Location string `json:"location,omitempty"`
}

// EducationEntry 教育经历条目
type EducationEntry struct {
	Institution string `json:"institution,omitempty"`
	Degree      string `json:"degree,omitempty"`
	Field       string `json:"field,omitempty"`
	Dates       string `json:"dates,omitempty"`
	GPA         string `json:"gpa,omitempty"`
}

// ExperienceEntry 工作经历条目
type ExperienceEntry struct {
	Company      string   `json:"company,omitempty"`
	Title        string   `json:"title,omitempty"`
	Dates        string   `json:"dates,omitempty"`
	Achievements []string `json:"achievements,omitempty"`
}

// SkillSet 技能集合，按类型区分
type SkillSet struct {
	Technical []string `json:"technical"`
	Soft      []string `json:"soft"`
}

// All 返回技术技能与软技能的合集
func (s SkillSet) All() []string {
	out := make([]string, 0, len(s.Technical)+len(s.Soft))
	out = append(out, s.Technical...)
	out = append(out, s.Soft...)
	return out
}

// Anomaly 校验阶段记录的异常，不中断处理
type Anomaly struct {
	// Type 机器可读的稳定标签，例如 "dates_logical_failed"
	Type        string `json:"type"`
	Description string `json:"description"`
}

// ValidationReport 校验与置信度报告。
// 置信度由同一份 FieldExtractionResult 确定性推导，不单独存储。
type ValidationReport struct {
	PerFieldValidity map[string]bool `json:"per_field_validity"`
	LogicalChecks    map[string]bool `json:"logical_checks"`
	Anomalies        []Anomaly       `json:"anomalies"`
	// ConfidenceScore 范围 [0,100]
	ConfidenceScore float64 `json:"confidence_score"`
}

// AnonymizedEntities 匿名化后的简历实体。
// PII 字段被固定脱敏标记替换；机构/公司名替换为文档内稳定的占位符。
type AnonymizedEntities struct {
	Entities ResumeEntities `json:"entities"`
	// PlaceholderCount 本文档内生成的占位符数量（机构+公司）
	PlaceholderCount int `json:"placeholder_count"`
}

// JobProfile 岗位画像，打分的输入
type JobProfile struct {
	JobID          string   `json:"job_id,omitempty"`
	Title          string   `json:"title"`
	Keywords       []string `json:"keywords,omitempty"`
	RequiredSkills []string `json:"required_skills"`
	RequiredDegree string   `json:"required_degree,omitempty"`
	RequiredField  string   `json:"required_field,omitempty"`
}

// FitScore 候选人与岗位的多维匹配分，每项范围 [0,100]。
// 对同一 (候选人, 岗位) 只计算一次，之后不可变。
type FitScore struct {
	SkillsMatch         float64 `json:"skills_match"`
	ExperienceRelevance float64 `json:"experience_relevance"`
	EducationMatch      float64 `json:"education_match"`
	TenureStability     float64 `json:"tenure_stability"`
	GrowthTrajectory    float64 `json:"growth_trajectory"`
	TotalFit            float64 `json:"total_fit"`
}

// Candidate 参与排名的候选人，SubmissionOrder 为提交顺序（稳定排序的决胜依据）
type Candidate struct {
	CandidateRef    string          `json:"candidate_ref"`
	Entities        *ResumeEntities `json:"entities"`
	SubmissionOrder int             `json:"submission_order"`
}

// RankedCandidate 排名结果。Rank 与 Shortlisted 随候选池或岗位变化重算，
// 不脱离产生它们的候选池单独持久化。
type RankedCandidate struct {
	CandidateRef string   `json:"candidate_ref"`
	FitScore     FitScore `json:"fit_score"`
	// Rank 按 total_fit 降序的 1 起始名次
	Rank int `json:"rank"`
	// Shortlisted 仅反映阈值判定，与展示截断无关
	Shortlisted bool `json:"shortlisted"`
}

// DocumentResult 单文档管线的完整产物
type DocumentResult struct {
	SourcePath string       `json:"source_path"`
	Kind       DocumentKind `json:"document_kind"`
	// FailureReason 非空表示获取失败，其余字段为空
	FailureReason string                 `json:"failure_reason,omitempty"`
	Fields        *FieldExtractionResult `json:"fields,omitempty"`
	Validation    *ValidationReport      `json:"validation,omitempty"`
	Anonymized    *AnonymizedEntities    `json:"anonymized,omitempty"`
	FitScore      *FitScore              `json:"fit_score,omitempty"`
}

// Classification 文档自动分类结果
type Classification struct {
	Kind       DocumentKind `json:"kind"`
	Confidence float64      `json:"confidence"`
}
