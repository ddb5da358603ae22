package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"hrdoc-go/internal/types"
)

// Candidate 候选人主表
type Candidate struct {
	CandidateID     string          `gorm:"type:char(36);primaryKey"`
	PrimaryName     string          `gorm:"type:varchar(255)"`
	PrimaryPhone    string          `gorm:"type:varchar(50);uniqueIndex:idx_candidates_primary_phone_unique"`
	PrimaryEmail    string          `gorm:"type:varchar(255);uniqueIndex:idx_candidates_primary_email_unique"`
	BirthDate       *datatypes.Date `gorm:"type:date"`
	CurrentLocation string          `gorm:"type:varchar(255)"`
	ProfileSummary  string          `gorm:"type:text"`
	CreatedAt       time.Time       `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt       time.Time       `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`
}

func (Candidate) TableName() string {
	return "candidates"
}

// Job 岗位信息表，画像列可还原为排序评分用的 types.JobProfile
type Job struct {
	JobID              string         `gorm:"type:char(36);primaryKey"`
	JobTitle           string         `gorm:"type:varchar(255);not null"`
	Department         string         `gorm:"type:varchar(255)"`
	Location           string         `gorm:"type:varchar(255)"`
	JobDescriptionText string         `gorm:"type:text;not null"`
	RequiredSkillsJSON datatypes.JSON `gorm:"type:json"`
	KeywordsJSON       datatypes.JSON `gorm:"type:json"`
	RequiredDegree     string         `gorm:"type:varchar(100)"`
	RequiredField      string         `gorm:"type:varchar(255)"`
	Status             string         `gorm:"type:varchar(50);default:'ACTIVE';index:idx_jobs_status"`
	CreatedByUserID    string         `gorm:"type:char(36)"`
	CreatedAt          time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt          time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`
}

func (Job) TableName() string {
	return "jobs"
}

// ToProfile 把数据库行展开为评分器使用的岗位画像
func (j *Job) ToProfile() (*types.JobProfile, error) {
	profile := &types.JobProfile{
		JobID:          j.JobID,
		Title:          j.JobTitle,
		RequiredDegree: j.RequiredDegree,
		RequiredField:  j.RequiredField,
	}
	if len(j.RequiredSkillsJSON) > 0 {
		if err := json.Unmarshal(j.RequiredSkillsJSON, &profile.RequiredSkills); err != nil {
			return nil, err
		}
	}
	if len(j.KeywordsJSON) > 0 {
		if err := json.Unmarshal(j.KeywordsJSON, &profile.Keywords); err != nil {
			return nil, err
		}
	}
	return profile, nil
}

// DocumentSubmission 文档提交/快照表，一行对应一次上传
type DocumentSubmission struct {
	SubmissionUUID       string         `gorm:"type:char(36);primaryKey"`
	CandidateID          *string        `gorm:"type:char(36);index:idx_ds_candidate_id"`
	SubmissionTimestamp  time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);index:idx_ds_submission_timestamp"`
	SourceChannel        string         `gorm:"type:varchar(100)"`
	TargetJobID          *string        `gorm:"type:char(36);index:idx_ds_target_job_id"`
	DeclaredKind         string         `gorm:"type:varchar(50)"`
	DetectedKind         string         `gorm:"type:varchar(50);index:idx_ds_detected_kind"`
	ClassifierConfidence *float64       `gorm:"type:float"`
	OriginalFilename     string         `gorm:"type:varchar(255)"`
	OriginalFilePathOSS  string         `gorm:"type:varchar(1024)"`
	ResultPathOSS        string         `gorm:"type:varchar(1024)"`
	RawTextMD5           string         `gorm:"type:char(32);index:idx_ds_raw_text_md5"`
	ExtractedFieldsJSON  datatypes.JSON `gorm:"type:json"`
	AnonymizedJSON       datatypes.JSON `gorm:"type:json"`
	ConfidenceScore      *float64       `gorm:"type:float"`
	ProcessingStatus     string         `gorm:"type:varchar(50);default:'SUBMITTED_FOR_PROCESSING';index:idx_ds_processing_status"`
	ExtractorVersion     string         `gorm:"type:varchar(50)"`
	SubmissionOrder      int            `gorm:"type:int;not null;default:0"`
	CreatedAt            time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt            time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`

	Candidate *Candidate `gorm:"foreignKey:CandidateID;references:CandidateID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
	Job       *Job       `gorm:"foreignKey:TargetJobID;references:JobID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}

func (DocumentSubmission) TableName() string {
	return "document_submissions"
}

// DocumentFieldRecord 单字段抽取记录表，保留命中方式与原始匹配供审计
type DocumentFieldRecord struct {
	FieldDBID      uint64    `gorm:"primaryKey;autoIncrement"`
	SubmissionUUID string    `gorm:"type:char(36);not null;index:idx_dfr_submission_uuid;uniqueIndex:idx_dfr_submission_field,priority:1"`
	FieldName      string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_dfr_submission_field,priority:2"`
	FieldValue     string    `gorm:"type:text"`
	NumericValue   *float64  `gorm:"type:double"`
	Method         string    `gorm:"type:varchar(50);not null"`
	Resolved       bool      `gorm:"not null;default:false"`
	RawMatchesText string    `gorm:"type:text"`
	CreatedAt      time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`

	DocumentSubmission *DocumentSubmission `gorm:"foreignKey:SubmissionUUID;references:SubmissionUUID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (DocumentFieldRecord) TableName() string {
	return "document_field_records"
}

// JobFitScore 岗位-提交匹配评分表，分维度留档
type JobFitScore struct {
	ScoreID             uint64     `gorm:"primaryKey;autoIncrement"`
	SubmissionUUID      string     `gorm:"type:char(36);not null;index:idx_jfs_submission_uuid;uniqueIndex:idx_jfs_submission_job_unique,priority:1"`
	JobID               string     `gorm:"type:char(36);not null;index:idx_jfs_job_id_total_fit,priority:1;uniqueIndex:idx_jfs_submission_job_unique,priority:2"`
	SkillsMatch         float64    `gorm:"type:float;not null"`
	ExperienceRelevance float64    `gorm:"type:float;not null"`
	EducationMatch      float64    `gorm:"type:float;not null"`
	TenureStability     float64    `gorm:"type:float;not null"`
	GrowthTrajectory    float64    `gorm:"type:float;not null"`
	TotalFit            float64    `gorm:"type:float;not null;index:idx_jfs_job_id_total_fit,priority:2"`
	Shortlisted         bool       `gorm:"not null;default:false;index:idx_jfs_shortlisted"`
	ScoredAt            *time.Time `gorm:"type:datetime(6)"`
	CreatedAt           time.Time  `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt           time.Time  `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`

	DocumentSubmission *DocumentSubmission `gorm:"foreignKey:SubmissionUUID;references:SubmissionUUID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Job                *Job                `gorm:"foreignKey:JobID;references:JobID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (JobFitScore) TableName() string {
	return "job_fit_scores"
}

// ToFitScore 还原为排序器使用的分数结构
func (s *JobFitScore) ToFitScore() types.FitScore {
	return types.FitScore{
		SkillsMatch:         s.SkillsMatch,
		ExperienceRelevance: s.ExperienceRelevance,
		EducationMatch:      s.EducationMatch,
		TenureStability:     s.TenureStability,
		GrowthTrajectory:    s.GrowthTrajectory,
		TotalFit:            s.TotalFit,
	}
}

// StringToJSON Helper function to convert string to datatypes.JSON
func StringToJSON(s string) datatypes.JSON {
	return datatypes.JSON(s)
}

// MapToJSON Helper function to convert map[string]interface{} to datatypes.JSON
func MapToJSON(m map[string]interface{}) (datatypes.JSON, error) {
	bytes, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return bytes, nil
}

// MarshalToJSON 通用结构体转 datatypes.JSON
func MarshalToJSON(v interface{}) (datatypes.JSON, error) {
	bytes, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return bytes, nil
}
