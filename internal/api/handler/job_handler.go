package handler

import (
	"context"
	"fmt"

	"hrdoc-go/internal/config"
	"hrdoc-go/internal/processor"
	"hrdoc-go/internal/storage/models"
	"hrdoc-go/internal/types"
	"hrdoc-go/pkg/utils"

	"github.com/gofrs/uuid/v5"
)

// JobHandler 岗位登记与查询入口
type JobHandler struct {
	cfg          *config.Config
	jobProcessor *processor.JobProfileProcessor
}

// NewJobHandler 创建一个新的岗位处理器
func NewJobHandler(cfg *config.Config, jobProcessor *processor.JobProfileProcessor) *JobHandler {
	return &JobHandler{
		cfg:          cfg,
		jobProcessor: jobProcessor,
	}
}

// JobUpsertRequest 岗位创建/更新请求体
type JobUpsertRequest struct {
	JobTitle           string   `json:"job_title"`
	Department         string   `json:"department"`
	Location           string   `json:"location"`
	JobDescriptionText string   `json:"job_description_text"`
	RequiredSkills     []string `json:"required_skills"`
	Keywords           []string `json:"keywords"`
	RequiredDegree     string   `json:"required_degree"`
	RequiredField      string   `json:"required_field"`
}

// JobUpsertResponse 岗位创建/更新响应
type JobUpsertResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// buildJobModel 将请求体展开为数据库行，画像列JSON化
func buildJobModel(jobID string, req *JobUpsertRequest) (*models.Job, error) {
	return &models.Job{
		JobID:              jobID,
		JobTitle:           req.JobTitle,
		Department:         req.Department,
		Location:           req.Location,
		JobDescriptionText: req.JobDescriptionText,
		RequiredSkillsJSON: utils.ConvertArrayToJSON(req.RequiredSkills),
		KeywordsJSON:       utils.ConvertArrayToJSON(req.Keywords),
		RequiredDegree:     req.RequiredDegree,
		RequiredField:      req.RequiredField,
	}, nil
}

// HandleCreateJob 创建新岗位，JobID由服务端生成
func (h *JobHandler) HandleCreateJob(ctx context.Context, req *JobUpsertRequest) (*JobUpsertResponse, error) {
	if req.JobTitle == "" || req.JobDescriptionText == "" {
		return nil, fmt.Errorf("岗位标题和JD文本不能为空")
	}

	uuidV7, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("生成JobID失败: %w", err)
	}

	job, err := buildJobModel(uuidV7.String(), req)
	if err != nil {
		return nil, err
	}
	if err := h.jobProcessor.UpsertJob(ctx, job, true); err != nil {
		return nil, err
	}
	return &JobUpsertResponse{JobID: job.JobID, Status: "CREATED"}, nil
}

// HandleUpdateJob 更新已有岗位，同时刷新画像缓存
func (h *JobHandler) HandleUpdateJob(ctx context.Context, jobID string, req *JobUpsertRequest) (*JobUpsertResponse, error) {
	if jobID == "" {
		return nil, fmt.Errorf("job_id 不能为空")
	}

	job, err := buildJobModel(jobID, req)
	if err != nil {
		return nil, err
	}
	if err := h.jobProcessor.UpsertJob(ctx, job, false); err != nil {
		return nil, err
	}
	return &JobUpsertResponse{JobID: jobID, Status: "UPDATED"}, nil
}

// JobDetailResponse 岗位详情响应，画像之外附带JD原文
type JobDetailResponse struct {
	Profile            *types.JobProfile `json:"profile"`
	JobDescriptionText string            `json:"job_description_text,omitempty"`
}

// HandleGetJobProfile 查询岗位画像与JD原文，优先命中Redis缓存。
// JD文本取不到时只返回画像，不视为失败。
func (h *JobHandler) HandleGetJobProfile(ctx context.Context, jobID string) (*JobDetailResponse, error) {
	profile, err := h.jobProcessor.GetJobProfile(ctx, jobID)
	if err != nil {
		return nil, err
	}
	jdText, err := h.jobProcessor.GetJobDescriptionText(ctx, jobID)
	if err != nil {
		jdText = ""
	}
	return buildJobDetailResponse(profile, jdText), nil
}

// buildJobDetailResponse 组装岗位详情响应
func buildJobDetailResponse(profile *types.JobProfile, jdText string) *JobDetailResponse {
	return &JobDetailResponse{
		Profile:            profile,
		JobDescriptionText: jdText,
	}
}
