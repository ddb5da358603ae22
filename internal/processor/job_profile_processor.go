package processor

import (
	"context"
	"fmt"
	"log"
	"os"

	"hrdoc-go/internal/storage"
	"hrdoc-go/internal/storage/models"
	"hrdoc-go/internal/types"
)

// JobProfileProcessor 负责岗位画像的登记与缓存维护。
// 画像写入MySQL，同时回填Redis，打分端读取时可直接命中缓存。
type JobProfileProcessor struct {
	storage *storage.Storage
	logger  *log.Logger
}

// JobProfileOption 定义了 JobProfileProcessor 的配置选项函数类型。
type JobProfileOption func(*JobProfileProcessor)

// WithJobProfileLogger 设置 JobProfileProcessor 使用的日志记录器。
func WithJobProfileLogger(logger *log.Logger) JobProfileOption {
	return func(p *JobProfileProcessor) {
		p.logger = logger
	}
}

// NewJobProfileProcessor 创建一个新的 JobProfileProcessor 实例。
func NewJobProfileProcessor(storageManager *storage.Storage, options ...JobProfileOption) (*JobProfileProcessor, error) {
	if storageManager == nil {
		return nil, fmt.Errorf("Storage 不能为空")
	}

	p := &JobProfileProcessor{
		storage: storageManager,
		logger:  log.New(os.Stdout, "[JobProfileProcessor] ", log.LstdFlags|log.Lshortfile),
	}
	for _, option := range options {
		option(p)
	}
	return p, nil
}

// UpsertJob 写入或更新岗位记录，并刷新Redis中的画像与JD文本缓存。
// 缓存刷新失败不阻塞主流程。
func (p *JobProfileProcessor) UpsertJob(ctx context.Context, job *models.Job, isNew bool) error {
	if job == nil || job.JobID == "" {
		return fmt.Errorf("岗位记录不完整")
	}

	db := p.storage.MySQL.DB().WithContext(ctx)
	var err error
	if isNew {
		err = p.storage.MySQL.CreateJob(db, job)
	} else {
		err = p.storage.MySQL.UpdateJob(db, job)
	}
	if err != nil {
		return fmt.Errorf("保存岗位记录失败: %w", err)
	}

	if p.storage.Redis == nil {
		return nil
	}

	profile, err := job.ToProfile()
	if err != nil {
		p.logger.Printf("岗位 %s 画像列解析失败，跳过缓存刷新: %v", job.JobID, err)
		return nil
	}
	if err := p.storage.Redis.SetJobProfile(ctx, profile); err != nil {
		p.logger.Printf("刷新岗位画像缓存失败 for JobID: %s: %v", job.JobID, err)
	}
	if job.JobDescriptionText != "" {
		if err := p.storage.Redis.SetJobDescriptionText(ctx, job.JobID, job.JobDescriptionText); err != nil {
			p.logger.Printf("刷新JD文本缓存失败 for JobID: %s: %v", job.JobID, err)
		}
	}
	return nil
}

// GetJobProfile 读取岗位画像，先查Redis缓存，未命中时回源MySQL并回填。
func (p *JobProfileProcessor) GetJobProfile(ctx context.Context, jobID string) (*types.JobProfile, error) {
	if jobID == "" {
		return nil, fmt.Errorf("jobID 不能为空")
	}

	if p.storage.Redis != nil {
		if profile, err := p.storage.Redis.GetJobProfile(ctx, jobID); err == nil && profile != nil {
			return profile, nil
		}
	}

	job, err := p.storage.MySQL.GetJobByID(p.storage.MySQL.DB().WithContext(ctx), jobID)
	if err != nil {
		return nil, fmt.Errorf("获取岗位信息失败: %w", err)
	}
	profile, err := job.ToProfile()
	if err != nil {
		return nil, fmt.Errorf("还原岗位画像失败: %w", err)
	}

	if p.storage.Redis != nil {
		if cacheErr := p.storage.Redis.SetJobProfile(ctx, profile); cacheErr != nil {
			p.logger.Printf("回填岗位画像缓存失败 for JobID: %s: %v", jobID, cacheErr)
		}
	}
	return profile, nil
}

// GetJobDescriptionText 读取岗位描述原文，先查Redis缓存，未命中时回源MySQL并回填。
func (p *JobProfileProcessor) GetJobDescriptionText(ctx context.Context, jobID string) (string, error) {
	if jobID == "" {
		return "", fmt.Errorf("jobID 不能为空")
	}

	if p.storage.Redis != nil {
		if text, err := p.storage.Redis.GetJobDescriptionText(ctx, jobID); err == nil {
			return text, nil
		}
	}

	job, err := p.storage.MySQL.GetJobByID(p.storage.MySQL.DB().WithContext(ctx), jobID)
	if err != nil {
		return "", fmt.Errorf("获取岗位信息失败: %w", err)
	}

	if p.storage.Redis != nil && job.JobDescriptionText != "" {
		if cacheErr := p.storage.Redis.SetJobDescriptionText(ctx, jobID, job.JobDescriptionText); cacheErr != nil {
			p.logger.Printf("回填JD文本缓存失败 for JobID: %s: %v", jobID, cacheErr)
		}
	}
	return job.JobDescriptionText, nil
}
