package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"hrdoc-go/internal/config"
	"hrdoc-go/internal/logger"
	"hrdoc-go/internal/parser"
	"hrdoc-go/internal/processor"
	storage2 "hrdoc-go/internal/storage"
	"hrdoc-go/internal/storage/models"
	"hrdoc-go/internal/types"
)

// ErrShortlistRebuildInProgress 另一个请求正在重建同一岗位的排名
var ErrShortlistRebuildInProgress = errors.New("shortlist rebuild already in progress")

// 重建锁与缓存参数
const (
	shortlistLockExpiry = 5 * time.Minute
	shortlistCacheTTL   = 30 * time.Minute
)

// ShortlistHandler 候选人排名入口。
// 排名不持久化，重建时从已评分提交重算，结果缓存在Redis ZSET中分页读取。
type ShortlistHandler struct {
	cfg          *config.Config
	storage      *storage2.Storage
	jobProcessor *processor.JobProfileProcessor
}

// NewShortlistHandler 创建一个新的排名处理器
func NewShortlistHandler(cfg *config.Config, storage *storage2.Storage, jobProcessor *processor.JobProfileProcessor) *ShortlistHandler {
	return &ShortlistHandler{
		cfg:          cfg,
		storage:      storage,
		jobProcessor: jobProcessor,
	}
}

// ShortlistEntry 排名结果中的单个候选人
type ShortlistEntry struct {
	SubmissionUUID string         `json:"submission_uuid"`
	Rank           int            `json:"rank"`
	FitScore       types.FitScore `json:"fit_score"`
	Shortlisted    bool           `json:"shortlisted"`
}

// ShortlistRebuildResponse 重建排名的响应
type ShortlistRebuildResponse struct {
	JobID            string           `json:"job_id"`
	TotalCandidates  int              `json:"total_candidates"`
	ShortlistedCount int              `json:"shortlisted_count"`
	Shortlist        []ShortlistEntry `json:"shortlist"`
}

// ShortlistPageResponse 分页查询排名的响应
type ShortlistPageResponse struct {
	JobID      string           `json:"job_id"`
	Entries    []ShortlistEntry `json:"entries"`
	TotalCount int64            `json:"total_count"`
	NextCursor int64            `json:"next_cursor"` // -1 表示没有更多
}

// HandleRebuildShortlist 重算某岗位的完整排名并刷新缓存。
// 用分布式锁防止并发重建，未抢到锁时返回 ErrShortlistRebuildInProgress。
func (h *ShortlistHandler) HandleRebuildShortlist(ctx context.Context, jobID string) (*ShortlistRebuildResponse, error) {
	if jobID == "" {
		return nil, fmt.Errorf("job_id 不能为空")
	}

	lockKey := fmt.Sprintf("lock:shortlist:%s", jobID)
	lockValue, err := h.storage.Redis.AcquireLock(ctx, lockKey, shortlistLockExpiry)
	if err != nil {
		return nil, fmt.Errorf("获取重建锁失败: %w", err)
	}
	if lockValue == "" {
		return nil, ErrShortlistRebuildInProgress
	}
	defer func() {
		if _, err := h.storage.Redis.ReleaseLock(ctx, lockKey, lockValue); err != nil {
			logger.Warn().Err(err).Str("lock_key", lockKey).Msg("释放重建锁失败")
		}
	}()

	return h.rebuildShortlist(ctx, jobID)
}

// rebuildShortlist 执行实际的重算，调用方负责加锁
func (h *ShortlistHandler) rebuildShortlist(ctx context.Context, jobID string) (*ShortlistRebuildResponse, error) {
	profile, err := h.jobProcessor.GetJobProfile(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("获取岗位画像失败: %w", err)
	}

	submissions, err := h.storage.MySQL.ListScoredSubmissionsByJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("查询已评分提交失败: %w", err)
	}

	candidates := buildCandidatePool(submissions)
	ranked := parser.RankCandidates(candidates, profile, h.cfg.Extraction.ShortlistThreshold)
	display := parser.Shortlist(ranked, h.cfg.Extraction.MaxShortlistCandidates)

	// 缓存完整排名而非截断后的展示列表，分页查询要能覆盖全量
	if err := h.storage.Redis.CacheShortlist(ctx, jobID, ranked, shortlistCacheTTL); err != nil {
		logger.Warn().Err(err).Str("job_id", jobID).Msg("缓存排名失败，分页查询将回退到重算")
	}

	resp := &ShortlistRebuildResponse{
		JobID:           jobID,
		TotalCandidates: len(ranked),
		Shortlist:       make([]ShortlistEntry, 0, len(display)),
	}
	for _, rc := range ranked {
		if rc.Shortlisted {
			resp.ShortlistedCount++
		}
	}
	for _, rc := range display {
		resp.Shortlist = append(resp.Shortlist, ShortlistEntry{
			SubmissionUUID: rc.CandidateRef,
			Rank:           rc.Rank,
			FitScore:       rc.FitScore,
			Shortlisted:    rc.Shortlisted,
		})
	}
	return resp, nil
}

// buildCandidatePool 从已完成的提交还原排名输入。
// 只有简历类提交参与排名，字段JSON损坏的提交跳过而不是中断整个重建。
func buildCandidatePool(submissions []models.DocumentSubmission) []types.Candidate {
	candidates := make([]types.Candidate, 0, len(submissions))
	for _, s := range submissions {
		if s.DetectedKind != string(types.KindResume) || len(s.ExtractedFieldsJSON) == 0 {
			continue
		}
		var result types.FieldExtractionResult
		if err := json.Unmarshal(s.ExtractedFieldsJSON, &result); err != nil {
			logger.Warn().
				Err(err).
				Str("submission_uuid", s.SubmissionUUID).
				Msg("解析提交的字段JSON失败，跳过该候选人")
			continue
		}
		if result.Resume == nil {
			continue
		}
		candidates = append(candidates, types.Candidate{
			CandidateRef:    s.SubmissionUUID,
			Entities:        result.Resume,
			SubmissionOrder: s.SubmissionOrder,
		})
	}
	return candidates
}

// HandleGetShortlist 分页读取缓存的排名。
// 缓存为空且从头读取时先触发一次重建，保证冷启动也能返回结果。
func (h *ShortlistHandler) HandleGetShortlist(ctx context.Context, jobID string, cursor, size int64) (*ShortlistPageResponse, error) {
	if jobID == "" {
		return nil, fmt.Errorf("job_id 不能为空")
	}
	if size <= 0 {
		size = 10
	}
	if cursor < 0 {
		cursor = 0
	}

	refs, totalCount, err := h.storage.Redis.GetCachedShortlist(ctx, jobID, cursor, size)
	if err != nil {
		return nil, fmt.Errorf("读取排名缓存失败: %w", err)
	}

	if totalCount == 0 && cursor == 0 {
		if _, err := h.HandleRebuildShortlist(ctx, jobID); err != nil {
			return nil, err
		}
		refs, totalCount, err = h.storage.Redis.GetCachedShortlist(ctx, jobID, cursor, size)
		if err != nil {
			return nil, fmt.Errorf("读取排名缓存失败: %w", err)
		}
	}

	scores, err := h.storage.MySQL.GetFitScoresBySubmissionUUIDs(ctx, jobID, refs)
	if err != nil {
		return nil, fmt.Errorf("查询评分明细失败: %w", err)
	}

	resp := &ShortlistPageResponse{
		JobID:      jobID,
		Entries:    make([]ShortlistEntry, 0, len(refs)),
		TotalCount: totalCount,
		NextCursor: -1,
	}
	for i, ref := range refs {
		entry := ShortlistEntry{
			SubmissionUUID: ref,
			Rank:           int(cursor) + i + 1,
		}
		if score, ok := scores[ref]; ok {
			entry.FitScore = score.ToFitScore()
			entry.Shortlisted = score.Shortlisted
		}
		resp.Entries = append(resp.Entries, entry)
	}
	if cursor+int64(len(refs)) < totalCount {
		resp.NextCursor = cursor + int64(len(refs))
	}
	return resp, nil
}
