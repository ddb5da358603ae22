package processor

import (
	"context"
	"path/filepath"
	"sync"

	"hrdoc-go/internal/parser"
	"hrdoc-go/internal/types"
)

// ProcessOptions 单文档/批量处理的可选开关
type ProcessOptions struct {
	// Anonymize 为true时在结果中附带匿名化后的简历实体
	Anonymize bool
	// Job 非空时对简历文档计算岗位匹配分
	Job *types.JobProfile
	// Workers 批量处理的并发度，<=0 时取默认值
	Workers int
}

const defaultBatchWorkers = 4

// ProcessDocument 对单个已获取文本的文档执行完整抽取管线。
// 失败记录在结果的 FailureReason 中而不是返回错误，批量调用方不因单个文档中断。
func (dp *DocumentProcessor) ProcessDocument(ctx context.Context, doc types.RawDocument, opts ProcessOptions) *types.DocumentResult {
	result := &types.DocumentResult{
		SourcePath: doc.SourcePath,
		Kind:       doc.Kind,
	}

	if doc.Failed() {
		result.FailureReason = doc.FailureReason
		return result
	}

	analysis, err := dp.analyzeDocument(filepath.Base(doc.SourcePath), doc.RawText, string(doc.Kind))
	if err != nil {
		result.FailureReason = err.Error()
		return result
	}

	result.Kind = analysis.kind
	result.Fields = analysis.result
	result.Validation = analysis.report
	if opts.Anonymize {
		result.Anonymized = analysis.anonymized
	}

	if opts.Job != nil && analysis.result.Resume != nil {
		fit := parser.ScoreFit(analysis.result.Resume, opts.Job)
		result.FitScore = &fit
	}

	return result
}

// ProcessBatch 并行处理一批文档，结果顺序与输入顺序一致。
func (dp *DocumentProcessor) ProcessBatch(ctx context.Context, docs []types.RawDocument, opts ProcessOptions) []*types.DocumentResult {
	workers := opts.Workers
	if workers <= 0 {
		workers = defaultBatchWorkers
	}

	results := make([]*types.DocumentResult, len(docs))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i := range docs {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()
			results[idx] = dp.ProcessDocument(ctx, docs[idx], opts)
		}(i)
	}
	wg.Wait()

	// 取消时补齐未处理的槽位，调用方拿到的切片不含nil
	for i := range results {
		if results[i] == nil {
			results[i] = &types.DocumentResult{
				SourcePath:    docs[i].SourcePath,
				Kind:          docs[i].Kind,
				FailureReason: "processing canceled",
			}
		}
	}
	return results
}
