package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"hrdoc-go/internal/config"
	"hrdoc-go/internal/parser"
	"hrdoc-go/internal/processor"
	"hrdoc-go/internal/types"

	"github.com/spf13/pflag"
)

// docprocessor 对本地目录里的文档执行离线抽取。
// 不依赖MySQL/Redis/MinIO，适合在没有完整服务栈的环境下验证模式库。
//
// 用法:
//
//	docprocessor -d ./docs -j job_profile.json -a -o results.json
func main() {
	var (
		configPath string
		dirPath    string
		jobPath    string
		outPath    string
		anonymize  bool
		workers    int
	)
	pflag.StringVarP(&configPath, "config", "c", "", "配置文件路径，省略时使用内置默认值")
	pflag.StringVarP(&dirPath, "dir", "d", "", "待处理文档目录 (必填)")
	pflag.StringVarP(&jobPath, "job", "j", "", "岗位画像JSON文件，提供时对简历计算匹配分并输出排名")
	pflag.StringVarP(&outPath, "out", "o", "", "结果输出文件，省略时写到标准输出")
	pflag.BoolVarP(&anonymize, "anonymize", "a", false, "在结果中附带匿名化后的简历实体")
	pflag.IntVarP(&workers, "workers", "w", 4, "并发处理的工作协程数")
	pflag.Parse()

	if dirPath == "" {
		pflag.Usage()
		log.Fatal("必须通过 -d 指定文档目录")
	}

	var cfg *config.Config
	if configPath == "" {
		cfg = config.DefaultConfig()
	} else {
		var err error
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			log.Fatalf("加载配置失败: %v", err)
		}
	}

	ctx := context.Background()

	// Storage传nil：离线模式只用文本提取与抽取管线
	proc, err := processor.CreateProcessorFromConfig(ctx, cfg, nil)
	if err != nil {
		log.Fatalf("初始化文档处理器失败: %v", err)
	}

	var jobProfile *types.JobProfile
	if jobPath != "" {
		data, err := os.ReadFile(jobPath)
		if err != nil {
			log.Fatalf("读取岗位画像文件失败: %v", err)
		}
		jobProfile = &types.JobProfile{}
		if err := json.Unmarshal(data, jobProfile); err != nil {
			log.Fatalf("解析岗位画像JSON失败: %v", err)
		}
	}

	docs, err := acquireDocuments(ctx, proc, dirPath)
	if err != nil {
		log.Fatalf("读取文档目录失败: %v", err)
	}
	if len(docs) == 0 {
		log.Fatalf("目录 %s 下没有可处理的文档", dirPath)
	}
	log.Printf("共发现 %d 个文档，开始处理...", len(docs))

	results := proc.ProcessBatch(ctx, docs, processor.ProcessOptions{
		Anonymize: anonymize,
		Job:       jobProfile,
		Workers:   workers,
	})

	output := buildOutput(results, jobProfile, cfg)

	encoded, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		log.Fatalf("序列化结果失败: %v", err)
	}
	if outPath == "" {
		fmt.Println(string(encoded))
	} else {
		if err := os.WriteFile(outPath, encoded, 0644); err != nil {
			log.Fatalf("写出结果文件失败: %v", err)
		}
		log.Printf("结果已写入 %s", outPath)
	}
}

// 支持的文档扩展名，其余文件跳过
var supportedExts = map[string]bool{
	".pdf":  true,
	".txt":  true,
	".docx": true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// acquireDocuments 遍历目录提取文本。
// 单个文件提取失败只记录在 FailureReason 中，不中断整个批次。
func acquireDocuments(ctx context.Context, proc *processor.DocumentProcessor, dirPath string) ([]types.RawDocument, error) {
	var docs []types.RawDocument
	err := filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if !supportedExts[ext] {
			return nil
		}

		doc := types.RawDocument{SourcePath: path}
		if ext == ".txt" {
			data, readErr := os.ReadFile(path)
			if readErr != nil {
				doc.FailureReason = readErr.Error()
			} else {
				doc.RawText = string(data)
			}
		} else {
			text, _, extractErr := proc.TextExtractor.ExtractFromFile(ctx, path)
			if extractErr != nil {
				doc.FailureReason = extractErr.Error()
			} else {
				doc.RawText = text
			}
		}
		docs = append(docs, doc)
		return nil
	})
	return docs, err
}

// batchOutput 批处理的完整输出
type batchOutput struct {
	Results []*types.DocumentResult `json:"results"`
	Ranked  []types.RankedCandidate `json:"ranked,omitempty"`
}

// buildOutput 组装输出，岗位画像存在时附带候选人排名
func buildOutput(results []*types.DocumentResult, jobProfile *types.JobProfile, cfg *config.Config) *batchOutput {
	output := &batchOutput{Results: results}
	if jobProfile == nil {
		return output
	}

	var candidates []types.Candidate
	for i, r := range results {
		if r.Fields == nil || r.Fields.Resume == nil {
			continue
		}
		candidates = append(candidates, types.Candidate{
			CandidateRef:    r.SourcePath,
			Entities:        r.Fields.Resume,
			SubmissionOrder: i + 1,
		})
	}
	ranked := parser.RankCandidates(candidates, jobProfile, cfg.Extraction.ShortlistThreshold)
	output.Ranked = parser.Shortlist(ranked, cfg.Extraction.MaxShortlistCandidates)
	return output
}
