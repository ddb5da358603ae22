package processor

import (
	"context"
	"log"
	"time"

	"hrdoc-go/internal/config"
	"hrdoc-go/internal/parser"
)

// BuildTextExtractor 统一构建文本提取器的逻辑。
// 配置了Tika服务器时优先使用Tika，否则回退到本地eino PDF解析器。
func BuildTextExtractor(ctx context.Context, cfg *config.Config, loggerProvider func(prefix string) *log.Logger) (TextExtractor, error) {
	initLogger := loggerProvider("[TextExtractorInit] ")
	if cfg.Tika.Type == "tika" && cfg.Tika.ServerURL != "" {
		initLogger.Println("检测到Tika配置，正在初始化Tika文本提取器...")
		var tikaOptions []parser.TikaOption
		switch cfg.Tika.MetadataMode {
		case "full":
			tikaOptions = append(tikaOptions, parser.WithFullMetadata(true))
		case "none":
			tikaOptions = append(tikaOptions, parser.WithMinimalMetadata(false), parser.WithFullMetadata(false))
		default: // "minimal"
			tikaOptions = append(tikaOptions, parser.WithMinimalMetadata(true))
		}
		if cfg.Tika.Timeout > 0 {
			tikaOptions = append(tikaOptions, parser.WithTimeout(time.Duration(cfg.Tika.Timeout)*time.Second))
		}
		return parser.NewTikaTextExtractor(cfg.Tika.ServerURL, tikaOptions...), nil
	}

	initLogger.Println("未检测到Tika配置或配置不完整，将使用Eino作为PDF文本提取器...")
	return parser.NewEinoPDFTextExtractor(ctx)
}
