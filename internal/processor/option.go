package processor

import (
	"log"
	"time"

	"hrdoc-go/internal/storage"
)

// ComponentOpt 组件选项函数类型
type ComponentOpt func(*Components)

// SettingOpt 设置选项函数类型
type SettingOpt func(*Settings)

// WithcompTextextractor 设置文本提取器组件
func WithcompTextextractor(extractor TextExtractor) ComponentOpt {
	return func(c *Components) {
		c.TextExtractor = extractor
	}
}

// WithcompStorage 设置存储组件
func WithcompStorage(storage *storage.Storage) ComponentOpt {
	return func(c *Components) {
		c.Storage = storage
	}
}

// WithsetDebug 设置调试模式
func WithsetDebug(debug bool) SettingOpt {
	return func(s *Settings) {
		s.Debug = debug
	}
}

// WithsetLogger 设置日志记录器
func WithsetLogger(logger *log.Logger) SettingOpt {
	return func(s *Settings) {
		if logger != nil {
			s.Logger = logger
		}
	}
}

// WithsetTimelocation 设置时区
func WithsetTimelocation(loc *time.Location) SettingOpt {
	return func(s *Settings) {
		if loc != nil {
			s.TimeLocation = loc
		}
	}
}

// logDebug 仅在调试模式下输出日志
func (dp *DocumentProcessor) logDebug(format string, args ...interface{}) {
	if dp.Config.Debug && dp.Config.Logger != nil {
		dp.Config.Logger.Printf(format, args...)
	}
}

// logInfo 无条件输出日志
func (dp *DocumentProcessor) logInfo(format string, args ...interface{}) {
	if dp.Config.Logger != nil {
		dp.Config.Logger.Printf(format, args...)
	}
}
