package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hrdoc-go/internal/api/handler"
	"hrdoc-go/internal/api/router"
	"hrdoc-go/internal/config"
	"hrdoc-go/internal/outbox"
	"hrdoc-go/internal/processor"
	"hrdoc-go/internal/storage"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/spf13/pflag"

	appCoreLogger "hrdoc-go/internal/logger"

	glog "github.com/cloudwego/hertz/pkg/common/hlog"
	hertzadapter "github.com/hertz-contrib/logger/zerolog"
)

var (
	version     = "1.0.0"    //nolint:gochecknoglobals
	serviceName = "hrdoc-go" //nolint:gochecknoglobals
)

// @title HR Document Engine API
// @version 1.0
// @description 文档字段抽取与岗位匹配评分服务的API文档。
// @BasePath /api/v1
func main() {
	initLogger()

	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "internal/config/config.yaml", "Path to config file")
	pflag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		glog.Fatalf("加载配置失败: %v", err)
	}
	glog.Info("配置加载成功")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	storageManager, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		glog.Fatalf("初始化存储失败: %v", err)
	}
	defer storageManager.Close()
	glog.Info("存储服务初始化成功")

	// 启动消息中继，把outbox表里的事件搬运到RabbitMQ
	relayLogger := log.New(appCoreLogger.Logger, "[MessageRelay] ", log.LstdFlags|log.Lshortfile)
	messageRelay := outbox.NewMessageRelay(storageManager.MySQL.DB(), storageManager.RabbitMQ, relayLogger)
	messageRelay.Start()
	glog.Info("消息中继服务已启动")

	documentProcessor, err := processor.CreateProcessorFromConfig(ctx, cfg, storageManager)
	if err != nil {
		glog.Fatalf("初始化文档处理器失败: %v", err)
	}
	glog.Info("文档处理器初始化成功")

	jobProcessorStdLogger := log.New(appCoreLogger.Logger, "[JobProfileMain] ", log.LstdFlags|log.Lshortfile)
	jobProcessor, err := processor.NewJobProfileProcessor(storageManager, processor.WithJobProfileLogger(jobProcessorStdLogger))
	if err != nil {
		glog.Fatalf("初始化岗位画像处理器失败: %v", err)
	}
	glog.Info("岗位画像处理器初始化成功")

	documentHandler := handler.NewDocumentHandler(cfg, storageManager, documentProcessor)
	jobHandler := handler.NewJobHandler(cfg, jobProcessor)
	shortlistHandler := handler.NewShortlistHandler(cfg, storageManager, jobProcessor)
	glog.Info("API处理器初始化成功")

	go func() {
		uploadWorkers := cfg.RabbitMQ.PrefetchCount
		if workers, ok := cfg.RabbitMQ.ConsumerWorkers["upload_consumer_workers"]; ok {
			uploadWorkers = workers
		}
		glog.Infof("启动上传消费者，预取数: %d", uploadWorkers)
		if err := documentHandler.StartDocumentUploadConsumer(context.Background(), uploadWorkers); err != nil {
			glog.Fatalf("启动文档上传消费者失败: %v", err)
		}

		scoringWorkers := cfg.RabbitMQ.PrefetchCount
		if workers, ok := cfg.RabbitMQ.ConsumerWorkers["scoring_consumer_workers"]; ok {
			scoringWorkers = workers
		}
		glog.Infof("启动评分消费者，预取数: %d", scoringWorkers)
		if err := documentHandler.StartScoringConsumer(context.Background(), scoringWorkers); err != nil {
			glog.Fatalf("启动评分消费者失败: %v", err)
		}

		documentHandler.StartMD5CleanupTask(context.Background())
		glog.Info("所有消费者已启动")
	}()

	h := server.New(
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
	)
	h.Use(func(c context.Context, ctx *app.RequestContext) {
		glog.CtxInfof(c, "Request: %s %s", string(ctx.Method()), string(ctx.Path()))
		ctx.Next(c)
		glog.CtxInfof(c, "Response: status %d", ctx.Response.StatusCode())
	})

	router.RegisterRoutes(h, documentHandler, jobHandler, shortlistHandler)
	glog.Info("HTTP路由注册成功")

	glog.Infof("HTTP 服务器启动中，监听地址: %s", cfg.Server.Address)

	go func() {
		if err := h.Run(); err != nil {
			glog.Fatalf("启动HTTP服务器失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	glog.Info("接收到终止信号，正在优雅退出...")

	// 先停消息中继，避免丢投递
	messageRelay.Stop()
	glog.Info("消息中继服务已停止")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := h.Shutdown(shutdownCtx); err != nil {
		glog.Fatalf("服务器关闭失败: %v", err)
	}
	glog.Info("优雅退出完成")
}

func initLogger() {
	logFilePath := "logs/app.log"
	fileWriter, err := os.OpenFile(logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Fatalf("无法打开日志文件 %s: %v", logFilePath, err)
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	}

	multiWriter := zerolog.MultiLevelWriter(consoleWriter, fileWriter)

	level := zerolog.DebugLevel
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = "15:04:05"

	logger := zerolog.New(multiWriter).With().Timestamp().Caller().Logger()

	// 同时替换应用自身与zerolog库的全局logger
	appCoreLogger.Logger = logger
	zlog.Logger = logger

	hertzCompatibleLogger := hertzadapter.From(appCoreLogger.Logger)

	glog.SetLogger(hertzCompatibleLogger)
	glog.SetLevel(glog.LevelDebug)

	log.Println("Logger initialized with Zerolog, writing to console and file:", logFilePath)
}
