package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"TickerSync/internal/adapter"
	_ "TickerSync/internal/adapter/feed"
	_ "TickerSync/internal/adapter/fixture"
	"TickerSync/internal/api"
	"TickerSync/internal/config"
	"TickerSync/internal/database"
	"TickerSync/internal/issuer"
	"TickerSync/internal/notify"
	"TickerSync/internal/parser"
	"TickerSync/internal/runlock"
	"TickerSync/internal/service"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// 运行模式
const (
	modeServe  = "serve"
	modeWatch  = "watch"
	modeOnce   = "once"
	modeReport = "report"
)

func newLogger(cfg config.LogConfig) *logrus.Logger {
	l := logrus.New()
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)
	if strings.EqualFold(cfg.Format, "json") {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return l
}

func main() {
	mode := flag.String("mode", modeServe, "运行模式：serve/watch/once/report")
	configDir := flag.String("config", "./config", "配置文件目录")
	out := flag.String("out", "", "report模式下xlsx输出路径，为空时输出JSON到标准输出")
	flag.Parse()

	// 1. 加载配置文件
	cfg, err := config.LoadConfigFrom(*configDir)
	if err != nil {
		log.Fatalf("加载配置文件失败: %v", err)
	}

	// 2. 初始化日志
	logrusLogger := newLogger(cfg.Log)
	logrusLogger.Info("配置文件加载成功")
	if cfg.App.Dev {
		logrusLogger.Info("开发模式：申报来源使用本地fixture")
	}
	clock := service.NewClock(cfg.App.Location())

	// 3. 连接数据库并迁移表结构
	db, err := database.Open(&cfg.Database, logrusLogger)
	if err != nil {
		logrusLogger.Fatalf("初始化数据库失败: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reports := service.NewReportService(db, clock)
	if *mode == modeReport {
		if err := runReport(ctx, reports, *out); err != nil {
			logrusLogger.Fatalf("生成日报失败: %v", err)
		}
		return
	}

	// 4. 组装流水线
	sources := adapter.NewSourceRegistry(cfg, logrusLogger)
	for _, name := range sources.Names() {
		if !cfg.App.Dev && cfg.Sources[name].Kind == adapter.KindFixture {
			logrusLogger.Warnf("非开发模式下数据源%s仍为fixture", name)
		}
	}
	notifier, err := notify.New(cfg.Alerts, logrusLogger)
	if err != nil {
		logrusLogger.Fatalf("初始化告警输出失败: %v", err)
	}
	if c, ok := notifier.(io.Closer); ok {
		defer c.Close()
	}
	lock, err := runlock.New(ctx, cfg.Lock, logrusLogger)
	if err != nil {
		logrusLogger.Fatalf("初始化运行锁失败: %v", err)
	}

	reference := service.NewReferenceService(db, cfg.Reference, logrusLogger)
	if !cfg.Pipeline.RefreshReference {
		// 不在每次运行前刷新时，启动时加载一次
		if _, err := reference.LoadAll(ctx); err != nil {
			logrusLogger.Fatalf("加载参考数据失败: %v", err)
		}
	}
	pipeline := service.NewPipeline(
		db,
		reference,
		service.NewIngestService(db, sources, cfg.Pipeline.StageTimeout, logrusLogger),
		service.NewParseService(db, parser.NewFileTextExtractor(logrusLogger), nil, logrusLogger),
		service.NewMappingService(db, issuer.NewFileLoader(cfg.Reference.CompanyTickers), cfg.Pipeline.FuzzyThreshold, logrusLogger),
		service.NewScoringService(db, clock, logrusLogger),
		notifier,
		lock,
		clock,
		service.PipelineOptions{
			LookbackDays:     cfg.Pipeline.LookbackDays,
			EnableFuzzy:      cfg.Pipeline.EnableFuzzy,
			RefreshReference: cfg.Pipeline.RefreshReference,
			Sources:          cfg.Watch.Sources,
		},
		logrusLogger,
	)
	watcher := service.NewWatcher(pipeline, nil, service.WatchOptions{
		Interval: cfg.Watch.Interval,
		Jitter:   cfg.Watch.Jitter,
		MinSleep: cfg.Watch.MinSleep,
		Score:    true,
		Alerts:   true,
	}, logrusLogger)

	switch *mode {
	case modeOnce:
		sum, err := pipeline.RunOnce(ctx, cfg.Pipeline.Score, cfg.Pipeline.Alerts)
		if err != nil {
			logrusLogger.Fatalf("流水线运行失败: %v", err)
		}
		logrusLogger.Infof("运行完成: run_id=%s 新申报=%d 交易=%d 映射=%d 信号=%d",
			sum.RunID, sum.NewFilings, sum.Trades, sum.Mapped, sum.Signals)
	case modeWatch:
		_ = watcher.Run(ctx)
	case modeServe:
		serve(ctx, cfg, db, pipeline, watcher, reports, logrusLogger)
	default:
		logrusLogger.Fatalf("未知运行模式: %s", *mode)
	}
}

func serve(ctx context.Context, cfg *config.Config, db *gorm.DB, pipeline *service.Pipeline, watcher *service.Watcher, reports *service.ReportService, logger *logrus.Logger) {
	// 配置Gin运行模式（从配置读取：debug/release）
	gin.SetMode(cfg.Server.Mode)
	r := gin.Default()

	// 注册ppof 方便调试和监测性能问题
	pprof.Register(r)
	logger.Infof("Gin运行模式: %s", cfg.Server.Mode)

	var status api.WatchStatusProvider
	if cfg.Watch.Enabled {
		status = watcher
		go func() { _ = watcher.Run(ctx) }()
	}
	api.RegisterRoutes(r, api.Handlers{
		Pipeline: api.NewPipelineHandler(db, pipeline, status, cfg.Pipeline.Score, cfg.Pipeline.Alerts, logger),
		Members:  api.NewMemberHandler(db, logger),
		Filings:  api.NewFilingHandler(db, logger),
		Reports:  api.NewReportHandler(reports, logger),
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Server.Port), Handler: r}
	go func() {
		logger.Infof("服务启动成功，端口：%d", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("启动服务失败: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("服务关闭失败")
	}
	logger.Info("服务已关闭")
}

func runReport(ctx context.Context, reports *service.ReportService, out string) error {
	report, err := reports.Daily(ctx)
	if err != nil {
		return err
	}
	if out == "" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := service.ExportXLSX(f, report); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
