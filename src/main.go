package main

import (
	"CovidDashboard/src/config"
	"CovidDashboard/src/dashboard"
	"CovidDashboard/src/datapush"
	"CovidDashboard/src/dataset"
	"CovidDashboard/src/datasource/file"
	"CovidDashboard/src/metrics"
	"CovidDashboard/src/processor"
	"CovidDashboard/src/storage"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	jsonFolder := "./config"
	jsonFile := "config.json"
	dataJsonFile := "dataconfig.json"
	cfg, dcfg, err := config.LoadConfig(jsonFolder, jsonFile, dataJsonFile)
	if errors.Is(err, os.ErrNotExist) {
		log.Println("未找到配置文件，使用默认配置:", err)
		cfg, dcfg = config.Default()
	} else if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// 初始化日志系统
	logger, err := storage.NewLogger(cfg.LogName)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	logger.SetLevel(storage.ParseLevel(cfg.LogLevel))
	defer logger.Close()

	// 启动时加载失败直接退出
	loader := dataset.NewLoader(cfg, dcfg, logger)
	if err := loader.Load(); err != nil {
		logger.Fatal("加载数据失败: " + err.Error())
		log.Fatal("Failed to load datasets:", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server := dashboard.NewServer(cfg.Server.Addr, loader, dcfg, logger)
	go func() {
		if err := server.ListenAndServe(); err != nil {
			logger.Error("Web服务异常退出: " + err.Error())
			cancel()
		}
	}()

	if cfg.Watch.Enabled {
		monitor, err := file.NewFileMonitor(cfg.DataDir, cfg.WorldFile, cfg.GroupedFile)
		if err != nil {
			logger.Error("启动文件监听失败: " + err.Error())
		} else {
			defer monitor.Close()
			go watchData(ctx, monitor, cfg.Watch.Debounce.Std(), loader, logger)
		}
	}

	// 设置定时任务
	scheduler := datapush.NewScheduler(logger)
	if cfg.Export.Schedule != "" {
		err = scheduler.AddJob(cfg.Export.Schedule, "导出报表", func() error {
			path, err := exportAll(loader, dcfg, cfg.Export.Dir)
			metrics.RecordExport(err)
			if err != nil {
				return err
			}
			logger.Info("报表已导出: " + path)
			return nil
		})
		if err != nil {
			logger.Error(err.Error())
		}
	}
	err = scheduler.AddJob("@every 1m", "日志轮转检查", func() error {
		return logger.CheckRotate(cfg.LogMaxSize)
	})
	if err != nil {
		logger.Error(err.Error())
	}
	scheduler.Start()
	defer scheduler.Stop()

	logger.Info(fmt.Sprintf("COVID-19 看板服务已启动(%s)，按Ctrl+C退出", cfg.Server.Addr))
	waitForShutdown(ctx, server, loader, logger, cfg.Server.ShutdownTimeout.Std())
}

func watchData(ctx context.Context, monitor *file.FileMonitor, debounce time.Duration, loader *dataset.Loader, logger *storage.Logger) {
	err := monitor.Watch(ctx, debounce, func(name string) {
		logger.Info("检测到数据文件变化: " + name)
		// 失败时Reload内部已记录日志并保留旧数据
		_ = loader.Reload()
	})
	if err != nil {
		logger.Error("File monitoring error:" + err.Error())
	}
}

// exportAll 导出全部地区、完整日期范围的报表
func exportAll(loader *dataset.Loader, dcfg *config.DataConfig, dir string) (string, error) {
	world, grouped, err := loader.Snapshot()
	if err != nil {
		return "", err
	}
	report := processor.NewDataProcessor(grouped, dcfg.TopN).Report(processor.SelectAll(grouped.Options()))
	wa := processor.AnalyzeWorld(world, dcfg.WorldTopN)
	return datapush.ExportReport(dir, report, wa)
}

// waitForShutdown SIGHUP重新打开日志并重新加载数据，SIGINT/SIGTERM优雅退出
func waitForShutdown(ctx context.Context, server *dashboard.Server, loader *dataset.Loader, logger *storage.Logger, timeout time.Duration) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigChan)

	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-sigChan:
			if sig == syscall.SIGHUP {
				if err := logger.Reopen(""); err != nil {
					log.Println("Failed to reopen log:", err)
				}
				logger.Info("Received signal: " + sig.String() + ", reloading...")
				_ = loader.Reload()
				continue
			}

			logger.Info("Received signal: " + sig.String() + ", shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.Error("关闭Web服务失败: " + err.Error())
			}
			cancel()
			return
		}
	}
}
