package datapush

import (
	"fmt"
	"time"

	"github.com/robfig/cron"
)

// Logger 定时任务使用的日志接口
type Logger interface {
	Info(message string)
	Error(message string)
}

// Scheduler 封装cron，统一记录任务耗时和错误
type Scheduler struct {
	c      *cron.Cron
	logger Logger
}

func NewScheduler(logger Logger) *Scheduler {
	return &Scheduler{c: cron.New(), logger: logger}
}

// AddJob spec 支持 "@every 1h" 或带秒字段的cron表达式
func (s *Scheduler) AddJob(spec, name string, job func() error) error {
	err := s.c.AddFunc(spec, func() {
		t1 := time.Now()
		if err := job(); err != nil {
			s.logger.Error(fmt.Sprintf("定时任务 %s 失败: %v", name, err))
			return
		}
		s.logger.Info(fmt.Sprintf("定时任务 %s 完成，耗时 %v", name, time.Since(t1)))
	})
	if err != nil {
		return fmt.Errorf("创建定时任务 %s 失败: %w", name, err)
	}
	return nil
}

func (s *Scheduler) Start() { s.c.Start() }

func (s *Scheduler) Stop() { s.c.Stop() }
