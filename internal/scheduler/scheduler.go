package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/c4-bot/discord-ics-importer/internal/domain"
)

// JobRunner インポートジョブを1件実行する
type JobRunner interface {
	Run(ctx context.Context, job domain.ImportJob) (domain.Report, error)
}

// Scheduler スケジュール付きのインポートジョブをcron式に従って実行する
type Scheduler struct {
	cron    *cron.Cron
	runner  JobRunner
	timeout time.Duration
	logger  *slog.Logger
}

// jobTimeout 1回のジョブ実行に許す時間
const jobTimeout = 10 * time.Minute

// New スケジューラーを生成
func New(runner JobRunner, location *time.Location, logger *slog.Logger) *Scheduler {
	// 前回の実行が終わっていない場合は次回をスキップする
	c := cron.New(
		cron.WithLocation(location),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	return &Scheduler{
		cron:    c,
		runner:  runner,
		timeout: jobTimeout,
		logger:  logger,
	}
}

// Register スケジュールが指定されたジョブを登録し、登録件数を返す
func (s *Scheduler) Register(jobs []domain.ImportJob) (int, error) {
	registered := 0
	for _, job := range jobs {
		if job.Schedule == "" {
			continue
		}
		job := job
		if _, err := s.cron.AddFunc(job.Schedule, func() { s.runJob(job) }); err != nil {
			return registered, fmt.Errorf("ジョブ %s のスケジュール %q が不正です: %w", job.Name, job.Schedule, err)
		}
		registered++
		s.logger.Info("ジョブを登録しました", "job", job.Name, "schedule", job.Schedule)
	}
	return registered, nil
}

// Start スケジューラーを開始
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop スケジューラーを停止し、実行中のジョブの終了を待つ
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runJob(job domain.ImportJob) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	report, err := s.runner.Run(ctx, job)
	if err != nil {
		// 通知はRunner側で行われる
		return
	}
	s.logger.Info("定期インポートが完了しました", "job", job.Name, "processed", report.Processed, "failed", len(report.Failures))
}
