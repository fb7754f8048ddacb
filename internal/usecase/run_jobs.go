package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/c4-bot/discord-ics-importer/internal/domain"
)

// EntryImporter 解析済みイベントを反映するポート
type EntryImporter interface {
	ImportEntries(ctx context.Context, guildID string, entries []domain.ImportedEvent, policy domain.OverwritePolicy, reason string) (domain.Report, error)
}

// CalendarSource Google Calendarなど外部カレンダーから予定を取得するポート
type CalendarSource interface {
	GetEvents(ctx context.Context, calendarID string, from, to time.Time) ([]domain.ImportedEvent, error)
}

// ReportNotifier ジョブの結果を通知するポート
type ReportNotifier interface {
	SendImportReport(ctx context.Context, jobName string, report domain.Report) error
	SendJobFailure(ctx context.Context, jobName string, jobErr error) error
}

// RunJobsUseCase 定期インポートジョブのユースケース
type RunJobsUseCase struct {
	importer EntryImporter
	fetcher  AttachmentFetcher
	decoder  CalendarDecoder
	google   CalendarSource
	notifier ReportNotifier
	clock    func() time.Time
	logger   *slog.Logger
}

// RunJobsOption オプション設定
type RunJobsOption func(*RunJobsUseCase)

// WithCalendarSource Google Calendarをインポート元として使えるようにする
func WithCalendarSource(source CalendarSource) RunJobsOption {
	return func(uc *RunJobsUseCase) { uc.google = source }
}

// WithReportNotifier 結果を通知する
func WithReportNotifier(notifier ReportNotifier) RunJobsOption {
	return func(uc *RunJobsUseCase) { uc.notifier = notifier }
}

// WithClock 現在時刻の取得方法を差し替える
func WithClock(clock func() time.Time) RunJobsOption {
	return func(uc *RunJobsUseCase) { uc.clock = clock }
}

// NewRunJobsUseCase ユースケースを生成
func NewRunJobsUseCase(importer EntryImporter, fetcher AttachmentFetcher, decoder CalendarDecoder, logger *slog.Logger, opts ...RunJobsOption) *RunJobsUseCase {
	uc := &RunJobsUseCase{
		importer: importer,
		fetcher:  fetcher,
		decoder:  decoder,
		clock:    time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Run 1件のジョブを実行し、通知先があれば結果を通知する
func (uc *RunJobsUseCase) Run(ctx context.Context, job domain.ImportJob) (domain.Report, error) {
	logger := uc.logger.With("job", job.Name, "guild_id", job.GuildID)

	report, err := uc.run(ctx, job)
	if err != nil {
		logger.Error("ジョブの実行に失敗しました", "error", err)
		uc.notifyFailure(ctx, job.Name, err)
		return domain.Report{}, err
	}

	if uc.notifier != nil {
		if nerr := uc.notifier.SendImportReport(ctx, job.Name, report); nerr != nil {
			logger.Warn("結果の通知に失敗しました", "error", nerr)
		}
	}
	return report, nil
}

// RunAll 全ジョブを順番に実行する。失敗したジョブがあっても残りは実行する
func (uc *RunJobsUseCase) RunAll(ctx context.Context, jobs []domain.ImportJob) error {
	var errs []error
	for _, job := range jobs {
		if _, err := uc.Run(ctx, job); err != nil {
			errs = append(errs, fmt.Errorf("ジョブ %s: %w", job.Name, err))
		}
	}
	return errors.Join(errs...)
}

// RunNamed 名前で指定したジョブを実行する。名前が空なら全ジョブ
func (uc *RunJobsUseCase) RunNamed(ctx context.Context, jobs []domain.ImportJob, name string) error {
	if name == "" {
		return uc.RunAll(ctx, jobs)
	}
	for _, job := range jobs {
		if job.Name == name {
			_, err := uc.Run(ctx, job)
			return err
		}
	}
	return fmt.Errorf("ジョブ %q が見つかりません", name)
}

func (uc *RunJobsUseCase) run(ctx context.Context, job domain.ImportJob) (domain.Report, error) {
	entries, err := uc.loadEntries(ctx, job)
	if err != nil {
		return domain.Report{}, err
	}
	reason := fmt.Sprintf("Scheduled import from %s (%s)", job.Source, job.Name)
	return uc.importer.ImportEntries(ctx, job.GuildID, entries, job.Policy, reason)
}

// loadEntries ジョブのインポート元からイベントを取得
func (uc *RunJobsUseCase) loadEntries(ctx context.Context, job domain.ImportJob) ([]domain.ImportedEvent, error) {
	switch {
	case job.Source.ICSURL != "":
		data, err := uc.fetcher.Fetch(ctx, job.Source.ICSURL)
		if err != nil {
			return nil, fmt.Errorf("カレンダーの取得に失敗しました: %w", err)
		}
		return uc.decoder.Decode(data)
	case job.Source.GoogleCalendarID != "":
		if uc.google == nil {
			return nil, fmt.Errorf("Google Calendarの認証情報が設定されていません")
		}
		horizon := job.Source.HorizonDays
		if horizon <= 0 {
			horizon = domain.DefaultHorizonDays
		}
		from := uc.clock()
		return uc.google.GetEvents(ctx, job.Source.GoogleCalendarID, from, from.AddDate(0, 0, horizon))
	}
	return nil, fmt.Errorf("インポート元が設定されていません")
}

func (uc *RunJobsUseCase) notifyFailure(ctx context.Context, jobName string, jobErr error) {
	if uc.notifier == nil {
		return
	}
	if err := uc.notifier.SendJobFailure(ctx, jobName, jobErr); err != nil {
		uc.logger.Warn("失敗の通知に失敗しました", "job", jobName, "error", err)
	}
}
