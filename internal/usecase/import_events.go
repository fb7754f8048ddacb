package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"strings"

	"github.com/google/uuid"

	"github.com/c4-bot/discord-ics-importer/internal/domain"
)

// EventStore サーバーのスケジュールイベントを操作するポート
type EventStore interface {
	ListEvents(ctx context.Context, guildID string) ([]domain.ExistingEvent, error)
	CreateEvent(ctx context.Context, guildID string, fields domain.EventFields, reason string) error
	EditEvent(ctx context.Context, guildID, eventID string, fields domain.EventFields, reason string) error
	DeleteEvent(ctx context.Context, guildID, eventID, reason string) error
}

// CalendarDecoder カレンダーファイルを解析するポート
// 失敗時は *domain.DecodeError を返す
type CalendarDecoder interface {
	Decode(data []byte) ([]domain.ImportedEvent, error)
}

// AttachmentFetcher 添付ファイルの内容を取得するポート
type AttachmentFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Attachment コマンドに添付されたファイル
type Attachment struct {
	URL         string
	Filename    string
	ContentType string
}

// FileImport ファイルからのインポート要求
type FileImport struct {
	GuildID    string
	Requester  string
	Attachment Attachment
	Policy     domain.OverwritePolicy
}

// ImportEventsUseCase カレンダーのイベントをサーバーに反映するユースケース
type ImportEventsUseCase struct {
	store   EventStore
	decoder CalendarDecoder
	fetcher AttachmentFetcher
	logger  *slog.Logger
}

// NewImportEventsUseCase ユースケースを生成
func NewImportEventsUseCase(store EventStore, decoder CalendarDecoder, fetcher AttachmentFetcher, logger *slog.Logger) *ImportEventsUseCase {
	return &ImportEventsUseCase{
		store:   store,
		decoder: decoder,
		fetcher: fetcher,
		logger:  logger,
	}
}

// ImportFile 添付された .ics ファイルを検証・解析し、サーバーに反映する
func (uc *ImportEventsUseCase) ImportFile(ctx context.Context, req FileImport) (domain.Report, error) {
	if req.GuildID == "" {
		return domain.Report{}, domain.ErrOutsideGuild
	}
	if !IsCalendarContentType(req.Attachment.ContentType) {
		return domain.Report{}, &domain.AttachmentTypeError{ContentType: req.Attachment.ContentType}
	}

	data, err := uc.fetcher.Fetch(ctx, req.Attachment.URL)
	if err != nil {
		return domain.Report{}, fmt.Errorf("添付ファイルの取得に失敗しました: %w", err)
	}

	entries, err := uc.decoder.Decode(data)
	if err != nil {
		uc.logger.Warn("カレンダーファイルの解析に失敗しました",
			"guild_id", req.GuildID, "file", req.Attachment.Filename, "error", err)
		return domain.Report{}, err
	}

	reason := fmt.Sprintf("Bulk event creation via .ics file (%s)", req.Requester)
	return uc.ImportEntries(ctx, req.GuildID, entries, req.Policy, reason)
}

// ImportEntries 解析済みのイベントを既存イベントと突き合わせて反映する
// 1件の失敗で処理は止めず、失敗はレポートに記録する
func (uc *ImportEventsUseCase) ImportEntries(ctx context.Context, guildID string, entries []domain.ImportedEvent, policy domain.OverwritePolicy, reason string) (domain.Report, error) {
	policy, err := domain.ParsePolicy(string(policy))
	if err != nil {
		return domain.Report{}, err
	}
	logger := uc.logger.With("run_id", uuid.NewString(), "guild_id", guildID, "policy", string(policy))

	var report domain.Report
	valid := make([]domain.ImportedEvent, 0, len(entries))
	for _, entry := range entries {
		if !entry.Valid() {
			report.Dropped++
			continue
		}
		valid = append(valid, entry)
	}

	existing, err := uc.store.ListEvents(ctx, guildID)
	if err != nil {
		return domain.Report{}, fmt.Errorf("既存イベントの取得に失敗しました: %w", err)
	}

	index, duplicates := BuildIndex(existing)
	if len(duplicates) > 0 {
		logger.Warn("同名の既存イベントがあります。最後に取得したものだけが照合対象です", "names", duplicates)
		report.AmbiguousNames = duplicates
	}

	actions := Reconcile(valid, index, policy)
	logger.Info("インポートを開始します",
		"entries", len(entries), "valid", len(valid), "existing", len(existing))

	for _, action := range actions {
		report.Processed++
		if err := uc.apply(ctx, guildID, action, reason); err != nil {
			logger.Error("イベントの反映に失敗しました",
				"event", action.Entry.Name, "action", action.Kind.String(), "error", err)
			report.Fail(action.Entry.Fields().Name, action.Kind, err)
			continue
		}
		logger.Debug("イベントを反映しました", "event", action.Entry.Name, "action", action.Kind.String())
		report.Record(action.Kind)
	}

	logger.Info("インポートが完了しました",
		"processed", report.Processed,
		"created", report.Created,
		"replaced", report.Replaced,
		"merged", report.Merged,
		"skipped", report.Skipped,
		"failed", len(report.Failures))
	return report, nil
}

// apply 1件分の処理をイベントストアに対して実行
func (uc *ImportEventsUseCase) apply(ctx context.Context, guildID string, action domain.Action, reason string) error {
	fields := action.Entry.Fields()
	switch action.Kind {
	case domain.ActionCreate:
		return uc.store.CreateEvent(ctx, guildID, fields, reason)
	case domain.ActionReplace:
		if err := uc.store.DeleteEvent(ctx, guildID, action.Existing.ID, reason); err != nil {
			return fmt.Errorf("既存イベントの削除に失敗しました: %w", err)
		}
		return uc.store.CreateEvent(ctx, guildID, fields, reason)
	case domain.ActionMerge:
		return uc.store.EditEvent(ctx, guildID, action.Existing.ID, fields, reason)
	case domain.ActionSkip:
		return nil
	}
	return fmt.Errorf("不明な処理です: %v", action.Kind)
}

// IsCalendarContentType Content-Typeが text/calendar かつ UTF-8 かを判定
// charset が省略されている場合も受け付ける
func IsCalendarContentType(contentType string) bool {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType != domain.CalendarMIMEType {
		return false
	}
	charset, ok := params["charset"]
	return !ok || strings.EqualFold(charset, "utf-8")
}
