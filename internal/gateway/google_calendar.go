package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/c4-bot/discord-ics-importer/internal/domain"
)

// EventsProvider Google Calendar APIからイベント一覧を取得する
type EventsProvider interface {
	ListEvents(ctx context.Context, calendarID, timeMin, timeMax string) ([]*calendar.Event, error)
}

// serviceEventsProvider calendar.Service を使用した EventsProvider
type serviceEventsProvider struct {
	service *calendar.Service
}

// ListEvents 期間内のイベントを全ページ取得（繰り返し予定はAPI側で展開済み）
func (p *serviceEventsProvider) ListEvents(ctx context.Context, calendarID, timeMin, timeMax string) ([]*calendar.Event, error) {
	var items []*calendar.Event
	err := p.service.Events.List(calendarID).
		TimeMin(timeMin).
		TimeMax(timeMax).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(250).
		Pages(ctx, func(page *calendar.Events) error {
			items = append(items, page.Items...)
			return nil
		})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// GoogleCalendarSource Google Calendarをインポート元とするイベントソース
type GoogleCalendarSource struct {
	provider EventsProvider
	timezone *time.Location
	logger   *slog.Logger
}

// NewGoogleCalendarSource サービスアカウント認証でイベントソースを作成
func NewGoogleCalendarSource(ctx context.Context, credentialsJSON []byte, timezone *time.Location, logger *slog.Logger) (*GoogleCalendarSource, error) {
	creds, err := google.CredentialsFromJSON(ctx, credentialsJSON, calendar.CalendarReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("google認証情報の読み込みに失敗しました: %w", err)
	}

	service, err := calendar.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("google Calendar APIサービスの作成に失敗しました: %w", err)
	}

	return NewGoogleCalendarSourceWithProvider(&serviceEventsProvider{service: service}, timezone, logger), nil
}

// NewGoogleCalendarSourceWithProvider 任意の EventsProvider からイベントソースを作成
func NewGoogleCalendarSourceWithProvider(provider EventsProvider, timezone *time.Location, logger *slog.Logger) *GoogleCalendarSource {
	return &GoogleCalendarSource{
		provider: provider,
		timezone: timezone,
		logger:   logger,
	}
}

// GetEvents [from, to) の予定をインポート用イベントとして取得
func (s *GoogleCalendarSource) GetEvents(ctx context.Context, calendarID string, from, to time.Time) ([]domain.ImportedEvent, error) {
	items, err := s.provider.ListEvents(ctx, calendarID, from.Format(time.RFC3339), to.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("カレンダーイベントの取得に失敗しました: %w", err)
	}

	events := make([]domain.ImportedEvent, 0, len(items))
	for _, item := range items {
		if item.Status == "cancelled" {
			continue
		}
		event, err := s.convertToEvent(item)
		if err != nil {
			s.logger.Warn("イベントの変換をスキップしました", "calendar_id", calendarID, "event_id", item.Id, "error", err)
			continue
		}
		events = append(events, event)
	}
	return events, nil
}

// convertToEvent Google Calendar APIのイベントをドメインエンティティに変換
func (s *GoogleCalendarSource) convertToEvent(event *calendar.Event) (domain.ImportedEvent, error) {
	imported := domain.ImportedEvent{
		UID:         event.ICalUID,
		Name:        event.Summary,
		Location:    event.Location,
		Description: event.Description,
	}

	start, err := s.parseEventTime(event.Start)
	if err != nil {
		return domain.ImportedEvent{}, fmt.Errorf("開始時刻の解析に失敗しました: %w", err)
	}
	end, err := s.parseEventTime(event.End)
	if err != nil {
		return domain.ImportedEvent{}, fmt.Errorf("終了時刻の解析に失敗しました: %w", err)
	}
	imported.Start = start
	imported.End = end

	return imported, nil
}

// parseEventTime 時刻指定ありと終日の両方に対応
func (s *GoogleCalendarSource) parseEventTime(eventTime *calendar.EventDateTime) (time.Time, error) {
	if eventTime == nil {
		return time.Time{}, fmt.Errorf("時刻が設定されていません")
	}
	if eventTime.DateTime != "" {
		t, err := time.Parse(time.RFC3339, eventTime.DateTime)
		if err != nil {
			return time.Time{}, err
		}
		return t.In(s.timezone), nil
	}
	if eventTime.Date != "" {
		return time.ParseInLocation("2006-01-02", eventTime.Date, s.timezone)
	}
	return time.Time{}, fmt.Errorf("時刻が設定されていません")
}
