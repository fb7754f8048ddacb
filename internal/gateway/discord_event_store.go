package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/c4-bot/discord-ics-importer/internal/domain"
)

// ScheduledEventSession スケジュールイベントAPIのうち使用する操作
// *discordgo.Session が満たす
type ScheduledEventSession interface {
	GuildScheduledEvents(guildID string, userCount bool, options ...discordgo.RequestOption) ([]*discordgo.GuildScheduledEvent, error)
	GuildScheduledEventCreate(guildID string, event *discordgo.GuildScheduledEventParams, options ...discordgo.RequestOption) (*discordgo.GuildScheduledEvent, error)
	RequestWithBucketID(method, urlStr string, data interface{}, bucketID string, options ...discordgo.RequestOption) ([]byte, error)
	GuildScheduledEventDelete(guildID, eventID string, options ...discordgo.RequestOption) error
}

// DiscordEventStore Discordのギルドスケジュールイベントを使用したEventStoreの実装
type DiscordEventStore struct {
	session ScheduledEventSession
}

// NewDiscordEventStore イベントストアを作成
func NewDiscordEventStore(session ScheduledEventSession) *DiscordEventStore {
	return &DiscordEventStore{session: session}
}

// ListEvents ギルドの全スケジュールイベントを取得
func (s *DiscordEventStore) ListEvents(ctx context.Context, guildID string) ([]domain.ExistingEvent, error) {
	events, err := s.session.GuildScheduledEvents(guildID, false, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("スケジュールイベントの取得に失敗しました: %w", err)
	}

	existing := make([]domain.ExistingEvent, 0, len(events))
	for _, ev := range events {
		existing = append(existing, convertScheduledEvent(ev))
	}
	return existing, nil
}

// CreateEvent 外部イベント（サーバーメンバーのみ公開）として作成
func (s *DiscordEventStore) CreateEvent(ctx context.Context, guildID string, fields domain.EventFields, reason string) error {
	params := buildParams(fields)
	params.Name = fields.Name

	_, err := s.session.GuildScheduledEventCreate(guildID, params,
		discordgo.WithContext(ctx), discordgo.WithAuditLogReason(reason))
	if err != nil {
		return fmt.Errorf("スケジュールイベント %q の作成に失敗しました: %w", fields.Name, err)
	}
	return nil
}

// scheduledEventEdit イベント更新のリクエストボディ
// GuildScheduledEventParams は説明が空だと省略されるため、null を送れるよう独自に定義する
type scheduledEventEdit struct {
	ChannelID          *string                                      `json:"channel_id"`
	EntityMetadata     *discordgo.GuildScheduledEventEntityMetadata `json:"entity_metadata"`
	PrivacyLevel       discordgo.GuildScheduledEventPrivacyLevel    `json:"privacy_level"`
	ScheduledStartTime *time.Time                                   `json:"scheduled_start_time"`
	ScheduledEndTime   *time.Time                                   `json:"scheduled_end_time"`
	Description        *string                                      `json:"description"`
	EntityType         discordgo.GuildScheduledEventEntityType      `json:"entity_type"`
}

// EditEvent 既存イベントの日時・説明・場所を更新する。名前は変更しない
// 説明が空の場合は既存の説明を消去する
func (s *DiscordEventStore) EditEvent(ctx context.Context, guildID, eventID string, fields domain.EventFields, reason string) error {
	endpoint := discordgo.EndpointGuildScheduledEvent(guildID, eventID)
	_, err := s.session.RequestWithBucketID(http.MethodPatch, endpoint, buildEdit(fields), endpoint,
		discordgo.WithContext(ctx), discordgo.WithAuditLogReason(reason))
	if err != nil {
		return fmt.Errorf("スケジュールイベント %s の更新に失敗しました: %w", eventID, err)
	}
	return nil
}

// DeleteEvent 既存イベントを削除
func (s *DiscordEventStore) DeleteEvent(ctx context.Context, guildID, eventID, reason string) error {
	err := s.session.GuildScheduledEventDelete(guildID, eventID,
		discordgo.WithContext(ctx), discordgo.WithAuditLogReason(reason))
	if err != nil {
		return fmt.Errorf("スケジュールイベント %s の削除に失敗しました: %w", eventID, err)
	}
	return nil
}

func buildParams(fields domain.EventFields) *discordgo.GuildScheduledEventParams {
	start, end := fields.Start, fields.End
	return &discordgo.GuildScheduledEventParams{
		Description:        fields.Description,
		ScheduledStartTime: &start,
		ScheduledEndTime:   &end,
		EntityType:         discordgo.GuildScheduledEventEntityTypeExternal,
		PrivacyLevel:       discordgo.GuildScheduledEventPrivacyLevelGuildOnly,
		EntityMetadata: &discordgo.GuildScheduledEventEntityMetadata{
			Location: fields.Location,
		},
	}
}

func buildEdit(fields domain.EventFields) *scheduledEventEdit {
	start, end := fields.Start, fields.End
	edit := &scheduledEventEdit{
		EntityMetadata: &discordgo.GuildScheduledEventEntityMetadata{
			Location: fields.Location,
		},
		PrivacyLevel:       discordgo.GuildScheduledEventPrivacyLevelGuildOnly,
		ScheduledStartTime: &start,
		ScheduledEndTime:   &end,
		EntityType:         discordgo.GuildScheduledEventEntityTypeExternal,
	}
	if fields.Description != "" {
		description := fields.Description
		edit.Description = &description
	}
	return edit
}

// convertScheduledEvent Discordのイベントをドメインエンティティに変換
func convertScheduledEvent(ev *discordgo.GuildScheduledEvent) domain.ExistingEvent {
	existing := domain.ExistingEvent{
		ID:          ev.ID,
		Name:        ev.Name,
		Start:       ev.ScheduledStartTime,
		Description: ev.Description,
		Location:    ev.EntityMetadata.Location,
	}
	if ev.ScheduledEndTime != nil {
		existing.End = *ev.ScheduledEndTime
	}
	return existing
}
