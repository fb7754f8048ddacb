package domain

import (
	"strings"
	"time"
)

// DefaultLocation 場所が指定されていないイベントに設定する値
const DefaultLocation = "To Be Determined!"

// ImportedEvent カレンダーファイルから読み込んだ1件のイベント
type ImportedEvent struct {
	UID         string
	Name        string
	Start       time.Time
	End         time.Time
	Description string
	Location    string
}

// Valid 名前・開始時刻・終了時刻が揃っているかを判定
func (e ImportedEvent) Valid() bool {
	return strings.TrimSpace(e.Name) != "" && !e.Start.IsZero() && !e.End.IsZero()
}

// Fields 登録・更新に使うフィールドへ変換
func (e ImportedEvent) Fields() EventFields {
	location := strings.TrimSpace(e.Location)
	if location == "" {
		location = DefaultLocation
	}
	return EventFields{
		Name:        strings.TrimSpace(e.Name),
		Start:       e.Start,
		End:         e.End,
		Description: strings.TrimSpace(e.Description),
		Location:    location,
	}
}

// ExistingEvent サーバーに既に登録されているスケジュールイベント
type ExistingEvent struct {
	ID          string
	Name        string
	Start       time.Time
	End         time.Time
	Description string
	Location    string
}

// EventFields スケジュールイベントの作成・編集で送信する値
type EventFields struct {
	Name        string
	Start       time.Time
	End         time.Time
	Description string
	Location    string
}
