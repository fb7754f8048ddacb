package domain

import "fmt"

// DefaultHorizonDays Google Calendarから取得する期間の既定日数
const DefaultHorizonDays = 30

// ImportJob 定期的に実行するインポートの設定
type ImportJob struct {
	Name     string
	GuildID  string
	Policy   OverwritePolicy
	Schedule string
	Source   JobSource
}

// JobSource インポート元。ICSURL と GoogleCalendarID のどちらか一方を指定する
type JobSource struct {
	ICSURL           string
	GoogleCalendarID string
	HorizonDays      int
}

func (s JobSource) String() string {
	if s.ICSURL != "" {
		return s.ICSURL
	}
	return fmt.Sprintf("Google Calendar %s", s.GoogleCalendarID)
}
