package gateway

import (
	"bytes"
	"strings"
	"unicode/utf8"

	ical "github.com/arran4/golang-ical"

	"github.com/c4-bot/discord-ics-importer/internal/domain"
)

// ICSDecoder golang-ical を使用したカレンダーファイルの解析
type ICSDecoder struct{}

// NewICSDecoder ICSデコーダーを作成
func NewICSDecoder() *ICSDecoder {
	return &ICSDecoder{}
}

// Decode .ics の内容をファイル内の順序どおりにイベントへ変換する
// 必須項目が欠けたイベントもそのまま返し、除外は呼び出し側で行う
func (d *ICSDecoder) Decode(data []byte) ([]domain.ImportedEvent, error) {
	if len(data) == 0 {
		return nil, &domain.DecodeError{Reason: "カレンダーファイルが空です"}
	}
	if !utf8.Valid(data) {
		return nil, &domain.DecodeError{Reason: "カレンダーファイルをUTF-8として読み込めません"}
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(data))
	if err != nil {
		return nil, &domain.DecodeError{Reason: "カレンダーの解析に失敗しました", Err: err}
	}

	vevents := cal.Events()
	events := make([]domain.ImportedEvent, 0, len(vevents))
	for _, ve := range vevents {
		events = append(events, convertVEvent(ve))
	}
	return events, nil
}

// convertVEvent VEVENTをドメインエンティティに変換
// 開始・終了時刻が読めない場合はゼロ値のままにする
func convertVEvent(ve *ical.VEvent) domain.ImportedEvent {
	event := domain.ImportedEvent{
		UID:         propertyValue(ve, ical.ComponentPropertyUniqueId),
		Name:        propertyValue(ve, ical.ComponentPropertySummary),
		Description: propertyValue(ve, ical.ComponentPropertyDescription),
		Location:    propertyValue(ve, ical.ComponentPropertyLocation),
	}

	if start, err := ve.GetStartAt(); err == nil {
		event.Start = start
	}
	if end, err := ve.GetEndAt(); err == nil {
		event.End = end
	}
	return event
}

func propertyValue(ve *ical.VEvent, prop ical.ComponentProperty) string {
	p := ve.GetProperty(prop)
	if p == nil {
		return ""
	}
	return strings.TrimSpace(p.Value)
}
