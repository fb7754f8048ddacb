package usecase

import (
	"sort"
	"strings"

	"github.com/c4-bot/discord-ics-importer/internal/domain"
)

// EventIndex 既存イベントを名前で引くためのインデックス
type EventIndex map[string]domain.ExistingEvent

// BuildIndex 既存イベントのスナップショットからインデックスを作成する
// 名前が重複している場合は後に出現したものが残り、重複した名前を返す
func BuildIndex(existing []domain.ExistingEvent) (EventIndex, []string) {
	index := make(EventIndex, len(existing))
	seen := make(map[string]bool)
	for _, ev := range existing {
		if _, ok := index[ev.Name]; ok {
			seen[ev.Name] = true
		}
		index[ev.Name] = ev
	}

	duplicates := make([]string, 0, len(seen))
	for name := range seen {
		duplicates = append(duplicates, name)
	}
	sort.Strings(duplicates)
	return index, duplicates
}

// Reconcile インポートしたイベントごとに行う処理を決定する
// 入力順を保ち、実行中に作成したイベントはインデックスに加えない
// 不明なポリシーでは既存イベントに触れない
func Reconcile(entries []domain.ImportedEvent, index EventIndex, policy domain.OverwritePolicy) []domain.Action {
	actions := make([]domain.Action, 0, len(entries))
	for _, entry := range entries {
		existing, ok := index[strings.TrimSpace(entry.Name)]
		if !ok {
			actions = append(actions, domain.Action{Kind: domain.ActionCreate, Entry: entry})
			continue
		}

		match := existing
		switch policy {
		case domain.PolicyKeepExisting:
			actions = append(actions, domain.Action{Kind: domain.ActionSkip, Entry: entry, Existing: &match})
		case domain.PolicyKeepImported:
			actions = append(actions, domain.Action{Kind: domain.ActionReplace, Entry: entry, Existing: &match})
		case domain.PolicyKeepBoth:
			actions = append(actions, domain.Action{Kind: domain.ActionCreate, Entry: entry})
		case domain.PolicyMerge:
			actions = append(actions, domain.Action{Kind: domain.ActionMerge, Entry: entry, Existing: &match})
		default:
			actions = append(actions, domain.Action{Kind: domain.ActionSkip, Entry: entry, Existing: &match})
		}
	}
	return actions
}
