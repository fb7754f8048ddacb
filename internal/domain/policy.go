package domain

import "fmt"

// OverwritePolicy 既存イベントと名前が衝突したときの扱い
type OverwritePolicy string

const (
	PolicyKeepBoth     OverwritePolicy = "keep-both"
	PolicyKeepExisting OverwritePolicy = "keep-existing"
	PolicyKeepImported OverwritePolicy = "keep-imported"
	PolicyMerge        OverwritePolicy = "merge"
)

// DefaultPolicy ポリシー未指定時の値
const DefaultPolicy = PolicyMerge

// Policies 選択可能なポリシーの一覧（コマンドの選択肢の並び順）
func Policies() []OverwritePolicy {
	return []OverwritePolicy{PolicyKeepBoth, PolicyKeepExisting, PolicyKeepImported, PolicyMerge}
}

// ParsePolicy 文字列をポリシーに変換する。空文字はデフォルト
func ParsePolicy(s string) (OverwritePolicy, error) {
	if s == "" {
		return DefaultPolicy, nil
	}
	for _, p := range Policies() {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("不明な上書きポリシーです: %q", s)
}

// ActionKind インポートしたイベントに対して行う処理の種類
type ActionKind int

const (
	ActionCreate ActionKind = iota
	ActionReplace
	ActionSkip
	ActionMerge
)

func (k ActionKind) String() string {
	switch k {
	case ActionCreate:
		return "create"
	case ActionReplace:
		return "replace"
	case ActionSkip:
		return "skip"
	case ActionMerge:
		return "merge"
	}
	return fmt.Sprintf("ActionKind(%d)", int(k))
}

// Action 1件のインポートイベントに対する処理
// Existing は Replace と Merge のときのみ設定される
type Action struct {
	Kind     ActionKind
	Entry    ImportedEvent
	Existing *ExistingEvent
}
