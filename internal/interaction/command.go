package interaction

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/c4-bot/discord-ics-importer/internal/domain"
)

const (
	// CommandName スラッシュコマンド名
	CommandName = "import-events"

	optionEvents    = "events"
	optionOverwrite = "overwrite"
)

// Command インポートコマンドの定義
// イベント管理権限を持つメンバーのみ、サーバー内でのみ使用できる
func Command() *discordgo.ApplicationCommand {
	permissions := int64(discordgo.PermissionManageEvents)
	dmPermission := false

	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(domain.Policies()))
	for _, p := range domain.Policies() {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  string(p),
			Value: string(p),
		})
	}

	return &discordgo.ApplicationCommand{
		Name:                     CommandName,
		Description:              "Create server events from an .ics calendar file",
		DefaultMemberPermissions: &permissions,
		DMPermission:             &dmPermission,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionAttachment,
				Name:        optionEvents,
				Description: "A .ics file containing all of the events to create",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        optionOverwrite,
				Description: fmt.Sprintf("What to do when an event with the same name exists (default: %s)", domain.DefaultPolicy),
				Choices:     choices,
			},
		},
	}
}

// CommandRegistrar コマンド登録に使用する操作。*discordgo.Session が満たす
type CommandRegistrar interface {
	ApplicationCommandBulkOverwrite(appID, guildID string, commands []*discordgo.ApplicationCommand, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
}

// RegisterCommands コマンドを登録する。guildID が空ならグローバルコマンドになる
func RegisterCommands(r CommandRegistrar, appID, guildID string) error {
	if appID == "" {
		return fmt.Errorf("アプリケーションIDが設定されていません")
	}
	if _, err := r.ApplicationCommandBulkOverwrite(appID, guildID, []*discordgo.ApplicationCommand{Command()}); err != nil {
		return fmt.Errorf("コマンドの登録に失敗しました: %w", err)
	}
	return nil
}
