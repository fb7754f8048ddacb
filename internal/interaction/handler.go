package interaction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/c4-bot/discord-ics-importer/internal/domain"
	"github.com/c4-bot/discord-ics-importer/internal/usecase"
)

// importTimeout インタラクションのトークンが有効な15分より短くする
const importTimeout = 10 * time.Minute

const maxMessageLength = 2000

// FileImporter ファイルインポートのユースケース
type FileImporter interface {
	ImportFile(ctx context.Context, req usecase.FileImport) (domain.Report, error)
}

// Responder インタラクションへの応答に使用する操作。*discordgo.Session が満たす
type Responder interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Handler インポートコマンドのハンドラー
type Handler struct {
	importer FileImporter
	logger   *slog.Logger
}

// NewHandler ハンドラーを作成
func NewHandler(importer FileImporter, logger *slog.Logger) *Handler {
	return &Handler{importer: importer, logger: logger}
}

// OnInteractionCreate discordgo のイベントハンドラーとして登録する
func (h *Handler) OnInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	h.Handle(context.Background(), s, i)
}

// Handle コマンドを検証し、インポート結果を本人にのみ表示する
func (h *Handler) Handle(ctx context.Context, r Responder, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	data := i.ApplicationCommandData()
	if data.Name != CommandName {
		return
	}

	req, err := parseRequest(i.Interaction, data)
	if err != nil {
		h.respondEphemeral(r, i.Interaction, errorMessage(err))
		return
	}
	if req.GuildID == "" {
		h.respondEphemeral(r, i.Interaction, errorMessage(domain.ErrOutsideGuild))
		return
	}
	if !usecase.IsCalendarContentType(req.Attachment.ContentType) {
		h.respondEphemeral(r, i.Interaction, errorMessage(&domain.AttachmentTypeError{ContentType: req.Attachment.ContentType}))
		return
	}

	err = r.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
	if err != nil {
		h.logger.Error("インタラクションへの応答に失敗しました", "guild_id", req.GuildID, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, importTimeout)
	defer cancel()

	h.logger.Info("インポートコマンドを受け付けました",
		"guild_id", req.GuildID, "requester", req.Requester, "file", req.Attachment.Filename, "policy", string(req.Policy))

	var content string
	report, err := h.importer.ImportFile(ctx, req)
	if err != nil {
		h.logger.Warn("インポートに失敗しました", "guild_id", req.GuildID, "error", err)
		content = errorMessage(err)
	} else {
		content = report.Summary()
	}

	_, err = r.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: truncateMessage(content),
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	if err != nil {
		h.logger.Error("結果メッセージの送信に失敗しました", "guild_id", req.GuildID, "error", err)
	}
}

func (h *Handler) respondEphemeral(r Responder, interaction *discordgo.Interaction, content string) {
	err := r.InteractionRespond(interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		h.logger.Error("インタラクションへの応答に失敗しました", "error", err)
	}
}

// errRequest コマンドの入力値が不正
type errRequest struct {
	message string
}

func (e *errRequest) Error() string {
	return e.message
}

// parseRequest コマンドのオプションからインポート要求を組み立てる
func parseRequest(i *discordgo.Interaction, data discordgo.ApplicationCommandInteractionData) (usecase.FileImport, error) {
	req := usecase.FileImport{
		GuildID:   i.GuildID,
		Requester: requesterName(i),
		Policy:    domain.DefaultPolicy,
	}

	var attachment *discordgo.MessageAttachment
	for _, opt := range data.Options {
		switch opt.Name {
		case optionEvents:
			id, _ := opt.Value.(string)
			if data.Resolved != nil {
				attachment = data.Resolved.Attachments[id]
			}
		case optionOverwrite:
			policy, err := domain.ParsePolicy(opt.StringValue())
			if err != nil {
				return usecase.FileImport{}, &errRequest{message: fmt.Sprintf("Unknown overwrite option: %s", opt.StringValue())}
			}
			req.Policy = policy
		}
	}

	if attachment == nil {
		return usecase.FileImport{}, &errRequest{message: "Please attach a .ics file."}
	}
	req.Attachment = usecase.Attachment{
		URL:         attachment.URL,
		Filename:    attachment.Filename,
		ContentType: attachment.ContentType,
	}
	return req, nil
}

func requesterName(i *discordgo.Interaction) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.String()
	}
	if i.User != nil {
		return i.User.String()
	}
	return "unknown user"
}

// errorMessage エラーの種類ごとに利用者向けのメッセージを返す
func errorMessage(err error) string {
	var (
		typeErr    *domain.AttachmentTypeError
		decodeErr  *domain.DecodeError
		requestErr *errRequest
	)
	switch {
	case errors.Is(err, domain.ErrOutsideGuild):
		return "This command can only be used in a server."
	case errors.As(err, &typeErr):
		return fmt.Sprintf("What's in here? %s", typeErr.ContentType)
	case errors.As(err, &decodeErr):
		return fmt.Sprintf("Failed to read the file: %s", decodeErr.Error())
	case errors.As(err, &requestErr):
		return requestErr.message
	}
	return fmt.Sprintf("Something went wrong while importing events: %v", err)
}

func truncateMessage(s string) string {
	runes := []rune(s)
	if len(runes) <= maxMessageLength {
		return s
	}
	return string(runes[:maxMessageLength-1]) + "…"
}
