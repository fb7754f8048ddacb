package interaction

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/c4-bot/discord-ics-importer/internal/domain"
	"github.com/c4-bot/discord-ics-importer/internal/usecase"
)

// MockImporter は FileImporter のテスト用モック
type MockImporter struct {
	mock.Mock
}

func (m *MockImporter) ImportFile(ctx context.Context, req usecase.FileImport) (domain.Report, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(domain.Report), args.Error(1)
}

// MockResponder は Responder のテスト用モック
type MockResponder struct {
	mock.Mock
}

func (m *MockResponder) InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
	return m.Called(interaction, resp).Error(0)
}

func (m *MockResponder) FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	args := m.Called(interaction, wait, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*discordgo.Message), args.Error(1)
}

func newTestHandler() (*Handler, *MockImporter, *MockResponder) {
	importer := new(MockImporter)
	responder := new(MockResponder)
	return NewHandler(importer, slog.New(slog.NewTextHandler(io.Discard, nil))), importer, responder
}

func newCommandInteraction(guildID, contentType string, options ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.InteractionCreate {
	opts := append([]*discordgo.ApplicationCommandInteractionDataOption{
		{Name: optionEvents, Type: discordgo.ApplicationCommandOptionAttachment, Value: "att-1"},
	}, options...)

	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:    discordgo.InteractionApplicationCommand,
		GuildID: guildID,
		Member:  &discordgo.Member{User: &discordgo.User{Username: "alice", Discriminator: "0"}},
		Data: discordgo.ApplicationCommandInteractionData{
			Name:    CommandName,
			Options: opts,
			Resolved: &discordgo.ApplicationCommandInteractionDataResolved{
				Attachments: map[string]*discordgo.MessageAttachment{
					"att-1": {
						ID:          "att-1",
						URL:         "https://cdn.example.com/events.ics",
						Filename:    "events.ics",
						ContentType: contentType,
					},
				},
			},
		},
	}}
}

func ephemeralContent(content string) interface{} {
	return mock.MatchedBy(func(resp *discordgo.InteractionResponse) bool {
		return resp.Type == discordgo.InteractionResponseChannelMessageWithSource &&
			resp.Data.Flags == discordgo.MessageFlagsEphemeral &&
			resp.Data.Content == content
	})
}

func deferredEphemeral() interface{} {
	return mock.MatchedBy(func(resp *discordgo.InteractionResponse) bool {
		return resp.Type == discordgo.InteractionResponseDeferredChannelMessageWithSource &&
			resp.Data.Flags == discordgo.MessageFlagsEphemeral
	})
}

// --- Handle テスト ---

func TestHandle_Success(t *testing.T) {
	h, importer, responder := newTestHandler()
	i := newCommandInteraction("guild-1", "text/calendar; charset=utf-8",
		&discordgo.ApplicationCommandInteractionDataOption{
			Name: optionOverwrite, Type: discordgo.ApplicationCommandOptionString, Value: "keep-both",
		})

	responder.On("InteractionRespond", i.Interaction, deferredEphemeral()).Return(nil).Once()
	importer.On("ImportFile", mock.Anything, usecase.FileImport{
		GuildID:   "guild-1",
		Requester: "alice",
		Attachment: usecase.Attachment{
			URL:         "https://cdn.example.com/events.ics",
			Filename:    "events.ics",
			ContentType: "text/calendar; charset=utf-8",
		},
		Policy: domain.PolicyKeepBoth,
	}).Return(domain.Report{Processed: 3, Created: 3}, nil)
	responder.On("FollowupMessageCreate", i.Interaction, true, mock.MatchedBy(func(p *discordgo.WebhookParams) bool {
		return p.Flags == discordgo.MessageFlagsEphemeral && strings.HasPrefix(p.Content, "Processed 3 events!")
	})).Return(&discordgo.Message{}, nil)

	h.Handle(context.Background(), responder, i)

	importer.AssertExpectations(t)
	responder.AssertExpectations(t)
}

func TestHandle_DefaultPolicyIsMerge(t *testing.T) {
	h, importer, responder := newTestHandler()
	i := newCommandInteraction("guild-1", "text/calendar")

	responder.On("InteractionRespond", i.Interaction, deferredEphemeral()).Return(nil)
	importer.On("ImportFile", mock.Anything, mock.MatchedBy(func(req usecase.FileImport) bool {
		return req.Policy == domain.PolicyMerge
	})).Return(domain.Report{}, nil)
	responder.On("FollowupMessageCreate", i.Interaction, true, mock.Anything).Return(&discordgo.Message{}, nil)

	h.Handle(context.Background(), responder, i)
	importer.AssertExpectations(t)
}

func TestHandle_WrongContentType(t *testing.T) {
	h, importer, responder := newTestHandler()
	i := newCommandInteraction("guild-1", "image/png")

	responder.On("InteractionRespond", i.Interaction, ephemeralContent("What's in here? image/png")).Return(nil).Once()

	h.Handle(context.Background(), responder, i)

	responder.AssertExpectations(t)
	importer.AssertNotCalled(t, "ImportFile", mock.Anything, mock.Anything)
}

func TestHandle_OutsideGuild(t *testing.T) {
	h, importer, responder := newTestHandler()
	i := newCommandInteraction("", "text/calendar; charset=utf-8")
	i.Member = nil
	i.User = &discordgo.User{Username: "bob", Discriminator: "0"}

	responder.On("InteractionRespond", i.Interaction, ephemeralContent("This command can only be used in a server.")).Return(nil).Once()

	h.Handle(context.Background(), responder, i)

	responder.AssertExpectations(t)
	importer.AssertNotCalled(t, "ImportFile", mock.Anything, mock.Anything)
}

func TestHandle_DecodeError(t *testing.T) {
	h, importer, responder := newTestHandler()
	i := newCommandInteraction("guild-1", "text/calendar; charset=utf-8")

	responder.On("InteractionRespond", i.Interaction, deferredEphemeral()).Return(nil)
	importer.On("ImportFile", mock.Anything, mock.Anything).
		Return(domain.Report{}, &domain.DecodeError{Reason: "カレンダーファイルをUTF-8として読み込めません"})
	responder.On("FollowupMessageCreate", i.Interaction, true, mock.MatchedBy(func(p *discordgo.WebhookParams) bool {
		return p.Content == "Failed to read the file: カレンダーファイルをUTF-8として読み込めません"
	})).Return(&discordgo.Message{}, nil)

	h.Handle(context.Background(), responder, i)
	responder.AssertExpectations(t)
}

func TestHandle_IgnoresOtherCommands(t *testing.T) {
	h, importer, responder := newTestHandler()
	i := newCommandInteraction("guild-1", "text/calendar")
	i.Data = discordgo.ApplicationCommandInteractionData{Name: "ping"}

	h.Handle(context.Background(), responder, i)

	assert.Empty(t, responder.Calls)
	assert.Empty(t, importer.Calls)
}

// --- errorMessage テスト ---

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"サーバー外", domain.ErrOutsideGuild, "This command can only be used in a server."},
		{"種類違い", &domain.AttachmentTypeError{ContentType: "text/plain"}, "What's in here? text/plain"},
		{"入力値不正", &errRequest{message: "Please attach a .ics file."}, "Please attach a .ics file."},
		{"その他", errors.New("boom"), "Something went wrong while importing events: boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, errorMessage(tt.err))
		})
	}
}

// --- Command / RegisterCommands テスト ---

// MockRegistrar は CommandRegistrar のテスト用モック
type MockRegistrar struct {
	mock.Mock
}

func (m *MockRegistrar) ApplicationCommandBulkOverwrite(appID, guildID string, commands []*discordgo.ApplicationCommand, _ ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error) {
	args := m.Called(appID, guildID, commands)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*discordgo.ApplicationCommand), args.Error(1)
}

func TestCommand(t *testing.T) {
	cmd := Command()
	assert.Equal(t, CommandName, cmd.Name)
	require.Len(t, cmd.Options, 2)
	assert.True(t, cmd.Options[0].Required)
	assert.Equal(t, discordgo.ApplicationCommandOptionAttachment, cmd.Options[0].Type)
	assert.False(t, cmd.Options[1].Required)
	assert.Len(t, cmd.Options[1].Choices, 4)
	require.NotNil(t, cmd.DMPermission)
	assert.False(t, *cmd.DMPermission)
}

func TestRegisterCommands(t *testing.T) {
	registrar := new(MockRegistrar)
	registrar.On("ApplicationCommandBulkOverwrite", "app-1", "guild-1", mock.Anything).
		Return([]*discordgo.ApplicationCommand{Command()}, nil)

	require.NoError(t, RegisterCommands(registrar, "app-1", "guild-1"))
	registrar.AssertExpectations(t)

	assert.Error(t, RegisterCommands(registrar, "", "guild-1"))
}
