// Package discord delivers approval prompts to a Discord channel as messages
// with button rows and relays button taps back as decision events.
package discord

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
	"github.com/viant/crier/internal/logging"
	"github.com/viant/crier/model"
	"github.com/viant/crier/service/notifier"
)

// MaxContentLength is the Discord message content limit in characters.
const MaxContentLength = 2000

// ErrChannelRequired is returned when no channel id is configured.
var ErrChannelRequired = errors.New("discord: channel id required")

// Config holds bot credentials and the review channel.
type Config struct {
	Token        string   `json:"token" yaml:"token" mapstructure:"token"`
	ChannelID    string   `json:"channelId" yaml:"channelId" mapstructure:"channelId"`
	AllowedUsers []string `json:"allowedUsers,omitempty" yaml:"allowedUsers,omitempty" mapstructure:"allowedUsers"`
}

// Enabled reports whether the notifier is configured.
func (c Config) Enabled() bool { return c.Token != "" && c.ChannelID != "" }

// Sender is the part of *discordgo.Session used to post prompts.
type Sender interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Notifier posts prompts to a channel.
type Notifier struct {
	sender    Sender
	channelID string
	logger    logrus.FieldLogger
}

// NewSession opens a bot session for config.
func NewSession(config Config) (*discordgo.Session, error) {
	if config.Token == "" {
		return nil, fmt.Errorf("no bot token provided")
	}
	session, err := discordgo.New("Bot " + config.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages
	return session, nil
}

// New creates a notifier posting to channelID.
func New(sender Sender, channelID string, logger logrus.FieldLogger) (*Notifier, error) {
	if channelID == "" {
		return nil, ErrChannelRequired
	}
	return &Notifier{sender: sender, channelID: channelID, logger: logging.OrDiscard(logger)}, nil
}

// Send posts the prompt with its button rows.
func (n *Notifier) Send(ctx context.Context, prompt *notifier.Prompt) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	message, err := n.sender.ChannelMessageSendComplex(n.channelID, &discordgo.MessageSend{
		Content:    truncate(prompt.Text, MaxContentLength),
		Components: Components(prompt.Rows),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to send prompt for action %s: %w", prompt.ActionID, err)
	}
	if message != nil {
		n.logger.WithFields(logrus.Fields{"action_id": prompt.ActionID, "message_id": message.ID}).Debug("prompt sent")
	}
	return nil
}

// Components converts button rows to Discord action rows.
func Components(rows [][]notifier.Button) []discordgo.MessageComponent {
	ret := make([]discordgo.MessageComponent, 0, len(rows))
	for _, row := range rows {
		buttons := make([]discordgo.MessageComponent, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, discordgo.Button{
				Label:    b.Label,
				Style:    buttonStyle(b.Token),
				CustomID: b.Token,
			})
		}
		ret = append(ret, discordgo.ActionsRow{Components: buttons})
	}
	return ret
}

func buttonStyle(token string) discordgo.ButtonStyle {
	decision, _, err := notifier.ParseCallback(token)
	if err != nil {
		return discordgo.SecondaryButton
	}
	switch {
	case decision == model.DecisionApprove:
		return discordgo.SuccessButton
	case decision == model.DecisionDeny:
		return discordgo.DangerButton
	case decision.IsApproval():
		return discordgo.PrimaryButton
	}
	return discordgo.SecondaryButton
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit-1]) + "…"
}
