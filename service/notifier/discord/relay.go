package discord

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
	"github.com/viant/crier/internal/clock"
	"github.com/viant/crier/internal/logging"
	"github.com/viant/crier/model"
	"github.com/viant/crier/service/notifier"
)

// Publisher forwards decision events to the approval listener.
type Publisher interface {
	Publish(ctx context.Context, event *model.DecisionEvent) error
}

// Responder is the part of *discordgo.Session used to acknowledge taps.
type Responder interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
}

// Relay turns button taps into decision events.
type Relay struct {
	publisher Publisher
	allowed   map[string]bool
	timeout   time.Duration
	logger    logrus.FieldLogger
}

// NewRelay creates a relay publishing to publisher. An empty allowedUsers
// accepts taps from anyone who can see the channel.
func NewRelay(publisher Publisher, allowedUsers []string, logger logrus.FieldLogger) *Relay {
	allowed := make(map[string]bool, len(allowedUsers))
	for _, id := range allowedUsers {
		allowed[id] = true
	}
	return &Relay{publisher: publisher, allowed: allowed, timeout: 5 * time.Second, logger: logging.OrDiscard(logger)}
}

// Handler returns the discordgo interaction handler.
func (r *Relay) Handler() func(s *discordgo.Session, i *discordgo.InteractionCreate) {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		if err := r.Handle(ctx, s, i); err != nil {
			r.logger.WithError(err).Warn("interaction not relayed")
		}
	}
}

// Handle relays one interaction. Non-button interactions are ignored.
func (r *Relay) Handle(ctx context.Context, responder Responder, i *discordgo.InteractionCreate) error {
	if i == nil || i.Interaction == nil || i.Type != discordgo.InteractionMessageComponent {
		return nil
	}
	data := i.MessageComponentData()
	decision, actionID, err := notifier.ParseCallback(data.CustomID)
	if err != nil {
		return err
	}
	userID := interactionUser(i)
	if len(r.allowed) > 0 && !r.allowed[userID] {
		return r.respondEphemeral(responder, i, "You are not allowed to decide on this action.")
	}
	event := &model.DecisionEvent{ActionID: actionID, Decision: decision, Timestamp: clock.Now().Format(time.RFC3339Nano)}
	if err := r.publisher.Publish(ctx, event); err != nil {
		_ = r.respondEphemeral(responder, i, "Decision could not be recorded, try again.")
		return fmt.Errorf("failed to publish decision for action %s: %w", actionID, err)
	}
	r.logger.WithFields(logrus.Fields{"action_id": actionID, "decision": decision, "user": userID}).Info("decision relayed")

	content := Acknowledgement(i.Message, decision, userID)
	return responder.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    content,
			Components: []discordgo.MessageComponent{},
		},
	})
}

// Acknowledgement returns the prompt text with the decision appended.
func Acknowledgement(message *discordgo.Message, decision model.Decision, userID string) string {
	original := ""
	if message != nil {
		original = message.Content
	}
	suffix := fmt.Sprintf("\n\n**Decision:** %s", decision)
	if userID != "" {
		suffix += fmt.Sprintf(" by <@%s>", userID)
	}
	return truncate(original, MaxContentLength-len([]rune(suffix))) + suffix
}

func (r *Relay) respondEphemeral(responder Responder, i *discordgo.InteractionCreate, text string) error {
	return responder.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: text, Flags: discordgo.MessageFlagsEphemeral},
	})
}

func interactionUser(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}
