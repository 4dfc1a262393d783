package notify

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// DiscordSender delivers alerts as messages to a fixed Discord channel.
type DiscordSender struct {
	session   *discordgo.Session
	channelID string
	logger    *zap.Logger
}

// NewDiscordSender creates a Discord sender.
func NewDiscordSender(token, channelID string, logger *zap.Logger) (*DiscordSender, error) {
	if token == "" {
		return nil, fmt.Errorf("discord token is required")
	}
	if channelID == "" {
		return nil, fmt.Errorf("discord channel id is required")
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}

	return &DiscordSender{
		session:   session,
		channelID: channelID,
		logger:    logger,
	}, nil
}

func (d *DiscordSender) Name() string {
	return "discord"
}

func (d *DiscordSender) Send(_ context.Context, alert Alert) error {
	content := fmt.Sprintf("💊 **%s**\n%s", alert.Title, alert.Body)
	if _, err := d.session.ChannelMessageSend(d.channelID, content); err != nil {
		return fmt.Errorf("failed to send discord message: %w", err)
	}
	return nil
}
