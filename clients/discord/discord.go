package discord

import (
	"fmt"
	"time"
	"txlive/clients/notifier"
	"txlive/config"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Sender is the part of a discordgo session used for alerts.
type Sender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordClient sends pattern alerts to Discord.
// Implements notifier.Notifier interface.
type DiscordClient struct {
	logger    *zap.Logger
	session   *discordgo.Session
	sender    Sender
	channelID string
	isProd    bool
}

func NewDiscordClient(logger *zap.Logger, cfg *config.Config) *DiscordClient {
	if logger == nil {
		logger = zap.NewNop()
	}

	dc := &DiscordClient{
		logger:    logger,
		channelID: cfg.Discord.ChannelID,
		isProd:    cfg.IsProd,
	}

	token := cfg.Discord.BotToken
	if token == "" {
		logger.Warn("DISCORD_BOT_TOKEN not set, Discord alerts disabled")
		return dc
	}
	if dc.channelID == "" {
		logger.Warn("DISCORD_CHANNEL_ID not set, Discord alerts disabled")
		return dc
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		logger.Error("failed to create discord session", zap.Error(err))
		return dc
	}

	logger.Info("discord bot initialized",
		zap.Bool("isProd", cfg.IsProd),
		zap.String("channelID", dc.channelID),
	)

	dc.session = session
	dc.sender = session
	return dc
}

// Enabled reports whether alerts will actually be sent.
func (dc *DiscordClient) Enabled() bool {
	return dc.sender != nil
}

// SendPatternAlert sends a rich embedded pattern alert.
// Implements notifier.Notifier interface.
func (dc *DiscordClient) SendPatternAlert(alert notifier.PatternAlert) {
	if dc.sender == nil {
		dc.logger.Debug("discord session not initialized, skipping alert")
		return
	}

	embed := dc.buildAlertEmbed(alert)

	_, err := dc.sender.ChannelMessageSendEmbed(dc.channelID, embed)
	if err != nil {
		dc.logger.Error("failed to send discord embed", zap.Error(err))
		return
	}

	dc.logger.Info("sent discord pattern alert",
		zap.String("symbol", alert.Symbol),
		zap.String("pattern", alert.AlertType),
	)
}

func (dc *DiscordClient) buildAlertEmbed(alert notifier.PatternAlert) *discordgo.MessageEmbed {
	color := confidenceColor(alert.ConfidencePct)

	timeframe := alert.Timeframe
	if timeframe == "" {
		timeframe = "N/A"
	}

	fields := []*discordgo.MessageEmbedField{
		{
			Name:   "Symbol",
			Value:  alert.Symbol,
			Inline: true,
		},
		{
			Name:   "Pattern",
			Value:  alert.AlertType,
			Inline: true,
		},
		{
			Name:   "Confidence",
			Value:  fmt.Sprintf("%.1f%%", alert.ConfidencePct),
			Inline: true,
		},
		{
			Name:   "Price",
			Value:  fmt.Sprintf("$%.2f", alert.Price),
			Inline: true,
		},
		{
			Name:   "Timeframe",
			Value:  timeframe,
			Inline: true,
		},
	}

	title := fmt.Sprintf("📈 %s on %s", alert.AlertType, alert.Symbol)
	if alert.Source == notifier.SourceSimulated {
		title = "🧪 " + title + " (simulated)"
	}

	ts := alert.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	footerText := "txlive"
	if !dc.isProd {
		footerText = "txlive (beta)"
	}
	if alert.ID != "" {
		footerText += " * " + alert.ID
	}

	return &discordgo.MessageEmbed{
		Title:  title,
		Color:  color,
		Fields: fields,
		Footer: &discordgo.MessageEmbedFooter{
			Text: footerText,
		},
		Timestamp: ts.UTC().Format(time.RFC3339),
	}
}

func confidenceColor(pct float64) int {
	switch {
	case pct >= 85:
		return 0x2ECC71 // Green
	case pct >= 75:
		return 0xF1C40F // Yellow
	default:
		return 0x95A5A6 // Grey
	}
}

// Close closes the Discord session.
func (dc *DiscordClient) Close() error {
	if dc.session != nil {
		return dc.session.Close()
	}
	return nil
}
