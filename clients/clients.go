package clients

import (
	"txlive/clients/channel"
	"txlive/clients/discord"
	"txlive/clients/gateway"
	"txlive/clients/notifier"
	"txlive/clients/txapi"
	"txlive/config"
	"txlive/internal/observability"

	"go.uber.org/zap"
)

type Clients struct {
	Logger *zap.Logger

	Gateway  *gateway.Gateway
	API      *txapi.Client
	Channel  *channel.Manager
	Discord  *discord.DiscordClient
	Notifier notifier.Notifier // Combined notifier for all alert sinks
}

// NewClients wires every backend-facing client. metrics may be nil.
func NewClients(logger *zap.Logger, cfg *config.Config, metrics *observability.Metrics) *Clients {
	gw := gateway.NewGateway(logger, cfg, gateway.WithMetrics(metrics))
	discordClient := discord.NewDiscordClient(logger, cfg)

	return &Clients{
		Logger:   logger,
		Gateway:  gw,
		API:      txapi.NewClient(logger, gw),
		Channel:  channel.NewManager(logger, cfg, channel.WithMetrics(metrics)),
		Discord:  discordClient,
		Notifier: notifier.NewMultiNotifier(discordClient, notifier.NewLogNotifier(logger)),
	}
}
