package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

// DiscordAlertSink posts fresh intel and processed killmails to a Discord
// channel. It is the reference AlertSink; the desktop companion registers
// its own notification sink instead.
type DiscordAlertSink struct {
	session   *discordgo.Session
	channelID string
}

func NewDiscordAlertSink(token, channelID string) (*DiscordAlertSink, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discordgo session: %w", err)
	}
	return &DiscordAlertSink{session: session, channelID: channelID}, nil
}

// Start opens the gateway session and holds it until ctx is cancelled.
func (d *DiscordAlertSink) Start(ctx context.Context) error {
	if err := d.session.Open(); err != nil {
		return fmt.Errorf("discord open: %w", err)
	}
	log.Info().Str("user", d.session.State.User.Username).Msg("discord alert sink connected")

	<-ctx.Done()
	return d.session.Close()
}

func (d *DiscordAlertSink) NotifyChatMessage(msg ChannelChatMessage) {
	text := fmt.Sprintf("📡 **%s** %s > %s",
		msg.Metadata.ChannelName, msg.Message.Author, msg.Message.Text)
	d.send(text)
}

func (d *DiscordAlertSink) NotifyKillmail(km ProcessedKillmail) {
	d.send(formatKillmail(km))
}

func (d *DiscordAlertSink) send(text string) {
	if _, err := d.session.ChannelMessageSend(d.channelID, text); err != nil {
		log.Warn().Err(err).Msg("discord send failed")
	}
}

func formatKillmail(km ProcessedKillmail) string {
	var b strings.Builder
	fmt.Fprintf(&b, "💥 **%s** lost in **%s**", km.Victim.ShipType, km.System.Name)
	if km.Victim.Name != "" {
		fmt.Fprintf(&b, ": %s", km.Victim.Name)
		if km.Victim.CorporationTicker != "" {
			fmt.Fprintf(&b, " [%s]", km.Victim.CorporationTicker)
		}
	}
	if km.Nearby != nil {
		fmt.Fprintf(&b, ", %s", describeEntity(km.Nearby))
	}
	if len(km.ShipGroups) > 0 {
		b.WriteString("\nAttackers:")
		for _, g := range km.ShipGroups {
			fmt.Fprintf(&b, " %dx %s (%s)", g.Count, g.ShipType, g.Standing)
		}
	}
	fmt.Fprintf(&b, "\n<%s>", km.Killmail.URL)
	return b.String()
}
