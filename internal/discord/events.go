package discord

import (
	"errors"

	"github.com/bwmarrin/discordgo"

	"github.com/darkanthem21/Rock-Bot/internal/panel"
)

func (c *Client) handleReady(s *discordgo.Session, r *discordgo.Ready) {
	c.log.WithField("user", r.User.Username).Info("Bot is ready")

	c.renderer.SetBotName(r.User.Username)
	s.UpdateListeningStatus("la radio | " + c.prefix + "help")

	c.bootstrapPanel()
}

// bootstrapPanel re-resolves the tracked control message after a restart:
// the persisted ID wins over the configured seed, and when neither points
// at a live message a fresh panel is published.
func (c *Client) bootstrapPanel() {
	if !c.renderer.Enabled() {
		c.log.Info("No dedicated text channel configured, panel disabled")
		return
	}

	messageID, err := c.store.PanelMessageID()
	if err != nil {
		c.log.WithError(err).Warn("Failed to read persisted panel message ID")
	}
	if messageID == "" {
		messageID = c.controlsMessageID
	}

	if err := c.renderer.Resolve(messageID); err != nil {
		c.log.WithField("message_id", messageID).Info("Panel message not found, publishing a new one")
		if _, err := c.renderer.Publish(); err != nil {
			c.log.WithError(err).Error("Failed to publish panel message")
		}
		return
	}

	c.render("")
}

// handleVoiceStateUpdate tracks the bot's own voice membership. Updates
// for other members are ignored; channel co-location is enforced at
// action time instead.
func (c *Client) handleVoiceStateUpdate(s *discordgo.Session, v *discordgo.VoiceStateUpdate) {
	if v.UserID != s.State.User.ID {
		return
	}

	switch {
	case v.ChannelID == "":
		c.log.Info("Bot was disconnected from voice")
		c.voice.HandleDisconnect()
	case v.BeforeUpdate == nil || v.BeforeUpdate.ChannelID == "":
		c.log.WithField("channel", v.ChannelID).Info("Bot joined voice channel")
		c.state.SetChannelName(c.voice.ChannelName())
	default:
		c.log.WithField("channel", v.ChannelID).Info("Bot moved to another voice channel")
		c.state.SetChannelName(c.voice.ChannelName())
	}

	if err := c.renderer.Render(""); err != nil && !errors.Is(err, panel.ErrPanelMessageMissing) {
		c.log.WithError(err).Warn("Panel render failed after voice update")
	}
}
