package discord

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/darkanthem21/Rock-Bot/internal/panel"
	"github.com/darkanthem21/Rock-Bot/internal/radio"
	"github.com/darkanthem21/Rock-Bot/internal/voice"
)

// handleInteraction routes component interactions by the custom-ID prefix
// before the first colon. The IDs are stable, so clicks on panels sent by
// an earlier process land here too.
func (c *Client) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionMessageComponent {
		return
	}

	customID := i.MessageComponentData().CustomID
	prefix := customID
	if idx := strings.Index(customID, ":"); idx != -1 {
		prefix = customID[:idx]
	}

	handler, ok := c.componentHandlers[customID]
	if !ok {
		handler, ok = c.componentHandlers[prefix]
	}
	if !ok {
		c.log.WithField("custom_id", customID).Warn("No handler for component")
		s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content: "Control desconocido.",
				Flags:   discordgo.MessageFlagsEphemeral,
			},
		})
		return
	}

	handler(s, i)
}

func (c *Client) handleJoinButton(s *discordgo.Session, i *discordgo.InteractionCreate) {
	resp := newInteractionResponder(s, i)
	c.doJoin(resp)
}

func (c *Client) handleLeaveButton(s *discordgo.Session, i *discordgo.InteractionCreate) {
	resp := newInteractionResponder(s, i)
	c.doLeave(resp)
}

func (c *Client) handleStationSelect(s *discordgo.Session, i *discordgo.InteractionCreate) {
	values := i.MessageComponentData().Values
	if len(values) == 0 {
		return
	}

	resp := newInteractionResponder(s, i)
	c.doPlay(resp, values[0])
}

// doJoin, doLeave and doPlay back both the buttons and the text commands.
// Each authorizes the caller, delegates, replies, and ends with exactly
// one panel render.

func (c *Client) doJoin(resp Responder) {
	if _, err := c.voice.UserChannel(resp.GuildID(), resp.UserID()); err != nil {
		resp.Respond("⚠️ Debes estar en un canal de voz para que pueda unirme.", true)
		return
	}

	if err := resp.Acknowledge(); err != nil {
		c.log.WithError(err).Warn("Failed to acknowledge join")
	}

	result, channelName, err := c.voice.Join(resp.GuildID(), resp.UserID())
	if err != nil {
		msg := fmt.Sprintf("🛑 No pude unirme a tu canal: %v", err)
		resp.Respond(msg, true)
		c.render(msg)
		return
	}

	switch result {
	case voice.Joined:
		resp.Respond(fmt.Sprintf("🎤 ¡Conectado a **%s**! Ahora puedes seleccionar una emisora.", channelName), true)
	case voice.Moved:
		resp.Respond(fmt.Sprintf("🎤 Me he movido a tu canal: **%s**.", channelName), true)
	case voice.AlreadyInChannel:
		resp.Respond(fmt.Sprintf("👍 Ya estoy en tu canal: **%s**.", channelName), true)
	}

	c.render("")
}

func (c *Client) doLeave(resp Responder) {
	if err := resp.Acknowledge(); err != nil {
		c.log.WithError(err).Warn("Failed to acknowledge leave")
	}

	left, err := c.voice.LeaveAndStop()
	if err != nil {
		c.log.WithError(err).Warn("Disconnect reported an error")
	}

	if left {
		resp.Respond("👋 Radio detenida y me he desconectado.", true)
	} else {
		resp.Respond("⚠️ No estoy conectado a ningún canal de voz.", true)
	}

	c.render("")
}

func (c *Client) doPlay(resp Responder, input string) {
	if err := resp.Acknowledge(); err != nil {
		c.log.WithError(err).Warn("Failed to acknowledge play")
	}

	name, err := c.controller.Play(resp.GuildID(), resp.UserID(), input)
	if err != nil {
		var pe *radio.PlayError
		if errors.As(err, &pe) {
			resp.Respond("⚠️ "+pe.Message, true)
		} else {
			resp.Respond("🆘 No pude reproducir eso.", true)
		}
		// The controller already rendered the panel with the error.
		return
	}

	resp.Respond(fmt.Sprintf("✅ Sintonizando: **%s**", name), true)
}

func (c *Client) render(errMsg string) {
	if err := c.renderer.Render(errMsg); err != nil {
		if errors.Is(err, panel.ErrPanelMessageMissing) {
			c.log.Debug("No panel message to render")
			return
		}
		c.log.WithError(err).Warn("Panel render failed")
	}
}
