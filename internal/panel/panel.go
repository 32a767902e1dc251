// Package panel renders the persistent radio control message.
package panel

import (
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"

	"github.com/darkanthem21/Rock-Bot/internal/session"
	"github.com/darkanthem21/Rock-Bot/internal/station"
)

// Stable component identifiers. Clicks keep routing here after a process
// restart, with no per-message registration.
const (
	CustomIDJoin    = "radio:join"
	CustomIDLeave   = "radio:leave"
	CustomIDStation = "radio:station"
)

// Embed color tiers, matching the Discord palette.
const (
	colorNominal      = 0x2ECC71 // green: connected and playing
	colorError        = 0xE67E22 // orange: last action failed
	colorDisconnected = 0xE74C3C // red: not in voice
	colorNeutral      = 0xF1C40F // gold: connected, idle
	colorLoading      = 0x979C9F // grey placeholder for a fresh panel
)

const thumbnailURL = "https://cdn-icons-png.flaticon.com/512/2907/2907109.png"

// ErrPanelMessageMissing reports that the tracked control message is gone.
// Recovery (publishing a fresh panel) is an explicit separate operation.
var ErrPanelMessageMissing = errors.New("panel message not found")

// VoiceStatus is the live connection view the renderer refreshes from.
type VoiceStatus interface {
	Connected() bool
	ChannelName() string
}

type messenger interface {
	ChannelMessage(channelID, messageID string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
}

type panelStore interface {
	SavePanelMessageID(id string) error
}

// Renderer owns the one tracked panel message. It never mutates playback
// state beyond re-asserting the session invariants before drawing.
type Renderer struct {
	log       logrus.FieldLogger
	msgr      messenger
	state     *session.Manager
	catalog   *station.Catalog
	voice     VoiceStatus
	store     panelStore
	channelID string
	prefix    string
	botName   string
}

func NewRenderer(log logrus.FieldLogger, msgr messenger, state *session.Manager, catalog *station.Catalog, voice VoiceStatus, store panelStore, channelID, prefix string) *Renderer {
	return &Renderer{
		log:       log.WithField("component", "panel"),
		msgr:      msgr,
		state:     state,
		catalog:   catalog,
		voice:     voice,
		store:     store,
		channelID: channelID,
		prefix:    prefix,
		botName:   "Rock & Bot",
	}
}

// Enabled reports whether a dedicated text channel is configured. Without
// one the panel feature is off entirely.
func (r *Renderer) Enabled() bool {
	return r.channelID != ""
}

func (r *Renderer) SetBotName(name string) {
	if name != "" {
		r.botName = name
	}
}

// Render refreshes the session from the live voice status and edits the
// tracked message in place, exactly once, no retries. errMsg decorates
// this render only; passing "" clears the previous error.
func (r *Renderer) Render(errMsg string) error {
	if !r.Enabled() {
		return nil
	}

	r.state.RefreshVoice(r.voice.Connected(), r.voice.ChannelName())
	r.state.SetLastError(errMsg)

	ref, ok := r.state.PanelRef()
	if !ok {
		return ErrPanelMessageMissing
	}

	snap := r.state.Snapshot()
	embed := BuildEmbed(snap, r.botName, r.prefix)
	components := BuildComponents(r.catalog)
	content := ""

	_, err := r.msgr.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel:    ref.ChannelID,
		ID:         ref.MessageID,
		Content:    &content,
		Embeds:     &[]*discordgo.MessageEmbed{embed},
		Components: &components,
	})
	if err == nil {
		return nil
	}

	if isUnknownMessage(err) {
		r.log.Warn("Panel message was deleted externally, clearing reference")
		r.state.ClearPanelRef()
		return ErrPanelMessageMissing
	}

	// Transient platform failure: the next state change re-renders anyway.
	r.log.WithError(err).Warn("Failed to edit panel message")
	return nil
}

// Resolve points the renderer at an existing control message, verifying
// it still exists.
func (r *Renderer) Resolve(messageID string) error {
	if !r.Enabled() || messageID == "" {
		return ErrPanelMessageMissing
	}

	msg, err := r.msgr.ChannelMessage(r.channelID, messageID)
	if err != nil {
		return fmt.Errorf("failed to fetch panel message %s: %w", messageID, ErrPanelMessageMissing)
	}

	r.state.SetPanelRef(session.PanelRef{ChannelID: r.channelID, MessageID: msg.ID})
	return nil
}

// Publish sends a brand-new panel message, replacing the tracked one
// wholesale. The previous message is deleted best-effort and the new ID
// persisted for the next restart.
func (r *Renderer) Publish() (string, error) {
	if !r.Enabled() {
		return "", errors.New("no dedicated text channel configured")
	}

	if old, ok := r.state.PanelRef(); ok {
		if err := r.msgr.ChannelMessageDelete(old.ChannelID, old.MessageID); err != nil {
			r.log.WithError(err).Debug("Could not delete previous panel message")
		}
	}

	msg, err := r.msgr.ChannelMessageSendComplex(r.channelID, &discordgo.MessageSend{
		Content: "📡",
		Embed: &discordgo.MessageEmbed{
			Title: "Cargando Panel de Radio...",
			Color: colorLoading,
		},
		Components: BuildComponents(r.catalog),
	})
	if err != nil {
		return "", fmt.Errorf("failed to send panel message: %w", err)
	}

	r.state.SetPanelRef(session.PanelRef{ChannelID: r.channelID, MessageID: msg.ID})

	if err := r.store.SavePanelMessageID(msg.ID); err != nil {
		r.log.WithError(err).Warn("Failed to persist panel message ID")
	}

	r.log.WithField("message_id", msg.ID).Info("Published new panel message")

	if err := r.Render(""); err != nil {
		r.log.WithError(err).Warn("Initial render of new panel failed")
	}

	return msg.ID, nil
}

// BuildEmbed derives the panel embed from a session snapshot. Pure.
func BuildEmbed(snap session.Snapshot, botName, prefix string) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       "📻 Panel de Control de Rock & Bot 🤘",
		Description: "Usa los controles de abajo para manejar la radio.",
		Color:       tierColor(snap),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "🔊 Estado Conexión de Voz", Value: fmt.Sprintf("`%s`", snap.ChannelName), Inline: true},
			{Name: "🎶 Actualmente Sonando", Value: fmt.Sprintf("`%s`", snap.StationName), Inline: true},
		},
		Thumbnail: &discordgo.MessageEmbedThumbnail{URL: thumbnailURL},
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Bot %s | %shelp", botName, prefix),
		},
	}

	if snap.LastError != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "⚠️ Último Error",
			Value: snap.LastError,
		})
	}

	return embed
}

// tierColor picks the embed color: error beats everything, then playing,
// then disconnected, else neutral.
func tierColor(snap session.Snapshot) int {
	switch {
	case snap.LastError != "":
		return colorError
	case snap.Connected && snap.StationName != session.NoStation:
		return colorNominal
	case !snap.Connected:
		return colorDisconnected
	default:
		return colorNeutral
	}
}

// BuildComponents builds the fixed control layout, fresh every render.
func BuildComponents(catalog *station.Catalog) []discordgo.MessageComponent {
	rows := []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Conectarme a Voz",
					Style:    discordgo.SuccessButton,
					CustomID: CustomIDJoin,
					Emoji:    &discordgo.ComponentEmoji{Name: "🎤"},
				},
				discordgo.Button{
					Label:    "Detener y Salir",
					Style:    discordgo.DangerButton,
					CustomID: CustomIDLeave,
					Emoji:    &discordgo.ComponentEmoji{Name: "✖️"},
				},
			},
		},
	}

	options := make([]discordgo.SelectMenuOption, 0, len(catalog.Stations()))
	for _, st := range catalog.Stations() {
		options = append(options, discordgo.SelectMenuOption{
			Label:       truncate(st.Name, 100),
			Value:       st.Key,
			Description: truncate("Escuchar "+st.Name, 100),
			Emoji:       &discordgo.ComponentEmoji{Name: "🎶"},
		})
	}

	if len(options) > 0 {
		rows = append(rows, discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.SelectMenu{
					MenuType:    discordgo.StringSelectMenu,
					CustomID:    CustomIDStation,
					Placeholder: "🎶 Elige una emisora...",
					Options:     options,
				},
			},
		})
	}

	return rows
}

func isUnknownMessage(err error) bool {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Message != nil {
		return restErr.Message.Code == discordgo.ErrCodeUnknownMessage
	}
	return false
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
