package discord

import (
	"github.com/bwmarrin/discordgo"
)

// Responder is the minimal capability set shared by interaction and text
// command handlers: acknowledge the trigger, then reply, optionally
// privately. Text replies cannot be private; the flag is best-effort.
type Responder interface {
	Acknowledge() error
	Respond(msg string, private bool) error
	UserID() string
	GuildID() string
}

type interactionResponder struct {
	s     *discordgo.Session
	i     *discordgo.InteractionCreate
	acked bool
}

func newInteractionResponder(s *discordgo.Session, i *discordgo.InteractionCreate) *interactionResponder {
	return &interactionResponder{s: s, i: i}
}

// Acknowledge defers the interaction so slow work (joining voice,
// spawning the decoder) does not hit the 3s interaction deadline.
func (r *interactionResponder) Acknowledge() error {
	err := r.s.InteractionRespond(r.i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
		},
	})
	if err == nil {
		r.acked = true
	}
	return err
}

// Respond replies directly when the interaction has not been acknowledged
// yet, and as a followup after a deferral.
func (r *interactionResponder) Respond(msg string, private bool) error {
	var flags discordgo.MessageFlags
	if private {
		flags = discordgo.MessageFlagsEphemeral
	}

	if !r.acked {
		err := r.s.InteractionRespond(r.i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content: msg,
				Flags:   flags,
			},
		})
		if err == nil {
			r.acked = true
		}
		return err
	}

	_, err := r.s.FollowupMessageCreate(r.i.Interaction, true, &discordgo.WebhookParams{
		Content: msg,
		Flags:   flags,
	})
	return err
}

func (r *interactionResponder) UserID() string {
	if r.i.Member != nil && r.i.Member.User != nil {
		return r.i.Member.User.ID
	}
	if r.i.User != nil {
		return r.i.User.ID
	}
	return ""
}

func (r *interactionResponder) GuildID() string {
	return r.i.GuildID
}

type messageResponder struct {
	s *discordgo.Session
	m *discordgo.MessageCreate
}

func newMessageResponder(s *discordgo.Session, m *discordgo.MessageCreate) *messageResponder {
	return &messageResponder{s: s, m: m}
}

func (r *messageResponder) Acknowledge() error {
	return nil
}

func (r *messageResponder) Respond(msg string, private bool) error {
	_, err := r.s.ChannelMessageSend(r.m.ChannelID, msg)
	return err
}

func (r *messageResponder) UserID() string {
	return r.m.Author.ID
}

func (r *messageResponder) GuildID() string {
	return r.m.GuildID
}
