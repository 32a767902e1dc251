// Package discord wires the chat platform client to the radio session.
package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"

	"github.com/darkanthem21/Rock-Bot/internal/config"
	"github.com/darkanthem21/Rock-Bot/internal/panel"
	"github.com/darkanthem21/Rock-Bot/internal/radio"
	"github.com/darkanthem21/Rock-Bot/internal/session"
	"github.com/darkanthem21/Rock-Bot/internal/station"
	"github.com/darkanthem21/Rock-Bot/internal/storage"
	"github.com/darkanthem21/Rock-Bot/internal/voice"
)

type componentHandler func(s *discordgo.Session, i *discordgo.InteractionCreate)

type Client struct {
	log     logrus.FieldLogger
	session *discordgo.Session

	prefix            string
	controlsMessageID string

	state      *session.Manager
	catalog    *station.Catalog
	store      *storage.Store
	voice      *voice.Manager
	controller *radio.Controller
	renderer   *panel.Renderer

	componentHandlers map[string]componentHandler
}

func NewClient(log logrus.FieldLogger, cfg config.Config, state *session.Manager, catalog *station.Catalog, store *storage.Store) (*Client, error) {
	s, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	c := &Client{
		log:               log.WithField("component", "discord"),
		session:           s,
		prefix:            cfg.Prefix,
		controlsMessageID: cfg.ControlsMessageID,
		state:             state,
		catalog:           catalog,
		store:             store,
	}

	c.voice = voice.NewManager(log, s, state)
	c.renderer = panel.NewRenderer(log, s, state, catalog, c.voice, store, cfg.TextChannelID, cfg.Prefix)

	player := radio.NewPlayer(log)
	c.controller = radio.NewController(log, state, catalog, c.voice, player, c.renderer)
	c.voice.SetStopper(c.controller)

	c.componentHandlers = map[string]componentHandler{
		panel.CustomIDJoin:    c.handleJoinButton,
		panel.CustomIDLeave:   c.handleLeaveButton,
		panel.CustomIDStation: c.handleStationSelect,
	}

	s.AddHandler(c.handleReady)
	s.AddHandler(c.handleVoiceStateUpdate)
	s.AddHandler(c.handleInteraction)
	s.AddHandler(c.handleMessageCreate)

	s.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsMessageContent

	return c, nil
}

// Connect opens the gateway connection. Handlers start firing after this.
func (c *Client) Connect() error {
	if err := c.session.Open(); err != nil {
		return fmt.Errorf("failed to connect to Discord: %w", err)
	}
	return nil
}

func (c *Client) Controller() *radio.Controller {
	return c.controller
}

func (c *Client) VoiceManager() *voice.Manager {
	return c.voice
}

func (c *Client) Shutdown(ctx context.Context) error {
	c.controller.Stop()
	if _, err := c.voice.LeaveAndStop(); err != nil {
		c.log.WithError(err).Warn("Voice disconnect during shutdown failed")
	}
	return c.session.Close()
}

func (c *Client) Name() string {
	return "DiscordClient"
}
