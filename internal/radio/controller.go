// Package radio orchestrates playback of internet radio streams.
package radio

import (
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"

	"github.com/darkanthem21/Rock-Bot/internal/session"
	"github.com/darkanthem21/Rock-Bot/internal/station"
)

var (
	ErrNotConnected = errors.New("bot is not connected to voice")
	ErrWrongChannel = errors.New("caller is not in the bot's voice channel")
)

// settleDelay gives the decoder time to tear down before the next stream
// starts, so two processes never produce audio at once.
const settleDelay = 500 * time.Millisecond

// PlayError pairs an error with the Spanish user-facing message shown to
// the caller and on the panel.
type PlayError struct {
	Err     error
	Message string
}

func (e *PlayError) Error() string { return e.Err.Error() }
func (e *PlayError) Unwrap() error { return e.Err }

// VoiceSession is the controller's view of the voice connection manager.
type VoiceSession interface {
	Connected() bool
	ChannelID() string
	ChannelName() string
	Connection() *discordgo.VoiceConnection
	UserChannel(guildID, userID string) (string, error)
}

// StreamPlayer is the controller's view of the decoder pipeline.
type StreamPlayer interface {
	Start(vc *discordgo.VoiceConnection, url string, onEnd func(error)) error
	Stop()
	Playing() bool
}

// PanelRenderer re-draws the shared control panel after every trigger.
type PanelRenderer interface {
	Render(errMsg string) error
}

// Controller validates a play request, swaps streams, and keeps the
// session record consistent with what is actually sounding.
type Controller struct {
	log     logrus.FieldLogger
	state   *session.Manager
	catalog *station.Catalog
	voice   VoiceSession
	player  StreamPlayer
	panel   PanelRenderer
	settle  time.Duration
}

func NewController(log logrus.FieldLogger, state *session.Manager, catalog *station.Catalog, voice VoiceSession, player StreamPlayer, panel PanelRenderer) *Controller {
	return &Controller{
		log:     log.WithField("component", "radio"),
		state:   state,
		catalog: catalog,
		voice:   voice,
		player:  player,
		panel:   panel,
		settle:  settleDelay,
	}
}

// Play resolves input to a stream and starts it in the caller's channel.
// Preconditions are checked in order and the first failure wins; every
// failure path renders the panel with the error before returning. On
// success the new station's display name is returned.
func (c *Controller) Play(guildID, userID, input string) (string, error) {
	if !c.voice.Connected() {
		return "", c.fail(ErrNotConnected, "No estoy en un canal de voz. Usa el botón 'Conectarme'.")
	}

	userChannel, err := c.voice.UserChannel(guildID, userID)
	if err != nil || userChannel != c.voice.ChannelID() {
		msg := fmt.Sprintf("Debes estar en mi mismo canal (**%s**) para cambiar la emisora.", c.voice.ChannelName())
		return "", c.fail(ErrWrongChannel, msg)
	}

	// Tag the new attempt before stopping the old stream: its completion
	// callback becomes stale immediately and can never win the race.
	gen := c.state.NextGeneration()

	if c.player.Playing() {
		c.player.Stop()
		time.Sleep(c.settle)
	}

	name, url, err := c.catalog.Resolve(input)
	if err != nil {
		msg := fmt.Sprintf("No pude determinar una URL para: `%s`.", input)
		return "", c.fail(err, msg)
	}

	c.log.WithFields(logrus.Fields{"station": name, "url": url}).Info("Starting stream")

	// Publish the station before starting the stream: a stream that dies
	// inside the startup window fires a gen-current error callback, and
	// that callback's state must not be overwritten afterwards.
	c.state.SetStationName(name)

	err = c.player.Start(c.voice.Connection(), url, func(playErr error) {
		c.onPlaybackEnded(gen, name, playErr)
	})
	if err != nil {
		c.state.SetStationName(session.PlaybackError)
		msg := fmt.Sprintf("No pude reproducir **%s**. Error: `%v`", name, err)
		return "", c.fail(err, msg)
	}

	if c.state.StationName() == name {
		c.render("")
	}

	return name, nil
}

// Stop halts playback without disconnecting. The generation bump makes
// the stopped stream's completion callback stale, so it cannot overwrite
// state set by whoever asked for the stop.
func (c *Controller) Stop() {
	c.state.NextGeneration()
	c.player.Stop()
}

func (c *Controller) Playing() bool {
	return c.player.Playing()
}

// onPlaybackEnded is the decoder completion callback. Stale generations
// are dropped: the last Play call's station name wins no matter when an
// older stream's callback fires.
func (c *Controller) onPlaybackEnded(gen uint64, name string, err error) {
	if !c.state.IsCurrent(gen) {
		c.log.WithField("station", name).Debug("Ignoring completion of superseded stream")
		return
	}

	if err != nil {
		c.log.WithError(err).WithField("station", name).Error("Stream ended with error")
		c.state.SetStationName(session.ErrorIn(name))
		c.render(fmt.Sprintf("La emisora **%s** dejó de sonar: `%v`", name, err))
		return
	}

	// The stream ended on its own with nothing replacing it: nothing is
	// playing anymore.
	c.log.WithField("station", name).Info("Stream ended")
	c.state.SetStationName(session.NoStation)
	c.render("")
}

func (c *Controller) fail(err error, msg string) error {
	c.render(msg)
	return &PlayError{Err: err, Message: msg}
}

func (c *Controller) render(errMsg string) {
	if err := c.panel.Render(errMsg); err != nil {
		c.log.WithError(err).Warn("Panel render failed")
	}
}
