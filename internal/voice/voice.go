// Package voice manages the bot's single voice connection.
package voice

import (
	"errors"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"

	"github.com/darkanthem21/Rock-Bot/internal/session"
)

var ErrCallerNotInVoice = errors.New("caller is not in a voice channel")

// JoinResult distinguishes the three success paths of Join.
type JoinResult int

const (
	Joined JoinResult = iota
	Moved
	AlreadyInChannel
)

// Stopper halts in-flight playback before a disconnect. Wired after
// construction because the playback controller needs the manager first.
type Stopper interface {
	Stop()
}

// gateway is the slice of the platform session the manager needs.
type gateway interface {
	ChannelVoiceJoin(guildID, channelID string, mute, deaf bool) (*discordgo.VoiceConnection, error)
	UserVoiceChannel(guildID, userID string) (string, error)
	ChannelName(channelID string) string
}

// sessionGateway adapts *discordgo.Session, folding the state-cache
// lookups behind the narrow surface.
type sessionGateway struct {
	s *discordgo.Session
}

func (g *sessionGateway) ChannelVoiceJoin(guildID, channelID string, mute, deaf bool) (*discordgo.VoiceConnection, error) {
	return g.s.ChannelVoiceJoin(guildID, channelID, mute, deaf)
}

func (g *sessionGateway) UserVoiceChannel(guildID, userID string) (string, error) {
	vs, err := g.s.State.VoiceState(guildID, userID)
	if err != nil || vs == nil || vs.ChannelID == "" {
		return "", ErrCallerNotInVoice
	}
	return vs.ChannelID, nil
}

func (g *sessionGateway) ChannelName(channelID string) string {
	ch, err := g.s.State.Channel(channelID)
	if err != nil {
		ch, err = g.s.Channel(channelID)
	}
	if err != nil || ch == nil {
		return channelID
	}
	return ch.Name
}

type Manager struct {
	log     logrus.FieldLogger
	gw      gateway
	state   *session.Manager
	stopper Stopper

	mu   sync.Mutex
	conn *discordgo.VoiceConnection
}

func NewManager(log logrus.FieldLogger, s *discordgo.Session, state *session.Manager) *Manager {
	return &Manager{
		log:   log.WithField("component", "voice"),
		gw:    &sessionGateway{s: s},
		state: state,
	}
}

func (m *Manager) SetStopper(stopper Stopper) {
	m.stopper = stopper
}

// Join connects to the caller's voice channel: a fresh connection when
// there is none, a move when connected elsewhere, a no-op when already
// there. Returns the channel name alongside the result.
func (m *Manager) Join(guildID, userID string) (JoinResult, string, error) {
	userChannel, err := m.gw.UserVoiceChannel(guildID, userID)
	if err != nil {
		return 0, "", err
	}

	channelName := m.gw.ChannelName(userChannel)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn != nil && m.conn.ChannelID == userChannel {
		m.state.SetChannelName(channelName)
		return AlreadyInChannel, channelName, nil
	}

	moving := m.conn != nil

	m.log.WithField("channel", channelName).Info("Joining voice channel")
	vc, err := m.gw.ChannelVoiceJoin(guildID, userChannel, false, true)
	if err != nil {
		return 0, channelName, fmt.Errorf("failed to join voice channel %s: %w", channelName, err)
	}

	m.conn = vc
	m.state.SetChannelName(channelName)

	if moving {
		return Moved, channelName, nil
	}
	return Joined, channelName, nil
}

// LeaveAndStop halts playback and disconnects. The false return is the
// distinct "was not connected" outcome, not an error.
func (m *Manager) LeaveAndStop() (bool, error) {
	m.mu.Lock()
	conn := m.conn
	m.conn = nil
	m.mu.Unlock()

	if conn == nil {
		return false, nil
	}

	if m.stopper != nil {
		m.stopper.Stop()
	}

	m.log.Info("Leaving voice channel")
	err := conn.Disconnect()
	m.state.ResetPlayback()
	if err != nil {
		return true, fmt.Errorf("failed to disconnect from voice: %w", err)
	}
	return true, nil
}

// HandleDisconnect clears the local connection after the platform kicked
// or dropped the bot. Playback is stopped so the decoder does not keep
// feeding a dead connection.
func (m *Manager) HandleDisconnect() {
	m.mu.Lock()
	m.conn = nil
	m.mu.Unlock()

	if m.stopper != nil {
		m.stopper.Stop()
	}
	m.state.ResetPlayback()
}

func (m *Manager) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conn != nil
}

func (m *Manager) ChannelID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn == nil {
		return ""
	}
	return m.conn.ChannelID
}

// ChannelName resolves the occupied channel's display name, or the
// disconnected sentinel.
func (m *Manager) ChannelName() string {
	id := m.ChannelID()
	if id == "" {
		return session.Disconnected
	}
	return m.gw.ChannelName(id)
}

func (m *Manager) Connection() *discordgo.VoiceConnection {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conn
}

// UserChannel finds the voice channel a member currently occupies.
func (m *Manager) UserChannel(guildID, userID string) (string, error) {
	return m.gw.UserVoiceChannel(guildID, userID)
}
