// Package session holds the single mutable radio session record.
package session

import "sync"

// Display sentinels, shared by the panel and the user-facing replies.
const (
	NoStation     = "Ninguna"
	Disconnected  = "Desconectado 🚫"
	PlaybackError = "Error al reproducir"
)

// ErrorIn builds the station sentinel shown when a stream died with an
// error.
func ErrorIn(station string) string {
	return "Error en " + station
}

// PanelRef points at the one tracked control message. Zero value means
// "no panel".
type PanelRef struct {
	ChannelID string
	MessageID string
}

// Snapshot is a self-consistent copy of the session for rendering.
type Snapshot struct {
	StationName string
	ChannelName string
	LastError   string
	Connected   bool
}

// Manager guards the process-wide session record. Every trigger (command,
// interaction, voice event, playback callback) mutates state through it.
type Manager struct {
	mu          sync.RWMutex
	stationName string
	channelName string
	lastError   string
	panel       PanelRef
	generation  uint64
}

func NewManager() *Manager {
	return &Manager{
		stationName: NoStation,
		channelName: Disconnected,
	}
}

func (m *Manager) StationName() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stationName
}

func (m *Manager) SetStationName(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stationName = name
}

func (m *Manager) ChannelName() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.channelName
}

func (m *Manager) SetChannelName(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.channelName = name
}

// SetLastError records the most recent operator-facing failure. An empty
// string clears it; the error decorates renders only until the next
// successful action.
func (m *Manager) SetLastError(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastError = msg
}

func (m *Manager) PanelRef() (PanelRef, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.panel, m.panel.MessageID != ""
}

func (m *Manager) SetPanelRef(ref PanelRef) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.panel = ref
}

func (m *Manager) ClearPanelRef() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.panel = PanelRef{}
}

// NextGeneration tags a new playback attempt. Completion callbacks carry
// the generation they were started with and are discarded when it no
// longer matches, so a superseded stream can never clobber newer state.
func (m *Manager) NextGeneration() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generation++
	return m.generation
}

func (m *Manager) IsCurrent(generation uint64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.generation == generation
}

// RefreshVoice re-asserts the connection-coupling invariant from the live
// voice status: while disconnected nothing can be playing. Runs at the
// start of every render.
func (m *Manager) RefreshVoice(connected bool, channelName string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !connected {
		m.channelName = Disconnected
		m.stationName = NoStation
		return
	}
	m.channelName = channelName
}

// ResetPlayback returns the playing fields to their disconnected
// sentinels, used when the bot leaves or is kicked from voice.
func (m *Manager) ResetPlayback() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stationName = NoStation
	m.channelName = Disconnected
}

func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{
		StationName: m.stationName,
		ChannelName: m.channelName,
		LastError:   m.lastError,
		Connected:   m.channelName != Disconnected,
	}
}
