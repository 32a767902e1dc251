package voice

import (
	"errors"
	"io"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"

	"github.com/darkanthem21/Rock-Bot/internal/session"
)

type fakeGateway struct {
	userChannel string
	userErr     error
	joinCalls   int
	joinErr     error
}

func (f *fakeGateway) ChannelVoiceJoin(guildID, channelID string, mute, deaf bool) (*discordgo.VoiceConnection, error) {
	f.joinCalls++
	if f.joinErr != nil {
		return nil, f.joinErr
	}
	return &discordgo.VoiceConnection{ChannelID: channelID}, nil
}

func (f *fakeGateway) UserVoiceChannel(guildID, userID string) (string, error) {
	if f.userErr != nil {
		return "", f.userErr
	}
	return f.userChannel, nil
}

func (f *fakeGateway) ChannelName(channelID string) string {
	return "Sala " + channelID
}

type fakeStopper struct {
	stops int
}

func (f *fakeStopper) Stop() { f.stops++ }

func testManager(gw *fakeGateway) (*Manager, *session.Manager) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	state := session.NewManager()
	return &Manager{log: log, gw: gw, state: state}, state
}

func TestJoinOutcomes(t *testing.T) {
	tests := []struct {
		name        string
		botChannel  string
		userChannel string
		want        JoinResult
		wantJoins   int
	}{
		{"fresh connection", "", "vc-1", Joined, 1},
		{"move to caller's channel", "vc-1", "vc-2", Moved, 1},
		{"already in caller's channel", "vc-1", "vc-1", AlreadyInChannel, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &fakeGateway{userChannel: tt.userChannel}
			m, state := testManager(gw)
			if tt.botChannel != "" {
				m.conn = &discordgo.VoiceConnection{ChannelID: tt.botChannel}
			}

			result, channelName, err := m.Join("g1", "u1")
			if err != nil {
				t.Fatalf("Join failed: %v", err)
			}
			if result != tt.want {
				t.Errorf("result = %v, want %v", result, tt.want)
			}
			if gw.joinCalls != tt.wantJoins {
				t.Errorf("join calls = %d, want %d", gw.joinCalls, tt.wantJoins)
			}
			if channelName != "Sala "+tt.userChannel {
				t.Errorf("channel name = %q", channelName)
			}
			if got := state.ChannelName(); got != channelName {
				t.Errorf("session channel = %q, want %q", got, channelName)
			}
			if m.ChannelID() != tt.userChannel {
				t.Errorf("bot channel = %q, want %q", m.ChannelID(), tt.userChannel)
			}
		})
	}
}

func TestJoinCallerNotInVoice(t *testing.T) {
	gw := &fakeGateway{userErr: ErrCallerNotInVoice}
	m, _ := testManager(gw)

	if _, _, err := m.Join("g1", "u1"); !errors.Is(err, ErrCallerNotInVoice) {
		t.Fatalf("err = %v, want ErrCallerNotInVoice", err)
	}
	if gw.joinCalls != 0 {
		t.Error("join attempted without a caller channel")
	}
}

func TestJoinFailureKeepsDisconnected(t *testing.T) {
	gw := &fakeGateway{userChannel: "vc-1", joinErr: errors.New("gateway timeout")}
	m, _ := testManager(gw)

	if _, _, err := m.Join("g1", "u1"); err == nil {
		t.Fatal("Join succeeded despite gateway failure")
	}
	if m.Connected() {
		t.Error("manager reports connected after failed join")
	}
}

func TestLeaveAndStopWhenNotConnected(t *testing.T) {
	m, _ := testManager(&fakeGateway{})
	stopper := &fakeStopper{}
	m.SetStopper(stopper)

	left, err := m.LeaveAndStop()
	if err != nil {
		t.Fatalf("LeaveAndStop failed: %v", err)
	}
	if left {
		t.Error("reported leaving while not connected")
	}
	if stopper.stops != 0 {
		t.Error("playback stopped despite no connection")
	}
}

func TestHandleDisconnectStopsPlayback(t *testing.T) {
	m, state := testManager(&fakeGateway{})
	stopper := &fakeStopper{}
	m.SetStopper(stopper)
	m.conn = &discordgo.VoiceConnection{ChannelID: "vc-1"}
	state.SetStationName("Jazz FM")
	state.SetChannelName("Sala vc-1")

	m.HandleDisconnect()

	if m.Connected() {
		t.Error("manager still reports connected")
	}
	if stopper.stops != 1 {
		t.Errorf("stop calls = %d, want 1", stopper.stops)
	}
	if got := state.StationName(); got != session.NoStation {
		t.Errorf("station = %q, want %q", got, session.NoStation)
	}
	if got := state.ChannelName(); got != session.Disconnected {
		t.Errorf("channel = %q, want %q", got, session.Disconnected)
	}
}

func TestChannelNameDisconnectedSentinel(t *testing.T) {
	m, _ := testManager(&fakeGateway{})
	if got := m.ChannelName(); got != session.Disconnected {
		t.Errorf("ChannelName = %q, want %q", got, session.Disconnected)
	}
}
