package radio

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"

	"github.com/darkanthem21/Rock-Bot/internal/session"
	"github.com/darkanthem21/Rock-Bot/internal/station"
)

type fakeVoice struct {
	connected   bool
	channelID   string
	channelName string
	userChannel string
	userErr     error
}

func (f *fakeVoice) Connected() bool                        { return f.connected }
func (f *fakeVoice) ChannelID() string                      { return f.channelID }
func (f *fakeVoice) ChannelName() string                    { return f.channelName }
func (f *fakeVoice) Connection() *discordgo.VoiceConnection { return nil }

func (f *fakeVoice) UserChannel(guildID, userID string) (string, error) {
	if f.userErr != nil {
		return "", f.userErr
	}
	return f.userChannel, nil
}

type startCall struct {
	url   string
	onEnd func(error)
}

type fakePlayer struct {
	starts    []startCall
	stopCalls int
	playing   bool
	startErr  error
}

func (f *fakePlayer) Start(vc *discordgo.VoiceConnection, url string, onEnd func(error)) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.starts = append(f.starts, startCall{url: url, onEnd: onEnd})
	f.playing = true
	return nil
}

func (f *fakePlayer) Stop() {
	if f.playing {
		f.stopCalls++
		f.playing = false
	}
}

func (f *fakePlayer) Playing() bool { return f.playing }

// dyingPlayer reports a started stream as dead before Start returns,
// like a decoder rejected by the remote host during its first read.
type dyingPlayer struct {
	fakePlayer
	failWith error
}

func (f *dyingPlayer) Start(vc *discordgo.VoiceConnection, url string, onEnd func(error)) error {
	if err := f.fakePlayer.Start(vc, url, onEnd); err != nil {
		return err
	}
	f.playing = false
	onEnd(f.failWith)
	return nil
}

type fakePanel struct {
	renders []string
}

func (f *fakePanel) Render(errMsg string) error {
	f.renders = append(f.renders, errMsg)
	return nil
}

func testController(t *testing.T, voice *fakeVoice, player StreamPlayer) (*Controller, *session.Manager, *fakePanel) {
	t.Helper()

	catalog, err := station.NewCatalog([]station.Station{
		{Key: "jazz_fm", Name: "Jazz FM", URL: "https://stream.example/jazz"},
		{Key: "rock_clasico", Name: "Rock Clásico", URL: "https://stream.example/rock"},
	})
	if err != nil {
		t.Fatalf("NewCatalog failed: %v", err)
	}

	log := logrus.New()
	log.SetOutput(io.Discard)

	state := session.NewManager()
	panel := &fakePanel{}
	c := NewController(log, state, catalog, voice, player, panel)
	c.settle = 0
	return c, state, panel
}

func TestPlayNotConnected(t *testing.T) {
	voice := &fakeVoice{connected: false}
	player := &fakePlayer{}
	c, state, panel := testController(t, voice, player)

	_, err := c.Play("g1", "u1", "rock_clasico")
	if !errors.Is(err, ErrNotConnected) {
		t.Fatalf("err = %v, want ErrNotConnected", err)
	}

	var pe *PlayError
	if !errors.As(err, &pe) {
		t.Fatal("error is not a PlayError")
	}
	if !strings.HasPrefix(pe.Message, "No estoy en un canal de voz") {
		t.Errorf("user message = %q", pe.Message)
	}

	if len(panel.renders) != 1 || panel.renders[0] != pe.Message {
		t.Errorf("panel renders = %v, want one render carrying the error", panel.renders)
	}
	if got := state.StationName(); got != session.NoStation {
		t.Errorf("station = %q, want unchanged %q", got, session.NoStation)
	}
	if len(player.starts) != 0 {
		t.Error("player started despite failed precondition")
	}
}

func TestPlayWrongChannel(t *testing.T) {
	voice := &fakeVoice{connected: true, channelID: "vc-1", channelName: "Sala Rock", userChannel: "vc-2"}
	player := &fakePlayer{}
	c, _, panel := testController(t, voice, player)

	_, err := c.Play("g1", "u1", "jazz_fm")
	if !errors.Is(err, ErrWrongChannel) {
		t.Fatalf("err = %v, want ErrWrongChannel", err)
	}
	if len(panel.renders) != 1 {
		t.Errorf("expected one panel render, got %d", len(panel.renders))
	}
}

func TestPlayCallerNotInVoiceIsWrongChannel(t *testing.T) {
	voice := &fakeVoice{connected: true, channelID: "vc-1", channelName: "Sala Rock", userErr: errors.New("no voice state")}
	c, _, _ := testController(t, voice, &fakePlayer{})

	if _, err := c.Play("g1", "u1", "jazz_fm"); !errors.Is(err, ErrWrongChannel) {
		t.Fatalf("err = %v, want ErrWrongChannel", err)
	}
}

func TestPlaySuccess(t *testing.T) {
	voice := &fakeVoice{connected: true, channelID: "vc-1", channelName: "Sala Rock", userChannel: "vc-1"}
	player := &fakePlayer{}
	c, state, panel := testController(t, voice, player)

	name, err := c.Play("g1", "u1", "jazz_fm")
	if err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if name != "Jazz FM" {
		t.Errorf("name = %q", name)
	}
	if got := state.StationName(); got != "Jazz FM" {
		t.Errorf("station = %q", got)
	}
	if len(player.starts) != 1 || player.starts[0].url != "https://stream.example/jazz" {
		t.Errorf("player starts = %+v", player.starts)
	}
	if len(panel.renders) != 1 || panel.renders[0] != "" {
		t.Errorf("panel renders = %v, want one clean render", panel.renders)
	}
}

func TestPlayNoURLResolved(t *testing.T) {
	voice := &fakeVoice{connected: true, channelID: "vc-1", userChannel: "vc-1"}
	c, _, panel := testController(t, voice, &fakePlayer{})

	_, err := c.Play("g1", "u1", "<>")
	if !errors.Is(err, station.ErrNoURL) {
		t.Fatalf("err = %v, want station.ErrNoURL", err)
	}
	if len(panel.renders) != 1 {
		t.Errorf("expected one panel render, got %d", len(panel.renders))
	}
}

func TestPlayDecoderSpawnFailure(t *testing.T) {
	voice := &fakeVoice{connected: true, channelID: "vc-1", userChannel: "vc-1"}
	player := &fakePlayer{startErr: ErrDecoderSpawn}
	c, state, panel := testController(t, voice, player)

	_, err := c.Play("g1", "u1", "jazz_fm")
	if !errors.Is(err, ErrDecoderSpawn) {
		t.Fatalf("err = %v, want ErrDecoderSpawn", err)
	}
	if got := state.StationName(); got != session.PlaybackError {
		t.Errorf("station = %q, want %q", got, session.PlaybackError)
	}
	if len(panel.renders) != 1 {
		t.Errorf("expected one panel render, got %d", len(panel.renders))
	}
}

func TestPlayStopsPreviousStreamFirst(t *testing.T) {
	voice := &fakeVoice{connected: true, channelID: "vc-1", userChannel: "vc-1"}
	player := &fakePlayer{}
	c, _, _ := testController(t, voice, player)

	if _, err := c.Play("g1", "u1", "jazz_fm"); err != nil {
		t.Fatalf("first Play failed: %v", err)
	}
	if _, err := c.Play("g1", "u1", "rock_clasico"); err != nil {
		t.Fatalf("second Play failed: %v", err)
	}

	if player.stopCalls != 1 {
		t.Errorf("stop calls = %d, want 1", player.stopCalls)
	}
	if len(player.starts) != 2 {
		t.Errorf("start calls = %d, want 2", len(player.starts))
	}
}

func TestStaleCompletionDoesNotClobberNewerStation(t *testing.T) {
	voice := &fakeVoice{connected: true, channelID: "vc-1", userChannel: "vc-1"}
	player := &fakePlayer{}
	c, state, panel := testController(t, voice, player)

	if _, err := c.Play("g1", "u1", "jazz_fm"); err != nil {
		t.Fatalf("first Play failed: %v", err)
	}
	firstEnd := player.starts[0].onEnd

	if _, err := c.Play("g1", "u1", "rock_clasico"); err != nil {
		t.Fatalf("second Play failed: %v", err)
	}

	rendersBefore := len(panel.renders)
	firstEnd(nil)
	firstEnd(errors.New("late failure"))

	if got := state.StationName(); got != "Rock Clásico" {
		t.Errorf("station = %q, stale callback clobbered it", got)
	}
	if len(panel.renders) != rendersBefore {
		t.Error("stale callback triggered a render")
	}
}

func TestStreamDyingDuringStartupKeepsErrorState(t *testing.T) {
	voice := &fakeVoice{connected: true, channelID: "vc-1", userChannel: "vc-1"}
	player := &dyingPlayer{failWith: errors.New("connection refused")}
	c, state, panel := testController(t, voice, player)

	name, err := c.Play("g1", "u1", "jazz_fm")
	if err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if name != "Jazz FM" {
		t.Errorf("name = %q", name)
	}

	if got := state.StationName(); got != session.ErrorIn("Jazz FM") {
		t.Errorf("station = %q, want %q", got, session.ErrorIn("Jazz FM"))
	}
	if last := panel.renders[len(panel.renders)-1]; last == "" {
		t.Error("final render cleared the stream error")
	}
}

func TestCurrentCompletionWithErrorMarksStation(t *testing.T) {
	voice := &fakeVoice{connected: true, channelID: "vc-1", userChannel: "vc-1"}
	player := &fakePlayer{}
	c, state, panel := testController(t, voice, player)

	if _, err := c.Play("g1", "u1", "jazz_fm"); err != nil {
		t.Fatalf("Play failed: %v", err)
	}

	player.starts[0].onEnd(errors.New("stream died"))

	if got := state.StationName(); got != session.ErrorIn("Jazz FM") {
		t.Errorf("station = %q, want %q", got, session.ErrorIn("Jazz FM"))
	}
	if last := panel.renders[len(panel.renders)-1]; last == "" {
		t.Error("error completion rendered without an error message")
	}
}

func TestCurrentCleanCompletionResetsStation(t *testing.T) {
	voice := &fakeVoice{connected: true, channelID: "vc-1", userChannel: "vc-1"}
	player := &fakePlayer{}
	c, state, _ := testController(t, voice, player)

	if _, err := c.Play("g1", "u1", "jazz_fm"); err != nil {
		t.Fatalf("Play failed: %v", err)
	}

	player.starts[0].onEnd(nil)

	if got := state.StationName(); got != session.NoStation {
		t.Errorf("station = %q, want %q after natural end", got, session.NoStation)
	}
}

func TestStopMakesPendingCompletionStale(t *testing.T) {
	voice := &fakeVoice{connected: true, channelID: "vc-1", userChannel: "vc-1"}
	player := &fakePlayer{}
	c, state, _ := testController(t, voice, player)

	if _, err := c.Play("g1", "u1", "jazz_fm"); err != nil {
		t.Fatalf("Play failed: %v", err)
	}

	c.Stop()
	state.SetStationName(session.NoStation)

	player.starts[0].onEnd(nil)

	if got := state.StationName(); got != session.NoStation {
		t.Errorf("station = %q after stale post-stop callback", got)
	}
	if player.stopCalls != 1 {
		t.Errorf("stop calls = %d, want 1", player.stopCalls)
	}
}
