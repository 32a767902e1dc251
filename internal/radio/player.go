package radio

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
	"layeh.com/gopus"
)

const (
	frameRate = 48000
	channels  = 2
	frameSize = 960
)

var ErrDecoderSpawn = errors.New("decoder process could not start")

// Player runs one ffmpeg process at a time and feeds its PCM output,
// opus-encoded, into the voice connection. ffmpeg is handed the stream
// URL directly with reconnect flags, so transient network drops are its
// problem, not ours.
type Player struct {
	log logrus.FieldLogger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	playing bool
}

func NewPlayer(log logrus.FieldLogger) *Player {
	return &Player{
		log: log.WithField("component", "player"),
	}
}

// Start spawns the decoder for url and streams until it ends or Stop is
// called. onEnd always fires exactly once when the stream goroutine
// exits; a deliberate stop reports a nil error.
func (p *Player) Start(vc *discordgo.VoiceConnection, url string, onEnd func(error)) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.playing {
		return errors.New("player already streaming")
	}

	ctx, cancel := context.WithCancel(context.Background())

	ffmpeg := exec.CommandContext(ctx, "ffmpeg",
		"-reconnect", "1",
		"-reconnect_streamed", "1",
		"-reconnect_delay_max", "5",
		"-nostdin",
		"-i", url,
		"-vn",
		"-f", "s16le",
		"-ar", fmt.Sprint(frameRate),
		"-ac", fmt.Sprint(channels),
		"-loglevel", "error",
		"pipe:1",
	)

	out, err := ffmpeg.StdoutPipe()
	if err != nil {
		cancel()
		return fmt.Errorf("%w: %v", ErrDecoderSpawn, err)
	}

	if err := ffmpeg.Start(); err != nil {
		cancel()
		return fmt.Errorf("%w: %v", ErrDecoderSpawn, err)
	}

	p.cancel = cancel
	p.done = make(chan struct{})
	p.playing = true

	go p.streamLoop(ctx, vc, ffmpeg, out, onEnd)

	return nil
}

// Stop cancels the in-flight stream and waits for its goroutine to
// finish, so callers can rely on at most one stream being live.
func (p *Player) Stop() {
	p.mu.Lock()
	if !p.playing {
		p.mu.Unlock()
		return
	}
	cancel := p.cancel
	done := p.done
	p.mu.Unlock()

	cancel()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		p.log.Error("Timeout waiting for stream goroutine to stop")
	}
}

func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

func (p *Player) streamLoop(ctx context.Context, vc *discordgo.VoiceConnection, ffmpeg *exec.Cmd, out io.Reader, onEnd func(error)) {
	var streamErr error

	defer func() {
		if ffmpeg.Process != nil {
			ffmpeg.Process.Kill()
		}
		ffmpeg.Wait()

		p.mu.Lock()
		p.playing = false
		close(p.done)
		p.mu.Unlock()

		if ctx.Err() != nil {
			// Deliberate stop, not a stream failure.
			streamErr = nil
		}
		onEnd(streamErr)
	}()

	vc.Speaking(true)
	defer vc.Speaking(false)

	encoder, err := gopus.NewEncoder(frameRate, channels, gopus.Audio)
	if err != nil {
		streamErr = fmt.Errorf("error creating opus encoder: %w", err)
		return
	}

	audioBuf := make([]int16, frameSize*channels)
	opusBuffer := make([]byte, 1000)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := binary.Read(out, binary.LittleEndian, &audioBuf); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				p.log.Info("Decoder output ended")
				return
			}
			streamErr = fmt.Errorf("error reading from decoder: %w", err)
			return
		}

		opusData, err := encoder.Encode(audioBuf, frameSize, len(opusBuffer))
		if err != nil {
			streamErr = fmt.Errorf("error encoding opus: %w", err)
			return
		}

		select {
		case vc.OpusSend <- opusData:
		case <-time.After(2 * time.Second):
			streamErr = errors.New("voice send timeout")
			return
		case <-ctx.Done():
			return
		}
	}
}
