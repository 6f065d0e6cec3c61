// voicebridge - hybrid fast/agent voice interface.
// Simple questions get an instant reply from the fast chat model;
// complex tasks are routed to the full agent through the channel.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	stdlog "log"
	"os/signal"
	"strings"
	"syscall"

	"github.com/seanmckenzie/voicebridge/internal/config"
	"github.com/seanmckenzie/voicebridge/internal/log"
	"github.com/seanmckenzie/voicebridge/pkg/audioio"
	"github.com/seanmckenzie/voicebridge/pkg/channel"
	"github.com/seanmckenzie/voicebridge/pkg/chat"
	"github.com/seanmckenzie/voicebridge/pkg/dispatch"
	"github.com/seanmckenzie/voicebridge/pkg/intent"
	"github.com/seanmckenzie/voicebridge/pkg/ledger"
	"github.com/seanmckenzie/voicebridge/pkg/stt"
	"github.com/seanmckenzie/voicebridge/pkg/tts"
	"github.com/seanmckenzie/voicebridge/pkg/voice"
	"github.com/seanmckenzie/voicebridge/pkg/watcher"
	"github.com/seanmckenzie/voicebridge/pkg/web"
)

func main() {
	cfg, ackPath := parseFlags()

	if cfg.Debug {
		log.Init("debug")
	} else {
		log.Init("info")
	}

	if err := cfg.Validate(); err != nil {
		stdlog.Fatalf("❌ Configuration error: %v", err)
	}

	meter := ledger.New()

	fast, err := chat.NewAnthropic(chat.WithAPIKey(cfg.AnthropicKey))
	if err != nil {
		stdlog.Fatalf("❌ Chat provider: %v", err)
	}
	defer fast.Close()

	whisper, err := stt.NewWhisper(cfg.OpenAIKey)
	if err != nil {
		stdlog.Fatalf("❌ Transcriber: %v", err)
	}
	defer whisper.Close()

	synth, err := buildSynth(cfg)
	if err != nil {
		stdlog.Fatalf("❌ Speech synthesis: %v", err)
	}
	defer synth.Close()

	speaker := voice.NewSpeaker(synth, audioio.NewExecPlayer(log.L()), meter, log.L())
	speaker.AckPath = ackPath

	ch := channel.NewClient(cfg.ChannelID, cfg.ChannelBotToken, cfg.ChannelToken,
		channel.WithLogger(log.L()))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	w := watcher.New(ch, cfg.AgentBotID, cfg.PollInterval, speaker.SpeakAsync, log.L())
	if err := w.Seed(ctx); err != nil {
		log.Warn("watch cursor not seeded yet", "error", err)
	}
	go w.Run(ctx)

	srv := web.NewServer(cfg.StatusPort, meter, log.L())
	srv.StartAsync()
	defer srv.Shutdown()

	banner(cfg)

	loop := dispatch.NewLoop(
		audioio.NewStdinRecorder(log.L()),
		whisper,
		intent.NewKeywordClassifier(),
		fast,
		speaker,
		ch,
		meter,
		log.L(),
	)

	if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		stdlog.Fatalf("❌ Runtime error: %v", err)
	}
	fmt.Println("\nShutting down.")
}

// buildSynth chains the OpenAI synthesizer with the local fallback.
// A machine without a local synthesizer still runs, cloud-only.
func buildSynth(cfg config.Config) (tts.Provider, error) {
	cloud, err := tts.NewOpenAI(
		tts.WithAPIKey(cfg.OpenAIKey),
		tts.WithVoice(cfg.TTSVoice),
	)
	if err != nil {
		return nil, err
	}

	providers := []tts.Provider{cloud}
	if local, err := tts.NewLocal(log.L()); err == nil {
		providers = append(providers, local)
	} else {
		log.Warn("local synthesizer unavailable", "error", err)
	}

	return tts.NewChainWithLogger(log.L(), providers...)
}

// parseFlags parses command line flags over the environment config.
func parseFlags() (config.Config, string) {
	cfg := config.Load()

	debug := flag.Bool("debug", false, "Enable verbose debug logging")
	port := flag.String("port", "", "Status server port (overrides STATUS_PORT)")
	voiceID := flag.String("voice", "", "Synthesis voice (overrides TTS_VOICE)")
	ackPath := flag.String("ack", "msg_received.mp3", "Acknowledgment sound file, empty to disable")
	flag.Parse()

	cfg.Debug = cfg.Debug || *debug
	if *port != "" {
		cfg.StatusPort = *port
	}
	if *voiceID != "" {
		cfg.TTSVoice = *voiceID
	}
	return cfg, *ackPath
}

func banner(cfg config.Config) {
	line := strings.Repeat("─", 58)
	fmt.Println(line)
	fmt.Println("  K2S0 Voice Interface — Hybrid Fast/Agent Mode")
	fmt.Println("  Simple questions → fast reply (~0.8s)")
	fmt.Println("  Complex tasks    → full agent via channel")
	fmt.Println("  Push-to-talk | Ctrl+C to quit")
	fmt.Println(line)
	fmt.Printf("   [watcher] polling every %s\n", cfg.PollInterval)
	fmt.Printf("   [stats server] http://localhost:%s/stats\n", cfg.StatusPort)
}
