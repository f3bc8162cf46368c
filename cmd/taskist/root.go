package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/teslashibe/go-taskist/internal/config"
	"github.com/teslashibe/go-taskist/internal/log"
	"github.com/teslashibe/go-taskist/internal/metrics"
	"github.com/teslashibe/go-taskist/internal/notify"
	"github.com/teslashibe/go-taskist/pkg/audioio"
	"github.com/teslashibe/go-taskist/pkg/capture"
	"github.com/teslashibe/go-taskist/pkg/pipeline"
	"github.com/teslashibe/go-taskist/pkg/store"
	"github.com/teslashibe/go-taskist/pkg/stt"
	"github.com/teslashibe/go-taskist/pkg/tts"
	"github.com/teslashibe/go-taskist/pkg/web"
)

const banner = "====TASKIST===="

func newRootCmd() *cobra.Command {
	var (
		user     string
		category string
		role     string
		backend  string
		voice    string
		webOn    bool
		listen   string
		notifyOn bool
		streamOn bool
		logLevel string
	)

	cmd := &cobra.Command{
		Use:           "taskist",
		Short:         "Voice-driven todo assistant",
		Long:          "taskist records your voice, transcribes it with Whisper, applies add/list/remove commands to your todo list, and speaks the result back.",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := config.LoadApp()

			// Flags override the environment when explicitly set.
			flags := cmd.Flags()
			if flags.Changed("backend") {
				app.AudioBackend = backend
			}
			if flags.Changed("web") {
				app.WebEnabled = webOn
			}
			if flags.Changed("listen") {
				app.ListenAddr = listen
			}
			if flags.Changed("notify") {
				app.NotifyEnabled = notifyOn
			}
			if flags.Changed("stream-tts") {
				app.StreamTTS = streamOn
			}
			if flags.Changed("log-level") {
				app.LogLevel = logLevel
			}
			if flags.Changed("voice") {
				app.ElevenLabsVoiceID = voice
			}

			log.Init(app.LogLevel)

			pipeCfg := config.Resolve(config.Overrides{
				UserID:   user,
				Category: category,
				Role:     role,
			})

			return run(cmd.Context(), app, pipeCfg)
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "", "task list owner (env USER_ID)")
	cmd.Flags().StringVarP(&category, "category", "c", "", "todo category (env TODO_CATEGORY)")
	cmd.Flags().StringVar(&role, "role", "", "assistant role description (env TASKIST_ROLE)")
	cmd.Flags().StringVar(&backend, "backend", "auto", "audio backend: auto, portaudio, mock")
	cmd.Flags().StringVar(&voice, "voice", "", "ElevenLabs voice preset or ID")
	cmd.Flags().BoolVar(&webOn, "web", false, "serve the dashboard")
	cmd.Flags().StringVar(&listen, "listen", ":8090", "dashboard listen address")
	cmd.Flags().BoolVar(&notifyOn, "notify", false, "desktop notifications")
	cmd.Flags().BoolVar(&streamOn, "stream-tts", false, "stream synthesis over websocket")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	cmd.AddCommand(newVersionCmd())
	return cmd
}

// run wires the components together and drives the interaction loop.
func run(ctx context.Context, app config.App, pipeCfg config.Pipeline) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if app.GroqAPIKey == "" {
		return fmt.Errorf("GROQ_API_KEY is required for transcription")
	}
	if app.ElevenLabsAPIKey == "" {
		return fmt.Errorf("ELEVENLABS_API_KEY is required for speech synthesis")
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	notifier := notify.New(app.NotifyEnabled)

	taskStore := store.New(store.WithChangeHook(func(ev store.ChangeEvent) {
		switch ev.Op {
		case store.OpAdd:
			m.TasksAdded.Inc()
		case store.OpRemove:
			m.TasksRemoved.Inc()
		}
	}))

	audioCfg := audioio.DefaultConfig()
	audioCfg.Backend = audioio.Backend(app.AudioBackend)
	source, err := audioio.NewSource(audioCfg)
	if err != nil {
		return fmt.Errorf("open microphone: %w", err)
	}
	defer source.Close()

	transcriber, err := stt.NewGroq(
		stt.WithAPIKey(app.GroqAPIKey),
		stt.WithTimeout(app.HTTPTimeout),
		stt.WithLogger(log.L()),
	)
	if err != nil {
		return fmt.Errorf("create transcriber: %w", err)
	}
	defer transcriber.Close()

	ttsOpts := []tts.Option{
		tts.WithAPIKey(app.ElevenLabsAPIKey),
		tts.WithTimeout(app.HTTPTimeout),
		tts.WithLogger(log.L()),
	}
	if app.ElevenLabsVoiceID != "" {
		ttsOpts = append(ttsOpts, tts.WithVoice(app.ElevenLabsVoiceID))
	}

	var provider tts.Provider
	if app.StreamTTS {
		provider, err = tts.NewElevenLabsWS(ttsOpts...)
	} else {
		provider, err = tts.NewElevenLabs(ttsOpts...)
	}
	if err != nil {
		return fmt.Errorf("create speech backend: %w", err)
	}
	defer provider.Close()

	sink, err := audioio.NewSink(audioCfg.Backend, tts.SampleRateFromEncoding(tts.EncodingPCM22))
	if err != nil {
		return fmt.Errorf("open speaker: %w", err)
	}
	defer sink.Close()

	stdin := bufio.NewReader(os.Stdin)
	recorder := capture.NewRecorder(source, &capture.EnterTrigger{R: stdin})
	conversation := pipeline.NewConversation()

	var dashboard *web.Server
	if app.WebEnabled {
		dashboard = web.NewServer(web.Options{
			Addr:         app.ListenAddr,
			Store:        taskStore,
			Conversation: conversation,
			Config:       pipeCfg,
			Gatherer:     reg,
		})
		dashboard.StartAsync()
		defer dashboard.Shutdown()
		taskStore.AddHook(dashboard.PublishChange)
	}

	orch, err := pipeline.New(pipeline.Options{
		Recorder:     recorder,
		Transcriber:  transcriber,
		Speaker:      tts.NewSpeaker(provider, sink),
		Store:        taskStore,
		Config:       pipeCfg,
		Conversation: conversation,
		Metrics:      m,
		Notifier:     notifier,
		OnTurn: func(turn pipeline.Turn) {
			if dashboard != nil {
				dashboard.PublishTurn(turn)
			}
		},
	})
	if err != nil {
		return err
	}

	fmt.Println(banner)
	fmt.Printf("User: %s  Category: %s\n", pipeCfg.UserID, pipeCfg.Category)
	fmt.Printf("Role: %s\n", pipeCfg.Role)
	if app.WebEnabled {
		fmt.Printf("Dashboard: http://localhost%s\n", app.ListenAddr)
	}

	return loop(ctx, orch, stdin)
}

// loop runs turns until the operator declines to continue or the
// context is cancelled.
func loop(ctx context.Context, orch *pipeline.Orchestrator, stdin *bufio.Reader) error {
	for {
		fmt.Println("\nListening... press Enter to stop recording.")

		turn, err := orch.RunTurn(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				fmt.Println("\nGoodbye.")
				return nil
			}
			return err
		}

		fmt.Printf("\nHeard:   %s\n", turn.Heard)
		fmt.Printf("Taskist: %s\n", turn.Response)

		fmt.Print("Continue? (y/n): ")
		line, err := stdin.ReadString('\n')
		if err != nil {
			fmt.Println("\nGoodbye.")
			return nil
		}
		if strings.ToLower(strings.TrimSpace(line)) != "y" {
			fmt.Println("Goodbye.")
			return nil
		}
	}
}
