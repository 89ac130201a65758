package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/cwbudde/piano-sampler/input"
	"github.com/cwbudde/piano-sampler/input/gomidi"
	"github.com/cwbudde/piano-sampler/output"
	"github.com/cwbudde/piano-sampler/preset"
	"github.com/cwbudde/piano-sampler/state"
	"github.com/eiannone/keyboard"
)

type keyPress struct {
	r   rune
	key keyboard.Key
}

func main() {
	presetPath := flag.String("preset", "", "Preset JSON/YAML file path (optional)")
	assets := flag.String("assets", "", "Sample directory or URL override (optional)")
	sampleRate := flag.Int("sample-rate", 0, "Output sample rate in Hz (0 = preset value)")
	buffer := flag.Duration("buffer", output.DefaultBufferSize, "Audio device buffer size")
	midiInput := flag.String("midi", "", "Preferred MIDI input name prefix (overrides preset)")
	noPreload := flag.Bool("no-preload", false, "Load samples on first use instead of at start-up")
	flag.Parse()

	cfg := preset.Default()
	if *presetPath != "" {
		var err error
		cfg, err = preset.Load(*presetPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading preset %q: %v\n", *presetPath, err)
			os.Exit(1)
		}
	}
	if *assets != "" {
		cfg.Assets = *assets
	}
	if *sampleRate > 0 {
		cfg.SampleRate = *sampleRate
	}
	if *midiInput != "" {
		cfg.MIDIInput = *midiInput
	}

	logger := log.New(os.Stderr, "", log.Ltime)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	hub := state.NewHub()
	go hub.Run(ctx)
	hub.Subscribe([]state.Field{state.MIDISupported, state.MIDIInputPresent}, func(s state.State) {
		fmt.Printf("\rMIDI: %s\r\n", state.MIDIStatus(s))
	})
	hub.Subscribe([]state.Field{state.ActiveNotes}, func(s state.State) {
		names := make([]string, 0, len(s.ActiveNotes))
		for _, id := range s.ActiveNotes.Sorted() {
			names = append(names, id.String())
		}
		fmt.Printf("\r\x1b[K%s", strings.Join(names, " "))
	})

	cache := cfg.NewCache(logger)
	p := cfg.NewPiano(cache, hub, logger)
	defer p.Close()

	if !*noPreload {
		go func() {
			start := time.Now()
			all := cfg.Range.All()
			failed := cache.Preload(ctx, all)
			logger.Printf("loaded %d/%d samples from %s in %s", len(all)-failed, len(all), cfg.Assets, time.Since(start).Round(time.Millisecond))
		}()
	}

	player, err := output.NewPlayer(cfg.SampleRate, *buffer, p)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer player.Close()
	player.Start()

	watcher := gomidi.NewWatcher(newMIDISource(logger), hub, cfg.Range, p.Dispatch,
		gomidi.WithPreferred(cfg.MIDIInput), gomidi.WithLogger(logger))
	go watcher.Run(ctx, gomidi.DefaultRescanInterval)

	if err := keyboard.Open(); err != nil {
		fmt.Fprintf(os.Stderr, "Error opening terminal keyboard: %v\n", err)
		os.Exit(1)
	}
	defer keyboard.Close()

	presses := make(chan keyPress, 64)
	go func() {
		defer close(presses)
		for {
			r, key, err := keyboard.GetKey()
			if err != nil {
				return
			}
			presses <- keyPress{r: r, key: key}
		}
	}()

	fmt.Printf("Playing at %d Hz. Rows 1/Q/A/Z are octaves 2-5, Space releases all, Esc quits.\r\n", cfg.SampleRate)

	kb := input.NewKeyboard(input.DefaultKeyMap(), cfg.Range)
	keys := newTermKeys(kb, p.Dispatch)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-tick.C:
			keys.Expire(now)
		case kp, ok := <-presses:
			if !ok {
				return
			}
			switch kp.key {
			case keyboard.KeyEsc, keyboard.KeyCtrlC:
				fmt.Print("\r\n")
				return
			case keyboard.KeySpace:
				keys.ReleaseAll()
				p.AllNotesOff()
			case keyboard.KeyEnter:
				keys.Press("Enter", time.Now())
			default:
				if code, ok := codeForRune(kp.r); ok {
					keys.Press(code, time.Now())
				}
			}
		}
	}
}
