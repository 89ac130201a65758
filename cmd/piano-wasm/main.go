//go:build js && wasm

package main

import (
	"context"
	"syscall/js"
	"unsafe"

	"github.com/cwbudde/piano-sampler/input"
	"github.com/cwbudde/piano-sampler/note"
	"github.com/cwbudde/piano-sampler/piano"
	"github.com/cwbudde/piano-sampler/preset"
	"github.com/cwbudde/piano-sampler/state"
)

const maxBlockFrames = 128

var (
	globalPiano  *piano.Piano
	globalHub    *state.Hub
	keys         *input.Keyboard
	mouse        *input.Mouse
	midiIn       *input.MIDI
	outputBuffer []float32
	stopHub      context.CancelFunc
)

func main() {
	// Keep program running
	c := make(chan struct{})

	// Export functions to JavaScript
	js.Global().Set("wasmInit", js.FuncOf(wasmInit))
	js.Global().Set("wasmKeyDown", js.FuncOf(wasmKeyDown))
	js.Global().Set("wasmKeyUp", js.FuncOf(wasmKeyUp))
	js.Global().Set("wasmMouseDown", js.FuncOf(wasmMouseDown))
	js.Global().Set("wasmMouseLeave", js.FuncOf(wasmMouseLeave))
	js.Global().Set("wasmMouseUp", js.FuncOf(wasmMouseUp))
	js.Global().Set("wasmMIDIMessage", js.FuncOf(wasmMIDIMessage))
	js.Global().Set("wasmMIDIState", js.FuncOf(wasmMIDIState))
	js.Global().Set("wasmAllNotesOff", js.FuncOf(wasmAllNotesOff))
	js.Global().Set("wasmProcessBlock", js.FuncOf(wasmProcessBlock))
	js.Global().Set("wasmGetMemoryBuffer", js.FuncOf(wasmGetMemoryBuffer))

	println("WASM piano module loaded")
	<-c
}

// wasmInit(sampleRate, assetsURL) builds the engine. Rendering state is
// reported through the JS globals pianoRenderNote(name, active) and
// pianoRenderStatus(text) when they exist.
func wasmInit(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	if stopHub != nil {
		stopHub()
		globalPiano.Close()
	}

	cfg := preset.Default()
	cfg.SampleRate = args[0].Int()
	cfg.Assets = args[1].String()

	globalHub = state.NewHub()
	var ctx context.Context
	ctx, stopHub = context.WithCancel(context.Background())
	go globalHub.Run(ctx)
	subscribeRenderer(globalHub)

	globalPiano = cfg.NewPiano(cfg.NewCache(nil), globalHub, nil)
	keys = input.NewKeyboard(input.DefaultKeyMap(), cfg.Range)
	mouse = input.NewMouse(cfg.Range)
	midiIn = input.NewMIDI(cfg.Range)

	// Pre-allocate output buffer for 128 stereo frames
	outputBuffer = make([]float32, maxBlockFrames*2)

	println("Piano initialized at", cfg.SampleRate, "Hz, samples from", cfg.Assets)
	return nil
}

func subscribeRenderer(hub *state.Hub) {
	shown := make(state.NoteSet)
	hub.Subscribe([]state.Field{state.ActiveNotes}, func(s state.State) {
		render := js.Global().Get("pianoRenderNote")
		if render.Type() != js.TypeFunction {
			return
		}
		for id := range shown {
			if !s.ActiveNotes[id] {
				delete(shown, id)
				render.Invoke(id.String(), false)
			}
		}
		for _, id := range s.ActiveNotes.Sorted() {
			if !shown[id] {
				shown[id] = true
				render.Invoke(id.String(), true)
			}
		}
	})
	hub.Subscribe([]state.Field{state.MIDISupported, state.MIDIInputPresent}, func(s state.State) {
		if status := js.Global().Get("pianoRenderStatus"); status.Type() == js.TypeFunction {
			status.Invoke(state.MIDIStatus(s))
		}
	})
}

func dispatch(ev input.Event, ok bool) {
	if ok && globalPiano != nil {
		globalPiano.Dispatch(ev)
	}
}

func wasmKeyDown(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || keys == nil {
		return nil
	}
	dispatch(keys.KeyDown(args[0].String()))
	return nil
}

func wasmKeyUp(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || keys == nil {
		return nil
	}
	dispatch(keys.KeyUp(args[0].String()))
	return nil
}

func noteArg(args []js.Value) (note.ID, bool) {
	if len(args) < 1 {
		return note.ID{}, false
	}
	id, err := note.Parse(args[0].String())
	return id, err == nil
}

func wasmMouseDown(this js.Value, args []js.Value) interface{} {
	id, ok := noteArg(args)
	if !ok || mouse == nil {
		return nil
	}
	dispatch(mouse.Press(id))
	return nil
}

func wasmMouseLeave(this js.Value, args []js.Value) interface{} {
	id, ok := noteArg(args)
	if !ok || mouse == nil {
		return nil
	}
	dispatch(mouse.Leave(id))
	return nil
}

func wasmMouseUp(this js.Value, args []js.Value) interface{} {
	if mouse == nil {
		return nil
	}
	for _, ev := range mouse.Release() {
		dispatch(ev, true)
	}
	return nil
}

// wasmMIDIMessage receives the data Uint8Array of a Web MIDI message.
func wasmMIDIMessage(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || midiIn == nil {
		return nil
	}
	data := make([]byte, args[0].Get("length").Int())
	js.CopyBytesToGo(data, args[0])
	dispatch(midiIn.Normalize(data))
	return nil
}

// wasmMIDIState(supported, inputPresent) reports Web MIDI access.
func wasmMIDIState(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 || globalHub == nil {
		return nil
	}
	supported := state.TristateOf(args[0].Bool())
	present := state.TristateOf(args[1].Bool())
	if present == state.No && midiIn != nil {
		for _, id := range midiIn.Held() {
			dispatch(input.NoteOff(id), true)
		}
		midiIn.Reset()
	}
	globalHub.Update(state.Patch{MIDISupported: &supported, MIDIInputPresent: &present})
	return nil
}

func wasmAllNotesOff(this js.Value, args []js.Value) interface{} {
	if globalPiano != nil {
		globalPiano.AllNotesOff()
	}
	return nil
}

func wasmProcessBlock(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || globalPiano == nil {
		return 0
	}

	numFrames := args[0].Int()
	if numFrames > maxBlockFrames {
		numFrames = maxBlockFrames
	}

	// Process audio
	output := globalPiano.Process(numFrames)

	// Copy to persistent buffer
	copy(outputBuffer, output)

	// Return pointer to buffer in WASM linear memory
	ptr := &outputBuffer[0]
	return js.ValueOf(uintptr(unsafe.Pointer(ptr)))
}

func wasmGetMemoryBuffer(this js.Value, args []js.Value) interface{} {
	// Return WASM memory buffer for access from JS
	return js.Global().Get("Go").Get("_inst").Get("exports").Get("mem").Get("buffer")
}
