package server

import (
	"github.com/Sumatoshi-tech/sorttrace/pkg/algorithm"
	"github.com/Sumatoshi-tech/sorttrace/pkg/operation"
	"github.com/Sumatoshi-tech/sorttrace/pkg/player"
)

// Client command types.
const (
	CommandLoad         = "load"
	CommandGenerate     = "generate"
	CommandPlay         = "play"
	CommandPause        = "pause"
	CommandReset        = "reset"
	CommandStepForward  = "step_forward"
	CommandStepBackward = "step_backward"
	CommandSeek         = "seek"
	CommandSpeed        = "speed"
)

// Server message types.
const (
	MessageLoaded = "loaded"
	MessageState  = "state"
	MessageError  = "error"
)

// Command is a client request on the playback socket.
type Command struct {
	Type      string    `json:"type"`
	Algorithm string    `json:"algorithm,omitempty"`
	Array     []float64 `json:"array,omitempty"`
	Step      int       `json:"step,omitempty"`
	Speed     float64   `json:"speed,omitempty"`

	// Generate parameters.
	Pattern string `json:"pattern,omitempty"`
	Size    int    `json:"size,omitempty"`
	Seed    uint64 `json:"seed,omitempty"`
}

// State is the playback state pushed after every change. The operation list
// is sent once, in the loaded message.
type State struct {
	IsPlaying    bool                 `json:"is_playing"`
	CurrentStep  int                  `json:"current_step"`
	TotalSteps   int                  `json:"total_steps"`
	Speed        float64              `json:"speed"`
	CurrentArray []float64            `json:"current_array"`
	Operation    *operation.Operation `json:"operation,omitempty"`
}

// Loaded describes a freshly loaded trace.
type Loaded struct {
	Algorithm  string             `json:"algorithm"`
	Metadata   algorithm.Metadata `json:"metadata"`
	Input      []float64          `json:"input"`
	Operations operation.Trace    `json:"operations"`
	FinalArray []float64          `json:"final_array"`
}

// Message is a server push on the playback socket.
type Message struct {
	Type    string                      `json:"type"`
	State   *State                      `json:"state,omitempty"`
	Metrics *player.Metrics             `json:"metrics,omitempty"`
	Loaded  *Loaded                     `json:"loaded,omitempty"`
	Errors  []algorithm.ValidationError `json:"errors,omitempty"`
	Error   string                      `json:"error,omitempty"`
}

func stateMessage(snap player.Snapshot, metrics player.Metrics) Message {
	state := &State{
		IsPlaying:    snap.IsPlaying,
		CurrentStep:  snap.CurrentStep,
		TotalSteps:   snap.TotalSteps,
		Speed:        snap.Speed,
		CurrentArray: snap.CurrentArray,
	}

	if snap.CurrentStep > 0 && snap.CurrentStep <= len(snap.Operations) {
		op := snap.Operations[snap.CurrentStep-1]
		state.Operation = &op
	}

	return Message{Type: MessageState, State: state, Metrics: &metrics}
}

func loadedMessage(doc algorithm.Document) Message {
	return Message{
		Type: MessageLoaded,
		Loaded: &Loaded{
			Algorithm:  doc.Algorithm,
			Metadata:   doc.Metadata,
			Input:      doc.Input.Array,
			Operations: doc.Operations,
			FinalArray: doc.FinalArray,
		},
	}
}

func errorMessage(text string, errs ...algorithm.ValidationError) Message {
	return Message{Type: MessageError, Error: text, Errors: errs}
}
