// Package agent runs one voice call end to end: greeting, turn loop,
// farewell, and the post-call qualification and persistence pass.
package agent

import (
	"context"

	"github.com/moona3k/website-to-voice-agent/internal/business"
	"github.com/moona3k/website-to-voice-agent/internal/lead"
)

// Message is one entry of the running chat history sent to the model.
// Role is "system", "user", or "assistant".
type Message struct {
	Role    string
	Content string
}

// Reply is the model's answer to one turn. EndCall is set when the model
// invoked its end-of-conversation tool instead of (or in addition to)
// producing text.
type Reply struct {
	Text    string
	EndCall bool
}

// Transcriber streams caller audio to a speech-to-text backend and emits
// finalized utterances on the channel returned by Finalize.
type Transcriber interface {
	Connect() error
	// SendPCM16KLE forwards one chunk of 16 kHz mono little-endian PCM.
	SendPCM16KLE(pcm []byte) error
	// Finalize returns the channel of end-of-thought utterances. The channel
	// is closed when the upstream connection goes away.
	Finalize() <-chan string
	Close() error
}

// ChatModel produces the agent's next conversational reply from the full
// message history.
type ChatModel interface {
	Respond(ctx context.Context, history []Message) (Reply, error)
}

// TTS synthesizes one utterance into a stream of PCM chunks. Both channels
// are closed when synthesis finishes; a value on the error channel means the
// stream ended early.
type TTS interface {
	StreamPCM(ctx context.Context, text string) (<-chan []byte, <-chan error)
}

// AudioSink receives synthesized agent audio, typically a websocket writer.
type AudioSink interface {
	WritePCM(pcm []byte)
}

// Qualifier runs the post-call qualification pass. Implementations never
// fail: any internal error degrades to a fallback analysis.
type Qualifier interface {
	Analyze(ctx context.Context, transcript string, cfg business.Config) lead.Analysis
}

// Recorder persists one finished lead record to an external sink.
type Recorder interface {
	Append(ctx context.Context, rec lead.Record) error
}
