// Package transcript streams caller audio to Deepgram's live listen API and
// emits finalized utterances.
package transcript

import (
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	listenHost = "wss://api.deepgram.com/v1/listen"

	// Deepgram closes idle streams after ~10s without audio; a KeepAlive
	// every 5s keeps the session alive while the agent is speaking.
	keepAliveInterval = 5 * time.Second
)

// DeepgramService is a live speech-to-text session. It accumulates is_final
// segments and emits one utterance per speech_final boundary, so downstream
// sees whole thoughts rather than fragments.
type DeepgramService struct {
	apiKey string
	model  string

	finalizeCh chan string
	audioData  chan []byte
	stopCh     chan struct{}
	mu         sync.RWMutex
	connected  bool

	accMu    sync.Mutex
	segments []string
}

type listenResult struct {
	Type        string `json:"type"`
	IsFinal     bool   `json:"is_final"`
	SpeechFinal bool   `json:"speech_final"`
	Channel     struct {
		Alternatives []struct {
			Transcript string `json:"transcript"`
		} `json:"alternatives"`
	} `json:"channel"`
}

func NewDeepgramService(apiKey, model string) *DeepgramService {
	if model == "" {
		model = "nova-2"
	}
	return &DeepgramService{
		apiKey:     apiKey,
		model:      model,
		finalizeCh: make(chan string, 10),
		audioData:  make(chan []byte, 1000),
		stopCh:     make(chan struct{}),
	}
}

// Finalize returns the channel of end-of-thought utterances. Closed when the
// session ends.
func (s *DeepgramService) Finalize() <-chan string { return s.finalizeCh }

// Connect opens the streaming session and starts the read and write pumps.
func (s *DeepgramService) Connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connected {
		return nil
	}
	if s.apiKey == "" {
		return fmt.Errorf("deepgram api key is empty")
	}

	params := url.Values{}
	params.Set("model", s.model)
	params.Set("encoding", "linear16")
	params.Set("sample_rate", "16000")
	params.Set("channels", "1")
	params.Set("punctuate", "true")
	params.Set("interim_results", "true")
	params.Set("endpointing", "300")

	wsURL := fmt.Sprintf("%s?%s", listenHost, params.Encode())
	headers := map[string][]string{
		"Authorization": {"Token " + s.apiKey},
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, resp, err := dialer.Dial(wsURL, headers)
	if err != nil {
		if resp != nil {
			log.Printf("Deepgram connection failed with status: %d", resp.StatusCode)
		}
		return fmt.Errorf("failed to connect to Deepgram: %w", err)
	}

	s.connected = true

	go s.readLoop(conn)
	go s.writeLoop(conn)

	log.Println("Connected to Deepgram live transcription")
	return nil
}

// SendPCM16KLE queues one chunk of 16 kHz mono little-endian PCM. Drops the
// chunk rather than blocking the caller's audio path when the buffer is full.
func (s *DeepgramService) SendPCM16KLE(pcm []byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.connected {
		return fmt.Errorf("not connected to Deepgram")
	}
	select {
	case s.audioData <- pcm:
		return nil
	default:
		log.Println("Deepgram audio buffer full, dropping packet")
		return nil
	}
}

// Close terminates the session. It only signals the pumps: the write loop
// sends CloseStream and tears down the socket, and the read loop flushes any
// accumulated segments and closes the finalize channel as it exits. Only the
// read loop ever touches finalizeCh, so a late result can never race the
// channel close.
func (s *DeepgramService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return nil
	}
	s.connected = false
	close(s.stopCh)
	log.Println("Deepgram connection closed")
	return nil
}

func (s *DeepgramService) readLoop(conn *websocket.Conn) {
	defer func() {
		s.flushSegments()
		close(s.finalizeCh)
	}()
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-s.stopCh:
			default:
				log.Printf("Deepgram read: %v", err)
			}
			return
		}
		s.processMessage(message)
	}
}

func (s *DeepgramService) processMessage(message []byte) {
	var msg listenResult
	if err := json.Unmarshal(message, &msg); err != nil {
		log.Printf("Deepgram: unparsable message: %v", err)
		return
	}
	if msg.Type != "Results" {
		return
	}
	var text string
	if len(msg.Channel.Alternatives) > 0 {
		text = strings.TrimSpace(msg.Channel.Alternatives[0].Transcript)
	}

	// Interim results are ignored; is_final commits a segment, speech_final
	// marks the end of the thought and releases the whole utterance.
	if msg.IsFinal && text != "" {
		s.accMu.Lock()
		s.segments = append(s.segments, text)
		s.accMu.Unlock()
	}
	if msg.SpeechFinal {
		s.emitUtterance()
	}
}

func (s *DeepgramService) emitUtterance() {
	s.accMu.Lock()
	utterance := strings.Join(s.segments, " ")
	s.segments = s.segments[:0]
	s.accMu.Unlock()
	if utterance == "" {
		return
	}
	select {
	case <-s.stopCh:
	case s.finalizeCh <- utterance:
	}
}

// flushSegments delivers any uncommitted segments at shutdown. Best effort;
// it will not block teardown indefinitely.
func (s *DeepgramService) flushSegments() {
	s.accMu.Lock()
	utterance := strings.Join(s.segments, " ")
	s.segments = nil
	s.accMu.Unlock()
	if utterance == "" {
		return
	}
	select {
	case s.finalizeCh <- utterance:
	case <-time.After(200 * time.Millisecond):
		log.Printf("Deepgram flush: timed out delivering final utterance")
	}
}

// writeLoop is the sole writer on the websocket: queued audio plus periodic
// KeepAlives while the caller is silent. On shutdown it sends CloseStream and
// closes the socket, which unblocks the read loop.
func (s *DeepgramService) writeLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()
	defer conn.Close()
	for {
		select {
		case <-s.stopCh:
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"CloseStream"}`))
			return
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"KeepAlive"}`)); err != nil {
				log.Printf("Deepgram keepalive: %v", err)
				return
			}
		case pcm, ok := <-s.audioData:
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.BinaryMessage, pcm); err != nil {
				log.Printf("Deepgram write audio: %v", err)
				return
			}
		}
	}
}
