// Package telephony bridges inbound Twilio calls onto the websocket audio
// endpoint via TwiML.
package telephony

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/twilio/twilio-go/twiml"

	"github.com/moona3k/website-to-voice-agent/internal/session"
)

type Config struct {
	AuthToken string
	// BaseURL overrides callback-host detection when the service runs behind
	// a tunnel or proxy whose forwarding headers are unreliable.
	BaseURL string
}

// Service answers Twilio voice webhooks. Each inbound call gets a fresh
// session (with the default business profile) and a <Connect><Stream> TwiML
// response pointing Twilio's media stream at the session's websocket.
type Service struct {
	config Config
	store  *session.Store
}

func New(config Config, store *session.Store) *Service {
	return &Service{config: config, store: store}
}

func (s *Service) RegisterHandlers(e *echo.Echo) {
	e.POST("/twilio/voice", s.handleVoice, s.authMiddleware)
}

func (s *Service) handleVoice(c echo.Context) error {
	params := c.Get("twilioParams").(map[string]string)
	callSID := params["CallSid"]
	from := params["From"]

	sess := s.store.Create()
	log.Printf("Inbound call from %s, CallSID: %s, session %s", from, callSID, sess.ID)

	streamURL := s.streamURL(c.Request(), sess.ID)
	doc, err := twiml.Voice([]twiml.Element{
		&twiml.VoiceConnect{
			InnerElements: []twiml.Element{
				&twiml.VoiceStream{Url: streamURL},
			},
		},
	})
	if err != nil {
		return c.String(http.StatusInternalServerError, "Failed to build TwiML")
	}
	return c.Blob(http.StatusOK, "text/xml", []byte(doc))
}

// streamURL builds the wss:// address of the call's audio websocket.
func (s *Service) streamURL(r *http.Request, sessionID string) string {
	base := s.baseURL(r)
	base = strings.Replace(base, "https://", "wss://", 1)
	base = strings.Replace(base, "http://", "ws://", 1)
	return fmt.Sprintf("%s/ws/%s", base, sessionID)
}

// baseURL resolves the public origin of this service.
// Priority: configured BaseURL > X-Forwarded-* headers > request Host.
func (s *Service) baseURL(r *http.Request) string {
	if s.config.BaseURL != "" {
		return strings.TrimRight(s.config.BaseURL, "/")
	}
	proto := r.Header.Get("X-Forwarded-Proto")
	host := r.Header.Get("X-Forwarded-Host")
	if proto != "" && host != "" {
		return fmt.Sprintf("%s://%s", proto, host)
	}
	host = r.Host
	proto = "https"
	if strings.HasPrefix(host, "localhost:") || strings.HasPrefix(host, "127.0.0.1:") {
		proto = "http"
	}
	return fmt.Sprintf("%s://%s", proto, host)
}

func (s *Service) authMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.config.AuthToken == "" {
			return c.String(http.StatusInternalServerError, "Missing TWILIO_AUTH_TOKEN")
		}

		body, err := io.ReadAll(c.Request().Body)
		if err != nil {
			return c.String(http.StatusBadRequest, "Failed to read body")
		}

		formData, err := url.ParseQuery(string(body))
		if err != nil {
			return c.String(http.StatusBadRequest, "Failed to parse form")
		}

		params := make(map[string]string)
		for key, values := range formData {
			if len(values) > 0 {
				params[key] = values[0]
			}
		}

		signature := c.Request().Header.Get("X-Twilio-Signature")
		requestURL := fmt.Sprintf("%s%s", s.baseURL(c.Request()), c.Request().URL.Path)

		if !s.validateSignature(signature, requestURL, params) {
			return c.String(http.StatusUnauthorized, "Invalid signature")
		}

		c.Set("twilioParams", params)
		return next(c)
	}
}

func (s *Service) validateSignature(signature, url string, params map[string]string) bool {
	if signature == "" {
		return false
	}
	data := url
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		data += k + params[k]
	}

	mac := hmac.New(sha1.New, []byte(s.config.AuthToken))
	mac.Write([]byte(data))
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(signature), []byte(expected))
}
