// Package messaging delivers outbound WhatsApp messages through Twilio.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/twilio/twilio-go"
	twclient "github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

const (
	defaultBaseURL = "https://api.twilio.com"
	defaultTimeout = 15 * time.Second

	// MaxBodyLength is the longest body Twilio accepts in one message.
	MaxBodyLength = 1600

	channelPrefix = "whatsapp:"
)

// ErrInvalidDestination is returned for destinations not in E.164 form.
var ErrInvalidDestination = errors.New("destination must start with +")

// Sender sends a text message to a user.
type Sender interface {
	Send(ctx context.Context, to, body string) error
}

// TwilioClient sends WhatsApp messages with the Twilio Messages API.
type TwilioClient struct {
	rest   *twilio.RestClient
	from   string
	logger *slog.Logger
}

// NewTwilioClient creates a client sending from the given WhatsApp number.
func NewTwilioClient(accountSID, authToken, from string) *TwilioClient {
	return NewTwilioClientWithBaseURL(accountSID, authToken, from, "")
}

// NewTwilioClientWithBaseURL creates a client whose API requests go to
// baseURL instead of api.twilio.com.
func NewTwilioClientWithBaseURL(accountSID, authToken, from, baseURL string) *TwilioClient {
	rest := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})

	httpClient := &http.Client{Timeout: defaultTimeout}
	if u, err := url.Parse(strings.TrimRight(baseURL, "/")); err == nil && baseURL != "" && baseURL != defaultBaseURL {
		httpClient.Transport = &hostRewriter{target: u, next: http.DefaultTransport}
	}
	if c, ok := rest.Client.(*twclient.Client); ok {
		c.HTTPClient = httpClient
	}

	return &TwilioClient{
		rest:   rest,
		from:   strings.TrimPrefix(from, channelPrefix),
		logger: slog.Default(),
	}
}

// Send delivers body to the E.164 number to. Bodies longer than
// MaxBodyLength are split and sent as consecutive messages; sending stops at
// the first failed chunk.
func (c *TwilioClient) Send(ctx context.Context, to, body string) error {
	if !strings.HasPrefix(to, "+") {
		return fmt.Errorf("%w: %q", ErrInvalidDestination, to)
	}

	chunks := Chunk(body, MaxBodyLength)
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.sendOne(to, chunk); err != nil {
			return fmt.Errorf("sending part %d/%d to %s: %w", i+1, len(chunks), to, err)
		}
	}
	c.logger.Info("message sent", "to", to, "parts", len(chunks), "preview", preview(body, 50))
	return nil
}

func (c *TwilioClient) sendOne(to, body string) error {
	params := &openapi.CreateMessageParams{}
	params.SetFrom(channelPrefix + c.from)
	params.SetTo(channelPrefix + to)
	params.SetBody(body)

	msg, err := c.rest.Api.CreateMessage(params)
	if err != nil {
		return err
	}
	if msg != nil && msg.Sid != nil {
		c.logger.Debug("twilio accepted message", "sid", *msg.Sid)
	}
	return nil
}

// hostRewriter sends every request to target's scheme and host, keeping the
// path the SDK built.
type hostRewriter struct {
	target *url.URL
	next   http.RoundTripper
}

func (h *hostRewriter) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.URL.Scheme = h.target.Scheme
	r.URL.Host = h.target.Host
	r.Host = h.target.Host
	return h.next.RoundTrip(r)
}

// Chunk splits body into consecutive pieces of at most limit characters.
// Splits never fall inside a multi-byte character.
func Chunk(body string, limit int) []string {
	if limit <= 0 || utf8.RuneCountInString(body) <= limit {
		return []string{body}
	}

	var chunks []string
	for body != "" {
		n, end := 0, 0
		for end < len(body) && n < limit {
			_, size := utf8.DecodeRuneInString(body[end:])
			end += size
			n++
		}
		chunks = append(chunks, body[:end])
		body = body[end:]
	}
	return chunks
}

func preview(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
