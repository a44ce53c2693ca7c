package snowman

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// ColorFeedOpts are options for a color feed.
type ColorFeedOpts struct {
	// Broker is the MQTT broker URL, e.g. tcp://mqtt.cheerlights.com:1883.
	Broker string
	// Topic is the topic that carries "#rrggbb" colors.
	Topic string
	// QoS is the subscription's quality of service.
	QoS byte
	// ClientID identifies this client to the broker. It must be unique.
	ClientID string
	// ConnectTimeout bounds connecting and subscribing.
	ConnectTimeout time.Duration
	// Color receives the colors.
	Color *AmbientColor
	// Logger is the logger to use for the feed.
	Logger *slog.Logger
}

// ColorFeed subscribes to an MQTT topic of hex colors and keeps an
// AmbientColor up to date with it.
type ColorFeed struct {
	opts   ColorFeedOpts
	client mqtt.Client
}

// NewColorFeed creates a new color feed. It does not connect until Connect
// is called.
func NewColorFeed(opts ColorFeedOpts) *ColorFeed {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 10 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &ColorFeed{opts: opts}
}

// Connect connects to the broker and subscribes to the color topic.
func (f *ColorFeed) Connect(ctx context.Context) error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(f.opts.Broker)
	opts.SetClientID(f.opts.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(f.opts.ConnectTimeout)

	opts.OnConnect = func(c mqtt.Client) {
		f.opts.Logger.Debug(
			"color feed connected",
			"broker", f.opts.Broker)
	}

	opts.OnConnectionLost = func(c mqtt.Client, err error) {
		f.opts.Logger.Warn(
			"color feed connection lost",
			"broker", f.opts.Broker,
			"error", err)
	}

	f.client = mqtt.NewClient(opts)

	f.opts.Logger.InfoContext(ctx,
		"connecting to color feed",
		"broker", f.opts.Broker,
		"topic", f.opts.Topic)

	if err := f.wait(ctx, f.client.Connect()); err != nil {
		return fmt.Errorf("failed to connect to %s: %w", f.opts.Broker, err)
	}

	token := f.client.Subscribe(f.opts.Topic, f.opts.QoS, func(_ mqtt.Client, msg mqtt.Message) {
		f.handle(msg.Payload())
	})
	if err := f.wait(ctx, token); err != nil {
		f.client.Disconnect(250)
		return fmt.Errorf("failed to subscribe to %q: %w", f.opts.Topic, err)
	}

	return nil
}

// Run keeps the feed connected until ctx is cancelled, then disconnects.
func (f *ColorFeed) Run(ctx context.Context) error {
	<-ctx.Done()

	if f.client != nil {
		f.client.Disconnect(250)
	}

	f.opts.Logger.Debug("color feed disconnected")
	return nil
}

func (f *ColorFeed) wait(ctx context.Context, token mqtt.Token) error {
	timer := time.NewTimer(f.opts.ConnectTimeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("timed out after %v", f.opts.ConnectTimeout)
	case <-token.Done():
		return token.Error()
	}
}

// handle updates the ambient color from a feed payload. Malformed payloads
// leave the color as it was.
func (f *ColorFeed) handle(payload []byte) {
	if err := f.opts.Color.SetHex(string(payload)); err != nil {
		f.opts.Logger.Debug(
			"ignoring malformed color",
			"payload", string(payload),
			"error", err)
		return
	}

	f.opts.Logger.Debug(
		"ambient color updated",
		"color", Hex(f.opts.Color.Color()))
}
