package events

import (
	"context"
	"time"

	"github.com/fluxorio/todo-service/pkg/core"
	"github.com/nats-io/nats.go"
)

// NATSConfig configures the NATS publisher
type NATSConfig struct {
	URL string

	// Prefix is prepended to the event type to form the subject: <prefix>.<type>
	Prefix string

	// Name identifies the connection on the server
	Name string

	ConnectTimeout time.Duration
}

// NATSPublisher publishes events as JSON on NATS subjects
type NATSPublisher struct {
	nc     *nats.Conn
	prefix string
}

// DefaultSubjectPrefix is used when NATSConfig.Prefix is empty. Event types
// already name their domain, so "todo.created" goes to "events.todo.created".
const DefaultSubjectPrefix = "events"

// NewNATSPublisher connects to the NATS server at config.URL
func NewNATSPublisher(config NATSConfig) (*NATSPublisher, error) {
	url := config.URL
	if url == "" {
		url = nats.DefaultURL
	}
	prefix := config.Prefix
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	timeout := config.ConnectTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	nc, err := nats.Connect(url, func(o *nats.Options) error {
		if config.Name != "" {
			o.Name = config.Name
		}
		o.Timeout = timeout
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &NATSPublisher{nc: nc, prefix: prefix}, nil
}

// Subject returns the subject for eventType
func (p *NATSPublisher) Subject(eventType string) string {
	return p.prefix + "." + eventType
}

// Publish encodes ev and publishes it on <prefix>.<type>.
// The request ID travels in the X-Request-ID header.
func (p *NATSPublisher) Publish(ctx context.Context, ev Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := core.JSONEncode(ev)
	if err != nil {
		return err
	}

	msg := &nats.Msg{
		Subject: p.Subject(ev.Type),
		Data:    data,
		Header:  nats.Header{},
	}
	rid := ev.RequestID
	if rid == "" {
		rid = core.GetRequestID(ctx)
	}
	if rid != "" {
		msg.Header.Set(core.RequestIDHeader, rid)
	}

	return p.nc.PublishMsg(msg)
}

// Close flushes buffered messages and closes the connection
func (p *NATSPublisher) Close() error {
	if p.nc.IsClosed() {
		return nil
	}
	err := p.nc.Flush()
	p.nc.Close()
	return err
}
