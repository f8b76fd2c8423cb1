// Package events publishes asset lifecycle notifications to NATS
// JetStream so downstream consumers (inventory sync, notifications) can
// react to changes. The publisher is optional: a nil *Publisher is a
// no-op, letting deployments run without a broker.
package events

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"
)

// Subjects for asset lifecycle events.
const (
	SubjectAssetCreated  = "assets.created"
	SubjectAssetUpdated  = "assets.updated"
	SubjectAssetDeleted  = "assets.deleted"
	SubjectAssetAssigned = "assets.assigned"
)

// Publisher wraps a NATS JetStream connection for publishing events.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// Connect creates a Publisher connected to the provided NATS endpoint.
func Connect(url string, opts ...nats.Option) (*Publisher, error) {
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, err
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, err
	}

	return &Publisher{conn: nc, js: js}, nil
}

// Close shuts down the underlying NATS connection.
func (p *Publisher) Close() {
	if p == nil {
		return
	}
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}

// Publish encodes v as JSON and publishes it to the given subject. On a
// nil Publisher it does nothing.
func (p *Publisher) Publish(ctx context.Context, subj string, v any) error {
	if p == nil {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	_, err = p.js.Publish(subj, data, nats.Context(ctx))
	return err
}
