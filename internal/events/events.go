// Package events publishes domain events for downstream consumers such as
// notification or analytics workers. Publishing is best effort.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	SubjectReportCreated   = "wastehunt.report.created"
	SubjectReportCollected = "wastehunt.report.collected"
)

type ReportCreated struct {
	ReportID   string    `json:"report_id"`
	ReporterID string    `json:"reporter_id"`
	WasteType  string    `json:"waste_type"`
	Amount     int       `json:"amount"`
	Points     int       `json:"points"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	At         time.Time `json:"at"`
}

type ReportCollected struct {
	ReportID    string    `json:"report_id"`
	CollectorID string    `json:"collector_id"`
	Points      int       `json:"points"`
	At          time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, subject string, payload interface{}) error
	Close()
}

type natsConn interface {
	Publish(subj string, data []byte) error
	Drain() error
}

// NATS publishes JSON payloads on core NATS subjects.
type NATS struct {
	conn natsConn
}

func NewNATS(url string) (*NATS, error) {
	nc, err := nats.Connect(url,
		nats.Name("wastehunt-backend"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("nats disconnected", "error", err)
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &NATS{conn: nc}, nil
}

func (n *NATS) Publish(ctx context.Context, subject string, payload interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s: %w", subject, err)
	}
	if err := n.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

func (n *NATS) Close() {
	if err := n.conn.Drain(); err != nil {
		slog.Warn("nats drain failed", "error", err)
	}
}

// Noop drops every event.
type Noop struct{}

func (Noop) Publish(context.Context, string, interface{}) error { return nil }
func (Noop) Close()                                           {}
