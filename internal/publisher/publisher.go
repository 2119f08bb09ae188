package publisher

import (
	"log"

	"spotwatch/internal/model"
)

// Publisher pushes the derived chart window to downstream consumers.
type Publisher interface {
	PublishWindow(win model.ChartWindow) error
	Close() error
}

// LogPublisher writes a short readout to the log. It is the fallback
// consumer when MQTT is not configured.
type LogPublisher struct{}

func NewLogPublisher() *LogPublisher { return &LogPublisher{} }

func (p *LogPublisher) PublishWindow(win model.ChartWindow) error {
	if len(win.Buckets) == 0 {
		return nil
	}
	current := win.Buckets[0]
	log.Printf("[INFO] current hour %02d: %.2f c/kWh (%s), %d buckets ahead",
		current.StartTime.Local().Hour(), current.AdjustedPrice, current.Tier, len(win.Buckets)-1)
	return nil
}

func (p *LogPublisher) Close() error { return nil }
