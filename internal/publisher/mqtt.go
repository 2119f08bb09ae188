package publisher

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"spotwatch/internal/model"
)

// MQTTPublisher publishes the chart window and the current price as retained
// JSON messages, for Home Assistant style consumers.
type MQTTPublisher struct {
	client      mqtt.Client
	topicPrefix string
}

// NewMQTTPublisher connects to the broker. broker is a host:port address.
func NewMQTTPublisher(broker, topicPrefix, clientID string) (*MQTTPublisher, error) {
	if broker == "" {
		return nil, fmt.Errorf("MQTT broker address is required")
	}
	if topicPrefix == "" {
		topicPrefix = "spotwatch"
	}
	if clientID == "" {
		clientID = "spotwatch"
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s", broker))
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectTimeout(10 * time.Second)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connecting to MQTT broker: %w", token.Error())
	}

	return &MQTTPublisher{client: client, topicPrefix: topicPrefix}, nil
}

// pricePayload is the compact current-price message.
type pricePayload struct {
	StartTime string     `json:"start_time"`
	Price     float64    `json:"price"`
	Tier      model.Tier `json:"tier"`
}

// PublishWindow sends the full window to <prefix>/window and the current
// bucket to <prefix>/price, both retained.
func (p *MQTTPublisher) PublishWindow(win model.ChartWindow) error {
	body, err := json.Marshal(win)
	if err != nil {
		return fmt.Errorf("encoding window: %w", err)
	}
	if token := p.client.Publish(p.topicPrefix+"/window", 0, true, body); token.Wait() && token.Error() != nil {
		return fmt.Errorf("publish window: %w", token.Error())
	}

	if len(win.Buckets) == 0 {
		return nil
	}
	current := win.Buckets[0]
	body, err = json.Marshal(pricePayload{
		StartTime: current.StartTime.Format(time.RFC3339),
		Price:     current.AdjustedPrice,
		Tier:      current.Tier,
	})
	if err != nil {
		return fmt.Errorf("encoding price: %w", err)
	}
	if token := p.client.Publish(p.topicPrefix+"/price", 0, true, body); token.Wait() && token.Error() != nil {
		return fmt.Errorf("publish price: %w", token.Error())
	}
	return nil
}

// Close disconnects from the broker.
func (p *MQTTPublisher) Close() error {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(250)
	}
	return nil
}
