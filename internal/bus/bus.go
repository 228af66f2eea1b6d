// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package bus

import (
	"encoding/json"
	"fmt"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Publisher sends JSON payloads to a topic.
type Publisher interface {
	PublishJSON(topic string, v any, retained bool) error
}

// Client is a connected MQTT client that speaks JSON.
type Client struct {
	mqtt   mqtt.Client
	broker string
}

// Connect opens a connection to broker using clientID.
func Connect(broker, clientID string) (*Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect to MQTT broker %s: %w", broker, token.Error())
	}
	log.Printf("%s: connected to MQTT broker at %s", clientID, broker)
	return &Client{mqtt: client, broker: broker}, nil
}

// PublishJSON marshals v and publishes it at QoS 0.
func (c *Client) PublishJSON(topic string, v any, retained bool) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", topic, err)
	}
	token := c.mqtt.Publish(topic, 0, retained, payload)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("publish %s: %w", topic, token.Error())
	}
	return nil
}

// Subscribe registers handler for raw payloads on topic.
func (c *Client) Subscribe(topic string, handler func(payload []byte)) error {
	token := c.mqtt.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		handler(msg.Payload())
	})
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("subscribe %s: %w", topic, token.Error())
	}
	log.Printf("subscribed to MQTT topic %s", topic)
	return nil
}

// SubscribeJSON decodes each message on topic into a fresh T before calling
// handler. Undecodable payloads are logged and dropped.
func SubscribeJSON[T any](c *Client, topic string, handler func(T)) error {
	return c.Subscribe(topic, func(payload []byte) {
		var v T
		if err := json.Unmarshal(payload, &v); err != nil {
			log.Printf("%s: payload unmarshal error: %v", topic, err)
			return
		}
		handler(v)
	})
}

// Close disconnects, allowing 250ms for in-flight work.
func (c *Client) Close() {
	c.mqtt.Disconnect(250)
}
