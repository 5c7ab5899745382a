// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package telemetry

import (
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/freeroam/roamctl/pkg/freeroam"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// MQTTConfig configures the MQTT telemetry publisher
type MQTTConfig struct {
	Broker      string `toml:"broker"`
	ClientID    string `toml:"client_id"`
	TopicPrefix string `toml:"topic_prefix"`
	QoS         byte   `toml:"qos"`
}

// DefaultTopicPrefix is used when MQTTConfig.TopicPrefix is empty
const DefaultTopicPrefix = "roamctl"

// publisher is the subset of mqtt.Client the sink needs
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTSink publishes each report to <prefix>/platform/<id>/telemetry.
// Publishing is fire-and-forget; failures are logged.
type MQTTSink struct {
	client publisher
	conn   mqtt.Client
	prefix string
	qos    byte
	logger zerolog.Logger
}

// Topic returns the topic reports for platformID are published on
func Topic(prefix string, platformID uint64) string {
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return fmt.Sprintf("%s/platform/%d/telemetry", prefix, platformID)
}

// EncodePayload renders a report as a protobuf Struct in JSON form
func EncodePayload(t freeroam.Telemetry, at time.Time) ([]byte, error) {
	msg, err := structpb.NewStruct(map[string]interface{}{
		"key":       float64(t.Key),
		"platform":  float64(t.PlatformID),
		"x":         t.X,
		"y":         t.Y,
		"theta":     t.Theta,
		"checksum":  t.Checksum,
		"valid":     t.ChecksumValid(),
		"timestamp": at.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build telemetry payload: %w", err)
	}
	return protojson.Marshal(msg)
}

// NewMQTTSink connects to the broker and returns a publishing sink
func NewMQTTSink(cfg MQTTConfig, logger zerolog.Logger) (*MQTTSink, error) {
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "roamctl-" + uuid.New().String()[:8]
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(clientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(30 * time.Second)

	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		logger.Warn().Err(err).Str("broker", cfg.Broker).Msg("MQTT connection lost")
	})
	opts.SetOnConnectHandler(func(client mqtt.Client) {
		logger.Info().Str("broker", cfg.Broker).Str("client_id", clientID).Msg("connected to MQTT broker")
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker %s: %w", cfg.Broker, token.Error())
	}

	s := newMQTTSink(client, cfg, logger)
	s.conn = client
	return s, nil
}

func newMQTTSink(client publisher, cfg MQTTConfig, logger zerolog.Logger) *MQTTSink {
	prefix := cfg.TopicPrefix
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return &MQTTSink{
		client: client,
		prefix: prefix,
		qos:    cfg.QoS,
		logger: logger,
	}
}

// Telemetry implements Sink
func (s *MQTTSink) Telemetry(t freeroam.Telemetry) {
	payload, err := EncodePayload(t, time.Now())
	if err != nil {
		s.logger.Error().Err(err).Uint64("platform", t.PlatformID).Msg("dropping telemetry")
		return
	}

	topic := Topic(s.prefix, t.PlatformID)
	token := s.client.Publish(topic, s.qos, false, payload)
	go func() {
		<-token.Done()
		if err := token.Error(); err != nil {
			s.logger.Warn().Err(err).Str("topic", topic).Msg("MQTT publish failed")
		}
	}()
}

// Close disconnects from the broker
func (s *MQTTSink) Close() {
	if s.conn != nil && s.conn.IsConnected() {
		s.conn.Disconnect(1000)
	}
}
