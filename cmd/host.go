// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"io"

	"github.com/freeroam/roamctl/pkg/freeroam"
	"github.com/freeroam/roamctl/pkg/link"
	"github.com/freeroam/roamctl/pkg/registry"
	"github.com/freeroam/roamctl/pkg/session"
	"github.com/freeroam/roamctl/pkg/telemetry"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Session flags shared by serve and drive
var (
	strictChecksums bool
	eagerFlush      bool
	mqttBroker      string
)

func addSessionFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&strictChecksums, "strict", false, "Drop telemetry whose checksum does not match")
	cmd.Flags().BoolVar(&eagerFlush, "eager-flush", false, "Emit a line as soon as its buffer holds a complete packet")
	cmd.Flags().StringVar(&mqttBroker, "mqtt-broker", "", "Publish telemetry to this MQTT broker (tcp://host:1883)")
}

// host bundles everything one running session owns
type host struct {
	writer      *link.AsyncWriter
	registry    *registry.Registry
	reassembler *freeroam.Reassembler
	session     *session.Session
	mqtt        *telemetry.MQTTSink
}

// newHost wires a session writing to w. sinks receive telemetry in addition
// to the MQTT publisher when one is configured.
func newHost(w io.Writer, log zerolog.Logger, observer func(session.Event), sinks ...telemetry.Sink) (*host, error) {
	h := &host{}

	mqttCfg := settings.MQTT
	if mqttBroker != "" {
		mqttCfg.Broker = mqttBroker
	}
	if mqttCfg.Broker != "" {
		sink, err := telemetry.NewMQTTSink(mqttCfg, log)
		if err != nil {
			return nil, fmt.Errorf("failed to start telemetry publisher: %w", err)
		}
		h.mqtt = sink
		sinks = append(sinks, sink)
	}

	h.writer = link.NewAsyncWriter(w, link.WithWriterLogger(log))
	h.registry = registry.New(registry.NewFileStore(dataDir, registry.DocumentName), registry.WithLogger(log))

	var reassemblerOpts []freeroam.ReassemblerOption
	if eagerFlush || settings.EagerFlush {
		reassemblerOpts = append(reassemblerOpts, freeroam.WithEagerFlush())
	}

	h.reassembler = freeroam.NewReassembler(reassemblerOpts...)

	opts := []session.Option{
		session.WithLogger(log),
		session.WithProfile(settings.Platform),
		session.WithReassembler(h.reassembler),
	}
	if observer != nil {
		opts = append(opts, session.WithObserver(observer))
	}
	if strictChecksums || settings.Strict {
		opts = append(opts, session.WithStrictChecksums())
	}

	h.session = session.New(h.registry, h.writer, telemetry.Multi(sinks), opts...)
	return h, nil
}

// Close stops the writer and the telemetry publisher. The connection is
// closed by its owner.
func (h *host) Close() {
	if err := h.writer.Close(); err != nil {
		logger.Debug().Err(err).Msg("writer close")
	}
	if h.mqtt != nil {
		h.mqtt.Close()
	}
}
