// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/freeroam/roamctl/pkg/link"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// batchInterval is how often link data is handed to the TUI
const batchInterval = 20 * time.Millisecond

var driveCmd = &cobra.Command{
	Use:     "drive",
	Aliases: []string{"control"},
	Short:   "Interactive TUI for driving Freeroam platforms",
	Long: `Host platforms and drive them from the keyboard.

Everything serve does (init replies, registration, telemetry) runs inside
the TUI, together with the control loop. The keyboard acts as a gamepad:

  w / s        left wheel forward / back
  up / down    right wheel forward / back
  space        stop both wheels
  e            emergency stop (repeats while the key is held)
  q            quit

Motor commands are sent only when a wheel rate changes. Releasing the
sticks sends a single zero command.

The connection is re-opened with backoff if the link is lost.`,
	RunE: runDrive,
}

func init() {
	rootCmd.AddCommand(driveCmd)
	addSessionFlags(driveCmd)
}

// connectionManager handles connection lifecycle and reconnection
type connectionManager struct {
	conn     Connection
	connInfo string
	mu       sync.RWMutex
	p        *tea.Program
	done     chan struct{}
	log      zerolog.Logger
}

func (cm *connectionManager) getConn() Connection {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.conn
}

func (cm *connectionManager) setConn(conn Connection, connInfo string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.conn = conn
	cm.connInfo = connInfo
}

// Write sends to whichever connection is current, so the async writer
// survives reconnects
func (cm *connectionManager) Write(p []byte) (int, error) {
	conn := cm.getConn()
	if conn == nil {
		return 0, ErrConnectionClosed
	}
	return conn.Write(p)
}

func runDrive(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		exitf(2, "Connection error: %v\n", err)
	}

	cm := &connectionManager{
		conn:     conn,
		connInfo: connInfo,
		done:     make(chan struct{}),
	}

	// The TUI owns the terminal; logs go to the event panel
	logs := newLogBuffer(maxLogEntries)
	tuiLogger, err := bufferLogger(logs, logLevel)
	if err != nil {
		conn.Close()
		return err
	}
	cm.log = tuiLogger

	m, err := initialDriveModel(cm, connInfo, logs, tuiLogger)
	if err != nil {
		conn.Close()
		return err
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	cm.p = p

	go cm.readerLoop()

	final, runErr := p.Run()

	m.host.Close()
	close(cm.done)
	if conn := cm.getConn(); conn != nil {
		conn.Close()
	}

	if runErr != nil {
		return fmt.Errorf("TUI error: %w", runErr)
	}
	if dm, ok := final.(driveModel); ok && dm.sessionErr != nil {
		return dm.sessionErr
	}
	return nil
}

// readerLoop handles reading from connection with automatic reconnection
func (cm *connectionManager) readerLoop() {
	for {
		select {
		case <-cm.done:
			return
		default:
		}

		connLost := cm.readFromConnection()

		if connLost {
			cm.p.Send(connectionLostMsg{})

			if !cm.reconnect() {
				return
			}
		}
	}
}

// readFromConnection reads chunks until the connection fails.
// Returns true if connection was lost, false if shutdown requested
func (cm *connectionManager) readFromConnection() bool {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conn := cm.getConn()
	if conn == nil {
		return true
	}

	chunkChan := make(chan []byte, 256)
	readerDone := make(chan struct{})

	go func() {
		defer close(readerDone)
		err := link.ReadChunks(ctx, conn, isFatalReadError, func(chunk []byte) {
			// Bytes must not be dropped or lines would be corrupted
			select {
			case chunkChan <- chunk:
			case <-cm.done:
			}
		})
		cm.log.Debug().Err(err).Msg("reader stopped")
	}()

	// Batch sender goroutine - hands chunks to the TUI at a fixed rate
	batcherDone := make(chan struct{})
	go func() {
		defer close(batcherDone)
		ticker := time.NewTicker(batchInterval)
		defer ticker.Stop()

		flush := func() {
			var batch linkBatchMsg
		drainLoop:
			for {
				select {
				case chunk := <-chunkChan:
					batch.chunks = append(batch.chunks, chunk)
				default:
					break drainLoop
				}
			}
			if len(batch.chunks) > 0 {
				cm.p.Send(batch)
			}
		}

		for {
			select {
			case <-cm.done:
				return
			case <-readerDone:
				flush()
				return
			case <-ticker.C:
				flush()
			}
		}
	}()

	<-readerDone
	<-batcherDone

	select {
	case <-cm.done:
		return false
	default:
		return true
	}
}

// reconnect attempts to reconnect with exponential backoff
// Returns false if shutdown was requested during reconnection
func (cm *connectionManager) reconnect() bool {
	if conn := cm.getConn(); conn != nil {
		conn.Close()
	}

	backoff := 1 * time.Second
	maxBackoff := 30 * time.Second

	for {
		select {
		case <-cm.done:
			return false
		case <-time.After(backoff):
		}

		conn, connInfo, err := OpenConnection()
		if err == nil {
			cm.setConn(conn, connInfo)
			cm.p.Send(reconnectedMsg{connInfo: connInfo})
			return true
		}

		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}
