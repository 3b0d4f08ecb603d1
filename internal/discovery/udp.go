// Package discovery implements the UDP robot-announce listener named in
// spec §6: a listener on 0.0.0.0:3001 accepting {type:"announce",port:<int>}
// packets and recording robotUrl as http://<sender_ip>:<port>.
//
// No teacher file implements UDP discovery; this follows the same
// read-then-decode-then-single-writer-update shape as the HTTP ingest
// handlers (internal/transport/http), translated to a packet loop instead
// of a request/response cycle.
package discovery

import (
	"context"
	"encoding/json"
	"net"
	"strconv"

	"go.uber.org/zap"
)

// DefaultPort is the fixed announce port named in the spec.
const DefaultPort = 3001

const maxPacketSize = 1024

type announcePacket struct {
	Type string `json:"type"`
	Port int    `json:"port"`
}

// RobotRegistrar is the one method the listener needs from the Coordinator.
type RobotRegistrar interface {
	RegisterRobot(url string)
}

// Listener is the UDP discovery listener.
type Listener struct {
	conn     *net.UDPConn
	registrar RobotRegistrar
	logger   *zap.Logger
}

// Listen binds 0.0.0.0:port (or DefaultPort if port is 0).
func Listen(port int, registrar RobotRegistrar, logger *zap.Logger) (*Listener, error) {
	if port == 0 {
		port = DefaultPort
	}
	addr := &net.UDPAddr{IP: net.IPv4zero, Port: port}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, err
	}
	return &Listener{conn: conn, registrar: registrar, logger: logger}, nil
}

// Run reads announce packets until ctx is cancelled. It is meant to be run
// in its own goroutine by the caller.
func (l *Listener) Run(ctx context.Context) {
	go func() {
		<-ctx.Done()
		l.conn.Close()
	}()

	buf := make([]byte, maxPacketSize)
	for {
		n, remote, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			l.logger.Warn("discovery read failed", zap.Error(err))
			continue
		}

		var pkt announcePacket
		if err := json.Unmarshal(buf[:n], &pkt); err != nil {
			l.logger.Debug("discovery packet ignored: bad json", zap.Error(err))
			continue
		}
		if pkt.Type != "announce" || pkt.Port <= 0 {
			continue
		}

		url := "http://" + remote.IP.String() + ":" + strconv.Itoa(pkt.Port)
		l.logger.Info("robot announced", zap.String("url", url))
		l.registrar.RegisterRobot(url)
	}
}

// Close stops the listener.
func (l *Listener) Close() error {
	return l.conn.Close()
}
