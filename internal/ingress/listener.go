// Package ingress owns the UDP socket and turns inbound datagrams into
// queued packets for the worker pool.
package ingress

import (
	"errors"
	"net"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/PavelShilinRussia/MyMiniPGW/internal/pgwctx"
)

// maxDatagram bounds the receive buffer per the wire protocol: requests
// carry no framing, so a fixed upper bound is all a single read needs.
const maxDatagram = 1024

// readTimeout is armed on every receive so the loop periodically
// re-checks the shutdown flag instead of blocking indefinitely.
const readTimeout = time.Second

// Packet is one datagram handed from the listener to a worker.
type Packet struct {
	Payload []byte
	Source  *net.UDPAddr
}

// Listener owns the socket and the queue it feeds.
type Listener struct {
	conn  *net.UDPConn
	queue *Queue
	ctx   *pgwctx.Context
}

// Listen binds a UDP socket at ip:port and returns a Listener ready to
// run. Bind failure is the caller's to treat as fatal.
func Listen(ip string, port int, queue *Queue, ctx *pgwctx.Context) (*Listener, error) {
	addr := &net.UDPAddr{IP: net.ParseIP(ip), Port: port}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, err
	}
	return &Listener{conn: conn, queue: queue, ctx: ctx}, nil
}

// Close closes the underlying socket, unblocking a pending Run read.
func (l *Listener) Close() error {
	return l.conn.Close()
}

// Conn returns the underlying socket so the worker pool can send
// replies through the same connection the listener reads from.
func (l *Listener) Conn() *net.UDPConn {
	return l.conn
}

// Run is the listener's task loop: receive, enqueue, repeat. It returns
// once the shutdown flag is observed, never before.
func (l *Listener) Run() {
	buf := make([]byte, maxDatagram)
	for {
		if l.ctx.ShuttingDown() {
			return
		}

		if err := l.conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
			l.ctx.Log.WithError(err).Error("ingress: failed to arm read deadline")
		}

		n, src, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			if isTimeout(err) {
				continue
			}
			if l.ctx.ShuttingDown() {
				return
			}
			l.ctx.Log.WithError(err).Warn("ingress: receive error")
			continue
		}

		payload := make([]byte, n)
		copy(payload, buf[:n])
		l.queue.Push(Packet{Payload: payload, Source: src})
	}
}

func isTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, os.ErrDeadlineExceeded)
}
