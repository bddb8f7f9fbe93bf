// Package worker implements the fixed-size pool that consumes ingress
// packets: decode, admission-control, session mutation, CDR emission
// and reply.
package worker

import (
	"net"
	"sync"
	"time"

	"github.com/PavelShilinRussia/MyMiniPGW/internal/bcd"
	"github.com/PavelShilinRussia/MyMiniPGW/internal/cdr"
	"github.com/PavelShilinRussia/MyMiniPGW/internal/ingress"
	"github.com/PavelShilinRussia/MyMiniPGW/internal/pgwctx"
)

// DefaultPoolSize is the number of concurrent workers started when a
// caller does not override it.
const DefaultPoolSize = 4

const (
	replyCreated  = "created"
	replyRejected = "rejected"
)

// Pool is a fixed set of workers draining a shared ingress.Queue.
type Pool struct {
	size  int
	queue *ingress.Queue
	conn  *net.UDPConn
	ctx   *pgwctx.Context
	wg    sync.WaitGroup
}

// NewPool constructs a pool of size workers. conn is the same socket
// the listener reads from — replies are written back through it.
func NewPool(size int, queue *ingress.Queue, conn *net.UDPConn, ctx *pgwctx.Context) *Pool {
	if size <= 0 {
		size = DefaultPoolSize
	}
	return &Pool{size: size, queue: queue, conn: conn, ctx: ctx}
}

// Start launches the worker goroutines.
func (p *Pool) Start() {
	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.run()
	}
}

// Wait blocks until every worker has exited (i.e. the queue has been
// shut down and drained).
func (p *Pool) Wait() {
	p.wg.Wait()
}

func (p *Pool) run() {
	defer p.wg.Done()
	for {
		pkt, ok := p.queue.Pop()
		if !ok {
			return
		}
		p.handle(pkt)
	}
}

func (p *Pool) handle(pkt ingress.Packet) {
	imsi := bcd.Decode(pkt.Payload)
	p.ctx.Log.WithField("imsi", imsi).Debug("worker: received IMSI")

	var reply string
	if p.ctx.IsBlacklisted(imsi) {
		reply = replyRejected
		p.ctx.CDR.Emit(imsi, cdr.Rejected)
	} else {
		reply = replyCreated
		if created := p.ctx.Sessions.TryCreate(imsi, time.Now()); created {
			p.ctx.CDR.Emit(imsi, cdr.Created)
		}
	}

	if _, err := p.conn.WriteToUDP([]byte(reply), pkt.Source); err != nil {
		p.ctx.Log.WithError(err).WithField("imsi", imsi).Warn("worker: reply send failed")
	}
}
