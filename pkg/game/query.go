package game

import (
	"fmt"
	"sync"
	"time"

	"github.com/Unity-Technologies/multiplay-examples/sc2-match-host/pkg/proto"
	"github.com/Unity-Technologies/multiplay-examples/sc2-match-host/pkg/proto/a2s"
	"github.com/Unity-Technologies/multiplay-examples/sc2-match-host/pkg/proto/sqp"
	"github.com/sirupsen/logrus"
)

const (
	QueryProtocolSQP = "sqp"
	QueryProtocolA2S = "a2s"

	// defaultReadBuffer is the size of the buffer a query is read into.
	defaultReadBuffer = 16
)

// newQueryResponder returns the responder for the named query protocol,
// answering from state.
func newQueryResponder(protocol string, state proto.StateSource) (proto.QueryResponder, error) {
	switch protocol {
	case QueryProtocolA2S:
		return a2s.NewQueryResponder(state)
	case QueryProtocolSQP, "":
		return sqp.NewQueryResponder(state)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownQueryProtocol, protocol)
	}
}

// startQuery starts answering status queries on the configured query
// address. The returned function stops the responder and waits for it.
func (g *Game) startQuery(logger *logrus.Entry) (func(), error) {
	q, err := newQueryResponder(g.queryProtocol, g.state)
	if err != nil {
		return nil, err
	}

	b, err := newUDPBinding(g.queryBind)
	if err != nil {
		return nil, fmt.Errorf("error binding query port: %w", err)
	}

	g.setQueryAddr(b.LocalAddr())

	logger.
		WithField("queryaddr", b.LocalAddr().String()).
		WithField("proto", g.queryProtocol).
		Info("query server started")

	g.wg.Add(1)

	go handleQuery(q, logger, &g.wg, b, g.readBuffer)

	return func() {
		b.Done()
		g.wg.Wait()
	}, nil
}

// handleQuery handles responding to query commands on an incoming UDP port.
func handleQuery(q proto.QueryResponder, logger *logrus.Entry, wg *sync.WaitGroup, b *udpBinding, readBuffer int) {
	defer wg.Done()

	size := defaultReadBuffer
	if readBuffer > 0 {
		size = readBuffer
	}

	for {
		buf := make([]byte, size)
		n, to, err := b.conn.ReadFromUDP(buf)
		if err != nil {
			if b.IsDone() {
				return
			}

			logger.
				WithField("error", err.Error()).
				Error("read from udp")

			continue
		}

		resp, err := q.Respond(to.String(), buf[:n])
		if err != nil {
			logger.
				WithField("error", err.Error()).
				Debug("error responding to query")

			continue
		}

		if err = b.conn.SetWriteDeadline(time.Now().Add(1 * time.Second)); err != nil {
			logger.
				WithField("error", err.Error()).
				Error("error setting write deadline")

			continue
		}

		if _, err = b.conn.WriteTo(resp, to); err != nil {
			logger.
				WithField("error", err.Error()).
				Error("error writing response")
		}
	}
}
