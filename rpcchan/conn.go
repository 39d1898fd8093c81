package rpcchan

import "github.com/ownablekit/studio/errors"

// Message is one unit on the channel, tagged with its sender origin.
// An empty origin means same-context; "null" marks an opaque origin.
type Message struct {
	Data   []byte
	Origin string
}

// Conn is a duplex message connection.
type Conn interface {
	Send(msg Message) error
	Recv() <-chan Message
	Close() error
}

// Pipe returns two connected in-process halves. Everything sent on one
// is received on the other.
func Pipe(buf int) (Conn, Conn) {
	ab := make(chan Message, buf)
	ba := make(chan Message, buf)
	stop := make(chan struct{})
	a := &pipeConn{out: ab, in: ba, stop: stop}
	b := &pipeConn{out: ba, in: ab, stop: stop}
	return a, b
}

type pipeConn struct {
	out  chan Message
	in   chan Message
	stop chan struct{}
}

func (c *pipeConn) Send(msg Message) error {
	select {
	case c.out <- msg:
		return nil
	case <-c.stop:
		return errors.InvalidInput(errors.PhaseTransport, "send on closed channel pair")
	}
}

func (c *pipeConn) Recv() <-chan Message {
	return c.in
}

func (c *pipeConn) Close() error {
	select {
	case <-c.stop:
	default:
		close(c.stop)
	}
	return nil
}
