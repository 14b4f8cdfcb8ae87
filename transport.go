package beanstalkt

import (
	"io"
	"net"
	"net/textproto"
)

var crnl = []byte{'\r', '\n'}

// transport owns a single network connection and provides the primitives
// the protocol needs: a buffered write of a full request, a read up to the
// CRLF delimiter, and a read of an exact number of bytes.
type transport struct {
	conn net.Conn
	text *textproto.Conn
}

func newTransport(conn net.Conn) *transport {
	return &transport{conn: conn, text: textproto.NewConn(conn)}
}

// writeRequest writes the command line and the optional body, each
// terminated by CRLF, in a single flush.
func (t *transport) writeRequest(cmd string, body []byte) error {
	if _, err := t.text.W.WriteString(cmd); err != nil {
		return err
	}
	if _, err := t.text.W.Write(crnl); err != nil {
		return err
	}

	if body != nil {
		if _, err := t.text.W.Write(body); err != nil {
			return err
		}
		if _, err := t.text.W.Write(crnl); err != nil {
			return err
		}
	}

	return t.text.W.Flush()
}

// readLine reads one CRLF-terminated line, without the delimiter.
func (t *transport) readLine() (string, error) {
	return t.text.ReadLine()
}

// readBody reads a length-prefixed reply body. The protocol terminates the
// body with its own CRLF, so size+2 bytes are consumed and the trailing two
// are dropped.
func (t *transport) readBody(size int) ([]byte, error) {
	body := make([]byte, size+2)
	if _, err := io.ReadFull(t.text.R, body); err != nil {
		return nil, err
	}

	return body[:size], nil
}

func (t *transport) close() error {
	return t.text.Close()
}
