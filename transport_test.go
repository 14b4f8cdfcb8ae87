package beanstalkt

import (
	"net"
	"testing"
)

// TestTransportFraming validates that a reply body consumes exactly its
// length plus the CRLF terminator, leaving the stream positioned at the
// next status line.
func TestTransportFraming(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()

	go func() {
		_, _ = server.Write([]byte("RESERVED 1 4\r\nabcd\r\nDELETED\r\n"))
	}()

	tp := newTransport(client)
	defer tp.close()

	line, err := tp.readLine()
	if err != nil {
		t.Fatalf("Unable to read status line: %s", err)
	}
	if line != "RESERVED 1 4" {
		t.Fatalf("Expected a RESERVED status line, but got %q", line)
	}

	body, err := tp.readBody(4)
	if err != nil {
		t.Fatalf("Unable to read reply body: %s", err)
	}
	if string(body) != "abcd" {
		t.Fatalf("Expected body %q, but got %q", "abcd", string(body))
	}

	line, err = tp.readLine()
	if err != nil {
		t.Fatalf("Unable to read the next status line: %s", err)
	}
	if line != "DELETED" {
		t.Fatalf("Expected a DELETED status line, but got %q", line)
	}
}

// TestTransportWrite validates that a command and its body each go out with
// a CRLF terminator.
func TestTransportWrite(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()

	done := make(chan string, 1)
	go func() {
		buf := make([]byte, 64)
		n, _ := server.Read(buf)
		done <- string(buf[:n])
	}()

	tp := newTransport(client)
	defer tp.close()

	if err := tp.writeRequest("put 0 0 120 3", []byte("job")); err != nil {
		t.Fatalf("Unable to write request: %s", err)
	}

	if got := <-done; got != "put 0 0 120 3\r\njob\r\n" {
		t.Fatalf("Expected a CRLF framed request, but got %q", got)
	}
}
