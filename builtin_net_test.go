// builtin_net_test.go
package minilux

import (
	"bytes"
	"fmt"
	"io"
	"net"
	"strings"
	"testing"
)

// echoOnce accepts a single connection, reads until the client closes
// its write side or the payload arrives, then writes reply and closes.
func echoOnce(t *testing.T, ln net.Listener, reply string, got chan<- string) {
	t.Helper()
	conn, err := ln.Accept()
	if err != nil {
		got <- ""
		return
	}
	defer conn.Close()
	buf := make([]byte, 4096)
	n, _ := conn.Read(buf)
	got <- string(buf[:n])
	io.WriteString(conn, reply)
}

func Test_Sockets_OpenWriteReadClose(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	received := make(chan string, 1)
	go echoOnce(t, ln, "PONG\r\n", received)

	port := ln.Addr().(*net.TCPAddr).Port
	src := fmt.Sprintf(`
sockopen("conn", "127.0.0.1", %d)
sockwrite("conn", "PING\r\n")
sockread("conn", $reply)
sockclose("conn")
printf($reply)
`, port)

	got, diag := run(t, src)
	if diag != "" {
		t.Fatalf("unexpected diagnostics: %q", diag)
	}
	if got != "PONG\r\n" {
		t.Fatalf("reply: got %q", got)
	}
	if sent := <-received; sent != "PING\r\n" {
		t.Fatalf("server saw %q", sent)
	}
}

func Test_Sockets_ReadCollectsUntilPeerCloses(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		io.WriteString(conn, "part one, ")
		io.WriteString(conn, "part two")
		conn.Close()
	}()

	port := ln.Addr().(*net.TCPAddr).Port
	src := fmt.Sprintf(`
sockopen("s", "127.0.0.1", %d)
sockread("s", $all)
sockclose("s")
printf($all)
`, port)

	got, _ := run(t, src)
	if got != "part one, part two\n" {
		t.Fatalf("got %q", got)
	}
}

func Test_Sockets_ConnectFailureIsNonFatal(t *testing.T) {
	// A closed listener's port refuses connections.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	src := fmt.Sprintf(`
sockopen("dead", "127.0.0.1", %d)
printf("still here")
`, port)
	got, diag := run(t, src)
	if got != "still here\n" {
		t.Fatalf("execution must continue, got %q", got)
	}
	if !strings.Contains(diag, "cannot connect") {
		t.Fatalf("want connect diagnostic, got %q", diag)
	}
}

func Test_Sockets_WriteToUnknownName(t *testing.T) {
	got, diag := run(t, `
sockwrite("nope", "data")
sockread("nope", $x)
printf("<$x>")
`)
	if got != "<>\n" {
		t.Fatalf("got %q", got)
	}
	if !strings.Contains(diag, "no open socket") {
		t.Fatalf("want diagnostic, got %q", diag)
	}
}

func Test_Sockets_CloseUnknownIsNoop(t *testing.T) {
	_, diag := run(t, `sockclose("ghost")
printf("ok")`)
	if strings.Contains(diag, "ghost") {
		t.Fatalf("closing an unknown socket must be silent, got %q", diag)
	}
}

func Test_Sockets_InterpreterCloseReleasesAll(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	accepted := make(chan net.Conn, 1)
	go func() {
		if c, err := ln.Accept(); err == nil {
			accepted <- c
		}
	}()
	t.Cleanup(func() {
		select {
		case c := <-accepted:
			c.Close()
		default:
		}
	})

	port := ln.Addr().(*net.TCPAddr).Port
	ip := NewInterpreter()
	var out bytes.Buffer
	ip.Stdout = &out
	ip.Stderr = &out
	src := fmt.Sprintf(`sockopen("left-open", "127.0.0.1", %d)`, port)
	if err := ip.RunSource(src, "test.mi"); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(ip.socks) != 1 {
		t.Fatalf("want 1 registered socket, got %d", len(ip.socks))
	}
	ip.Close()
	if len(ip.socks) != 0 {
		t.Fatalf("Close must deregister sockets, got %d", len(ip.socks))
	}
}
