// builtin_net.go: the TCP socket statements.
//
// Each socket name maps to one client connection owned by the
// interpreter. Connect failures and broken streams are diagnostics,
// never fatal; a socket that errors is closed and dropped so the next
// use reports it cleanly.
package minilux

import (
	"io"
	"net"
	"strconv"
)

func (ip *Interpreter) sockOpen(st *SockOpenStmt) {
	host := ip.evalExpr(st.Host).Render()
	port := ip.evalExpr(st.Port).ToInt()
	addr := net.JoinHostPort(host, strconv.FormatInt(port, 10))

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		ip.diag(st.Line, "sockopen %q: cannot connect to %s: %v", st.Name, addr, err)
		return
	}
	if old, ok := ip.socks[st.Name]; ok {
		old.Close()
	}
	ip.socks[st.Name] = conn
}

func (ip *Interpreter) sockWrite(st *SockWriteStmt) {
	conn, ok := ip.socks[st.Name]
	if !ok {
		ip.diag(st.Line, "sockwrite: no open socket %q", st.Name)
		return
	}
	data := []byte(ip.evalExpr(st.Data).Render())
	for len(data) > 0 {
		n, err := conn.Write(data)
		if err != nil {
			ip.diag(st.Line, "sockwrite %q: %v", st.Name, err)
			ip.dropSock(st.Name)
			return
		}
		data = data[n:]
	}
}

func (ip *Interpreter) sockRead(st *SockReadStmt) {
	conn, ok := ip.socks[st.Name]
	if !ok {
		ip.diag(st.Line, "sockread: no open socket %q", st.Name)
		ip.vars[st.Var] = Str("")
		return
	}
	data, err := io.ReadAll(conn)
	ip.vars[st.Var] = Str(string(data))
	if err != nil {
		ip.diag(st.Line, "sockread %q: %v", st.Name, err)
		ip.dropSock(st.Name)
	}
}

func (ip *Interpreter) sockClose(st *SockCloseStmt) {
	// Closing an unknown name is a no-op.
	ip.dropSock(st.Name)
}

func (ip *Interpreter) dropSock(name string) {
	if c, ok := ip.socks[name]; ok {
		c.Close()
		delete(ip.socks, name)
	}
}
