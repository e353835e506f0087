// Package server exposes a document store over a line-oriented TCP protocol.
//
// Each request is one line; each reply is one line starting with OK, ERR or PONG:
//
//	GET <collection> <id>         -> OK <json>
//	PUT <collection> <id> <json>  -> OK
//	DEL <collection> <id>         -> OK
//	LIST <collection>             -> OK {"<id>": <json>, ...}
//	COLLECTIONS                   -> OK ["<collection>", ...]
//	PING                          -> PONG
//	QUIT                          closes the connection
package server

import (
	"bufio"
	"bytes"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/granjapro/granja/pkg/docstore"
	"go.uber.org/zap"
)

const (
	maxConnections = 100
	maxLineBytes   = 4 << 20
)

type Router struct {
	store  docstore.Store
	cert   *tls.Certificate
	logger *zap.Logger

	mu       sync.Mutex
	listener net.Listener
	closed   bool
}

func NewRouter(s docstore.Store, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{store: s, logger: logger}
}

// SetCertificate sets the TLS certificate for the router
func (r *Router) SetCertificate(cert tls.Certificate) {
	r.cert = &cert
}

// Addr returns the bound address once Listen has started, or nil.
func (r *Router) Addr() net.Addr {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listener == nil {
		return nil
	}
	return r.listener.Addr()
}

// Listen starts the TCP server and blocks until Stop is called.
func (r *Router) Listen(port string) error {
	var listener net.Listener
	var err error

	if r.cert != nil {
		config := &tls.Config{Certificates: []tls.Certificate{*r.cert}, MinVersion: tls.VersionTLS12}
		listener, err = tls.Listen("tcp", ":"+port, config)
	} else {
		listener, err = net.Listen("tcp", ":"+port)
	}
	if err != nil {
		return err
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return listener.Close()
	}
	r.listener = listener
	r.mu.Unlock()
	defer listener.Close()

	semaphore := make(chan struct{}, maxConnections)

	for {
		conn, err := listener.Accept()
		if err != nil {
			r.mu.Lock()
			closed := r.closed
			r.mu.Unlock()
			if closed || errors.Is(err, net.ErrClosed) {
				return nil
			}
			r.logger.Warn("accept failed", zap.Error(err))
			continue
		}

		// Hard cap on connection lifetime so idle consoles cannot pin a slot forever.
		conn.SetDeadline(time.Now().Add(5 * time.Minute))

		go func(c net.Conn) {
			semaphore <- struct{}{}
			defer func() {
				<-semaphore
				c.Close()
			}()
			r.handleConnection(c)
		}(conn)
	}
}

// Stop closes the listener; Listen returns nil afterwards.
func (r *Router) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	if r.listener == nil {
		return nil
	}
	return r.listener.Close()
}

func (r *Router) handleConnection(conn net.Conn) {
	reader := bufio.NewReaderSize(conn, 64*1024)

	for {
		conn.SetReadDeadline(time.Now().Add(30 * time.Second))

		line, err := readLine(reader)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				r.logger.Debug("connection closed", zap.String("remote", conn.RemoteAddr().String()), zap.Error(err))
			}
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		command, rest, _ := strings.Cut(line, " ")
		command = strings.ToUpper(command)

		switch command {
		case "GET":
			args := strings.Fields(rest)
			if len(args) != 2 {
				fmt.Fprintln(conn, "ERR usage: GET <collection> <id>")
				continue
			}
			doc, err := r.store.Get(args[0], args[1])
			if err != nil {
				fmt.Fprintln(conn, "ERR", err)
				continue
			}
			fmt.Fprintln(conn, "OK", compact(doc))

		case "PUT":
			// The document is everything after the id, kept verbatim.
			args := strings.SplitN(strings.TrimLeft(rest, " "), " ", 3)
			if len(args) != 3 {
				fmt.Fprintln(conn, "ERR usage: PUT <collection> <id> <json>")
				continue
			}
			doc := json.RawMessage(args[2])
			if !json.Valid(doc) {
				fmt.Fprintln(conn, "ERR invalid json value")
				continue
			}
			if err := r.store.Put(args[0], args[1], doc); err != nil {
				r.logger.Error("put failed", zap.String("collection", args[0]), zap.String("id", args[1]), zap.Error(err))
				fmt.Fprintln(conn, "ERR", err)
				continue
			}
			fmt.Fprintln(conn, "OK")

		case "DEL":
			args := strings.Fields(rest)
			if len(args) != 2 {
				fmt.Fprintln(conn, "ERR usage: DEL <collection> <id>")
				continue
			}
			if err := r.store.Delete(args[0], args[1]); err != nil {
				fmt.Fprintln(conn, "ERR", err)
				continue
			}
			fmt.Fprintln(conn, "OK")

		case "LIST":
			args := strings.Fields(rest)
			if len(args) != 1 {
				fmt.Fprintln(conn, "ERR usage: LIST <collection>")
				continue
			}
			docs, err := r.store.List(args[0])
			if err != nil {
				fmt.Fprintln(conn, "ERR", err)
				continue
			}
			writeJSON(conn, docs)

		case "COLLECTIONS":
			list, err := r.store.Collections()
			if err != nil {
				fmt.Fprintln(conn, "ERR", err)
				continue
			}
			writeJSON(conn, list)

		case "PING":
			fmt.Fprintln(conn, "PONG")

		case "QUIT":
			return

		default:
			fmt.Fprintln(conn, "ERR unknown command", command)
		}
	}
}

func readLine(reader *bufio.Reader) (string, error) {
	var sb strings.Builder
	for {
		chunk, isPrefix, err := reader.ReadLine()
		if err != nil {
			return "", err
		}
		sb.Write(chunk)
		if sb.Len() > maxLineBytes {
			return "", fmt.Errorf("request line exceeds %d bytes", maxLineBytes)
		}
		if !isPrefix {
			return sb.String(), nil
		}
	}
}

func writeJSON(w io.Writer, v any) {
	res, err := json.Marshal(v)
	if err != nil {
		fmt.Fprintln(w, "ERR internal error")
		return
	}
	fmt.Fprintln(w, "OK", string(res))
}

// compact strips insignificant whitespace so a stored document always fits on one line.
func compact(doc json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, doc); err != nil {
		return string(doc)
	}
	return buf.String()
}
