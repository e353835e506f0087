package docstore

import (
	"bufio"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

var _ Store = (*Client)(nil)

const maxAttempts = 3

// Client is a remote client for a document store daemon.
// It implements the Store interface.
type Client struct {
	addr    string
	useTLS  bool
	logger  *zap.Logger
	conn    net.Conn
	reader  *bufio.Reader
	mu      sync.Mutex // Protects concurrent access to the connection
	timeout time.Duration
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithTLS toggles TLS for the connection. The daemon uses a self-signed
// certificate, so the server certificate is not verified.
func WithTLS(enabled bool) ClientOption {
	return func(c *Client) { c.useTLS = enabled }
}

// WithLogger sets the logger used for reconnect diagnostics.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Connect establishes a connection to a remote store daemon.
func Connect(addr string, opts ...ClientOption) (*Client, error) {
	c := &Client{addr: addr, useTLS: true, logger: zap.NewNop(), timeout: 30 * time.Second}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.reconnect(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) reconnect() error {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}

	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 60 * time.Second,
	}

	var conn net.Conn
	var err error
	if c.useTLS {
		config := &tls.Config{
			InsecureSkipVerify: true, //nolint:gosec // self-signed certificate on the daemon
			MinVersion:         tls.VersionTLS12,
		}
		conn, err = tls.DialWithDialer(dialer, "tcp", c.addr, config)
	} else {
		conn, err = dialer.Dial("tcp", c.addr)
	}
	if err != nil {
		return err
	}

	c.conn = conn
	c.reader = bufio.NewReaderSize(conn, 64*1024)
	return nil
}

// sendAndReceive writes one command line and reads one reply line.
// Transport failures reconnect and retry; ERR replies are returned as errors immediately.
func (c *Client) sendAndReceive(cmd string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var err error
	for i := 0; i < maxAttempts; i++ {
		if c.conn == nil {
			if reconnectErr := c.reconnect(); reconnectErr != nil {
				err = fmt.Errorf("reconnect failed: %w", reconnectErr)
				time.Sleep(time.Duration((i+1)*200) * time.Millisecond)
				continue
			}
		}

		c.conn.SetDeadline(time.Now().Add(c.timeout))

		if _, err = fmt.Fprint(c.conn, cmd+"\n"); err == nil {
			var resp string
			resp, err = c.reader.ReadString('\n')
			if err == nil {
				resp = strings.TrimSpace(resp)
				if msg, ok := strings.CutPrefix(resp, "ERR "); ok {
					return "", remoteError(msg)
				}
				return resp, nil
			}
		}

		c.logger.Warn("store request failed, reconnecting", zap.Int("attempt", i+1), zap.String("addr", c.addr), zap.Error(err))
		if closeErr := c.reconnect(); closeErr != nil {
			c.logger.Warn("reconnect attempt failed", zap.Error(closeErr))
			c.conn = nil
		}

		time.Sleep(time.Duration((i+1)*200) * time.Millisecond)
	}

	return "", fmt.Errorf("failed after %d attempts. last error: %w", maxAttempts, err)
}

func remoteError(msg string) error {
	switch {
	case msg == ErrDocumentNotFound.Error():
		return ErrDocumentNotFound
	case strings.HasPrefix(msg, ErrInvalidName.Error()):
		return fmt.Errorf("%w%s", ErrInvalidName, strings.TrimPrefix(msg, ErrInvalidName.Error()))
	default:
		return errors.New(msg)
	}
}

func payload(resp string) []byte {
	return []byte(strings.TrimPrefix(resp, "OK "))
}

func (c *Client) Get(collection, id string) (json.RawMessage, error) {
	resp, err := c.sendAndReceive(fmt.Sprintf("GET %s %s", collection, id))
	if err != nil {
		return nil, err
	}
	return json.RawMessage(payload(resp)), nil
}

func (c *Client) Put(collection, id string, doc json.RawMessage) error {
	if err := ValidName(collection); err != nil {
		return err
	}
	if err := ValidName(id); err != nil {
		return err
	}
	// Re-marshal to get a single-line compact document.
	line, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}
	_, err = c.sendAndReceive(fmt.Sprintf("PUT %s %s %s", collection, id, line))
	return err
}

func (c *Client) Delete(collection, id string) error {
	_, err := c.sendAndReceive(fmt.Sprintf("DEL %s %s", collection, id))
	return err
}

func (c *Client) List(collection string) (map[string]json.RawMessage, error) {
	resp, err := c.sendAndReceive(fmt.Sprintf("LIST %s", collection))
	if err != nil {
		return nil, err
	}
	docs := make(map[string]json.RawMessage)
	if err := json.Unmarshal(payload(resp), &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (c *Client) Collections() ([]string, error) {
	resp, err := c.sendAndReceive("COLLECTIONS")
	if err != nil {
		return nil, err
	}
	var list []string
	err = json.Unmarshal(payload(resp), &list)
	return list, err
}

// Ping checks that the daemon answers.
func (c *Client) Ping() error {
	resp, err := c.sendAndReceive("PING")
	if err != nil {
		return err
	}
	if resp != "PONG" {
		return fmt.Errorf("unexpected ping reply %q", resp)
	}
	return nil
}

func (c *Client) Collection(name string) CollectionScope {
	return Scope(c, name)
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	fmt.Fprintln(c.conn, "QUIT")
	err := c.conn.Close()
	c.conn = nil
	return err
}
