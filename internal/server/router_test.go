package server

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/granjapro/granja/internal/engine"
)

func startRouter(t *testing.T) (*Router, string) {
	t.Helper()
	store := engine.NewMemStore(nil, nil)
	router := NewRouter(store, nil)

	go router.Listen("0")

	var port string
	for i := 0; i < 40; i++ {
		time.Sleep(25 * time.Millisecond)
		if addr := router.Addr(); addr != nil {
			port = fmt.Sprintf("%d", addr.(*net.TCPAddr).Port)
			break
		}
	}
	if port == "" {
		t.Fatalf("Server did not start in time")
	}
	t.Cleanup(func() { router.Stop() })
	return router, port
}

func TestRouter_TCP_Commands(t *testing.T) {
	_, port := startRouter(t)

	conn, err := net.Dial("tcp", "127.0.0.1:"+port)
	if err != nil {
		t.Fatalf("Failed to dial: %v", err)
	}
	defer conn.Close()

	reader := bufio.NewReader(conn)
	send := func(cmd string) string {
		fmt.Fprintf(conn, "%s\n", cmd)
		line, _ := reader.ReadString('\n')
		return line
	}

	if line := send("PING"); line != "PONG\n" {
		t.Errorf("Expected PONG, got %q", line)
	}

	if line := send(`PUT lots l1 {"code": "A  B"}`); line != "OK\n" {
		t.Errorf("Expected OK, got %q", line)
	}

	// Whitespace inside JSON strings must survive the round trip.
	if line := send("GET lots l1"); line != "OK {\"code\":\"A  B\"}\n" {
		t.Errorf("Expected OK {\"code\":\"A  B\"}, got %q", line)
	}

	if line := send("LIST lots"); line != "OK {\"l1\":{\"code\":\"A  B\"}}\n" {
		t.Errorf("Unexpected LIST reply %q", line)
	}

	if line := send("COLLECTIONS"); line != "OK [\"lots\"]\n" {
		t.Errorf("Unexpected COLLECTIONS reply %q", line)
	}

	if line := send("DEL lots l1"); line != "OK\n" {
		t.Errorf("Expected OK, got %q", line)
	}

	if line := send("GET lots l1"); line != "ERR document not found\n" {
		t.Errorf("Expected not found error, got %q", line)
	}
}

func TestRouter_TCP_BadRequests(t *testing.T) {
	_, port := startRouter(t)

	conn, err := net.Dial("tcp", "127.0.0.1:"+port)
	if err != nil {
		t.Fatalf("Failed to dial: %v", err)
	}
	defer conn.Close()
	reader := bufio.NewReader(conn)

	for _, cmd := range []string{"GET lots", "PUT lots l1 {broken", "LIST", "FROB"} {
		fmt.Fprintf(conn, "%s\n", cmd)
		line, _ := reader.ReadString('\n')
		if !strings.HasPrefix(line, "ERR") {
			t.Errorf("%s: expected ERR reply, got %q", cmd, line)
		}
	}
}

func TestRouter_StopBeforeListen(t *testing.T) {
	router := NewRouter(engine.NewMemStore(nil, nil), nil)
	router.Stop()

	done := make(chan error, 1)
	go func() { done <- router.Listen("0") }()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Listen should return when the router was already stopped")
	}
}
