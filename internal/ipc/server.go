package ipc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	json "github.com/goccy/go-json"
)

// Handler processes one session command.
type Handler interface {
	Handle(context.Context, Request) Response
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(context.Context, Request) Response

func (f HandlerFunc) Handle(ctx context.Context, req Request) Response {
	return f(ctx, req)
}

// Serve runs the session owner's command loop on the unix socket. Each
// connection carries exactly one request and one reply. Serve returns
// once the context is canceled or the listener closes, after in-flight
// connections drain.
func Serve(ctx context.Context, listener net.Listener, handler Handler) error {
	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	var wg sync.WaitGroup
	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				wg.Wait()
				return nil
			}
			return fmt.Errorf("accept IPC connection: %w", err)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			serveConn(ctx, conn, handler)
		}()
	}
}

func serveConn(ctx context.Context, conn net.Conn, handler Handler) {
	defer conn.Close()

	req, err := readRequest(conn)
	if err != nil {
		reply(conn, Response{OK: false, Error: err.Error()})
		return
	}
	reply(conn, handler.Handle(ctx, req))
}

func readRequest(conn net.Conn) (Request, error) {
	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		return Request{}, fmt.Errorf("read request: %w", err)
	}
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return Request{}, fmt.Errorf("decode request: %w", err)
	}
	return req, nil
}

func reply(conn net.Conn, resp Response) {
	_ = json.NewEncoder(conn).Encode(resp)
}
