package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/specialistvlad/ugokugo/internal/ctxlog"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// Event names exchanged with the viewer.
const (
	EventState = "state"
	EventDrag  = "drag"
	EventError = "error"
)

// DefaultConnectTimeout bounds how long Dial waits for the first connect.
const DefaultConnectTimeout = 15 * time.Second

// Options configure the viewer connection.
type Options struct {
	URL            string
	Namespace      string
	ConnectTimeout time.Duration
}

// emitter is the part of *socket.Socket the event handlers write to.
type emitter interface {
	Emit(ev string, args ...any) error
}

// Client is a live connection to a viewer.
type Client struct {
	io      *socket.Socket
	session *Session
	logger  *slog.Logger
	ctx     context.Context
}

// Dial connects to the viewer and wires the session's events. It returns once
// the first connect succeeds.
func Dial(ctx context.Context, opts Options, session *Session) (*Client, error) {
	logger := ctxlog.FromContext(ctx).With("component", "bridge", "url", opts.URL, "simulation", session.Name())
	logger.Info("Connecting to viewer...")

	parsedURL, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse viewer URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("viewer URL %q must include a scheme and host", opts.URL)
	}
	namespace := opts.Namespace
	if namespace == "" {
		namespace = "/"
	}
	timeout := opts.ConnectTimeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}

	sockOpts := socket.DefaultOptions()
	if parsedURL.Path != "" {
		sockOpts.SetPath(parsedURL.Path)
	}
	sockOpts.SetTransports(types.NewSet(transports.WebSocket))

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, sockOpts)
	io := manager.Socket(namespace, sockOpts)

	c := &Client{io: io, session: session, logger: logger, ctx: ctx}
	connectChan := make(chan error, 1)

	io.On(types.EventName("connect"), func(...any) {
		logger.Info("Connected to viewer", "sid", io.Id())
		c.publish(io)
		select {
		case connectChan <- nil:
		default:
		}
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := fmt.Errorf("connect error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		logger.Debug("Viewer connect_error event fired", "error", err)
		select {
		case connectChan <- err:
		default:
		}
	})
	io.On(types.EventName("disconnect"), func(reason ...any) {
		logger.Info("Disconnected from viewer", "reason", fmt.Sprint(reason...))
	})
	io.On(types.EventName(EventDrag), func(args ...any) {
		c.onDrag(io, args...)
	})

	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
		return c, nil
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for viewer connection: %w", ctx.Err())
	case <-time.After(timeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for viewer connection", timeout)
	}
}

// Run blocks until ctx is cancelled, then disconnects.
func (c *Client) Run(ctx context.Context) error {
	<-ctx.Done()
	c.Close()
	return nil
}

// Close disconnects from the viewer.
func (c *Client) Close() {
	c.logger.Info("Closing viewer connection", "sid", c.io.Id())
	c.io.Disconnect()
}

// publish sends the current state unconditionally.
func (c *Client) publish(out emitter) {
	if err := out.Emit(EventState, c.session.Snapshot()); err != nil {
		c.logger.Error("Failed to emit state", "error", err)
	}
}

// onDrag applies one drag event and publishes the result if anything moved.
func (c *Client) onDrag(out emitter, args ...any) {
	req, err := decodeDragRequest(args)
	if err != nil {
		c.reject(out, req, err)
		return
	}
	snap, changed, err := c.session.Drag(c.ctx, req)
	if err != nil {
		c.reject(out, req, err)
		return
	}
	if !changed {
		return
	}
	if err := out.Emit(EventState, snap); err != nil {
		c.logger.Error("Failed to emit state", "error", err)
	}
}

func (c *Client) reject(out emitter, req DragRequest, cause error) {
	c.logger.Warn("Rejected drag", "joint", req.Joint, "error", cause)
	payload := map[string]any{"message": cause.Error()}
	if req.Joint != "" {
		payload["joint"] = req.Joint
	}
	if err := out.Emit(EventError, payload); err != nil {
		c.logger.Error("Failed to emit error", "error", err)
	}
}

// decodeDragRequest accepts the first event argument as a decoded JSON
// object, a JSON string or raw JSON bytes.
func decodeDragRequest(args []any) (DragRequest, error) {
	var req DragRequest
	if len(args) == 0 {
		return req, fmt.Errorf("%w: missing payload", ErrInvalidDrag)
	}

	var raw []byte
	switch v := args[0].(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return req, fmt.Errorf("%w: %w", ErrInvalidDrag, err)
		}
		raw = b
	}
	if err := json.Unmarshal(raw, &req); err != nil {
		return req, fmt.Errorf("%w: %w", ErrInvalidDrag, err)
	}
	if req.Joint == "" {
		return req, fmt.Errorf("%w: joint is required", ErrInvalidDrag)
	}
	return req, nil
}
