package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/akashshettty/Sports-Conference/internal/engine"
	"github.com/akashshettty/Sports-Conference/internal/ipc"
)

// Handle serves IPC commands for the active session owner.
func (c *Controller) Handle(ctx context.Context, req ipc.Request) ipc.Response {
	switch req.Command {
	case "status":
		return c.okResponse("status")
	case "enable":
		if err := c.Enable(ctx); err != nil {
			return c.errResponse(err)
		}
		return c.okResponse("voice enabled")
	case "start":
		mode := ModeContinuous
		if req.Mode != "" {
			parsed, err := ParseMode(req.Mode)
			if err != nil {
				return c.errResponse(err)
			}
			mode = parsed
		}
		if err := c.Start(ctx, mode); err != nil {
			return c.errResponse(err)
		}
		return c.okResponse(fmt.Sprintf("started in %s mode", mode))
	case "stop":
		if err := c.Stop(); err != nil {
			return c.errResponse(err)
		}
		return c.okResponse("stopped")
	case "mode":
		if req.Mode == "" {
			return c.okResponse(string(c.Mode()))
		}
		parsed, err := ParseMode(req.Mode)
		if err != nil {
			return c.errResponse(err)
		}
		if err := c.SetMode(parsed); err != nil {
			return c.errResponse(err)
		}
		return c.okResponse(fmt.Sprintf("mode set to %s", parsed))
	case "listen":
		timeout := time.Duration(req.TimeoutMS) * time.Millisecond
		transcript, err := c.ListenOnceSmart(ctx, timeout)
		if errors.Is(err, ErrNoSpeech) {
			resp := c.okResponse("no speech captured")
			return resp
		}
		if err != nil {
			return c.errResponse(err)
		}
		resp := c.okResponse("transcript captured")
		resp.Transcript = transcript
		return resp
	default:
		resp := c.errResponse(fmt.Errorf("unknown command: %s", req.Command))
		return resp
	}
}

func (c *Controller) okResponse(message string) ipc.Response {
	status := c.Status()
	return ipc.Response{
		OK:             true,
		State:          string(c.State()),
		Mode:           string(status.Mode),
		Listening:      status.Listening,
		WakeWordActive: status.WakeWordActive,
		Message:        message,
	}
}

func (c *Controller) errResponse(err error) ipc.Response {
	status := c.Status()
	resp := ipc.Response{
		OK:             false,
		State:          string(c.State()),
		Mode:           string(status.Mode),
		Listening:      status.Listening,
		WakeWordActive: status.WakeWordActive,
		Error:          err.Error(),
	}
	if errors.Is(err, engine.ErrUnavailable) {
		resp.Message = "speech recognition unavailable"
	}
	return resp
}
