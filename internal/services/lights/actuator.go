package lights

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Requester sends a request and waits for one reply.
type Requester interface {
	Request(ctx context.Context, subject string, data interface{}) ([]byte, error)
}

// WriteRequest is sent to the bus gateway for every switch command.
type WriteRequest struct {
	Address string `json:"address"`
	Value   bool   `json:"value"`
}

// WriteReply is the gateway acknowledgement.
type WriteReply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// NATSActuator forwards switch commands to a KNX gateway over NATS request/reply.
type NATSActuator struct {
	requester Requester
	subject   string
}

func NewNATSActuator(requester Requester, subject string) *NATSActuator {
	return &NATSActuator{requester: requester, subject: subject}
}

func (a *NATSActuator) SetOn(ctx context.Context, address string) error {
	return a.write(ctx, address, true)
}

func (a *NATSActuator) SetOff(ctx context.Context, address string) error {
	return a.write(ctx, address, false)
}

func (a *NATSActuator) write(ctx context.Context, address string, value bool) error {
	data, err := a.requester.Request(ctx, a.subject, WriteRequest{Address: address, Value: value})
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	var reply WriteReply
	if err := json.Unmarshal(data, &reply); err != nil {
		return fmt.Errorf("invalid gateway reply: %w", err)
	}
	if !reply.OK {
		if reply.Error == "" {
			reply.Error = "rejected"
		}
		return errors.New(reply.Error)
	}
	return nil
}

// LogActuator only logs commands. Used when no gateway is configured.
type LogActuator struct{}

func (LogActuator) SetOn(ctx context.Context, address string) error {
	log.Info().Str("address", address).Msg("[dry-run] light on")
	return ctx.Err()
}

func (LogActuator) SetOff(ctx context.Context, address string) error {
	log.Info().Str("address", address).Msg("[dry-run] light off")
	return ctx.Err()
}
