package wshub

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	EventJoinRoom   = "join-room"
	EventDrawNumber = "draw-number"
	EventNewNumber  = "new-number"
	EventJoined     = "joined"
	EventError      = "error"
)

var ErrMalformedMessage = errors.New("malformed message")

// RoomCodeRule is the validator rule every room code must satisfy once
// normalized, whichever surface it arrives on.
const RoomCodeRule = "alphanum,min=4,max=12"

var codes = validator.New()

func ValidRoomCode(code string) bool {
	return codes.Var(code, RoomCodeRule) == nil
}

// ClientMessage is the JSON structure received from clients.
type ClientMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ServerMessage is the JSON structure sent to clients.
type ServerMessage struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// JoinedData accompanies a "joined" reply so late joiners can render the
// numbers already drawn.
type JoinedData struct {
	Room  string `json:"room"`
	Drawn []int  `json:"drawn"`
}

func NewNumber(n int) ServerMessage {
	return ServerMessage{Event: EventNewNumber, Data: n}
}

func Joined(code string, drawn []int) ServerMessage {
	if drawn == nil {
		drawn = []int{}
	}
	return ServerMessage{Event: EventJoined, Data: JoinedData{Room: code, Drawn: drawn}}
}

func ErrorMessage(msg string) ServerMessage {
	return ServerMessage{Event: EventError, Data: msg}
}

// Command is an inbound event that passed validation.
type Command interface {
	command()
}

type JoinRoom struct {
	Code string
}

type DrawNumber struct{}

// Disconnect is produced by the transport when the socket goes away.
type Disconnect struct{}

func (JoinRoom) command()   {}
func (DrawNumber) command() {}
func (Disconnect) command() {}

// ParseCommand decodes and validates a raw client payload. Every failure
// wraps ErrMalformedMessage.
func ParseCommand(raw []byte) (Command, error) {
	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	switch msg.Event {
	case EventJoinRoom:
		var code string
		if len(bytes.TrimSpace(msg.Data)) == 0 {
			return nil, fmt.Errorf("%w: join-room without room code", ErrMalformedMessage)
		}
		if err := json.Unmarshal(msg.Data, &code); err != nil {
			return nil, fmt.Errorf("%w: join-room data must be a string", ErrMalformedMessage)
		}
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == "" {
			return nil, fmt.Errorf("%w: join-room without room code", ErrMalformedMessage)
		}
		if !ValidRoomCode(code) {
			return nil, fmt.Errorf("%w: invalid room code %q", ErrMalformedMessage, code)
		}
		return JoinRoom{Code: code}, nil
	case EventDrawNumber:
		return DrawNumber{}, nil
	case "":
		return nil, fmt.Errorf("%w: missing event", ErrMalformedMessage)
	default:
		return nil, fmt.Errorf("%w: unknown event %q", ErrMalformedMessage, msg.Event)
	}
}
