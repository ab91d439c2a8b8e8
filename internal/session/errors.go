package session

import (
	"errors"

	"github.com/ninjabase8085/pushapp/internal/config"
	"github.com/ninjabase8085/pushapp/internal/delivery"
	"github.com/ninjabase8085/pushapp/internal/inapp"
	"github.com/ninjabase8085/pushapp/internal/realtime"
)

var (
	ErrNotInitialized = errors.New("session: not initialized")
	ErrNoSurface      = errors.New("session: no foreground surface")
	ErrNoIdentity     = errors.New("session: no identity")
	ErrClosed         = errors.New("session: closed")
)

// Kind is the error taxonomy used in logs.
type Kind string

const (
	KindConfig  Kind = "config"
	KindNetwork Kind = "network"
	KindParse   Kind = "parse"
	KindState   Kind = "state"
)

// Classify maps an error to its Kind. Anything unrecognised is treated as
// a network failure. nil yields "".
func Classify(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, config.ErrInvalidIdentifier):
		return KindConfig
	case errors.Is(err, inapp.ErrInvalid),
		errors.Is(err, delivery.ErrDecode),
		errors.Is(err, realtime.ErrDecode):
		return KindParse
	case errors.Is(err, ErrNotInitialized),
		errors.Is(err, ErrNoSurface),
		errors.Is(err, ErrNoIdentity),
		errors.Is(err, ErrClosed),
		errors.Is(err, realtime.ErrNotDisconnected):
		return KindState
	default:
		return KindNetwork
	}
}
