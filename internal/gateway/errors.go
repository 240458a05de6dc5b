package gateway

import "errors"

// Transport failure classes. Gateway implementations wrap their native
// errors around one of these sentinels so the core can classify without
// knowing the transport.
var (
	// ErrForbidden: the target blocked the bot or is otherwise unreachable.
	ErrForbidden = errors.New("gateway: delivery forbidden")
	// ErrBotTarget: the target is itself a bot; bots cannot message bots.
	ErrBotTarget = errors.New("gateway: target is a bot")
	// ErrBadRequest: malformed or unsupported content, or a missing
	// permission such as thread management rights.
	ErrBadRequest = errors.New("gateway: bad request")
)

func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden) || errors.Is(err, ErrBotTarget)
}

func IsBotTarget(err error) bool {
	return errors.Is(err, ErrBotTarget)
}

func IsBadRequest(err error) bool {
	return errors.Is(err, ErrBadRequest)
}
