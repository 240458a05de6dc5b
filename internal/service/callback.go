package service

import (
	"fmt"
	"strconv"
	"strings"
)

// Callback payload prefixes. Payloads stay short because transports cap
// callback data size.
const (
	callbackPrefixTicket = "t"
	callbackPrefixRate   = "rate"
	callbackPrefixMenu   = "m"
)

// Survey actions carried in ticket callbacks.
const (
	actionClosureYes = "closure_yes"
	actionClosureNo  = "closure_no"
)

// packTicketCallback encodes "t:<action>:<ticketID>".
func packTicketCallback(action string, ticketID int64) string {
	return fmt.Sprintf("%s:%s:%d", callbackPrefixTicket, action, ticketID)
}

// unpackTicketCallback decodes a ticket callback payload.
func unpackTicketCallback(data string) (action string, ticketID int64, err error) {
	parts := strings.Split(data, ":")
	if len(parts) != 3 || parts[0] != callbackPrefixTicket {
		return "", 0, fmt.Errorf("malformed ticket callback %q", data)
	}
	id, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("malformed ticket callback %q: %w", data, err)
	}
	return parts[1], id, nil
}

// packRateCallback encodes "rate:<ticketID>:<rating>".
func packRateCallback(ticketID int64, rating int) string {
	return fmt.Sprintf("%s:%d:%d", callbackPrefixRate, ticketID, rating)
}

// unpackRateCallback decodes a rating callback payload.
func unpackRateCallback(data string) (ticketID int64, rating int, err error) {
	parts := strings.Split(data, ":")
	if len(parts) != 3 || parts[0] != callbackPrefixRate {
		return 0, 0, fmt.Errorf("malformed rating callback %q", data)
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed rating callback %q: %w", data, err)
	}
	n, err := strconv.Atoi(parts[2])
	if err != nil {
		return 0, 0, fmt.Errorf("malformed rating callback %q: %w", data, err)
	}
	return id, n, nil
}

// packMenuCallback encodes "m:<dot.path>". The empty path is the menu root.
func packMenuCallback(path string) string {
	return callbackPrefixMenu + ":" + path
}

// IsMenuCallback reports whether the payload belongs to the FAQ menu and
// returns its path. Routing uses it to pick the handling service.
func IsMenuCallback(data string) (path string, ok bool) {
	return unpackMenuCallback(data)
}

// unpackMenuCallback decodes a menu callback payload.
func unpackMenuCallback(data string) (path string, ok bool) {
	rest, found := strings.CutPrefix(data, callbackPrefixMenu+":")
	if !found {
		return "", false
	}
	return rest, true
}
