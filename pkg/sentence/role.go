package sentence

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownRole    = errors.New("unknown role")
	ErrUnknownChannel = errors.New("unknown channel")
)

// Role is the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleDeveloper Role = "developer"
	RoleTool      Role = "tool"
)

// ParseRole maps a raw role string to a Role. Unknown values are an error,
// they are never coerced into one of the known roles.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleSystem, RoleUser, RoleAssistant, RoleDeveloper, RoleTool:
		return r, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

func (r Role) String() string {
	return string(r)
}

// Channel tags text as internal reasoning (think) or user-facing output (final).
type Channel string

const (
	ChannelThink Channel = "think"
	ChannelFinal Channel = "final"
)

// ParseChannel maps a raw channel string to a Channel. The empty string is final.
func ParseChannel(s string) (Channel, error) {
	switch c := Channel(s); c {
	case "":
		return ChannelFinal, nil
	case ChannelThink, ChannelFinal:
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownChannel, s)
}

func (c Channel) String() string {
	return string(c)
}

// Author identifies who produced a message.
type Author struct {
	Role Role
	Name string
}
