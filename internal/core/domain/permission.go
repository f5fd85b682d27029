package domain

import (
	"strings"

	"github.com/rs/zerolog/log"
)

type Role string

const (
	RoleEveryone    Role = "everyone"
	RoleSubscriber  Role = "subscriber"
	RoleVIP         Role = "vip"
	RoleModerator   Role = "moderator"
	RoleBroadcaster Role = "broadcaster"
)

var roleRanks = map[Role]int{
	RoleEveryone:    0,
	RoleSubscriber:  1,
	RoleVIP:         2,
	RoleModerator:   3,
	RoleBroadcaster: 4,
}

// ParseRole normalizes a role name. Unknown names map to RoleEveryone.
func ParseRole(s string) Role {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := roleRanks[r]; !ok {
		log.Warn().Str("role", s).Msg("unknown role, treating as everyone")
		return RoleEveryone
	}

	return r
}

func rank(r Role) int {
	v, ok := roleRanks[Role(strings.ToLower(string(r)))]
	if !ok {
		log.Warn().Str("role", string(r)).Msg("unknown role, ranking as everyone")
		return 0
	}

	return v
}

// HasMinLevel reports whether actual ranks at or above required.
func HasMinLevel(actual, required Role) bool {
	return rank(actual) >= rank(required)
}
