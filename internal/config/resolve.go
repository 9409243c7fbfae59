package config

import (
	"fmt"
	"os/user"
	"strconv"
)

// ResolveUID resolves a numeric uid or user name to a uid. Uid 0 is
// rejected unconditionally: Corral drops privilege, it never escalates,
// and that holds even when a resolvable name maps to root.
func ResolveUID(s string) (int, error) {
	uid, err := strconv.Atoi(s)
	if err != nil {
		u, lookupErr := user.Lookup(s)
		if lookupErr != nil {
			return 0, fmt.Errorf("unknown user %q", s)
		}
		uid, err = strconv.Atoi(u.Uid)
		if err != nil {
			return 0, fmt.Errorf("user %q has non-numeric uid %q", s, u.Uid)
		}
	}
	if uid == 0 {
		return 0, fmt.Errorf("running as root or uid 0 is not allowed")
	}
	if uid < 0 {
		return 0, fmt.Errorf("invalid uid %d", uid)
	}
	return uid, nil
}

// ResolveGID resolves a numeric gid or group name to a gid, rejecting 0
// under the same rule as ResolveUID.
func ResolveGID(s string) (int, error) {
	gid, err := strconv.Atoi(s)
	if err != nil {
		g, lookupErr := user.LookupGroup(s)
		if lookupErr != nil {
			return 0, fmt.Errorf("unknown group %q", s)
		}
		gid, err = strconv.Atoi(g.Gid)
		if err != nil {
			return 0, fmt.Errorf("group %q has non-numeric gid %q", s, g.Gid)
		}
	}
	if gid == 0 {
		return 0, fmt.Errorf("running as group root or gid 0 is not allowed")
	}
	if gid < 0 {
		return 0, fmt.Errorf("invalid gid %d", gid)
	}
	return gid, nil
}
