package repository

import "strings"

// UserDirectory resolves display names for known user ids. The surrounding
// application owns user identity; the core only needs names for leaderboard
// display and falls back to the raw id for unknown users.
type UserDirectory interface {
	DisplayName(userID string) string
}

type StaticUserDirectory struct {
	names map[string]string
}

func NewStaticUserDirectory(names map[string]string) *StaticUserDirectory {
	copied := make(map[string]string, len(names))
	for id, name := range names {
		copied[id] = name
	}
	return &StaticUserDirectory{names: copied}
}

// ParseUserList parses a "id:Display Name,id2:Other Name" config value.
// Entries without a colon use the id as the display name.
func ParseUserList(spec string) map[string]string {
	names := make(map[string]string)
	for _, entry := range strings.Split(spec, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		id, name, found := strings.Cut(entry, ":")
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if !found || strings.TrimSpace(name) == "" {
			names[id] = id
			continue
		}
		names[id] = strings.TrimSpace(name)
	}
	return names
}

func (d *StaticUserDirectory) DisplayName(userID string) string {
	if name, ok := d.names[userID]; ok {
		return name
	}
	return userID
}
