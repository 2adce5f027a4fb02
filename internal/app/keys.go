package app

import "github.com/nhle/labdesk/internal/keys"

// KeyMap is the application keymap, re-exported for the root model.
type KeyMap = keys.KeyMap

// DefaultKeyMap delegates to keys.DefaultKeyMap.
func DefaultKeyMap() *KeyMap {
	return keys.DefaultKeyMap()
}
