package types

// ToggleLike adds userID to likes when absent and removes it otherwise. It
// reports whether the user likes the item afterwards.
func ToggleLike(likes []string, userID string) ([]string, bool) {
	out := make([]string, 0, len(likes)+1)
	removed := false
	for _, id := range likes {
		if id == userID {
			removed = true
			continue
		}
		out = append(out, id)
	}
	if removed {
		return out, false
	}
	return append(out, userID), true
}
