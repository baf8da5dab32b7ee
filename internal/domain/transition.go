package domain

// ValidateTransition checks target against the allowed moves out of current.
func ValidateTransition(transitions map[string][]string, current, target string) error {
	allowed, ok := transitions[current]
	if !ok {
		return Validation("unknown current state: %s", current)
	}
	for _, s := range allowed {
		if s == target {
			return nil
		}
	}
	return Validation("transition from %q to %q is not allowed", current, target)
}
