package service

import "freeagency/internal/config"

// positionClass resolves a position to its roster slot class. Unmapped
// positions are their own class.
func positionClass(cfg config.RosterConfig, position string) string {
	if class, ok := cfg.PositionClasses[position]; ok {
		return class
	}
	return position
}

// classLimit returns the roster cap for a class; zero means unlimited.
func classLimit(cfg config.RosterConfig, class string) int {
	return cfg.ClassLimits[class]
}
