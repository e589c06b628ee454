// Package scoring derives user and guild level metrics: XP levels, weighted
// moderator-activity scores, the engagement composite, the security score
// with its insight list, and simple growth forecasts.
package scoring

import (
	storage "github.com/guildpulse/guildpulse-go/internal/storage/redis"
)

// LevelFromXP returns the largest level L >= 0 whose cumulative cost
// a*L^2 + b*L + c does not exceed the XP total.
func LevelFromXP(f storage.XPFormula, xp int64) int {
	if f.A <= 0 {
		return 0
	}
	level := 0
	for XPForLevel(f, level+1) <= float64(xp) {
		level++
	}
	return level
}

// XPForLevel is the cumulative XP required to hold a level.
func XPForLevel(f storage.XPFormula, level int) float64 {
	if level <= 0 {
		return 0
	}
	l := float64(level)
	return l*l*f.A + l*f.B + f.C
}

// LevelProgress reports how far into the current level an XP total sits,
// as a 0-100 percentage toward the next level.
func LevelProgress(f storage.XPFormula, xp int64) float64 {
	level := LevelFromXP(f, xp)
	floor := XPForLevel(f, level)
	ceil := XPForLevel(f, level+1)
	if ceil <= floor {
		return 0
	}
	return (float64(xp) - floor) / (ceil - floor) * 100
}
