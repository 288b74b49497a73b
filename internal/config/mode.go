package config

import (
	"os"

	"github.com/cockroachdb/errors"
)

// ModeEnv is the environment variable selecting the snapshot mode.
const ModeEnv = "VECTOR_MODE"

// Mode selects how snapshots are reconciled with compiled fixtures.
type Mode string

const (
	// ModeVerify compares compiled fixtures with stored snapshots.
	ModeVerify Mode = "verify"
	// ModeGenerate overwrites snapshots with compiled fixtures.
	ModeGenerate Mode = "gen"
)

// ParseMode maps a mode signal to a Mode. The empty string is verify.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeVerify:
		return ModeVerify, nil
	case ModeGenerate:
		return ModeGenerate, nil
	}
	return "", errors.WithHint(
		errors.Mark(errors.Newf("Unknown %s: %q", ModeEnv, s), ErrConfiguration),
		"use VECTOR_MODE=gen to regenerate snapshots, or leave it unset to verify",
	)
}

// ModeFromEnv reads ModeEnv. An unset variable means verify.
func ModeFromEnv() (Mode, error) {
	v, _ := os.LookupEnv(ModeEnv)
	return ParseMode(v)
}
