// Package settings maps user-facing condition labels onto engine modes.
package settings

import (
	"strings"

	"github.com/eliteGoblin/focusd/pulse/internal/domain"
)

// Labels shown in the settings screen.
const (
	LabelADHD    = "ADHD"
	LabelBPD     = "BPD"
	LabelBipolar = "Bipolar"
	LabelMixed   = "Mixed"
)

// Labels returns the selectable labels in display order.
func Labels() []string {
	return []string{LabelADHD, LabelBPD, LabelBipolar, LabelMixed}
}

// ModeFromLabel maps a settings label to a mode. Matching ignores case and
// surrounding space; "Mixed" and anything unrecognised map to the default mode.
func ModeFromLabel(label string) domain.Mode {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "adhd":
		return domain.ModeADHD
	case "bpd":
		return domain.ModeBPD
	case "bipolar":
		return domain.ModeBipolar
	default:
		return domain.ModeDefault
	}
}

// LabelForMode is the inverse of ModeFromLabel.
func LabelForMode(mode domain.Mode) string {
	switch mode {
	case domain.ModeADHD:
		return LabelADHD
	case domain.ModeBPD:
		return LabelBPD
	case domain.ModeBipolar:
		return LabelBipolar
	default:
		return LabelMixed
	}
}
