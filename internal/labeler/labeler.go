// Package labeler derives a ground-truth instrument category from a sample's
// filename using an ordered table of keyword rules.
package labeler

import "strings"

const (
	LabelDrums   = "drums"
	LabelGuitar  = "guitar"
	LabelKeys    = "keys"
	LabelUnknown = "unknown"
)

type Result struct {
	Label    string `json:"label"`
	Rule     string `json:"rule"`
	Inferred bool   `json:"inferred"`
}

type rule struct {
	name     string
	label    string
	inferred bool
	match    func(name string) bool
}

// rules are evaluated in order, the first match wins.
var rules = []rule{
	{
		name:  "drum_keywords",
		label: LabelDrums,
		match: containsAny("drum", "_dr_", "kick", "snare", "hihat", "hi-hat", "cymbal", "tom", "rim", "bash", "percussion"),
	},
	{
		name:  "guitar_keywords",
		label: LabelGuitar,
		match: containsAny("guitar", "gtr", "_gt_", "strum", "riff", "pluck", "fret", "pickslide", "electric_guitar"),
	},
	{
		name:  "keys_keywords",
		label: LabelKeys,
		match: containsAny("piano", "key", "keys", "synth", "pad", "organ", "keyboard"),
	},
	{
		name:     "rock_prefix",
		label:    LabelKeys,
		inferred: true,
		match: func(name string) bool {
			return strings.HasPrefix(name, "rock_") &&
				!strings.Contains(name, "guitar") &&
				!strings.Contains(name, "drum")
		},
	},
	{
		name:     "harmonic_keywords",
		label:    LabelKeys,
		inferred: true,
		match: func(name string) bool {
			if containsAny("chord", "intro", "ballad")(name) {
				return true
			}
			return strings.Contains(name, "rhythm") && !strings.Contains(name, "guitar")
		},
	},
}

func containsAny(keywords ...string) func(string) bool {
	return func(name string) bool {
		for _, kw := range keywords {
			if strings.Contains(name, kw) {
				return true
			}
		}
		return false
	}
}

// Explain classifies filename and reports which rule produced the label.
func Explain(filename string) Result {
	name := strings.ToLower(filename)
	for _, r := range rules {
		if r.match(name) {
			return Result{Label: r.label, Rule: r.name, Inferred: r.inferred}
		}
	}
	return Result{Label: LabelUnknown, Rule: "fallback"}
}

func Classify(filename string) string {
	return Explain(filename).Label
}
