// Package metrics computes derived scalar session metrics on read.
//
// Every function is pure and returns ok=false instead of dividing by
// zero; callers decide how to render a missing value.
package metrics

import (
	"fmt"
	"math"
	"time"
)

// TokensPerPrompt computes (input+output)/userPrompts.
func TokensPerPrompt(totalInput, totalOutput uint64, userPromptCount uint32) (float64, bool) {
	if userPromptCount == 0 {
		return 0, false
	}
	return float64(totalInput+totalOutput) / float64(userPromptCount), true
}

// ReeditRate computes reeditedFiles/filesEdited. Lower is better.
func ReeditRate(reeditedFiles, filesEdited uint32) (float64, bool) {
	if filesEdited == 0 {
		return 0, false
	}
	return float64(reeditedFiles) / float64(filesEdited), true
}

// ToolDensity computes toolCalls/apiCalls.
func ToolDensity(toolCalls, apiCalls uint32) (float64, bool) {
	if apiCalls == 0 {
		return 0, false
	}
	return float64(toolCalls) / float64(apiCalls), true
}

// EditVelocity computes filesEdited per minute of session duration.
func EditVelocity(filesEdited uint32, durationSeconds uint32) (float64, bool) {
	if durationSeconds == 0 {
		return 0, false
	}
	minutes := float64(durationSeconds) / 60.0
	return float64(filesEdited) / minutes, true
}

// ReadToEditRatio computes filesRead/filesEdited.
func ReadToEditRatio(filesRead, filesEdited uint32) (float64, bool) {
	if filesEdited == 0 {
		return 0, false
	}
	return float64(filesRead) / float64(filesEdited), true
}

// FormatDuration renders d with smart unit selection:
// < 1ms -> microseconds, < 1s -> milliseconds, else seconds with 2 decimals.
func FormatDuration(d time.Duration) string {
	micros := d.Microseconds()
	if micros < 1_000 {
		return fmt.Sprintf("%dµs", micros)
	}
	if d.Milliseconds() < 1_000 {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}

// RoundForDisplay rounds x to two decimal places.
func RoundForDisplay(x float64) float64 {
	return math.Round(x*100) / 100
}
