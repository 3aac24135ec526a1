package agents

import (
	"strings"
)

// ClassKind tags a classified model response.
type ClassKind int

const (
	// ClassAnswer means the response carries a final answer.
	ClassAnswer ClassKind = iota
	// ClassAction means the response requests a tool call.
	ClassAction
	// ClassContinue means neither marker is present; the loop proceeds to
	// the next iteration without appending an observation.
	ClassContinue
)

const (
	answerMarker = "Answer:"
	actionMarker = "Action:"
)

// Classification is the tagged result of parsing one model response. The
// parsing boundary lives here so the state machine never does string
// searches itself.
type Classification struct {
	Kind ClassKind
	// Text is the extracted answer or action expression.
	Text string
}

// Classify parses a raw model response. Markers are checked in order:
// Answer first, then Action; first match wins. The answer is everything
// after its marker, trimmed; the action expression runs to the next line
// break or end of text.
func Classify(response string) Classification {
	if idx := strings.Index(response, answerMarker); idx >= 0 {
		return Classification{
			Kind: ClassAnswer,
			Text: strings.TrimSpace(response[idx+len(answerMarker):]),
		}
	}

	if idx := strings.Index(response, actionMarker); idx >= 0 {
		rest := response[idx+len(actionMarker):]
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			rest = rest[:nl]
		}
		return Classification{Kind: ClassAction, Text: strings.TrimSpace(rest)}
	}

	return Classification{Kind: ClassContinue}
}
