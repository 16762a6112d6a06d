package orchestrator

import "github.com/elee1766/toolchat/src/aisdk"

// trimHistory evicts the oldest exchange pairs until at most
// 1+2*maxHistory turns remain. A system turn at index 0 always survives.
func trimHistory(turns []aisdk.Turn, maxHistory int) []aisdk.Turn {
	if maxHistory <= 0 {
		return turns
	}
	limit := 1 + 2*maxHistory

	start := 0
	if len(turns) > 0 && turns[0].System {
		start = 1
	}

	for len(turns) > limit && len(turns)-start >= 2 {
		turns = append(turns[:start], turns[start+2:]...)
	}
	return turns
}
