package gtfsstatic

// directionSuffixes are the single-character direction markers a platform
// stop id may end in.
var directionSuffixes = map[byte]bool{'N': true, 'S': true, 'E': true, 'W': true}

// Direction returns the trailing direction character of a stop id, or ""
// if the id does not end in one of N, S, E, W.
func Direction(stopID string) string {
	if n := len(stopID); n > 0 {
		last := stopID[n-1]
		if directionSuffixes[last] {
			return string(last)
		}
	}
	return ""
}

// BaseStopID strips a trailing direction marker from a stop id, if present.
func BaseStopID(stopID string) string {
	if dir := Direction(stopID); dir != "" {
		return stopID[:len(stopID)-1]
	}
	return stopID
}

// DirectionalVariants returns the four directional platform ids derived
// from a base stop id.
func DirectionalVariants(baseStopID string) []string {
	return []string{baseStopID + "N", baseStopID + "S", baseStopID + "E", baseStopID + "W"}
}

// Expand returns the candidate platform stop ids for a possibly-base stop
// id: the id itself if it already carries a direction suffix, or all four
// directional variants otherwise.
func Expand(stopID string) []string {
	if Direction(stopID) != "" {
		return []string{stopID}
	}
	return DirectionalVariants(stopID)
}
