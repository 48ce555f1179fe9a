package engine

var rewardNames = [...]string{"None", "Common", "Rare", "Epic", "SuperEpic", "Unique", "Legendary"}

// RewardName returns the display name of a reward tier
func RewardName(tier int) string {
	if tier < 0 || tier >= len(rewardNames) {
		return "Unknown"
	}
	return rewardNames[tier]
}

// BestReward returns the highest tier on the track, 0 for an empty track
func BestReward(track []int) int {
	best := 0
	for i, tier := range track {
		if i == 0 || tier > best {
			best = tier
		}
	}
	return best
}

// BestPositions lists the squares holding the best reward
func BestPositions(track []int) []int {
	best := BestReward(track)
	var out []int
	for i, tier := range track {
		if tier == best {
			out = append(out, i)
		}
	}
	return out
}

// RewardAt returns the tier on square pos, clamping pos onto the track
func RewardAt(track []int, pos int) int {
	pos = clamp(pos, 0, MaxPos)
	if pos >= len(track) {
		return 0
	}
	return track[pos]
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
