package tabs

// reindex assigns ids from position so they stay a dense 1..N sequence.
func reindex(tabs []Tab) []Tab {
	for i := range tabs {
		tabs[i].ID = i + 1
		tabs[i].Name = TabName(i + 1)
	}
	return tabs
}

// nextActiveID picks the active tab after the tab at removedIdx is dropped.
// Indexes are zero-based positions in the collection before removal; the
// result is the id the chosen tab holds after reindexing.
//
//   - removing the active tab activates its left neighbour, or the new first
//     tab when the removed tab was first;
//   - an active tab right of the removed slot moves one position left;
//   - an active tab left of the removed slot keeps its position.
func nextActiveID(removedIdx, activeIdx int) int {
	switch {
	case activeIdx == removedIdx:
		if removedIdx == 0 {
			return 1
		}
		return removedIdx
	case activeIdx > removedIdx:
		return activeIdx
	default:
		return activeIdx + 1
	}
}
