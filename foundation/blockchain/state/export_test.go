package state

// SetDifficultyFloor makes the node mine blocks at no less than the
// specified difficulty.
func SetDifficultyFloor(s *State, difficulty uint32) {
	s.difficultyFloor = difficulty
}

// MiningOperations returns the number of mining operations in flight.
func MiningOperations(s *State) int {
	s.miningMu.Lock()
	defer s.miningMu.Unlock()

	return len(s.mining)
}
