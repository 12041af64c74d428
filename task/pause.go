package task

import "time"

// pauseSampleInterval is the 10ms cadence spec.md §4.1 mandates for the
// initiator polling IsPauseConfirmed.
const pauseSampleInterval = 10 * time.Millisecond

// PauseAll requests pause on every task, polls confirmation at a 10ms
// cadence up to budget, and reports whether all confirmed in time. The
// caller must unpause unconditionally, regardless of the return value.
func PauseAll(tasks []Task, budget time.Duration) bool {
	for _, t := range tasks {
		t.RequestPause()
	}

	deadline := time.Now().Add(budget)
	for {
		allConfirmed := true
		for _, t := range tasks {
			if !t.IsPauseConfirmed() {
				allConfirmed = false
				break
			}
		}
		if allConfirmed {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(pauseSampleInterval)
	}
}

// UnpauseAll unconditionally clears the pause request on every task.
func UnpauseAll(tasks []Task) {
	for _, t := range tasks {
		t.RequestUnpause()
	}
}
