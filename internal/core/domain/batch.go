package domain

// ItemState is the aggregator's view of one batch member.
type ItemState struct {
	Status    Status
	Remaining int
}

// DeriveBatchStatus computes a batch's composite status from its members.
// It is a deterministic function of the member multiset, independent of
// order, and must be recomputed and persisted whenever any member changes;
// the batch status is never set independently.
//
// Rules, in priority order:
//  1. all members canceled            -> CANCELED
//  2. all members closed, nothing out -> CLOSED
//  3. mixed returned/outstanding      -> PARTIALLY_RETURNED
//  4. otherwise mirror the least-advanced live member
func DeriveBatchStatus(items []ItemState) Status {
	if len(items) == 0 {
		return StatusDraft
	}

	allCanceled := true
	allClosed := true
	anyReturned := false
	anyOutstanding := false
	anyActive := false
	for _, it := range items {
		if it.Status != StatusCanceled {
			allCanceled = false
		}
		if it.Status != StatusClosed || it.Remaining != 0 {
			allClosed = false
		}
		if it.Status.IsActive() || it.Status == StatusClosed {
			if it.Remaining == 0 {
				anyReturned = true
			} else {
				anyOutstanding = true
			}
		}
		if it.Status.IsActive() {
			anyActive = true
		}
	}

	if allCanceled {
		return StatusCanceled
	}
	if allClosed {
		return StatusClosed
	}
	if anyActive && anyReturned && anyOutstanding {
		return StatusPartiallyReturned
	}

	// A batch is never more advanced than its least-progressed live member.
	least := Status("")
	leastRank := int(^uint(0) >> 1)
	for _, it := range items {
		if it.Status == StatusCanceled {
			continue
		}
		if r := it.Status.rank(); r < leastRank {
			leastRank = r
			least = it.Status
		}
	}
	if least == "" {
		return StatusCanceled
	}
	if least == StatusPartiallyReturned {
		return StatusActive
	}
	return least
}
