package settlement

import "math"

// TutorShareRate is the tutor's fraction of every sale.
const TutorShareRate = 0.70

// Split divides a gross sale amount into tutor and platform shares.
// The platform share is the remainder after rounding the tutor share,
// so the two always sum exactly to gross.
func Split(gross int64) (tutorShare, platformShare int64) {
	tutorShare = int64(math.Round(float64(gross) * TutorShareRate))
	platformShare = gross - tutorShare
	return tutorShare, platformShare
}

// ReverseSplit computes the decrement applied to a payout's shares when
// a refund comes in. It recomputes from the refund amount at the same
// ratio rather than scaling the stored shares; repeated partial refunds
// therefore compound arithmetically.
func ReverseSplit(refund int64) (tutorShare, platformShare int64) {
	return Split(refund)
}
