package board

// TailPosition sorts after any realistic list. New tasks start here and a drop with
// no neighbours lands here.
const TailPosition = 1e9

// ComputePosition returns a sort key placing an item between prev and next. Missing
// neighbours are nil. Repeated midpoints between the same pair eventually run out of
// float64 precision; keys are never rebalanced.
func ComputePosition(prev, next *float64) float64 {
	switch {
	case prev != nil && next != nil:
		return (*prev + *next) / 2
	case prev != nil:
		return *prev + 1
	case next != nil:
		return *next - 1
	default:
		return TailPosition
	}
}
