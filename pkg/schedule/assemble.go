package schedule

import "sort"

// AddBalancePins merges manifold balance-pin bookkeeping into a trial list:
// whenever a trial opens a valve on a manifold, that manifold's normally-open
// balance valve must close with it, so the balance pin joins the trial's pin
// set. Balance pins of idle manifolds are left alone.
//
// A new trial list is returned; the input is never modified. With no balance
// mapping the trials are copied unchanged.
func AddBalancePins(trials []Trial, pinsToBalances map[int]int) []Trial {
	out := make([]Trial, len(trials))
	for i, tr := range trials {
		merged := make(Trial, len(tr))
		copy(merged, tr)

		var balances []int
		for _, p := range tr {
			b, ok := pinsToBalances[p]
			if !ok || containsPin(merged, b) || containsInt(balances, b) {
				continue
			}
			balances = append(balances, b)
		}
		sort.Ints(balances)
		out[i] = append(merged, balances...)
	}
	return out
}

func containsInt(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
