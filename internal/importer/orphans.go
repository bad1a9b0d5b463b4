package importer

// LocalityNode is the slice of a locality needed for orphan detection.
type LocalityNode struct {
	ID               int64
	ExternalID       string
	ParentExternalID string
	CountryCode      string
}

// OrphanResult groups orphan locality ids by country code and records
// the localities whose ancestry walk hit the hop limit. Hop-limit hits
// are treated as orphans but surfaced separately so cyclic or deeply
// nested parent chains in the dump can be inspected.
type OrphanResult struct {
	ByCountry    map[string][]int64
	HopLimitHits []int64
}

// Total returns the orphan count across all countries.
func (r OrphanResult) Total() int {
	n := 0
	for _, ids := range r.ByCountry {
		n += len(ids)
	}
	return n
}

// ResolveOrphans walks each locality's parent chain and reports the ones
// with no region ancestor. regionSet holds the external ids of every
// imported region; parentOf maps any external id (region or locality) to
// its parent external id, with absent or empty values ending the walk.
// hopLimit bounds the walk to guard against cycles in the dump.
func ResolveOrphans(nodes []LocalityNode, regionSet map[string]struct{}, parentOf map[string]string, hopLimit int) OrphanResult {
	result := OrphanResult{ByCountry: make(map[string][]int64)}

	for _, node := range nodes {
		current := node.ParentExternalID
		found := false
		hops := hopLimit

		for current != "" && hops > 0 {
			if _, ok := regionSet[current]; ok {
				found = true
				break
			}
			current = parentOf[current]
			hops--
		}

		if found {
			continue
		}
		if current != "" && hops == 0 {
			result.HopLimitHits = append(result.HopLimitHits, node.ID)
		}
		result.ByCountry[node.CountryCode] = append(result.ByCountry[node.CountryCode], node.ID)
	}
	return result
}
