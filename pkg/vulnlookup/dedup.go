package vulnlookup

import "strings"

// DeduplicateByAlias groups OSV records into equivalence classes that
// are transitively connected by shared ids/aliases (spec.md §4.2):
// (id ∈ other.aliases) ∨ (aliases ∩ other.aliases ≠ ∅). Class order
// mirrors first occurrence in recs.
func DeduplicateByAlias(recs []osvRecord) [][]osvRecord {
	n := len(recs)
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}

	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[rb] = ra
		}
	}

	idSet := make(map[string][]int)
	for i, r := range recs {
		idSet[r.ID] = append(idSet[r.ID], i)
		for _, a := range r.Aliases {
			idSet[a] = append(idSet[a], i)
		}
	}
	for i, r := range recs {
		allKeys := append([]string{r.ID}, r.Aliases...)
		for _, key := range allKeys {
			for _, j := range idSet[key] {
				union(i, j)
			}
		}
	}

	groups := make(map[int][]osvRecord)
	var order []int
	for i, r := range recs {
		root := find(i)
		if _, ok := groups[root]; !ok {
			order = append(order, root)
		}
		groups[root] = append(groups[root], r)
	}

	out := make([][]osvRecord, 0, len(order))
	for _, root := range order {
		out = append(out, groups[root])
	}
	return out
}

// representative chooses the representative record of an equivalence
// class by the preference CVE > GHSA > first-seen (spec.md §4.2).
func representative(class []osvRecord) osvRecord {
	for _, r := range class {
		if strings.HasPrefix(r.ID, "CVE-") {
			return r
		}
	}
	for _, r := range class {
		if strings.HasPrefix(r.ID, "GHSA-") {
			return r
		}
	}
	return class[0]
}

// aliasesOf collects the full id set of an equivalence class, for
// preservation on the representative finding.
func aliasesOf(class []osvRecord) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range class {
		if !seen[r.ID] {
			seen[r.ID] = true
			out = append(out, r.ID)
		}
		for _, a := range r.Aliases {
			if !seen[a] {
				seen[a] = true
				out = append(out, a)
			}
		}
	}
	return out
}
