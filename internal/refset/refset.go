// Package refset provides set operations on reference lists of record ids.
package refset

// Contains reports whether member is present in the set.
func Contains(set []string, member string) bool {
	for _, m := range set {
		if m == member {
			return true
		}
	}
	return false
}

// Add returns the set with member appended, unchanged if already present.
func Add(set []string, member string) []string {
	if Contains(set, member) {
		return set
	}
	return append(set, member)
}

// Remove returns the set without member. Removing an absent member returns
// the set unchanged; it never disturbs unrelated elements.
func Remove(set []string, member string) []string {
	for i, m := range set {
		if m == member {
			return append(set[:i:i], set[i+1:]...)
		}
	}
	return set
}

// Toggle flips membership, reporting whether member was added.
func Toggle(set []string, member string) ([]string, bool) {
	if Contains(set, member) {
		return Remove(set, member), false
	}
	return Add(set, member), true
}
