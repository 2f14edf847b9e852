package cmdutil

// SelectorSet builds a set of non-empty selector strings for membership
// checks. An empty result means "no filtering requested".
func SelectorSet(selectors []string) map[string]struct{} {
	set := make(map[string]struct{}, len(selectors))
	for _, s := range selectors {
		if s == "" {
			continue
		}
		set[s] = struct{}{}
	}
	return set
}

// Filter keeps the items whose key matches one of the selectors. With no
// usable selectors the original slice is returned unchanged.
func Filter[T any](items []T, selectors []string, key func(T) string) []T {
	set := SelectorSet(selectors)
	if len(set) == 0 || key == nil {
		return items
	}
	result := make([]T, 0, len(items))
	for _, item := range items {
		if _, ok := set[key(item)]; ok {
			result = append(result, item)
		}
	}
	return result
}
