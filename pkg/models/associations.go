package models

// AppendUnique appends items to list and removes duplicates, keeping the
// first occurrence of each element in its original position. The input
// slice is never modified.
func AppendUnique[T comparable](list []T, items ...T) []T {
	out := make([]T, 0, len(list)+len(items))
	seen := make(map[T]struct{}, len(list)+len(items))
	for _, group := range [][]T{list, items} {
		for _, v := range group {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}
