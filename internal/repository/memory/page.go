package memory

import "github.com/utafrali/ShopyKart/pkg/pagination"

func page[T any](items []T, p pagination.Params) []T {
	p = p.Normalize()
	start := p.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := min(start+p.PerPage, len(items))
	return items[start:end]
}
