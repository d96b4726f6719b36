package sonar

import (
	"context"
	"iter"
)

// Page is one response of a paged collection
type Page[T any] struct {
	// Index is the 1-based page number
	Index int
	Items []T
	// Total is the collection size reported by the server, or the size known
	// beforehand. Zero when the page failed and nothing is known.
	Total int
}

// PageFunc fetches the page with the given 1-based index
type PageFunc[T any] func(ctx context.Context, index int) (Page[T], error)

// Strategy decides whether another page follows the one just fetched
type Strategy interface {
	More(index, total int) bool
}

// TotalStrategy keeps paging while the reported total exceeds what
// index pages of PageSize can hold
type TotalStrategy struct {
	PageSize int
}

// More implements Strategy
func (s TotalStrategy) More(index, total int) bool {
	if s.PageSize <= 0 {
		return false
	}
	return total > index*s.PageSize
}

// SinglePage is used for endpoints that return the whole collection at once
type SinglePage struct{}

// More implements Strategy
func (SinglePage) More(int, int) bool {
	return false
}

// Pages walks a paged collection lazily, starting at page 1. A failed page
// is yielded with its error; when the consumer keeps iterating, the strategy
// still decides from the page's Total whether to go on.
func Pages[T any](ctx context.Context, fetch PageFunc[T], strategy Strategy) iter.Seq2[Page[T], error] {
	return func(yield func(Page[T], error) bool) {
		for index := 1; ; index++ {
			if err := ctx.Err(); err != nil {
				yield(Page[T]{Index: index}, err)
				return
			}

			page, err := fetch(ctx, index)
			page.Index = index
			if !yield(page, err) {
				return
			}
			if !strategy.More(index, page.Total) {
				return
			}
		}
	}
}

// Collect flattens every page into one slice. It stops at the first error
// and returns what was gathered before it.
func Collect[T any](ctx context.Context, fetch PageFunc[T], strategy Strategy) ([]T, error) {
	var all []T
	for page, err := range Pages(ctx, fetch, strategy) {
		if err != nil {
			return all, err
		}
		all = append(all, page.Items...)
	}
	return all, nil
}
