package services

// Page selects a window of a list; Number is 1-based
type Page struct {
	Number int
	Size   int
}

func (p Page) normalized() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 {
		p.Size = 1
	}
	return p
}

// Offset is the number of rows skipped before this page
func (p Page) Offset() int {
	n := p.normalized()
	return (n.Number - 1) * n.Size
}

// PageResult holds one page of results and the total size of the collection
type PageResult[T any] struct {
	Count   int64
	Results []T
}
