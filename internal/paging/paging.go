package paging

const (
	DefaultNum  = 1
	DefaultSize = 10
	MaxSize     = 100
)

// Query is a 1-based page request.
type Query struct {
	Num  int
	Size int
}

// New clamps num and size to their defaults and bounds.
func New(num, size int) Query {
	q := Query{Num: num, Size: size}
	if q.Num < 1 {
		q.Num = DefaultNum
	}
	if q.Size < 1 {
		q.Size = DefaultSize
	}
	if q.Size > MaxSize {
		q.Size = MaxSize
	}
	return q
}

func (q Query) Offset() int { return (q.Num - 1) * q.Size }

func (q Query) Limit() int { return q.Size }

// Page is a slice of results plus the navigation fields clients expect.
type Page[T any] struct {
	PageNum         int   `json:"pageNum"`
	PageSize        int   `json:"pageSize"`
	Size            int   `json:"size"`
	Total           int64 `json:"total"`
	Pages           int   `json:"pages"`
	List            []T   `json:"list"`
	FirstPage       bool  `json:"isFirstPage"`
	LastPage        bool  `json:"isLastPage"`
	HasPreviousPage bool  `json:"hasPreviousPage"`
	HasNextPage     bool  `json:"hasNextPage"`
}

func NewPage[T any](q Query, total int64, list []T) Page[T] {
	if list == nil {
		list = []T{}
	}
	pages := 0
	if q.Size > 0 {
		pages = int((total + int64(q.Size) - 1) / int64(q.Size))
	}
	return Page[T]{
		PageNum:         q.Num,
		PageSize:        q.Size,
		Size:            len(list),
		Total:           total,
		Pages:           pages,
		List:            list,
		FirstPage:       q.Num == 1,
		LastPage:        q.Num >= pages,
		HasPreviousPage: q.Num > 1,
		HasNextPage:     q.Num < pages,
	}
}

// Map converts the list of a page, keeping navigation intact.
func Map[T, U any](p Page[T], fn func(T) U) Page[U] {
	out := make([]U, 0, len(p.List))
	for _, v := range p.List {
		out = append(out, fn(v))
	}
	return Page[U]{
		PageNum:         p.PageNum,
		PageSize:        p.PageSize,
		Size:            len(out),
		Total:           p.Total,
		Pages:           p.Pages,
		List:            out,
		FirstPage:       p.FirstPage,
		LastPage:        p.LastPage,
		HasPreviousPage: p.HasPreviousPage,
		HasNextPage:     p.HasNextPage,
	}
}
