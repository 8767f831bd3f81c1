package models

// Ограничения пагинации.
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// Page описывает страницу выборки.
type Page struct {
	Number int // Номер страницы, начиная с 1
	Limit  int // Размер страницы
}

// NewPage нормализует номер и размер страницы.
func NewPage(number, limit int) Page {
	if number < 1 {
		number = 1
	}
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return Page{Number: number, Limit: limit}
}

// Skip возвращает количество пропускаемых документов.
func (p Page) Skip() int64 {
	return int64(p.Number-1) * int64(p.Limit)
}

// Pagination метаданные страницы в ответе.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

// NewPagination собирает метаданные по странице и общему количеству.
func NewPagination(p Page, total int64) Pagination {
	pages := int64(0)
	if p.Limit > 0 {
		pages = (total + int64(p.Limit) - 1) / int64(p.Limit)
	}
	return Pagination{
		Page:  p.Number,
		Limit: p.Limit,
		Total: total,
		Pages: pages,
	}
}
