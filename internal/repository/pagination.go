package repository

import "taskapi/internal/models/task"

// ListParams - фильтр и страница для выборки задач.
// Completed == nil означает "все задачи".
type ListParams struct {
	Completed  *bool
	PageSize   int
	PageNumber int
}

type Page struct {
	Items       []*task.Task
	TotalItems  int
	TotalPages  int
	CurrentPage int
	PageSize    int
}

// Pagination - рассчитанные границы страницы.
type Pagination struct {
	TotalItems int
	TotalPages int
	Offset     int
	Limit      int
}

// Paginate считает страницы для total записей. Пустая выборка состоит из
// одной пустой страницы, поэтому первая страница всегда допустима.
func Paginate(total, pageSize, pageNumber int) (Pagination, error) {
	if pageSize <= 0 {
		return Pagination{}, ErrInvalidPageSize
	}

	// без total+pageSize-1: при огромном pageSize сумма переполняется
	totalPages := total / pageSize
	if total%pageSize != 0 {
		totalPages++
	}
	if totalPages == 0 {
		totalPages = 1
	}

	if pageNumber <= 0 || pageNumber > totalPages {
		return Pagination{TotalItems: total, TotalPages: totalPages}, ErrInvalidPage
	}

	return Pagination{
		TotalItems: total,
		TotalPages: totalPages,
		Offset:     (pageNumber - 1) * pageSize,
		Limit:      pageSize,
	}, nil
}

// End - граница среза для n записей; Offset+Limit может переполниться.
func (p Pagination) End(n int) int {
	if p.Limit >= n-p.Offset {
		return n
	}
	return p.Offset + p.Limit
}

// PageOf собирает результат; items уже обрезаны по Offset/Limit.
func (p Pagination) PageOf(items []*task.Task, params ListParams) Page {
	if items == nil {
		items = []*task.Task{}
	}
	return Page{
		Items:       items,
		TotalItems:  p.TotalItems,
		TotalPages:  p.TotalPages,
		CurrentPage: params.PageNumber,
		PageSize:    params.PageSize,
	}
}
