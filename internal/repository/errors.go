package repository

import "errors"

var (
	ErrNotFound        = errors.New("запись не найдена")
	ErrAlreadyExists   = errors.New("запись уже существует")
	ErrInvalidPage     = errors.New("неверный номер страницы")
	ErrInvalidPageSize = errors.New("неверный размер страницы")
)
