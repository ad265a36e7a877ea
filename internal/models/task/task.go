package task

import (
	"time"

	"github.com/google/uuid"
)

const TitleMaxLength = 255

// Task - простой носитель данных, без логики хранения.
type Task struct {
	UUID        uuid.UUID `json:"id" db:"uuid"`
	Title       *string   `json:"title" db:"title"`
	Description *string   `json:"description" db:"description"`
	Completed   bool      `json:"completed" db:"completed"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// New собирает задачу с новым id; created_at и updated_at совпадают.
func New(now time.Time, options ...TaskOption) *Task {
	ts := Timestamp(now)
	t := &Task{
		UUID:      uuid.New(),
		Completed: false,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	Apply(t, options...)
	return t
}

// Timestamp приводит время к точности PostgreSQL (микросекунды, UTC).
func Timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// Touch возвращает новое значение updated_at, строго большее предыдущего.
func Touch(prev, now time.Time) time.Time {
	next := Timestamp(now)
	if !next.After(prev) {
		next = prev.Add(time.Microsecond)
	}
	return next
}

func (t *Task) Clone() *Task {
	c := *t
	if t.Title != nil {
		title := *t.Title
		c.Title = &title
	}
	if t.Description != nil {
		description := *t.Description
		c.Description = &description
	}
	return &c
}
