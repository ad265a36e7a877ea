package task

// TaskOption меняет одно поле задачи; частичное обновление - это набор опций
// только для переданных полей.
type TaskOption func(*Task)

// WithTitle принимает nil, чтобы очистить название.
func WithTitle(title *string) TaskOption {
	return func(task *Task) {
		task.Title = title
	}
}

func WithDescription(description *string) TaskOption {
	return func(task *Task) {
		task.Description = description
	}
}

func WithCompleted(completed bool) TaskOption {
	return func(task *Task) {
		task.Completed = completed
	}
}

func Apply(task *Task, options ...TaskOption) {
	for _, opt := range options {
		if opt != nil {
			opt(task)
		}
	}
}
