package dto

import (
	"bytes"
	"encoding/json"
	"strings"
	"unicode/utf8"

	"taskapi/internal/models/task"
)

const (
	notValidString  = "Not a valid string."
	notValidBoolean = "Must be a valid boolean."
	mayNotBeNull    = "This field may not be null."
)

var (
	trueValues  = map[string]bool{"true": true, "1": true, "yes": true, "on": true, "y": true}
	falseValues = map[string]bool{"false": true, "0": true, "no": true, "off": true, "n": true}
)

// TaskOptions превращает тело запроса в опции обновления. Поля, которых
// нет в теле, опций не порождают. id, created_at, updated_at и
// неизвестные поля игнорируются.
func TaskOptions(fields map[string]json.RawMessage) ([]task.TaskOption, map[string]string) {
	var options []task.TaskOption
	fieldErrors := map[string]string{}

	if raw, ok := fields["title"]; ok {
		title, reason := decodeText(raw)
		switch {
		case reason != "":
			fieldErrors["title"] = reason
		case title != nil && utf8.RuneCountInString(*title) > task.TitleMaxLength:
			fieldErrors["title"] = "Ensure this field has no more than 255 characters."
		default:
			options = append(options, task.WithTitle(title))
		}
	}

	if raw, ok := fields["description"]; ok {
		description, reason := decodeText(raw)
		if reason != "" {
			fieldErrors["description"] = reason
		} else {
			options = append(options, task.WithDescription(description))
		}
	}

	if raw, ok := fields["completed"]; ok {
		completed, reason := decodeBool(raw)
		if reason != "" {
			fieldErrors["completed"] = reason
		} else {
			options = append(options, task.WithCompleted(completed))
		}
	}

	return options, fieldErrors
}

// decodeText принимает строку, число (как текст) или null.
// Пробелы по краям обрезаются.
func decodeText(raw json.RawMessage) (*string, string) {
	raw = bytes.TrimSpace(raw)
	if bytes.Equal(raw, []byte("null")) {
		return nil, ""
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		text = strings.TrimSpace(text)
		return &text, ""
	}

	var number json.Number
	if err := json.Unmarshal(raw, &number); err == nil {
		text = number.String()
		return &text, ""
	}

	return nil, notValidString
}

func decodeBool(raw json.RawMessage) (bool, string) {
	raw = bytes.TrimSpace(raw)
	if bytes.Equal(raw, []byte("null")) {
		return false, mayNotBeNull
	}

	var value bool
	if err := json.Unmarshal(raw, &value); err == nil {
		return value, ""
	}

	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		text = string(raw)
	}
	text = strings.ToLower(strings.TrimSpace(text))
	switch {
	case trueValues[text]:
		return true, ""
	case falseValues[text]:
		return false, ""
	}
	return false, notValidBoolean
}
