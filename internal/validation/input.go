package validation

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Константы валидации
const (
	MaxAdminNoteLength = 2000
)

// ValidateLength проверяет длину строки.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateNonEmpty проверяет, что строка не пустая.
func ValidateNonEmpty(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s не может быть пустым", fieldName)
	}
	return nil
}

// ValidateAdminNote проверяет комментарий администратора к решению по спору.
// Комментарий попадает в аудит приёма, поэтому управляющие символы запрещены.
func ValidateAdminNote(note string) error {
	if !utf8.ValidString(note) {
		return fmt.Errorf("комментарий содержит некорректные символы")
	}

	note = strings.TrimSpace(note)
	if err := ValidateNonEmpty("комментарий администратора", note); err != nil {
		return err
	}
	if err := ValidateLength("комментарий администратора", note, 1, MaxAdminNoteLength); err != nil {
		return err
	}

	for _, r := range note {
		if unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r' {
			return fmt.Errorf("комментарий содержит управляющие символы")
		}
	}
	return nil
}
