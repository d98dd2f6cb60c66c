package llmjson

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// висячий ключ в конце обрезанного вывода: `,"partial` / `,"key"` / `,"key":`
// без значения. Отбрасываем фрагмент целиком перед закрытием скобок.
var danglingKeyRe = regexp.MustCompile(`,\s*"(?:[^"\\]|\\.)*(?:"\s*:?\s*)?$`)

// RepairTruncated чинит JSON, обрезанный по лимиту токенов: отбрасывает
// висячий ключ, закрывает незакрытую строку и достраивает недостающие
// ']' / '}' в порядке вложенности. На валидном JSON - no-op.
func RepairTruncated(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}

	if loc := danglingKeyRe.FindStringIndex(s); loc != nil {
		s = s[:loc[0]]
	}

	// проход по символам с учётом строкового состояния и escape
	var stack []byte
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			if escaped {
				escaped = false
				continue
			}
			switch c {
			case '\\':
				escaped = true
			case '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			stack = append(stack, c)
		case '}', ']':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	if !inString && len(stack) == 0 {
		return s
	}

	var b strings.Builder
	b.WriteString(s)
	if inString {
		b.WriteByte('"')
	}
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			b.WriteByte('}')
		} else {
			b.WriteByte(']')
		}
	}
	return b.String()
}

const errContextRadius = 40

// ParseObject парсит строку в map. При ошибке - одна попытка починки
// обрыва и повторный парсинг; если и он падает, возвращается ошибка
// с байтовым смещением и фрагментом контекста.
func ParseObject(s string) (map[string]interface{}, error) {
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(s), &obj); err == nil {
		return obj, nil
	}

	repaired := RepairTruncated(s)
	var repairedErr error
	if repairedErr = json.Unmarshal([]byte(repaired), &obj); repairedErr == nil {
		return obj, nil
	}

	return nil, parseError(repaired, repairedErr)
}

// parseError строит диагностику: смещение и фрагмент вокруг места ошибки
func parseError(s string, err error) error {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError

	var offset int64 = -1
	switch {
	case errors.As(err, &syntaxErr):
		offset = syntaxErr.Offset
	case errors.As(err, &typeErr):
		offset = typeErr.Offset
	}

	if offset < 0 {
		return fmt.Errorf("json parse failed: %w", err)
	}

	start := offset - errContextRadius
	if start < 0 {
		start = 0
	}
	end := offset + errContextRadius
	if end > int64(len(s)) {
		end = int64(len(s))
	}

	return fmt.Errorf("json parse failed at offset %d: %w (context: %q)",
		offset, err, s[start:end])
}

// ExtractObject полный pipeline шагов 1-5: strip reasoning, извлечение
// JSON, чистка пунктуации, парсинг с починкой обрыва
func ExtractObject(raw string) (map[string]interface{}, error) {
	text := StripReasoning(raw)
	text = ExtractJSON(text)
	text = CleanPunctuation(text)
	return ParseObject(text)
}
