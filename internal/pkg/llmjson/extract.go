// Package llmjson превращает сырой текст chat completion в валидный JSON,
// терпя известные сбои LLM-вывода: reasoning-блоки, code fences,
// полноширинную CJK-пунктуацию, висячие запятые и обрыв по max_tokens.
package llmjson

import (
	"regexp"
	"strings"
)

var (
	thinkBlockRe = regexp.MustCompile(`(?is)<think>.*?</think>`)
	thinkCloseRe = regexp.MustCompile(`(?i)</think>`)
	fencedRe     = regexp.MustCompile("(?s)```(?:[Jj][Ss][Oo][Nn])?\\s*(.*?)```")
)

// StripReasoning удаляет <think>...</think> блоки (регистронезависимо,
// многострочно). Если закрывающий тег есть, отбрасываем всё до последнего
// его вхождения: некоторые модели кладут финальный ответ после видимых
// рассуждений.
func StripReasoning(text string) string {
	if locs := thinkCloseRe.FindAllStringIndex(text, -1); len(locs) > 0 {
		last := locs[len(locs)-1]
		text = text[last[1]:]
	}
	return thinkBlockRe.ReplaceAllString(text, "")
}

// ExtractJSON выделяет JSON-объект из текста: сначала fenced code block
// (с тегом json или без), содержимое которого начинается с '{',
// иначе подстрока от первой '{' до последней '}'.
func ExtractJSON(text string) string {
	for _, m := range fencedRe.FindAllStringSubmatch(text, -1) {
		candidate := strings.TrimSpace(m[1])
		if strings.HasPrefix(candidate, "{") {
			return candidate
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return strings.TrimSpace(text)
}

// полноширинная CJK-пунктуация -> ASCII. Модели регулярно смешивают её
// с JSON-синтаксисом, что ломает строгий парсинг.
var punctuationReplacer = strings.NewReplacer(
	"，", ",",
	"：", ":",
	"；", ";",
	"（", "(",
	"）", ")",
	"【", "[",
	"】", "]",
	"「", "\"",
	"」", "\"",
	"“", "\"",
	"”", "\"",
	"‘", "'",
	"’", "'",
)

var trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)

// CleanPunctuation заменяет полноширинную пунктуацию на ASCII-эквиваленты
// и убирает висячие запятые перед '}' / ']'
func CleanPunctuation(text string) string {
	text = punctuationReplacer.Replace(text)
	return trailingCommaRe.ReplaceAllString(text, "$1")
}
