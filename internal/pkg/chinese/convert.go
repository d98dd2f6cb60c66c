// Package chinese конвертация упрощённых иероглифов в традиционные
// перед сохранением отчёта. Конвертация lossy-tolerant: сбой на любой
// строке возвращает её без изменений и никогда не валит документ.
package chinese

import (
	"fmt"

	"github.com/longbridgeapp/opencc"
)

// Converter обёртка над opencc s2t
type Converter struct {
	cc *opencc.OpenCC
}

// NewConverter создаёт конвертер simplified -> traditional
func NewConverter() (*Converter, error) {
	cc, err := opencc.New("s2t")
	if err != nil {
		return nil, fmt.Errorf("failed to init opencc: %w", err)
	}
	return &Converter{cc: cc}, nil
}

// Convert конвертирует одну строку; при ошибке возвращает вход как есть
func (c *Converter) Convert(s string) string {
	if c == nil || c.cc == nil || s == "" {
		return s
	}
	out, err := c.cc.Convert(s)
	if err != nil {
		return s
	}
	return out
}

// ConvertDocument обходит все строковые листья разобранного JSON-документа
// и конвертирует их. Структура (map/slice/числа/bool) не меняется.
func (c *Converter) ConvertDocument(doc interface{}) interface{} {
	switch v := doc.(type) {
	case string:
		return c.Convert(v)
	case map[string]interface{}:
		for key, val := range v {
			v[key] = c.ConvertDocument(val)
		}
		return v
	case []interface{}:
		for i, val := range v {
			v[i] = c.ConvertDocument(val)
		}
		return v
	default:
		return doc
	}
}
