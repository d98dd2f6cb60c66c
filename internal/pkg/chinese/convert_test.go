package chinese

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertDocumentPreservesStructure(t *testing.T) {
	// пустой конвертер деградирует до identity: структура и
	// нестроковые листья в любом случае не меняются
	c := &Converter{}

	doc := map[string]interface{}{
		"overview": "概览",
		"radar": []interface{}{
			map[string]interface{}{"name": "事业", "value": 80.0},
		},
		"rating": 4.0,
		"flag":   true,
		"nested": map[string]interface{}{"empty": ""},
	}

	out := c.ConvertDocument(doc)

	m, ok := out.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 80.0, m["radar"].([]interface{})[0].(map[string]interface{})["value"])
	assert.Equal(t, 4.0, m["rating"])
	assert.Equal(t, true, m["flag"])
	assert.Equal(t, "", m["nested"].(map[string]interface{})["empty"])
}

func TestConvertNilSafe(t *testing.T) {
	var c *Converter
	assert.Equal(t, "文本", c.Convert("文本"))
	assert.Equal(t, "", c.Convert(""))
}
