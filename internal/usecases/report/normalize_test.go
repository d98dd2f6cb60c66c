package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifecode-app/lifecode-server/internal/domain"
)

func TestCoerceRadarFlatNumbers(t *testing.T) {
	raw := []interface{}{80.0, 70.0, 60.0, 75.0, 65.0, 85.0, 72.0}

	entries := coerceRadar(raw)

	require.Len(t, entries, domain.RadarEntryCount)
	for i, entry := range entries {
		assert.Equal(t, domain.RadarDimensionNames[i], entry.Name)
		assert.Equal(t, radarFullMark, entry.FullMark)
	}
	assert.Equal(t, 80, entries[0].Value)
	assert.Equal(t, 72, entries[6].Value)
}

func TestCoerceRadarClampsValues(t *testing.T) {
	raw := []interface{}{150.0, -20.0, 50.0}

	entries := coerceRadar(raw)

	require.Len(t, entries, domain.RadarEntryCount)
	assert.Equal(t, 100, entries[0].Value)
	assert.Equal(t, 0, entries[1].Value)
	assert.Equal(t, 50, entries[2].Value)
	// недостающие измерения добиты нулями с именами по позиции
	assert.Equal(t, 0, entries[3].Value)
	assert.Equal(t, domain.RadarDimensionNames[3], entries[3].Name)
}

func TestCoerceRadarMapEntries(t *testing.T) {
	raw := []interface{}{
		map[string]interface{}{"name": "事業", "value": 88.0},
		map[string]interface{}{"value": "77"}, // имя из позиции, значение из строки
		"garbage",                             // пропускается
		map[string]interface{}{"name": "感情"},
	}

	entries := coerceRadar(raw)

	require.Len(t, entries, domain.RadarEntryCount)
	assert.Equal(t, "事業", entries[0].Name)
	assert.Equal(t, 88, entries[0].Value)
	assert.Equal(t, domain.RadarDimensionNames[1], entries[1].Name)
	assert.Equal(t, 77, entries[1].Value)
	assert.Equal(t, "感情", entries[2].Name)
	assert.Equal(t, 0, entries[2].Value)
}

func TestCoerceRadarTruncatesExtra(t *testing.T) {
	raw := make([]interface{}, 0, 10)
	for i := 0; i < 10; i++ {
		raw = append(raw, float64(i*10))
	}

	entries := coerceRadar(raw)
	assert.Len(t, entries, domain.RadarEntryCount)
}

func TestCoerceLifeStagesBackfill(t *testing.T) {
	raw := []interface{}{
		map[string]interface{}{"stage": "童年", "summary": "平顺"},
		map[string]interface{}{"summary": "起伏"},
	}

	stages := coerceLifeStages(raw)

	require.Len(t, stages, domain.LifeStageCount)
	assert.Equal(t, "童年", stages[0].Stage)
	assert.Equal(t, lifeStageNames[1], stages[1].Stage)
	assert.Equal(t, "起伏", stages[1].Summary)
	assert.Equal(t, lifeStageNames[2], stages[2].Stage)
	assert.Equal(t, placeholderText, stages[2].Summary)
	assert.Equal(t, placeholderText, stages[3].Summary)
}

func TestCoerceYearlyOutlookNumericYears(t *testing.T) {
	raw := []interface{}{
		map[string]interface{}{"year": 2026.0, "theme": "进取", "summary": "详述"},
	}

	outlook := coerceYearlyOutlook(raw, 2026)

	require.Len(t, outlook, domain.YearlyEntryCount)
	assert.Equal(t, "2026", outlook[0].Year)
	assert.Equal(t, "进取", outlook[0].Theme)
	// backfill продолжает от базового года
	assert.Equal(t, "2027", outlook[1].Year)
	assert.Equal(t, "2028", outlook[2].Year)
	assert.Equal(t, placeholderText, outlook[1].Theme)
}

func TestNormalizeMainReportFromSparseInput(t *testing.T) {
	env := newTestEnv()

	raw := map[string]interface{}{
		"overview":    "命局概览",
		"personality": "性格描述",
		"radar":       []interface{}{80.0, 70.0, 60.0, 75.0, 65.0, 85.0, 72.0},
		"advice":      "建议",
	}

	result, err := env.svc.NormalizeMainReport(raw, 2026)
	require.NoError(t, err)

	assert.Len(t, result.Radar, domain.RadarEntryCount)
	assert.Len(t, result.LifeStages, domain.LifeStageCount)
	assert.Len(t, result.YearlyOutlook, domain.YearlyEntryCount)
}

func TestNormalizeMainReportMissingRequiredField(t *testing.T) {
	env := newTestEnv()

	raw := map[string]interface{}{
		"radar": []interface{}{80.0},
	}

	_, err := env.svc.NormalizeMainReport(raw, 2026)
	assert.Error(t, err)
}

func TestNormalizeDeepReportTopicDefault(t *testing.T) {
	env := newTestEnv()

	raw := map[string]interface{}{
		"topic":    "мой собственный заголовок",
		"overview": "概述",
		"sections": []interface{}{
			map[string]interface{}{"title": "一", "content": "內容"},
		},
		"rating": 9.0,
		"advice": "建議",
	}

	result, err := env.svc.NormalizeDeepReport(raw, domain.ReportTypeCareer)
	require.NoError(t, err)

	assert.Equal(t, domain.DeepReportTopics[domain.ReportTypeCareer], result.Topic)
	assert.Equal(t, 5, result.Rating, "rating clamps to [1, 5]")
	assert.GreaterOrEqual(t, len(result.Sections), 3, "sections backfilled to minimum")
}

func TestNormalizeDeepReportKeepsKnownTopic(t *testing.T) {
	env := newTestEnv()

	raw := map[string]interface{}{
		"topic":    domain.DeepReportTopics[domain.ReportTypeLove],
		"overview": "概述",
		"sections": []interface{}{
			map[string]interface{}{"title": "一", "content": "內容"},
			map[string]interface{}{"title": "二", "content": "內容"},
			map[string]interface{}{"title": "三", "content": "內容"},
		},
		"rating": 4.0,
		"advice": "建議",
	}

	result, err := env.svc.NormalizeDeepReport(raw, domain.ReportTypeLove)
	require.NoError(t, err)

	assert.Equal(t, domain.DeepReportTopics[domain.ReportTypeLove], result.Topic)
	assert.Equal(t, 4, result.Rating)
	assert.Len(t, result.Sections, 3)
}
