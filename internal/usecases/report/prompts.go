package report

import (
	"fmt"

	"github.com/lifecode-app/lifecode-server/internal/domain"
)

const mainReportSystemPrompt = `你是一位精通八字与紫微斗数的命理分析师。根据提供的命盘数据,生成一份完整的人生报告。
只输出一个 JSON 对象,不要输出任何其他文字,结构如下:
{
  "overview": "总体命格概述",
  "personality": "性格特质分析",
  "radar": [{"name": "事業", "value": 0-100, "fullMark": 100}, ...共7项,顺序为 事業/財富/感情/健康/人際/智慧/家庭],
  "lifeStages": [{"stage": "少年", "summary": "..."}, ...共4项],
  "yearlyOutlook": [{"year": "2026", "theme": "...", "summary": "..."}, ...共3项],
  "luckyElements": {"element": "...", "color": "...", "direction": "..."},
  "advice": "综合建议"
}`

var deepReportSystemPrompts = map[domain.ReportType]string{
	domain.ReportTypeCareer: `你是一位精通八字与紫微斗数的命理分析师。根据命盘数据,生成一份深入的事业运势报告。`,
	domain.ReportTypeWealth: `你是一位精通八字与紫微斗数的命理分析师。根据命盘数据,生成一份深入的财富运势报告。`,
	domain.ReportTypeLove:   `你是一位精通八字与紫微斗数的命理分析师。根据命盘数据,生成一份深入的感情运势报告。`,
	domain.ReportTypeHealth: `你是一位精通八字与紫微斗数的命理分析师。根据命盘数据,生成一份深入的健康运势报告。`,
}

const deepReportFormat = `
只输出一个 JSON 对象,结构如下:
{
  "topic": "%s",
  "overview": "运势概述",
  "sections": [{"title": "...", "content": "..."}, ...至少3项],
  "rating": 1-5,
  "advice": "具体建议"
}`

// systemPrompt возвращает system prompt для типа отчёта
func systemPrompt(reportType domain.ReportType) string {
	if reportType == domain.ReportTypeMain {
		return mainReportSystemPrompt
	}
	return deepReportSystemPrompts[reportType] +
		fmt.Sprintf(deepReportFormat, domain.DeepReportTopics[reportType])
}

// buildUserMessage собирает сообщение пользователя из данных архива
// и рассчитанной карты
func buildUserMessage(archive *domain.Archive, chart domain.Chart) string {
	gender := "男"
	if archive.Gender == domain.GenderFemale {
		gender = "女"
	}
	return fmt.Sprintf("性别: %s\n出生信息: %s 时辰序号 %d\n命盘数据:\n%s",
		gender, archive.FpDate, archive.FpSlot, string(chart))
}
