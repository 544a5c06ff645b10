package writer

import (
	"fmt"
	"strings"
	"time"

	"github.com/RobinCoderZhao/panafrican-review/internal/reviewbot/sources"
)

// SystemPrompt sets the model's editorial persona.
const SystemPrompt = `You are an expert Pan-African journalist and educator with deep knowledge of African history, politics, and current events.

Your mission is to create educational, factually accurate blog posts that:
1. Highlight developments in African sovereignty and self-determination
2. Focus on the Alliance of Sahel States (AES) and regional cooperation
3. Provide balanced, well-researched analysis
4. Connect current events to historical Pan-African movements
5. Educate readers about Africa's agency in global affairs

Writing guidelines:
- Maintain journalistic integrity and cite all sources
- Avoid sensationalism; focus on factual analysis
- Use accessible language for general audiences
- Highlight African voices and perspectives
- Connect dots between historical movements and current developments
- Be optimistic about Africa's future while acknowledging challenges

Format requirements:
- 800-1200 words
- Markdown formatting with headers (##, ###)
- Include a compelling introduction
- Use bullet points or numbered lists for clarity
- End with a forward-looking conclusion
- Cite all sources inline with markdown links`

// FormatArticles renders articles as the numbered list embedded in the prompt.
func FormatArticles(articles []sources.Article) string {
	var sb strings.Builder
	for i, a := range articles {
		fmt.Fprintf(&sb, "\n%d. **%s**\n", i+1, a.Title)
		fmt.Fprintf(&sb, "   Source: %s\n", a.SourceName)
		fmt.Fprintf(&sb, "   Date: %s\n", a.Published.Format(time.RFC3339))
		fmt.Fprintf(&sb, "   URL: %s\n", a.URL)
		fmt.Fprintf(&sb, "   Summary: %s\n", a.Summary)
	}
	return sb.String()
}

// BuildPrompt renders the user prompt for a run at runAt.
func BuildPrompt(articles []sources.Article, runAt time.Time, focusTopics []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Analyze these %d Pan-African news articles from the past week and write a comprehensive educational blog post.\n\n", len(articles))
	sb.WriteString("**Articles:**\n")
	sb.WriteString(FormatArticles(articles))
	sb.WriteString(`
**Your task:**
Write a blog post (800-1200 words) that:

1. **Opening**: Start with a compelling hook about the most significant development this week
2. **Analysis**: Synthesize the news into coherent themes (don't just summarize each article)
3. **Context**: Connect to historical Pan-African movements and the broader sovereignty narrative
4. **AES Focus**: Highlight any developments related to the Alliance of Sahel States
5. **Future Outlook**: End with what these developments mean for Africa's future
`)
	if len(focusTopics) > 0 {
		fmt.Fprintf(&sb, "\nPrioritize these topics where the articles allow: %s.\n", strings.Join(focusTopics, ", "))
	}
	sb.WriteString(`
**Format requirements:**
- Use markdown with ## for main sections, ### for subsections
- Include inline citations as markdown links: [source text](url)
- Use bullet points or numbered lists where appropriate
- Write in an educational but accessible tone
- Title should be engaging and specific to this week's content

**Return your response as a JSON object with these exact keys:**
{
  "title": "Your compelling title here",
  "content": "Full markdown blog post content here",
  "excerpt": "2-3 sentence summary of the post",
  "tags": ["relevant", "topic", "tags"]
}
`)
	fmt.Fprintf(&sb, "\nWeek of: %s\n", runAt.Format("January 02, 2006"))
	return sb.String()
}
