package followup

import (
	"fmt"
	"regexp"
	"strings"
)

// contentTemplate is sent as the user turn; the prompt's content is the
// system instruction.
const contentTemplate = `Original Question: {{question}}

User's Answer: {{answer}}

Please generate exactly 1 thoughtful follow-up question based on the user's answer above, along with a clear reason explaining why this follow-up question is needed.

Format your response as a JSON object with exactly these two fields:
{
    "question": "Your follow-up question here?",
    "reason": "Explanation of why this follow-up question is needed"
}

Make sure the question ends with a question mark and the reason is a clear, concise explanation. Even if no question is generated, please provide a reason.`

var variablePattern = regexp.MustCompile(`\{\{(\w+)\}\}`)

// render replaces {{variable}} placeholders in tmpl with values from vars.
// Substituted values are not rescanned.
func render(tmpl string, vars map[string]string) (string, error) {
	if missing := missingVars(tmpl, vars); len(missing) > 0 {
		return "", fmt.Errorf("missing template variables: %s", strings.Join(missing, ", "))
	}

	return variablePattern.ReplaceAllStringFunc(tmpl, func(match string) string {
		return vars[match[2:len(match)-2]]
	}), nil
}

func missingVars(tmpl string, vars map[string]string) []string {
	seen := make(map[string]bool)
	var missing []string
	for _, m := range variablePattern.FindAllStringSubmatch(tmpl, -1) {
		name := m[1]
		if seen[name] {
			continue
		}
		seen[name] = true
		if _, ok := vars[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

func buildContent(question, answer string) (string, error) {
	return render(contentTemplate, map[string]string{
		"question": question,
		"answer":   answer,
	})
}
