// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package stages

import (
	"bytes"
	"text/template"
)

// summarizePromptTmpl produces a bounded three-sentence summary of one
// paper abstract.
var summarizePromptTmpl = template.Must(template.New("summarize").Parse(`Summarize the following paper abstract in exactly 3 sentences. Be factual and concise; do not add information that is not in the abstract.

Abstract:
{{.Abstract}}
`))

// answerSystemPrompt primes the model for question answering over a single
// abstract.
const answerSystemPrompt = `You are a research assistant. Answer questions using only the paper abstract provided by the user. If the abstract does not contain the answer, say so plainly.`

// answerPromptTmpl carries the abstract and the user's question.
var answerPromptTmpl = template.Must(template.New("answer").Parse(`Abstract:
{{.Abstract}}

Question: {{.Question}}
`))

// gapsPromptTmpl asks for exactly three open research gaps across a set of
// abstracts. The abstracts arrive pre-joined; empty abstracts are kept as
// blank entries so positions line up with the paper list.
var gapsPromptTmpl = template.Must(template.New("gaps").Parse(`The following are abstracts from papers on a single research topic, separated by "---". Some may be blank.

Identify exactly 3 open research gaps that these papers collectively leave unaddressed. Number them 1-3, one line each.

{{.Abstracts}}
`))

// keywordsPromptTmpl asks for comma-separated search keywords arguing the
// opposite side of a topic.
var keywordsPromptTmpl = template.Must(template.New("keywords").Parse(`Suggest {{.Limit}} search keywords a devil's advocate would use to find papers that challenge or contradict the topic "{{.Topic}}". Respond with only the keywords, comma-separated, no numbering and no extra text.
`))

func renderTemplate(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
