package usecase

import (
	"fmt"
	"strings"
)

// Prompt templates. Markers and the JSON shape are parsed back, keep them in
// sync with gate.go and fallback.go.
const (
	promptGateSystem = `You help a student choose a graduate research lab.
Decide whether the lab below matches the student's research interests.
Respond in JSON only: {"relevant":bool,"reason":"why this lab fits, in the language of the request"}
If it does not fit, set "relevant" to false.`

	promptGateSentinelSystem = `You help a student choose a graduate research lab.
If the lab below matches the student's research interests, explain why it fits, in the language of the request.
If it does not fit, answer with exactly %s and nothing else.`

	promptSynthSystem = `Answer following these principles:
1. Base the answer on the search results, factually and accurately.
2. Combine information from several sources into one comprehensive answer.
3. Include concrete, practical details such as lab names, professors and institutions.
4. Mention sources where it helps credibility.
Answer in the language of the question.`

	promptPolish = `### Role ###
You help a student who wants to enter graduate school choose a research lab.
Using the student's request and the recommended lab below, write a clear, visually separated summary.

### Input ###
%s

### Output guidelines ###
Include:
- lab name, professor and affiliation
- research keywords, topics and techniques
- why the lab is recommended, tied to the student's request
- lab characteristics, professor career and recent papers (career and papers verbatim, at most 5 papers)
- homepage, email and other contact details

Use line breaks and symbols for structure. Summarize without exaggeration. Answer in the language of the input.`
)

func gateUserPrompt(query, labText string) string {
	return fmt.Sprintf("Student request: %s\n\nLab information:\n%s", query, labText)
}

func synthUserPrompt(query, context string) string {
	return fmt.Sprintf("Question: %s\n\n%s\n\nUsing the search results above, write an accurate and helpful answer to the question.", query, context)
}

func splitPrompt(k int, answer string) string {
	var markers []string
	for i := 1; i <= 2 && i <= k; i++ {
		markers = append(markers, fmt.Sprintf("'%s'", recMarker(i)))
	}
	return fmt.Sprintf("Split the following content into exactly %d separate recommendations. Separate them with markers in the form %s:\n\n%s",
		k, strings.Join(markers, ", "), answer)
}

func recMarker(n int) string {
	return fmt.Sprintf("===REC %d===", n)
}
