package gateway

import (
	"fmt"
	"strings"
)

const assistantInstruction = `You are an expert assistant for operational debriefs and after-action reviews.
Help the user understand the gaps between plan and reality, identify root causes and
turn them into concrete, actionable lessons. Be concise and practical.`

const apologyText = "Sorry, something went wrong while talking to the assistant. Please try again."

const missingCredentialText = "The assistant is not connected. Run `debrief connect` to add an API key."

func gapsPrompt(planned, actual string) string {
	return fmt.Sprintf(`An event was planned and then carried out.

Plan:
%s

What actually happened:
%s

Identify the 3 to 5 most significant gaps between the plan and the execution.
Phrase each gap as one short sentence. Answer in JSON only.`, planned, actual)
}

func conclusionsPrompt(gaps []string) string {
	return fmt.Sprintf(`The following gaps were identified in a debrief:
%s

Perform a root cause analysis (five whys) and propose operative conclusions
that would prevent the gaps from recurring. Answer in JSON only.`, numbered(gaps))
}

func deepAnalysisPrompt(planned, actual string, gaps []string) string {
	return fmt.Sprintf(`Perform a root cause analysis (RCA) of the following event.

Plan:
%s

What actually happened:
%s

Identified gaps:
%s

Return an in-depth analysis in JSON with:
1. rootCauses: the root causes, one per entry.
2. analysis: a free text analysis of the situation (markdown allowed).
3. recommendations: operative recommendations, one per entry.`, planned, actual, numbered(gaps))
}

func numbered(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}

	var sb strings.Builder
	for i, item := range items {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, item)
	}
	return strings.TrimRight(sb.String(), "\n")
}
