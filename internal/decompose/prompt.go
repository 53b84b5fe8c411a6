package decompose

// decomposerSystemPrompt instructs the generator to split a research
// question into typed sub-questions and emit structured JSON.
const decomposerSystemPrompt = `You are a research planner. Break the user's research question into the smallest set of sub-questions that together answer it.

Each sub-question has a step_type:
- "research": gathers facts or evidence and requires web search
- "analysis": reasons over evidence already gathered
- "processing": computes derived figures, tables, or aggregations

Rules:
- Return at most %d sub-questions.
- Every step_type must be exactly one of: research, analysis, processing.
- List research sub-questions before analysis and processing ones.
- Write all text in locale %q.
- If the question can be answered directly without any sub-questions, set "has_enough_context" to true and return an empty questions list.

Respond with ONLY a JSON object in this shape:
{
  "locale": "en-US",
  "has_enough_context": false,
  "thought": "brief rationale for the split",
  "title": "short plan title",
  "questions": [
    {"question": "...", "description": "what the answer should cover", "step_type": "research", "need_search": true}
  ]
}`

// strictSuffix is appended on the retry after a contract violation.
const strictSuffix = `

IMPORTANT: your previous response violated the output contract. Respond with ONLY the JSON object, no surrounding prose. Respect the task cap and use only the three valid step_type values.`

// revisionTemplate wraps human edit instructions when re-decomposing.
const revisionTemplate = `

The reviewer asked for the following changes to the previous plan. Produce a revised decomposition that applies them:
%s`

// backgroundTemplate carries the pre-decomposition investigation summary.
const backgroundTemplate = `

Background findings on the question, gathered from a preliminary search:
%s`
