package llm

// Prompt templates for the capability methods. Every prompt that expects JSON
// back says so explicitly and forbids markdown fences, which keeps cleanJSON
// a fallback rather than a load-bearing part of the contract.

const planPrompt = `You are a research planner. Given a research question, produce a research plan.

Research question:
%s

Return ONLY a JSON object, no markdown fences, with this shape:
{
  "goal": "a one-sentence statement of what the research must establish",
  "dimensions": ["distinct aspect to investigate", "..."]
}

List between 3 and 6 dimensions. Each dimension must be a distinct aspect of the question, not a rephrasing of another.`

const initialQueriesPrompt = `You are a research assistant generating web search queries.

Research goal: %s
Dimensions to cover:
%s

Generate exactly %d search queries for the question below. Spread the queries across the dimensions. Each query must be a self-contained web search string.

Question: %s

Return ONLY the queries, one per line, with no numbering and no commentary.`

const refineQueriesPrompt = `You are a research assistant generating follow-up web search queries.

Research goal: %s
Dimensions to cover:
%s

Evidence gathered so far (summaries):
%s

Generate exactly %d NEW search queries that fill gaps in the evidence above. Do not repeat angles that are already well covered. Each query must be a self-contained web search string.

Return ONLY the queries, one per line, with no numbering and no commentary.`

const rerankPrompt = `You are scoring how relevant each stored evidence item is to a search query.

Query: %s

Candidates:
%s

For every candidate, assign a relevance score between 0.0 and 1.0.

Return ONLY a JSON object, no markdown fences, mapping each candidate id to its score:
{"scores": {"<id>": 0.87}}

Include every candidate id exactly once.`

const equivalencePrompt = `You are deciding whether stored evidence can answer new search queries.

For each query below, candidates retrieved from memory are listed with the query they originally answered and a summary of their content. A candidate is REUSABLE only if its original query has the same intent as the new query. Similar topic is NOT enough; the queries must be asking the same thing.

%s

Return ONLY a JSON object, no markdown fences, mapping each query id to the chosen candidate id, or null if no candidate is reusable:
{"<query_id>": "<candidate_id>"}

Do NOT reuse the same candidate id for more than one query. When in doubt, answer null.`

const summarizePrompt = `Summarize the following web page content in 3 to 5 sentences. Keep concrete claims, numbers, and named entities. Drop navigation text, boilerplate, and calls to action.

Content:
%s

Return ONLY the summary text.`

const metadataPrompt = `Extract publication metadata from the following web page content.

Content:
%s

Return ONLY a JSON object, no markdown fences:
{"author": "name or null", "published_date": "YYYY-MM-DD or null"}

Use null when the content does not state a value. Never guess.`

const agreementPrompt = `You are mapping support relations between evidence summaries.

Evidence:
%s

For each pair of items where one supports the other, record the relation from the supporting item to the supported item. Use exactly one of these labels:
- "strongly_supports": makes the same claim with independent backing
- "partially_supports": supports part of the claim or with caveats
- "independent": relevant to the same topic but neither supports nor contradicts

Return ONLY a JSON object, no markdown fences, of the form:
{"<source_id>": {"<target_id>": "<label>"}}

Only include pairs where a relation exists. Never relate an item to itself. Return {} if no relations exist.`

const conflictPrompt = `You are finding factual contradictions between evidence summaries.

Evidence:
%s

A conflict exists only when two items make claims that cannot both be true. Differing emphasis or scope is not a conflict.

Return ONLY a JSON object, no markdown fences:
{"conflicts": [{"ids": ["<id_a>", "<id_b>"], "claim_a": "the claim made by the first item", "claim_b": "the contradicting claim made by the second item"}]}

Each conflict pairs exactly two distinct ids. Return {"conflicts": []} if there are none.`

const rewritePrompt = `You are editing evidence summaries to remove specific claims that lost a conflict resolution.

For each summary below, rewrite it so the listed claims are gone. Keep everything else intact. Do not add new information. If removing the claims would leave nothing, return an empty string for that id.

%s

Return ONLY a JSON object, no markdown fences, mapping each id to its rewritten summary:
{"<id>": "rewritten summary"}

Include every id exactly once.`
