package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"kt-assistant-be/internal/entity"
	"kt-assistant-be/pkg/coverage"
	"kt-assistant-be/pkg/kterrors"
	"kt-assistant-be/pkg/llm"
)

// Candidate is one extracted fact proposal before it is merged into a topic.
type Candidate struct {
	TopicId   string            `json:"topic_id"`
	AspectKey string            `json:"aspect"`
	Statement string            `json:"statement"`
	Key       string            `json:"key,omitempty"`
	Payload   map[string]string `json:"payload,omitempty"`
	Weight    float64           `json:"weight"`
}

type envelope struct {
	Facts []Candidate `json:"facts"`
}

// TurnInput carries one conversational turn plus the session context needed to
// bias extraction toward what is still missing and away from duplicates.
type TurnInput struct {
	Text       string
	TurnIndex  int
	Provenance string
	PriorFacts []entity.Fact
	Gaps       map[string][]coverage.SubAspect
}

// Extractor turns a conversational turn into validated fact candidates.
// Stateless; every call stands alone.
type Extractor struct {
	llmProvider llm.LLMProvider
	catalog     []coverage.TopicDefinition
	maxRetries  int
	retryDelay  time.Duration
	callTimeout time.Duration
}

func NewExtractor(llmProvider llm.LLMProvider, catalog []coverage.TopicDefinition) *Extractor {
	return &Extractor{
		llmProvider: llmProvider,
		catalog:     catalog,
		maxRetries:  3,
		retryDelay:  2 * time.Second,
		callTimeout: 60 * time.Second,
	}
}

// Extract runs one extraction call against the reasoning capability.
// Transient failures are retried with exponential backoff up to the bound.
// A malformed response envelope fails with ExtractionFormatError and is never
// retried: the same input would yield the same malformed output.
func (e *Extractor) Extract(ctx context.Context, input TurnInput) ([]Candidate, error) {
	if strings.TrimSpace(input.Text) == "" {
		return nil, &kterrors.ExtractionFormatError{Reason: "empty turn text"}
	}

	prompt := e.buildPrompt(input)

	var response string
	var err error
	delay := e.retryDelay
	for attempt := 0; attempt < e.maxRetries; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
		response, err = e.llmProvider.Generate(callCtx, prompt, llm.WithTemperature(0.0))
		cancel()
		if err == nil {
			break
		}
		if attempt == e.maxRetries-1 {
			return nil, &kterrors.TransientExternalError{Op: "fact extraction", Err: err}
		}
		select {
		case <-ctx.Done():
			return nil, &kterrors.TransientExternalError{Op: "fact extraction", Err: ctx.Err()}
		case <-time.After(delay):
		}
		delay *= 2
	}

	return e.parseCandidates(response)
}

func (e *Extractor) parseCandidates(response string) ([]Candidate, error) {
	jsonContent := extractJSON(response)
	if jsonContent == "" {
		return nil, &kterrors.ExtractionFormatError{Reason: "no JSON object found in model output"}
	}

	var env envelope
	if err := json.Unmarshal([]byte(jsonContent), &env); err != nil {
		return nil, &kterrors.ExtractionFormatError{Reason: "unmarshal facts envelope", Err: err}
	}
	if env.Facts == nil {
		return nil, &kterrors.ExtractionFormatError{Reason: "missing facts array"}
	}

	// Individually malformed candidates are dropped, not fatal.
	var valid []Candidate
	for _, c := range env.Facts {
		if !e.isWellFormed(c) {
			continue
		}
		if c.Weight > 1 {
			c.Weight = 1
		}
		valid = append(valid, c)
	}
	return valid, nil
}

func (e *Extractor) isWellFormed(c Candidate) bool {
	if strings.TrimSpace(c.Statement) == "" || c.Weight <= 0 {
		return false
	}
	def, ok := coverage.FindTopic(e.catalog, c.TopicId)
	if !ok {
		return false
	}
	return def.HasAspect(c.AspectKey)
}

func (e *Extractor) buildPrompt(input TurnInput) string {
	var prompt strings.Builder

	prompt.WriteString("<system>\n")
	prompt.WriteString("You are a knowledge transfer analyzer. Extract discrete technical facts from the user's input.\n")
	prompt.WriteString("You do NOT answer or converse. You only extract facts.\n")
	prompt.WriteString("</system>\n\n")

	prompt.WriteString("<topics>\n")
	for _, def := range e.catalog {
		prompt.WriteString(fmt.Sprintf("%s: %s\n", def.Id, def.Name))
		for _, a := range def.SubAspects {
			prompt.WriteString(fmt.Sprintf("  - aspect %q: %s\n", a.Key, a.Name))
		}
	}
	prompt.WriteString("</topics>\n\n")

	if len(input.PriorFacts) > 0 {
		prompt.WriteString("<known_facts>\n")
		prompt.WriteString("Already captured. Do NOT re-extract these unless the user corrects them:\n")
		for _, f := range input.PriorFacts {
			prompt.WriteString(fmt.Sprintf("  [%s/%s] %s\n", f.TopicId, f.AspectKey, f.Statement))
		}
		prompt.WriteString("</known_facts>\n\n")
	}

	if len(input.Gaps) > 0 {
		prompt.WriteString("<missing_aspects>\n")
		prompt.WriteString("Prioritize information that fills these gaps:\n")
		for _, def := range e.catalog {
			aspects, ok := input.Gaps[def.Id]
			if !ok || len(aspects) == 0 {
				continue
			}
			keys := make([]string, len(aspects))
			for i, a := range aspects {
				keys[i] = a.Key
			}
			prompt.WriteString(fmt.Sprintf("  %s: %s\n", def.Id, strings.Join(keys, ", ")))
		}
		prompt.WriteString("</missing_aspects>\n\n")
	}

	prompt.WriteString("<user_input>\n")
	prompt.WriteString(input.Text)
	prompt.WriteString("\n</user_input>\n\n")

	prompt.WriteString("<output_format>\n")
	prompt.WriteString("Return ONLY a JSON object:\n")
	prompt.WriteString(`{"facts": [{"topic_id": "t1", "aspect": "definition", "statement": "one discrete fact", "key": "optional-stable-key-for-corrections", "payload": {"component": "..."}, "weight": 0.9}]}`)
	prompt.WriteString("\n")
	prompt.WriteString("Rules:\n")
	prompt.WriteString("- One fact per statement; a single input may yield facts for several topics.\n")
	prompt.WriteString("- weight is your relevance/confidence in (0, 1].\n")
	prompt.WriteString("- If the user corrects an earlier fact, reuse its key so the correction supersedes it.\n")
	prompt.WriteString("- If the input contains no technical knowledge, return {\"facts\": []}.\n")
	prompt.WriteString("</output_format>\n")

	return prompt.String()
}

func extractJSON(response string) string {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")

	if startIdx == -1 || endIdx == -1 || endIdx <= startIdx {
		return ""
	}

	return response[startIdx : endIdx+1]
}
