package extraction

import (
	"context"
	"fmt"
	"strings"

	"kt-assistant-be/pkg/coverage"
	"kt-assistant-be/pkg/llm"
)

// Interrogator phrases the next interview question for a chosen focus. The
// focus itself is decided deterministically by the gap detector; the model is
// only asked to word the question. Uses the secondary (cheaper) model.
type Interrogator struct {
	llmProvider    llm.LLMProvider
	secondaryModel string
	historyWindow  int
}

func NewInterrogator(llmProvider llm.LLMProvider, secondaryModel string) *Interrogator {
	return &Interrogator{
		llmProvider:    llmProvider,
		secondaryModel: secondaryModel,
		historyWindow:  10,
	}
}

// NextQuestion asks the model to phrase a follow-up targeting the focus topic's
// missing sub-aspects. Falls back to a canned question on any model failure so
// the conversation can always be steered.
func (q *Interrogator) NextQuestion(ctx context.Context, focus *coverage.Focus, history []llm.Message) string {
	if focus == nil {
		return "We have covered everything I needed. Generating your report now."
	}

	messages := []llm.Message{{Role: "system", Content: q.buildSystemPrompt(focus)}}
	if len(history) > q.historyWindow {
		history = history[len(history)-q.historyWindow:]
	}
	messages = append(messages, history...)

	opts := []llm.Option{llm.WithTemperature(0.7)}
	if q.secondaryModel != "" {
		opts = append(opts, llm.WithModel(q.secondaryModel))
	}

	response, err := q.llmProvider.Chat(ctx, messages, opts...)
	if err != nil || strings.TrimSpace(response) == "" {
		return q.fallbackQuestion(focus)
	}
	return response
}

func (q *Interrogator) buildSystemPrompt(focus *coverage.Focus) string {
	var b strings.Builder
	b.WriteString("You are a Senior Technical Architect conducting a Knowledge Transfer session.\n")
	b.WriteString(fmt.Sprintf("Current focus topic: %s (coverage %d%%).\n", focus.TopicName, focus.Score))
	if len(focus.MissingAspects) > 0 {
		names := make([]string, len(focus.MissingAspects))
		for i, a := range focus.MissingAspects {
			names[i] = a.Name
		}
		b.WriteString(fmt.Sprintf("Missing sections: %s.\n", strings.Join(names, ", ")))
	}
	b.WriteString("Guidelines:\n")
	b.WriteString("1. Ask ONE targeted follow-up question to fill in the missing sections.\n")
	b.WriteString("2. Detect vague explanations and ask for specifics (error codes, exact commands, metrics).\n")
	b.WriteString("3. Never assume missing details; always clarify.\n")
	b.WriteString("4. If the user provided a lot of info, acknowledge it briefly, then ask the most critical missing detail.\n")
	return b.String()
}

func (q *Interrogator) fallbackQuestion(focus *coverage.Focus) string {
	if len(focus.MissingAspects) == 0 {
		return fmt.Sprintf("Could you tell me more about %s?", focus.TopicName)
	}
	names := make([]string, len(focus.MissingAspects))
	for i, a := range focus.MissingAspects {
		names[i] = strings.ToLower(a.Name)
	}
	return fmt.Sprintf("Let's dig into %s. Could you walk me through the %s?",
		focus.TopicName, strings.Join(names, ", and the "))
}
