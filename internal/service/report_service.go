package service

import (
	"context"
	"fmt"
	"strings"

	"kt-assistant-be/internal/dto"
	"kt-assistant-be/internal/entity"
	"kt-assistant-be/internal/pkg/logger"
	"kt-assistant-be/internal/repository/specification"
	"kt-assistant-be/internal/repository/unitofwork"
	"kt-assistant-be/pkg/coverage"
	"kt-assistant-be/pkg/kterrors"
	"kt-assistant-be/pkg/llm"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IReportService interface {
	GenerateReport(ctx context.Context, sessionId uuid.UUID) (*dto.ReportResponse, error)
}

// reportService renders the final KT handover document from the session's
// effective facts. Works on any session, complete or not; partial sessions
// simply produce a report with gaps called out.
type reportService struct {
	uowFactory  unitofwork.RepositoryFactory
	llmProvider llm.LLMProvider
	catalog     []coverage.TopicDefinition
	sysLogger   logger.ILogger
}

func NewReportService(
	uowFactory unitofwork.RepositoryFactory,
	llmProvider llm.LLMProvider,
	catalog []coverage.TopicDefinition,
	sysLogger logger.ILogger,
) IReportService {
	return &reportService{
		uowFactory:  uowFactory,
		llmProvider: llmProvider,
		catalog:     catalog,
		sysLogger:   sysLogger,
	}
}

func (s *reportService) GenerateReport(ctx context.Context, sessionId uuid.UUID) (*dto.ReportResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.SessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "session not found")
	}

	rawFacts, err := uow.FactRepository().FindAll(ctx, specification.BySessionID{SessionID: sessionId})
	if err != nil {
		return nil, err
	}
	facts := make([]entity.Fact, len(rawFacts))
	for i, f := range rawFacts {
		facts[i] = *f
	}

	states, err := uow.TopicStateRepository().FindAll(ctx, specification.BySessionID{SessionID: sessionId})
	if err != nil {
		return nil, err
	}
	scoreByTopic := make(map[string]int, len(states))
	for _, st := range states {
		scoreByTopic[st.TopicId] = st.Score
	}

	var b strings.Builder
	for _, def := range s.catalog {
		var topicFacts []entity.Fact
		for _, f := range facts {
			if f.TopicId == def.Id {
				topicFacts = append(topicFacts, f)
			}
		}
		topicFacts = coverage.EffectiveFacts(topicFacts)

		b.WriteString(fmt.Sprintf("## %s (coverage %d%%)\n", def.Name, scoreByTopic[def.Id]))
		if len(topicFacts) == 0 {
			b.WriteString("No facts captured.\n\n")
			continue
		}
		for _, f := range topicFacts {
			b.WriteString(fmt.Sprintf("- [%s] %s (source: %s)\n", f.AspectKey, f.Statement, f.Provenance))
		}
		b.WriteString("\n")
	}

	prompt := fmt.Sprintf(`Write a Knowledge Transfer handover document in Markdown from the verified facts below.
Structure it per topic, keep every technical detail, explicitly flag topics with low coverage as incomplete.
Do not invent information that is not in the facts.

%s`, b.String())

	report, err := s.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.3))
	if err != nil {
		return nil, &kterrors.TransientExternalError{Op: "report generation", Err: err}
	}

	s.sysLogger.Info("report", "handover report generated", map[string]interface{}{
		"session_id": sessionId.String(),
		"facts":      len(facts),
	})

	return &dto.ReportResponse{
		SessionId: sessionId,
		Report:    report,
	}, nil
}
