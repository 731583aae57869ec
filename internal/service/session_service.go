package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"kt-assistant-be/internal/constant"
	"kt-assistant-be/internal/dto"
	"kt-assistant-be/internal/entity"
	"kt-assistant-be/internal/pkg/logger"
	"kt-assistant-be/internal/repository/memory"
	"kt-assistant-be/internal/repository/specification"
	"kt-assistant-be/internal/repository/unitofwork"
	"kt-assistant-be/pkg/coverage"
	"kt-assistant-be/pkg/extraction"
	"kt-assistant-be/pkg/kterrors"
	"kt-assistant-be/pkg/llm"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ISessionService interface {
	CreateSession(ctx context.Context) (*dto.CreateSessionResponse, error)
	SubmitTurn(ctx context.Context, sessionId uuid.UUID, req *dto.SubmitTurnRequest) (*dto.SubmitTurnResponse, error)
	UploadDocument(ctx context.Context, sessionId uuid.UUID, req *dto.UploadDocumentRequest) (*dto.UploadDocumentResponse, error)
	GetCoverage(ctx context.Context, sessionId uuid.UUID) (*dto.CoverageResponse, error)
	GetMessages(ctx context.Context, sessionId uuid.UUID) ([]dto.GetMessagesResponse, error)
}

// IFactExtractor is what the turn pipeline needs from the extraction layer.
type IFactExtractor interface {
	Extract(ctx context.Context, input extraction.TurnInput) ([]extraction.Candidate, error)
}

// IQuestionPhraser words the next interview question for a chosen focus.
type IQuestionPhraser interface {
	NextQuestion(ctx context.Context, focus *coverage.Focus, history []llm.Message) string
}

type sessionService struct {
	uowFactory   unitofwork.RepositoryFactory
	locks        *memory.SessionLockRepository
	extractor    IFactExtractor
	interrogator IQuestionPhraser
	publisher    IPublisherService
	catalog      []coverage.TopicDefinition
	threshold    int
	sysLogger    logger.ILogger
}

func NewSessionService(
	uowFactory unitofwork.RepositoryFactory,
	locks *memory.SessionLockRepository,
	extractor IFactExtractor,
	interrogator IQuestionPhraser,
	publisher IPublisherService,
	catalog []coverage.TopicDefinition,
	threshold int,
	sysLogger logger.ILogger,
) ISessionService {
	return &sessionService{
		uowFactory:   uowFactory,
		locks:        locks,
		extractor:    extractor,
		interrogator: interrogator,
		publisher:    publisher,
		catalog:      catalog,
		threshold:    threshold,
		sysLogger:    sysLogger,
	}
}

func (s *sessionService) CreateSession(ctx context.Context) (*dto.CreateSessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session := &entity.Session{
		Status: constant.SessionStatusActive,
	}
	if err := uow.SessionRepository().Create(ctx, session); err != nil {
		return nil, err
	}

	states := make([]*entity.TopicState, len(s.catalog))
	for i, def := range s.catalog {
		states[i] = &entity.TopicState{
			SessionId: session.Id,
			TopicId:   def.Id,
			TopicName: def.Name,
			Score:     0,
			Status:    constant.TopicStatusPending,
		}
	}
	if err := uow.TopicStateRepository().CreateBulk(ctx, states); err != nil {
		return nil, err
	}

	greeting := &entity.Message{
		SessionId: session.Id,
		Role:      constant.MessageRoleAssistant,
		Content:   constant.GreetingMessage,
	}
	if err := uow.MessageRepository().Create(ctx, greeting); err != nil {
		return nil, err
	}

	s.sysLogger.Info("session", "session created", map[string]interface{}{
		"session_id": session.Id.String(),
		"topics":     len(s.catalog),
	})

	return &dto.CreateSessionResponse{
		Id:       session.Id,
		Greeting: constant.GreetingMessage,
		Topics:   s.buildTopicDTOs(states, map[string][]entity.Fact{}),
	}, nil
}

func (s *sessionService) SubmitTurn(ctx context.Context, sessionId uuid.UUID, req *dto.SubmitTurnRequest) (*dto.SubmitTurnResponse, error) {
	lock := s.locks.Get(sessionId.String())
	lock.Lock()
	defer lock.Unlock()

	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, states, factsByTopic, err := s.loadSessionState(ctx, uow, sessionId)
	if err != nil {
		return nil, err
	}
	if session.Status == constant.SessionStatusComplete {
		return nil, fiber.NewError(fiber.StatusConflict, "session already complete")
	}

	turnIndex := session.TurnCount

	// External call stays outside the transaction.
	candidates := s.extractCandidates(ctx, session.Id, req.Text, turnIndex, states, factsByTopic)

	newFacts := s.candidatesToFacts(session.Id, candidates, fmt.Sprintf("turn:%d", turnIndex), turnIndex)

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	userMsg := &entity.Message{
		SessionId: session.Id,
		Role:      constant.MessageRoleUser,
		Content:   req.Text,
		Metadata:  map[string]interface{}{"turn_index": turnIndex},
	}
	if err := uow.MessageRepository().Create(ctx, userMsg); err != nil {
		_ = uow.Rollback()
		return nil, err
	}

	events, err := s.applyFacts(ctx, uow, session, states, factsByTopic, newFacts)
	if err != nil {
		_ = uow.Rollback()
		return nil, err
	}

	session.TurnCount = turnIndex + 1
	if err := uow.SessionRepository().Update(ctx, session); err != nil {
		_ = uow.Rollback()
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, events)

	focus := coverage.NextFocus(s.catalog, states, factsByTopic)
	history := s.conversationHistory(ctx, uow, session.Id)
	question := s.interrogator.NextQuestion(ctx, focus, history)

	assistantMsg := &entity.Message{
		SessionId: session.Id,
		Role:      constant.MessageRoleAssistant,
		Content:   question,
		Metadata:  map[string]interface{}{"turn_index": turnIndex},
	}
	if err := uow.MessageRepository().Create(ctx, assistantMsg); err != nil {
		s.sysLogger.Warn("session", "failed to persist assistant message", map[string]interface{}{
			"session_id": session.Id.String(),
			"error":      err.Error(),
		})
	}

	var focusDTO *dto.FocusDTO
	if focus != nil {
		focusDTO = &dto.FocusDTO{
			TopicId:        focus.TopicId,
			TopicName:      focus.TopicName,
			MissingAspects: aspectNames(focus.MissingAspects),
		}
	}

	return &dto.SubmitTurnResponse{
		SessionId:         session.Id,
		SessionStatus:     session.Status,
		TurnIndex:         turnIndex,
		Question:          question,
		ExtractedFacts:    len(newFacts),
		OverallConfidence: session.OverallConfidence,
		Topics:            s.buildTopicDTOs(statesSlice(s.catalog, states), factsByTopic),
		Focus:             focusDTO,
	}, nil
}

func (s *sessionService) UploadDocument(ctx context.Context, sessionId uuid.UUID, req *dto.UploadDocumentRequest) (*dto.UploadDocumentResponse, error) {
	lock := s.locks.Get(sessionId.String())
	lock.Lock()
	defer lock.Unlock()

	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, states, factsByTopic, err := s.loadSessionState(ctx, uow, sessionId)
	if err != nil {
		return nil, err
	}
	if session.Status == constant.SessionStatusComplete {
		return nil, fiber.NewError(fiber.StatusConflict, "session already complete")
	}

	turnIndex := session.TurnCount

	candidates := s.extractCandidates(ctx, session.Id, req.Content, turnIndex, states, factsByTopic)
	newFacts := s.candidatesToFacts(session.Id, candidates, constant.ProvenanceDocument, turnIndex)

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	events, err := s.applyFacts(ctx, uow, session, states, factsByTopic, newFacts)
	if err != nil {
		_ = uow.Rollback()
		return nil, err
	}

	if err := uow.SessionRepository().Update(ctx, session); err != nil {
		_ = uow.Rollback()
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, events)

	s.sysLogger.Info("session", "document ingested", map[string]interface{}{
		"session_id": session.Id.String(),
		"title":      req.Title,
		"facts":      len(newFacts),
	})

	return &dto.UploadDocumentResponse{
		SessionId:         session.Id,
		ExtractedFacts:    len(newFacts),
		OverallConfidence: session.OverallConfidence,
		Topics:            s.buildTopicDTOs(statesSlice(s.catalog, states), factsByTopic),
	}, nil
}

func (s *sessionService) GetCoverage(ctx context.Context, sessionId uuid.UUID) (*dto.CoverageResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, states, factsByTopic, err := s.loadSessionState(ctx, uow, sessionId)
	if err != nil {
		return nil, err
	}

	// Searchable as soon as any topic's units landed in the vector store.
	searchable := false
	for _, st := range states {
		if st.Indexed {
			searchable = true
			break
		}
	}

	return &dto.CoverageResponse{
		SessionId:         session.Id,
		SessionStatus:     session.Status,
		OverallConfidence: session.OverallConfidence,
		Complete:          session.Status == constant.SessionStatusComplete,
		Searchable:        searchable,
		Topics:            s.buildTopicDTOs(statesSlice(s.catalog, states), factsByTopic),
	}, nil
}

func (s *sessionService) GetMessages(ctx context.Context, sessionId uuid.UUID) ([]dto.GetMessagesResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.SessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "session not found")
	}

	messages, err := uow.MessageRepository().FindAll(ctx,
		specification.BySessionID{SessionID: sessionId},
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		return nil, err
	}

	res := make([]dto.GetMessagesResponse, len(messages))
	for i, m := range messages {
		turnIdx := 0
		switch v := m.Metadata["turn_index"].(type) {
		case float64: // json round-trip
			turnIdx = int(v)
		case int:
			turnIdx = v
		}
		res[i] = dto.GetMessagesResponse{
			Id:        m.Id,
			Role:      m.Role,
			Content:   m.Content,
			TurnIndex: turnIdx,
			CreatedAt: m.CreatedAt,
		}
	}
	return res, nil
}

// loadSessionState fetches the session, its topic states keyed by topic id and
// the effective (post-supersede) facts grouped per topic.
func (s *sessionService) loadSessionState(ctx context.Context, uow unitofwork.UnitOfWork, sessionId uuid.UUID) (*entity.Session, map[string]*entity.TopicState, map[string][]entity.Fact, error) {
	session, err := uow.SessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return nil, nil, nil, err
	}
	if session == nil {
		return nil, nil, nil, fiber.NewError(fiber.StatusNotFound, "session not found")
	}

	stateList, err := uow.TopicStateRepository().FindAll(ctx, specification.BySessionID{SessionID: sessionId})
	if err != nil {
		return nil, nil, nil, err
	}
	states := make(map[string]*entity.TopicState, len(stateList))
	for _, st := range stateList {
		states[st.TopicId] = st
	}

	facts, err := uow.FactRepository().FindAll(ctx, specification.BySessionID{SessionID: sessionId})
	if err != nil {
		return nil, nil, nil, err
	}

	grouped := make(map[string][]entity.Fact)
	for _, f := range facts {
		grouped[f.TopicId] = append(grouped[f.TopicId], *f)
	}
	factsByTopic := make(map[string][]entity.Fact, len(grouped))
	for topicId, topicFacts := range grouped {
		factsByTopic[topicId] = coverage.EffectiveFacts(topicFacts)
	}

	return session, states, factsByTopic, nil
}

// extractCandidates calls the extraction layer and degrades to zero candidates
// on failure. A failed extraction must not lose the turn or mutate coverage.
func (s *sessionService) extractCandidates(ctx context.Context, sessionId uuid.UUID, text string, turnIndex int, states map[string]*entity.TopicState, factsByTopic map[string][]entity.Fact) []extraction.Candidate {
	gaps := make(map[string][]coverage.SubAspect)
	var priorFacts []entity.Fact
	for _, def := range s.catalog {
		priorFacts = append(priorFacts, factsByTopic[def.Id]...)
		state, ok := states[def.Id]
		if ok && state.IsComplete() {
			continue
		}
		covered := coverage.CoveredAspects(def, factsByTopic[def.Id])
		var missing []coverage.SubAspect
		for _, a := range def.SubAspects {
			if !covered[a.Key] {
				missing = append(missing, a)
			}
		}
		if len(missing) > 0 {
			gaps[def.Id] = missing
		}
	}

	candidates, err := s.extractor.Extract(ctx, extraction.TurnInput{
		Text:       text,
		TurnIndex:  turnIndex,
		PriorFacts: priorFacts,
		Gaps:       gaps,
	})
	if err != nil {
		level := s.sysLogger.Error
		if kterrors.IsFormatError(err) {
			level = s.sysLogger.Warn
		}
		level("session", "fact extraction failed, turn continues without new facts", map[string]interface{}{
			"session_id": sessionId.String(),
			"turn_index": turnIndex,
			"error":      err.Error(),
		})
		return nil
	}
	return candidates
}

func (s *sessionService) candidatesToFacts(sessionId uuid.UUID, candidates []extraction.Candidate, provenance string, turnIndex int) []*entity.Fact {
	facts := make([]*entity.Fact, len(candidates))
	for i, c := range candidates {
		facts[i] = &entity.Fact{
			SessionId:    sessionId,
			TopicId:      c.TopicId,
			AspectKey:    c.AspectKey,
			SupersedeKey: c.Key,
			Statement:    c.Statement,
			Payload:      c.Payload,
			Provenance:   provenance,
			TurnIndex:    turnIndex,
			Weight:       c.Weight,
		}
	}
	return facts
}

type pendingEvent struct {
	topic   string
	payload []byte
}

// applyFacts persists new facts, rescores touched topics, latches completions
// and recomputes the session aggregate. Returned events must be published
// after the surrounding transaction commits.
func (s *sessionService) applyFacts(ctx context.Context, uow unitofwork.UnitOfWork, session *entity.Session, states map[string]*entity.TopicState, factsByTopic map[string][]entity.Fact, newFacts []*entity.Fact) ([]pendingEvent, error) {
	if len(newFacts) > 0 {
		if err := uow.FactRepository().CreateBulk(ctx, newFacts); err != nil {
			return nil, err
		}
	}

	touched := make(map[string]bool)
	for _, f := range newFacts {
		factsByTopic[f.TopicId] = coverage.EffectiveFacts(append(factsByTopic[f.TopicId], *f))
		touched[f.TopicId] = true
	}

	var events []pendingEvent
	for _, def := range s.catalog {
		if !touched[def.Id] {
			continue
		}
		state, ok := states[def.Id]
		if !ok {
			s.sysLogger.Warn("session", "fact for unknown topic state", map[string]interface{}{
				"session_id": session.Id.String(),
				"topic_id":   def.Id,
			})
			continue
		}

		state.Score = coverage.Score(def, factsByTopic[def.Id])
		state.FactVersion++
		if state.Status == constant.TopicStatusPending {
			state.Status = constant.TopicStatusInProgress
		}

		if state.IsComplete() {
			// Already latched: new facts only trigger a re-index.
			state.Indexed = false
			events = append(events, s.topicCompletedEvent(session.Id, state))
		} else if state.Score >= s.threshold {
			now := time.Now()
			state.CompletedAt = &now
			state.Status = constant.TopicStatusComplete
			state.Indexed = false
			events = append(events, s.topicCompletedEvent(session.Id, state))
			s.sysLogger.Info("session", "topic completed", map[string]interface{}{
				"session_id": session.Id.String(),
				"topic_id":   state.TopicId,
				"score":      state.Score,
			})
		}

		if err := uow.TopicStateRepository().Update(ctx, state); err != nil {
			return nil, err
		}
	}

	total := 0
	allComplete := len(s.catalog) > 0
	for _, def := range s.catalog {
		if state, ok := states[def.Id]; ok {
			total += state.Score
			if !state.IsComplete() {
				allComplete = false
			}
		} else {
			allComplete = false
		}
	}
	if len(s.catalog) > 0 {
		session.OverallConfidence = total / len(s.catalog)
	}

	if allComplete && session.Status != constant.SessionStatusComplete {
		session.Status = constant.SessionStatusComplete
		payload, _ := json.Marshal(dto.SessionCompletedEvent{SessionId: session.Id})
		events = append(events, pendingEvent{topic: constant.EventSessionCompleted, payload: payload})
		s.sysLogger.Info("session", "session completed", map[string]interface{}{
			"session_id": session.Id.String(),
		})
	}

	return events, nil
}

func (s *sessionService) topicCompletedEvent(sessionId uuid.UUID, state *entity.TopicState) pendingEvent {
	payload, _ := json.Marshal(dto.TopicCompletedEvent{
		SessionId:   sessionId,
		TopicId:     state.TopicId,
		FactVersion: state.FactVersion,
	})
	return pendingEvent{topic: constant.EventTopicCompleted, payload: payload}
}

func (s *sessionService) publishEvents(ctx context.Context, events []pendingEvent) {
	for _, evt := range events {
		if err := s.publisher.Publish(ctx, evt.topic, evt.payload); err != nil {
			s.sysLogger.Error("session", "failed to publish event", map[string]interface{}{
				"topic": evt.topic,
				"error": err.Error(),
			})
		}
	}
}

func (s *sessionService) conversationHistory(ctx context.Context, uow unitofwork.UnitOfWork, sessionId uuid.UUID) []llm.Message {
	messages, err := uow.MessageRepository().FindAll(ctx,
		specification.BySessionID{SessionID: sessionId},
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		s.sysLogger.Warn("session", "failed to load history", map[string]interface{}{
			"session_id": sessionId.String(),
			"error":      err.Error(),
		})
		return nil
	}

	history := make([]llm.Message, len(messages))
	for i, m := range messages {
		history[i] = llm.Message{Role: m.Role, Content: m.Content}
	}
	return history
}

func (s *sessionService) buildTopicDTOs(states []*entity.TopicState, factsByTopic map[string][]entity.Fact) []dto.TopicCoverageDTO {
	res := make([]dto.TopicCoverageDTO, 0, len(states))
	for _, state := range states {
		if state == nil {
			continue
		}
		item := dto.TopicCoverageDTO{
			TopicId:   state.TopicId,
			Name:      state.TopicName,
			Status:    state.Status,
			Score:     state.Score,
			FactCount: len(factsByTopic[state.TopicId]),
			Indexed:   state.Indexed,
		}
		if def, ok := coverage.FindTopic(s.catalog, state.TopicId); ok && !state.IsComplete() {
			covered := coverage.CoveredAspects(def, factsByTopic[state.TopicId])
			for _, a := range def.SubAspects {
				if !covered[a.Key] {
					item.MissingAspects = append(item.MissingAspects, a.Name)
				}
			}
		}
		res = append(res, item)
	}
	return res
}

// statesSlice orders the state map by catalog declaration order.
func statesSlice(catalog []coverage.TopicDefinition, states map[string]*entity.TopicState) []*entity.TopicState {
	res := make([]*entity.TopicState, 0, len(catalog))
	for _, def := range catalog {
		if state, ok := states[def.Id]; ok {
			res = append(res, state)
		}
	}
	return res
}

func aspectNames(aspects []coverage.SubAspect) []string {
	names := make([]string, len(aspects))
	for i, a := range aspects {
		names[i] = a.Name
	}
	return names
}
