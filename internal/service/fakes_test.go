package service

import (
	"context"
	"sync"
	"time"

	"kt-assistant-be/internal/entity"
	"kt-assistant-be/internal/repository/contract"
	"kt-assistant-be/internal/repository/specification"
	"kt-assistant-be/internal/repository/unitofwork"
	"kt-assistant-be/pkg/coverage"
	"kt-assistant-be/pkg/extraction"
	"kt-assistant-be/pkg/llm"

	"github.com/google/uuid"
)

// memStore is the shared in-memory backing for the fake repositories.
type memStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*entity.Session
	states   map[uuid.UUID]*entity.TopicState
	facts    map[uuid.UUID]*entity.Fact
	messages map[uuid.UUID]*entity.Message
	vectors  map[uuid.UUID]*entity.KnowledgeEmbedding
}

func newMemStore() *memStore {
	return &memStore{
		sessions: make(map[uuid.UUID]*entity.Session),
		states:   make(map[uuid.UUID]*entity.TopicState),
		facts:    make(map[uuid.UUID]*entity.Fact),
		messages: make(map[uuid.UUID]*entity.Message),
		vectors:  make(map[uuid.UUID]*entity.KnowledgeEmbedding),
	}
}

type specFilter struct {
	id            *uuid.UUID
	sessionId     *uuid.UUID
	topicId       *string
	activeBefore  *time.Time
	hasOrdering   bool
	orderingField string
}

func parseSpecs(specs []specification.Specification) specFilter {
	var f specFilter
	for _, s := range specs {
		switch v := s.(type) {
		case specification.ByID:
			id := v.ID
			f.id = &id
		case specification.BySessionID:
			id := v.SessionID
			f.sessionId = &id
		case specification.ByTopicID:
			t := v.TopicID
			f.topicId = &t
		case specification.LastActivityBefore:
			ts := v.T
			f.activeBefore = &ts
		case specification.OrderBy:
			f.hasOrdering = true
			f.orderingField = v.Field
		}
	}
	return f
}

// --- unit of work ---

type fakeFactory struct {
	store *memStore
}

func (f *fakeFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &fakeUow{store: f.store}
}

type fakeUow struct {
	store *memStore
}

func (u *fakeUow) Begin(ctx context.Context) error { return nil }
func (u *fakeUow) Commit() error                   { return nil }
func (u *fakeUow) Rollback() error                 { return nil }

func (u *fakeUow) SessionRepository() contract.SessionRepository {
	return &fakeSessionRepo{store: u.store}
}
func (u *fakeUow) TopicStateRepository() contract.TopicStateRepository {
	return &fakeTopicStateRepo{store: u.store}
}
func (u *fakeUow) FactRepository() contract.FactRepository {
	return &fakeFactRepo{store: u.store}
}
func (u *fakeUow) MessageRepository() contract.MessageRepository {
	return &fakeMessageRepo{store: u.store}
}
func (u *fakeUow) KnowledgeEmbeddingRepository() contract.KnowledgeEmbeddingRepository {
	return &fakeVectorRepo{store: u.store}
}

// --- sessions ---

type fakeSessionRepo struct {
	store *memStore
}

func (r *fakeSessionRepo) Create(ctx context.Context, s *entity.Session) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if s.Id == uuid.Nil {
		s.Id = uuid.New()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	cp := *s
	r.store.sessions[s.Id] = &cp
	return nil
}

func (r *fakeSessionRepo) Update(ctx context.Context, s *entity.Session) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	now := time.Now()
	s.UpdatedAt = &now
	cp := *s
	r.store.sessions[s.Id] = &cp
	return nil
}

func (r *fakeSessionRepo) Touch(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if s, ok := r.store.sessions[id]; ok {
		now := time.Now()
		s.UpdatedAt = &now
	}
	return nil
}

func (r *fakeSessionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.DeleteUnscoped(ctx, id)
}

func (r *fakeSessionRepo) DeleteUnscoped(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.sessions, id)
	return nil
}

func (r *fakeSessionRepo) lastActivity(s *entity.Session) time.Time {
	if s.UpdatedAt != nil {
		return *s.UpdatedAt
	}
	return s.CreatedAt
}

func (r *fakeSessionRepo) matches(s *entity.Session, f specFilter) bool {
	if f.id != nil && s.Id != *f.id {
		return false
	}
	if f.activeBefore != nil && !r.lastActivity(s).Before(*f.activeBefore) {
		return false
	}
	return true
}

func (r *fakeSessionRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Session, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	f := parseSpecs(specs)
	for _, s := range r.store.sessions {
		if r.matches(s, f) {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeSessionRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Session, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	f := parseSpecs(specs)
	var res []*entity.Session
	for _, s := range r.store.sessions {
		if r.matches(s, f) {
			cp := *s
			res = append(res, &cp)
		}
	}
	return res, nil
}

func (r *fakeSessionRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, _ := r.FindAll(ctx, specs...)
	return int64(len(all)), nil
}

// --- topic states ---

type fakeTopicStateRepo struct {
	store *memStore
}

func (r *fakeTopicStateRepo) Create(ctx context.Context, st *entity.TopicState) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if st.Id == uuid.Nil {
		st.Id = uuid.New()
	}
	cp := *st
	r.store.states[st.Id] = &cp
	return nil
}

func (r *fakeTopicStateRepo) CreateBulk(ctx context.Context, states []*entity.TopicState) error {
	for _, st := range states {
		if err := r.Create(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeTopicStateRepo) Update(ctx context.Context, st *entity.TopicState) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *st
	r.store.states[st.Id] = &cp
	return nil
}

func (r *fakeTopicStateRepo) DeleteBySessionIdUnscoped(ctx context.Context, sessionId uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for id, st := range r.store.states {
		if st.SessionId == sessionId {
			delete(r.store.states, id)
		}
	}
	return nil
}

func stateMatches(st *entity.TopicState, f specFilter) bool {
	if f.id != nil && st.Id != *f.id {
		return false
	}
	if f.sessionId != nil && st.SessionId != *f.sessionId {
		return false
	}
	if f.topicId != nil && st.TopicId != *f.topicId {
		return false
	}
	return true
}

func (r *fakeTopicStateRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.TopicState, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	f := parseSpecs(specs)
	for _, st := range r.store.states {
		if stateMatches(st, f) {
			cp := *st
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeTopicStateRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.TopicState, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	f := parseSpecs(specs)
	var res []*entity.TopicState
	for _, st := range r.store.states {
		if stateMatches(st, f) {
			cp := *st
			res = append(res, &cp)
		}
	}
	return res, nil
}

// --- facts ---

type fakeFactRepo struct {
	store *memStore
}

func (r *fakeFactRepo) Create(ctx context.Context, fct *entity.Fact) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if fct.Id == uuid.Nil {
		fct.Id = uuid.New()
	}
	if fct.CreatedAt.IsZero() {
		fct.CreatedAt = time.Now()
	}
	cp := *fct
	r.store.facts[fct.Id] = &cp
	return nil
}

func (r *fakeFactRepo) CreateBulk(ctx context.Context, facts []*entity.Fact) error {
	for _, fct := range facts {
		if err := r.Create(ctx, fct); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeFactRepo) DeleteBySessionIdUnscoped(ctx context.Context, sessionId uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for id, fct := range r.store.facts {
		if fct.SessionId == sessionId {
			delete(r.store.facts, id)
		}
	}
	return nil
}

func factMatches(fct *entity.Fact, f specFilter) bool {
	if f.sessionId != nil && fct.SessionId != *f.sessionId {
		return false
	}
	if f.topicId != nil && fct.TopicId != *f.topicId {
		return false
	}
	return true
}

func (r *fakeFactRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Fact, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	f := parseSpecs(specs)
	var res []*entity.Fact
	for _, fct := range r.store.facts {
		if factMatches(fct, f) {
			cp := *fct
			res = append(res, &cp)
		}
	}
	return res, nil
}

func (r *fakeFactRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, _ := r.FindAll(ctx, specs...)
	return int64(len(all)), nil
}

// --- messages ---

type fakeMessageRepo struct {
	store *memStore
}

func (r *fakeMessageRepo) Create(ctx context.Context, m *entity.Message) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if m.Id == uuid.Nil {
		m.Id = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	cp := *m
	r.store.messages[m.Id] = &cp
	return nil
}

func (r *fakeMessageRepo) DeleteBySessionIdUnscoped(ctx context.Context, sessionId uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for id, m := range r.store.messages {
		if m.SessionId == sessionId {
			delete(r.store.messages, id)
		}
	}
	return nil
}

func (r *fakeMessageRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Message, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	f := parseSpecs(specs)
	var res []*entity.Message
	for _, m := range r.store.messages {
		if f.sessionId != nil && m.SessionId != *f.sessionId {
			continue
		}
		cp := *m
		res = append(res, &cp)
	}
	return res, nil
}

// --- vectors ---

type fakeVectorRepo struct {
	store *memStore
}

func (r *fakeVectorRepo) UpsertBulk(ctx context.Context, embeddings []*entity.KnowledgeEmbedding) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, e := range embeddings {
		cp := *e
		r.store.vectors[e.Id] = &cp
	}
	return nil
}

func (r *fakeVectorRepo) DeleteBySessionIdUnscoped(ctx context.Context, sessionId uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for id, e := range r.store.vectors {
		if e.SessionId == sessionId {
			delete(r.store.vectors, id)
		}
	}
	return nil
}

func (r *fakeVectorRepo) DeleteBySessionTopicUnscoped(ctx context.Context, sessionId uuid.UUID, topicId string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for id, e := range r.store.vectors {
		if e.SessionId == sessionId && e.TopicId == topicId {
			delete(r.store.vectors, id)
		}
	}
	return nil
}

func (r *fakeVectorRepo) DeleteWhereSessionNotIn(ctx context.Context, sessionIds []uuid.UUID) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	keep := make(map[uuid.UUID]bool, len(sessionIds))
	for _, id := range sessionIds {
		keep[id] = true
	}
	var n int64
	for id, e := range r.store.vectors {
		if !keep[e.SessionId] {
			delete(r.store.vectors, id)
			n++
		}
	}
	return n, nil
}

func (r *fakeVectorRepo) CountWhereSessionNotIn(ctx context.Context, sessionIds []uuid.UUID) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	keep := make(map[uuid.UUID]bool, len(sessionIds))
	for _, id := range sessionIds {
		keep[id] = true
	}
	var n int64
	for _, e := range r.store.vectors {
		if !keep[e.SessionId] {
			n++
		}
	}
	return n, nil
}

func (r *fakeVectorRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.KnowledgeEmbedding, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	f := parseSpecs(specs)
	var res []*entity.KnowledgeEmbedding
	for _, e := range r.store.vectors {
		if f.sessionId != nil && e.SessionId != *f.sessionId {
			continue
		}
		if f.topicId != nil && e.TopicId != *f.topicId {
			continue
		}
		cp := *e
		res = append(res, &cp)
	}
	return res, nil
}

func (r *fakeVectorRepo) SearchSimilar(ctx context.Context, embedding []float32, limit int, sessionId uuid.UUID, topicId string) ([]*contract.ScoredKnowledgeEmbedding, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var res []*contract.ScoredKnowledgeEmbedding
	for _, e := range r.store.vectors {
		if e.SessionId != sessionId {
			continue
		}
		if topicId != "" && e.TopicId != topicId {
			continue
		}
		cp := *e
		res = append(res, &contract.ScoredKnowledgeEmbedding{Embedding: &cp, Similarity: 1})
		if len(res) == limit {
			break
		}
	}
	return res, nil
}

// --- collaborators ---

type fakeExtractor struct {
	candidates []extraction.Candidate
	err        error
	calls      int
	lastInput  extraction.TurnInput
}

func (f *fakeExtractor) Extract(ctx context.Context, input extraction.TurnInput) ([]extraction.Candidate, error) {
	f.calls++
	f.lastInput = input
	if f.err != nil {
		return nil, f.err
	}
	return f.candidates, nil
}

type fakePhraser struct {
	question  string
	lastFocus *coverage.Focus
}

func (f *fakePhraser) NextQuestion(ctx context.Context, focus *coverage.Focus, history []llm.Message) string {
	f.lastFocus = focus
	if focus == nil {
		return "All topics covered."
	}
	return f.question
}

type publishedEvent struct {
	topic   string
	payload []byte
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (f *fakePublisher) Publish(ctx context.Context, topic string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, publishedEvent{topic: topic, payload: payload})
	return nil
}

func (f *fakePublisher) byTopic(topic string) []publishedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var res []publishedEvent
	for _, e := range f.events {
		if e.topic == topic {
			res = append(res, e)
		}
	}
	return res
}
