package integration

import (
	"context"
	"log"
	"os"
	"testing"

	"kt-assistant-be/internal/constant"
	"kt-assistant-be/internal/entity"
	"kt-assistant-be/internal/repository/specification"
	"kt-assistant-be/internal/repository/unitofwork"
	"kt-assistant-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.SessionRepository())
	assert.NotNil(t, uow.KnowledgeEmbeddingRepository())

	// Basic Ping
	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)

	t.Run("Check Session Repository", func(t *testing.T) {
		count, err := uow.SessionRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("Session count: %d", count)
	})

	t.Run("Session Lifecycle Roundtrip", func(t *testing.T) {
		ctx := context.Background()

		session := &entity.Session{Status: constant.SessionStatusActive}
		require.NoError(t, uow.SessionRepository().Create(ctx, session))
		defer func() {
			_ = uow.FactRepository().DeleteBySessionIdUnscoped(ctx, session.Id)
			_ = uow.TopicStateRepository().DeleteBySessionIdUnscoped(ctx, session.Id)
			_ = uow.SessionRepository().DeleteUnscoped(ctx, session.Id)
		}()

		state := &entity.TopicState{
			SessionId: session.Id,
			TopicId:   "t1",
			TopicName: "System Overview",
			Status:    constant.TopicStatusPending,
		}
		require.NoError(t, uow.TopicStateRepository().Create(ctx, state))

		fact := &entity.Fact{
			SessionId:  session.Id,
			TopicId:    "t1",
			AspectKey:  "definition",
			Statement:  "integration test fact",
			Payload:    map[string]string{"component": "integration"},
			Provenance: "turn:0",
			Weight:     0.9,
		}
		require.NoError(t, uow.FactRepository().Create(ctx, fact))

		found, err := uow.FactRepository().FindAll(ctx, specification.BySessionID{SessionID: session.Id})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "integration test fact", found[0].Statement)
		assert.Equal(t, "integration", found[0].Payload["component"])
	})

	t.Run("Vector Upsert Is Idempotent", func(t *testing.T) {
		ctx := context.Background()

		session := &entity.Session{Status: constant.SessionStatusActive}
		require.NoError(t, uow.SessionRepository().Create(ctx, session))
		defer func() {
			_ = uow.KnowledgeEmbeddingRepository().DeleteBySessionIdUnscoped(ctx, session.Id)
			_ = uow.SessionRepository().DeleteUnscoped(ctx, session.Id)
		}()

		unitId := uuid.NewSHA1(uuid.NameSpaceOID, []byte(session.Id.String()+"/t1/v1/0"))
		vec := make([]float32, 768)
		vec[0] = 1

		unit := &entity.KnowledgeEmbedding{
			Id:        unitId,
			SessionId: session.Id,
			TopicId:   "t1",
			TopicName: "System Overview",
			Document:  "chunk zero",
			Embedding: vec,
		}
		require.NoError(t, uow.KnowledgeEmbeddingRepository().UpsertBulk(ctx, []*entity.KnowledgeEmbedding{unit}))

		unit.Document = "chunk zero rewritten"
		require.NoError(t, uow.KnowledgeEmbeddingRepository().UpsertBulk(ctx, []*entity.KnowledgeEmbedding{unit}))

		found, err := uow.KnowledgeEmbeddingRepository().FindAll(ctx, specification.BySessionID{SessionID: session.Id})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "chunk zero rewritten", found[0].Document)

		scored, err := uow.KnowledgeEmbeddingRepository().SearchSimilar(ctx, vec, 5, session.Id, "")
		require.NoError(t, err)
		require.Len(t, scored, 1)
		assert.InDelta(t, 1.0, scored[0].Similarity, 0.001)
	})
}
