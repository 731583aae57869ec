package service

import (
	"context"
	"time"

	"kt-assistant-be/internal/pkg/logger"
	"kt-assistant-be/internal/repository/memory"
	"kt-assistant-be/internal/repository/specification"
	"kt-assistant-be/internal/repository/unitofwork"
	"kt-assistant-be/pkg/kterrors"

	"github.com/google/uuid"
)

type SweepReport struct {
	ExaminedSessions    int
	PurgedSessions      int
	OrphanVectorsFound  int64
	OrphanVectorsPurged int64
}

type ISweeperService interface {
	Sweep(ctx context.Context, now time.Time) (*SweepReport, error)
}

// sweeperService hard-deletes sessions idle past the TTL from both stores.
// Structured rows go first; if the vector side then fails, the zombie purge
// at the end of every sweep catches the leftovers.
type sweeperService struct {
	uowFactory unitofwork.RepositoryFactory
	locks      *memory.SessionLockRepository
	ttl        time.Duration
	sysLogger  logger.ILogger
}

func NewSweeperService(
	uowFactory unitofwork.RepositoryFactory,
	locks *memory.SessionLockRepository,
	ttl time.Duration,
	sysLogger logger.ILogger,
) ISweeperService {
	return &sweeperService{
		uowFactory: uowFactory,
		locks:      locks,
		ttl:        ttl,
		sysLogger:  sysLogger,
	}
}

func (s *sweeperService) Sweep(ctx context.Context, now time.Time) (*SweepReport, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	report := &SweepReport{}

	cutoff := now.Add(-s.ttl)
	expired, err := uow.SessionRepository().FindAll(ctx, specification.LastActivityBefore{T: cutoff})
	if err != nil {
		return nil, err
	}
	report.ExaminedSessions = len(expired)

	for _, session := range expired {
		if err := s.purgeSession(ctx, uow, session.Id); err != nil {
			s.sysLogger.Error("sweeper", "failed to purge session", map[string]interface{}{
				"session_id": session.Id.String(),
				"error":      err.Error(),
			})
			continue
		}
		report.PurgedSessions++
	}

	// Zombie purge: vectors whose session no longer exists, from this sweep's
	// partial failures or any earlier crash.
	remaining, err := uow.SessionRepository().FindAll(ctx)
	if err != nil {
		return report, err
	}
	activeIds := make([]uuid.UUID, len(remaining))
	for i, sess := range remaining {
		activeIds[i] = sess.Id
	}

	found, err := uow.KnowledgeEmbeddingRepository().CountWhereSessionNotIn(ctx, activeIds)
	if err != nil {
		return report, err
	}
	report.OrphanVectorsFound = found

	if found > 0 {
		warn := &kterrors.ConsistencyWarning{Detail: "orphan vectors present, purging"}
		s.sysLogger.Warn("sweeper", warn.Error(), map[string]interface{}{
			"orphans": found,
		})

		purged, err := uow.KnowledgeEmbeddingRepository().DeleteWhereSessionNotIn(ctx, activeIds)
		if err != nil {
			return report, err
		}
		report.OrphanVectorsPurged = purged
	}

	s.sysLogger.Info("sweeper", "sweep finished", map[string]interface{}{
		"examined":       report.ExaminedSessions,
		"purged":         report.PurgedSessions,
		"orphans_found":  report.OrphanVectorsFound,
		"orphans_purged": report.OrphanVectorsPurged,
	})
	return report, nil
}

// purgeSession removes every structured trace of a session, then its vectors.
func (s *sweeperService) purgeSession(ctx context.Context, uow unitofwork.UnitOfWork, sessionId uuid.UUID) error {
	if err := uow.FactRepository().DeleteBySessionIdUnscoped(ctx, sessionId); err != nil {
		return err
	}
	if err := uow.TopicStateRepository().DeleteBySessionIdUnscoped(ctx, sessionId); err != nil {
		return err
	}
	if err := uow.MessageRepository().DeleteBySessionIdUnscoped(ctx, sessionId); err != nil {
		return err
	}
	if err := uow.SessionRepository().DeleteUnscoped(ctx, sessionId); err != nil {
		return err
	}

	if err := uow.KnowledgeEmbeddingRepository().DeleteBySessionIdUnscoped(ctx, sessionId); err != nil {
		// Structured rows are gone; the vectors are now zombies and the purge
		// below will pick them up.
		warn := &kterrors.ConsistencyWarning{SessionID: sessionId.String(), Detail: "vector delete failed after structured delete"}
		s.sysLogger.Warn("sweeper", warn.Error(), map[string]interface{}{
			"session_id": sessionId.String(),
			"error":      err.Error(),
		})
	}

	s.locks.Delete(sessionId.String())

	s.sysLogger.Info("sweeper", "session purged", map[string]interface{}{
		"session_id": sessionId.String(),
	})
	return nil
}
