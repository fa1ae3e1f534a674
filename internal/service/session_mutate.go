package service

import (
	"context"
	"errors"

	"ai-dataviz-be/internal/entity"
	"ai-dataviz-be/internal/pkg/apperror"
	"ai-dataviz-be/internal/repository/specification"
	"ai-dataviz-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

const maxMutateAttempts = 5

// errNoChange lets a mutate callback finish without writing.
var errNoChange = errors.New("no change")

// mutateFunc edits a freshly loaded session inside the write transaction.
// Ledger writes made through uow commit or roll back with the session.
type mutateFunc func(ctx context.Context, uow unitofwork.UnitOfWork, session *entity.Session) error

// mutateSession is the re-fetch-and-patch primitive: load, apply fn, write
// only if the version is unchanged, otherwise retry on the newer document.
// userId scopes the load to the owner; uuid.Nil skips the ownership filter.
func mutateSession(ctx context.Context, uowFactory unitofwork.RepositoryFactory, userId, sessionId uuid.UUID, fn mutateFunc) (*entity.Session, error) {
	for attempt := 0; attempt < maxMutateAttempts; attempt++ {
		session, written, err := tryMutate(ctx, uowFactory, userId, sessionId, fn)
		if err != nil {
			return nil, err
		}
		if written {
			return session, nil
		}
	}
	return nil, apperror.ErrConflict
}

func tryMutate(ctx context.Context, uowFactory unitofwork.RepositoryFactory, userId, sessionId uuid.UUID, fn mutateFunc) (*entity.Session, bool, error) {
	uow := uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, false, err
	}
	defer uow.Rollback()

	session, err := loadSession(ctx, uow, userId, sessionId)
	if err != nil {
		return nil, false, err
	}

	if err := fn(ctx, uow, session); err != nil {
		if errors.Is(err, errNoChange) {
			return session, true, nil
		}
		return nil, false, err
	}

	ok, err := uow.SessionRepository().UpdateIfVersion(ctx, session)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}

	if err := uow.Commit(); err != nil {
		return nil, false, err
	}
	return session, true, nil
}

func loadSession(ctx context.Context, uow unitofwork.UnitOfWork, userId, sessionId uuid.UUID) (*entity.Session, error) {
	specs := []specification.Specification{specification.ByID{ID: sessionId}}
	if userId != uuid.Nil {
		specs = append(specs, specification.UserOwnedBy{UserID: userId})
	}

	session, err := uow.SessionRepository().FindOne(ctx, specs...)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apperror.SessionNotFound()
	}
	return session, nil
}
