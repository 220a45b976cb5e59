package service

import (
	"context"
	"iter"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/deppfellow/testtable-service/internal/model"
	"github.com/deppfellow/testtable-service/internal/model/testtable"
)

// TestTableStore is the persistence the service depends on.
// *repository.TestTableRepository satisfies it.
type TestTableStore interface {
	FindAll(ctx context.Context) iter.Seq2[*testtable.TestTable, error]
	FindByID(ctx context.Context, id uuid.UUID) (*testtable.TestTable, error)
	Insert(ctx context.Context, f testtable.Fields) (*testtable.TestTable, error)
	Update(ctx context.Context, id uuid.UUID, f testtable.Fields) (*testtable.TestTable, error)
	DeleteByID(ctx context.Context, id uuid.UUID) (bool, error)
	ExistsByID(ctx context.Context, id uuid.UUID) (bool, error)
}

// Notifier receives a Change after the mutation it describes has committed.
type Notifier interface {
	Notify(ctx context.Context, change testtable.Change) error
}

// NoopNotifier drops every change.
type NoopNotifier struct{}

func (NoopNotifier) Notify(context.Context, testtable.Change) error { return nil }

type TestTableService struct {
	store    TestTableStore
	notifier Notifier
	logger   *zerolog.Logger
	now      func() time.Time
}

func NewTestTableService(store TestTableStore, notifier Notifier, logger *zerolog.Logger) *TestTableService {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	return &TestTableService{store: store, notifier: notifier, logger: logger, now: time.Now}
}

func notFound(id uuid.UUID) error {
	return &model.NotFoundError{Resource: testtable.Resource, ID: id}
}

// FindAll streams every record as a response.
func (s *TestTableService) FindAll(ctx context.Context) iter.Seq2[*testtable.Response, error] {
	return func(yield func(*testtable.Response, error) bool) {
		for t, err := range s.store.FindAll(ctx) {
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(testtable.NewResponse(t), nil) {
				return
			}
		}
	}
}

func (s *TestTableService) FindByID(ctx context.Context, id uuid.UUID) (*testtable.Response, error) {
	t, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, notFound(id)
	}
	return testtable.NewResponse(t), nil
}

func (s *TestTableService) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.store.ExistsByID(ctx, id)
}

func (s *TestTableService) Create(ctx context.Context, f testtable.Fields) (*testtable.Response, error) {
	t, err := s.store.Insert(ctx, f)
	if err != nil {
		return nil, err
	}

	resp := testtable.NewResponse(t)
	s.notify(ctx, testtable.ChangeCreated, t.ID, resp)
	return resp, nil
}

// Update replaces the mutable fields of id. Nothing is created when id does
// not exist.
func (s *TestTableService) Update(ctx context.Context, id uuid.UUID, f testtable.Fields) (*testtable.Response, error) {
	t, err := s.store.Update(ctx, id, f)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, notFound(id)
	}

	resp := testtable.NewResponse(t)
	s.notify(ctx, testtable.ChangeUpdated, id, resp)
	return resp, nil
}

func (s *TestTableService) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.store.DeleteByID(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return notFound(id)
	}

	s.notify(ctx, testtable.ChangeDeleted, id, nil)
	return nil
}

// notify never fails the caller: the mutation is already committed. The
// enqueue outlives request cancellation.
func (s *TestTableService) notify(ctx context.Context, kind testtable.ChangeKind, id uuid.UUID, record *testtable.Response) {
	change := testtable.Change{Kind: kind, ID: id, Record: record, OccurredAt: s.now().UTC()}
	if err := s.notifier.Notify(context.WithoutCancel(ctx), change); err != nil {
		// Prefer the request logger so the warning carries the request id.
		logger := s.logger
		if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
			logger = l
		}
		logger.Warn().
			Err(err).
			Str("kind", string(kind)).
			Str("id", id.String()).
			Msg("failed to send test table change notification")
	}
}
