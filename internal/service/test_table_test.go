package service

import (
	"context"
	"errors"
	"iter"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/deppfellow/testtable-service/internal/model"
	"github.com/deppfellow/testtable-service/internal/model/testtable"
)

type mockStore struct {
	mock.Mock
	rows []*testtable.TestTable
}

func (m *mockStore) FindAll(context.Context) iter.Seq2[*testtable.TestTable, error] {
	return func(yield func(*testtable.TestTable, error) bool) {
		for _, r := range m.rows {
			if !yield(r, nil) {
				return
			}
		}
	}
}

func (m *mockStore) FindByID(ctx context.Context, id uuid.UUID) (*testtable.TestTable, error) {
	args := m.Called(ctx, id)
	t, _ := args.Get(0).(*testtable.TestTable)
	return t, args.Error(1)
}

func (m *mockStore) Insert(ctx context.Context, f testtable.Fields) (*testtable.TestTable, error) {
	args := m.Called(ctx, f)
	t, _ := args.Get(0).(*testtable.TestTable)
	return t, args.Error(1)
}

func (m *mockStore) Update(ctx context.Context, id uuid.UUID, f testtable.Fields) (*testtable.TestTable, error) {
	args := m.Called(ctx, id, f)
	t, _ := args.Get(0).(*testtable.TestTable)
	return t, args.Error(1)
}

func (m *mockStore) DeleteByID(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) ExistsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type recordingNotifier struct {
	changes []testtable.Change
	ctxErrs []error
	err     error
}

func (n *recordingNotifier) Notify(ctx context.Context, change testtable.Change) error {
	n.changes = append(n.changes, change)
	n.ctxErrs = append(n.ctxErrs, ctx.Err())
	return n.err
}

var (
	testID  = uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")
	testNow = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
)

func testFields() testtable.Fields {
	return testtable.Fields{
		Name:           "Test Event",
		EventDate:      model.Date{Year: 2024, Month: time.January, Day: 15},
		EventTimestamp: testNow,
		Metadata:       testtable.Metadata{Item: "Sample Item", Description: "Sample Description"},
	}
}

func testRecord(f testtable.Fields) *testtable.TestTable {
	return &testtable.TestTable{
		ID:             testID,
		Name:           f.Name,
		EventDate:      f.EventDate,
		EventTimestamp: f.EventTimestamp,
		Metadata:       f.Metadata,
		CreatedAt:      testNow,
		UpdatedAt:      testNow,
	}
}

func newTestService(store TestTableStore, notifier Notifier) *TestTableService {
	log := zerolog.Nop()
	s := NewTestTableService(store, notifier, &log)
	s.now = func() time.Time { return testNow }
	return s
}

func TestTestTableService_Create(t *testing.T) {
	store := &mockStore{}
	notifier := &recordingNotifier{}
	svc := newTestService(store, notifier)
	f := testFields()

	store.On("Insert", mock.Anything, f).Return(testRecord(f), nil).Once()

	resp, err := svc.Create(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, testID, resp.ID)
	assert.Equal(t, "Test Event", resp.Name)
	assert.Equal(t, resp.CreatedAt, resp.UpdatedAt)

	require.Len(t, notifier.changes, 1)
	assert.Equal(t, testtable.ChangeCreated, notifier.changes[0].Kind)
	assert.Equal(t, resp, notifier.changes[0].Record)
	assert.Equal(t, testNow, notifier.changes[0].OccurredAt)
	store.AssertExpectations(t)
}

func TestTestTableService_CreateStoreError(t *testing.T) {
	store := &mockStore{}
	notifier := &recordingNotifier{}
	svc := newTestService(store, notifier)

	boom := errors.New("connection refused")
	store.On("Insert", mock.Anything, mock.Anything).Return(nil, boom)

	_, err := svc.Create(context.Background(), testFields())
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, notifier.changes)
}

func TestTestTableService_NotifyFailureDoesNotFailRequest(t *testing.T) {
	store := &mockStore{}
	notifier := &recordingNotifier{err: errors.New("redis down")}
	svc := newTestService(store, notifier)
	f := testFields()

	store.On("Insert", mock.Anything, f).Return(testRecord(f), nil)

	resp, err := svc.Create(context.Background(), f)
	require.NoError(t, err)
	assert.NotNil(t, resp)
	assert.Len(t, notifier.changes, 1)
}

func TestTestTableService_NotifySurvivesRequestCancellation(t *testing.T) {
	store := &mockStore{}
	notifier := &recordingNotifier{}
	svc := newTestService(store, notifier)
	f := testFields()

	// The client hangs up after the row is committed.
	ctx, cancel := context.WithCancel(context.Background())
	store.On("Insert", mock.Anything, f).Run(func(mock.Arguments) { cancel() }).Return(testRecord(f), nil)

	_, err := svc.Create(ctx, f)
	require.NoError(t, err)
	require.Len(t, notifier.ctxErrs, 1)
	assert.NoError(t, notifier.ctxErrs[0])
}

func TestTestTableService_FindByID(t *testing.T) {
	store := &mockStore{}
	svc := newTestService(store, nil)
	f := testFields()

	store.On("FindByID", mock.Anything, testID).Return(testRecord(f), nil).Once()

	resp, err := svc.FindByID(context.Background(), testID)
	require.NoError(t, err)
	assert.Equal(t, f.Metadata, resp.Metadata)
}

func TestTestTableService_NotFound(t *testing.T) {
	wantMsg := "TestTable with id 550e8400-e29b-41d4-a716-446655440000 not found"

	tests := []struct {
		name  string
		setup func(*mockStore)
		call  func(*TestTableService) error
	}{
		{
			name:  "find",
			setup: func(m *mockStore) { m.On("FindByID", mock.Anything, testID).Return(nil, nil) },
			call: func(s *TestTableService) error {
				_, err := s.FindByID(context.Background(), testID)
				return err
			},
		},
		{
			name:  "update",
			setup: func(m *mockStore) { m.On("Update", mock.Anything, testID, mock.Anything).Return(nil, nil) },
			call: func(s *TestTableService) error {
				_, err := s.Update(context.Background(), testID, testFields())
				return err
			},
		},
		{
			name:  "delete",
			setup: func(m *mockStore) { m.On("DeleteByID", mock.Anything, testID).Return(false, nil) },
			call: func(s *TestTableService) error {
				return s.Delete(context.Background(), testID)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockStore{}
			notifier := &recordingNotifier{}
			tt.setup(store)

			err := tt.call(newTestService(store, notifier))

			var nf *model.NotFoundError
			require.True(t, errors.As(err, &nf))
			assert.Equal(t, testID, nf.ID)
			assert.Equal(t, testtable.Resource, nf.Resource)
			assert.EqualError(t, err, wantMsg)
			assert.Empty(t, notifier.changes)
		})
	}
}

func TestTestTableService_Update(t *testing.T) {
	store := &mockStore{}
	notifier := &recordingNotifier{}
	svc := newTestService(store, notifier)

	f := testFields()
	f.Name = "Updated Event"
	updated := testRecord(f)
	updated.UpdatedAt = testNow.Add(time.Minute)

	store.On("Update", mock.Anything, testID, f).Return(updated, nil).Once()

	resp, err := svc.Update(context.Background(), testID, f)
	require.NoError(t, err)
	assert.Equal(t, "Updated Event", resp.Name)
	assert.True(t, resp.UpdatedAt.After(resp.CreatedAt))

	require.Len(t, notifier.changes, 1)
	assert.Equal(t, testtable.ChangeUpdated, notifier.changes[0].Kind)
}

func TestTestTableService_Delete(t *testing.T) {
	store := &mockStore{}
	notifier := &recordingNotifier{}
	svc := newTestService(store, notifier)

	store.On("DeleteByID", mock.Anything, testID).Return(true, nil).Once()

	require.NoError(t, svc.Delete(context.Background(), testID))
	require.Len(t, notifier.changes, 1)
	assert.Equal(t, testtable.ChangeDeleted, notifier.changes[0].Kind)
	assert.Nil(t, notifier.changes[0].Record)
}

func TestTestTableService_Exists(t *testing.T) {
	store := &mockStore{}
	svc := newTestService(store, nil)

	store.On("ExistsByID", mock.Anything, testID).Return(true, nil)

	exists, err := svc.Exists(context.Background(), testID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestTestTableService_FindAll(t *testing.T) {
	f := testFields()
	other := testRecord(f)
	other.ID = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

	store := &mockStore{rows: []*testtable.TestTable{testRecord(f), other}}
	svc := newTestService(store, nil)

	var ids []uuid.UUID
	for resp, err := range svc.FindAll(context.Background()) {
		require.NoError(t, err)
		ids = append(ids, resp.ID)
	}
	assert.Equal(t, []uuid.UUID{testID, other.ID}, ids)
}

func TestTestTableService_FindAllEmpty(t *testing.T) {
	svc := newTestService(&mockStore{}, nil)

	count := 0
	for _, err := range svc.FindAll(context.Background()) {
		require.NoError(t, err)
		count++
	}
	assert.Zero(t, count)
}
