package service_test

import (
	"context"
	"strings"
	"testing"

	"github.com/modwatch/sentinel/internal/database/service"
	"github.com/modwatch/sentinel/internal/database/types"
	"github.com/modwatch/sentinel/internal/database/types/enum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeAppealStore struct {
	pending bool
	created *types.Appeal
}

func (f *fakeAppealStore) Create(_ context.Context, appeal *types.Appeal) error {
	appeal.ID = 7
	f.created = appeal

	return nil
}

func (f *fakeAppealStore) GetByID(context.Context, int64) (*types.Appeal, error) {
	return nil, types.ErrAppealNotFound
}

func (f *fakeAppealStore) HasPending(context.Context, int64) (bool, error) {
	return f.pending, nil
}

func (f *fakeAppealStore) ListPending(context.Context, int) ([]*types.Appeal, error) {
	return nil, nil
}

func (f *fakeAppealStore) Resolve(context.Context, int64, enum.AppealStatus, uint64, string) error {
	return nil
}

type fakePunishmentStore struct {
	punishments map[int64]*types.Punishment
}

func (f *fakePunishmentStore) GetByID(_ context.Context, id int64) (*types.Punishment, error) {
	punishment, ok := f.punishments[id]
	if !ok {
		return nil, types.ErrPunishmentNotFound
	}

	return punishment, nil
}

func (f *fakePunishmentStore) Revert(context.Context, int64) error { return nil }

type noopAudit struct{}

func (noopAudit) Log(context.Context, *types.AuditLogEntry) {}

type fakeChecker struct {
	moderator bool
}

func (f fakeChecker) IsModerator(context.Context, uint64, uint64) (bool, error) {
	return f.moderator, nil
}

func newTestService(appeals *fakeAppealStore, moderator bool) *service.AppealService {
	punishments := &fakePunishmentStore{
		punishments: map[int64]*types.Punishment{
			1: {ID: 1, RequestID: "req-1", UserID: 100, ScopeID: 300, Kind: enum.PunishmentKindMute, Active: true},
		},
	}

	return service.NewAppeal(appeals, punishments, noopAudit{}, fakeChecker{moderator: moderator}, zap.NewNop())
}

func TestSubmitReasonLength(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		reason string
		valid  bool
	}{
		{name: "empty", reason: ""},
		{name: "nine ascii runes", reason: "too short"},
		{name: "nine multibyte runes", reason: strings.Repeat("あ", 9)},
		{name: "over a thousand runes", reason: strings.Repeat("a", 1001)},
		{name: "ten ascii runes", reason: strings.Repeat("a", 10), valid: true},
		{name: "six hundred multibyte runes", reason: strings.Repeat("安", 600), valid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := newTestService(&fakeAppealStore{}, false)

			appeal, err := s.Submit(t.Context(), 1, 100, tt.reason, "")
			if tt.valid {
				require.NoError(t, err)
				assert.Equal(t, tt.reason, appeal.Reason)
			} else {
				require.ErrorIs(t, err, types.ErrAppealReasonLength)
			}
		})
	}
}

func TestSubmitValidatesLengthBeforeStorage(t *testing.T) {
	t.Parallel()

	// Nil dependencies prove no storage access happens for bad reasons.
	s := service.NewAppeal(nil, nil, nil, nil, zap.NewNop())

	_, err := s.Submit(t.Context(), 1, 100, "too short", "")
	require.ErrorIs(t, err, types.ErrAppealReasonLength)
}

func TestSubmitUnknownPunishment(t *testing.T) {
	t.Parallel()

	s := newTestService(&fakeAppealStore{}, false)

	_, err := s.Submit(t.Context(), 99, 100, strings.Repeat("a", 20), "")
	require.ErrorIs(t, err, types.ErrPunishmentNotFound)
}

func TestSubmitAuthority(t *testing.T) {
	t.Parallel()

	reason := "this punishment was applied in error"

	tests := []struct {
		name        string
		submitterID uint64
		moderator   bool
		wantErr     error
	}{
		{name: "owner may appeal", submitterID: 100},
		{name: "scope moderator may appeal for the user", submitterID: 500, moderator: true},
		{name: "unrelated user may not", submitterID: 500, wantErr: types.ErrAppealPermission},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			appeals := &fakeAppealStore{}
			s := newTestService(appeals, tt.moderator)

			appeal, err := s.Submit(t.Context(), 1, tt.submitterID, reason, "")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, appeals.created)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.submitterID, appeal.SubmitterID)
			assert.Equal(t, enum.AppealStatusPending, appeal.Status)
		})
	}
}

func TestSubmitRejectsSecondPendingAppeal(t *testing.T) {
	t.Parallel()

	s := newTestService(&fakeAppealStore{pending: true}, false)

	_, err := s.Submit(t.Context(), 1, 100, strings.Repeat("a", 20), "")
	require.ErrorIs(t, err, types.ErrAppealAlreadyPending)
}
