package types_test

import (
	"testing"

	"github.com/modwatch/sentinel/internal/database/types"
	"github.com/modwatch/sentinel/internal/database/types/enum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModerationRequestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		req     *types.ModerationRequest
		wantErr error
	}{
		{
			name:    "nil request",
			req:     nil,
			wantErr: types.ErrInvalidRequest,
		},
		{
			name: "missing target",
			req: &types.ModerationRequest{
				ID:      "r1",
				Type:    enum.RequestTypeMessage,
				Content: "hello",
			},
			wantErr: types.ErrMissingTarget,
		},
		{
			name: "empty content on message",
			req: &types.ModerationRequest{
				ID:       "r2",
				Type:     enum.RequestTypeMessage,
				TargetID: 10,
			},
			wantErr: types.ErrEmptyContent,
		},
		{
			name: "join event without content is fine",
			req: &types.ModerationRequest{
				ID:       "r3",
				Type:     enum.RequestTypeUserJoin,
				TargetID: 10,
			},
		},
		{
			name: "valid message",
			req: &types.ModerationRequest{
				ID:       "r4",
				Type:     enum.RequestTypeMessage,
				TargetID: 10,
				Content:  "hello there",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.req.Validate()
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			assert.NoError(t, err)
		})
	}
}
