package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	id "carematch/pkg/domain"
)

func TestAccessors(t *testing.T) {
	bare := context.Background()
	assert.True(t, UserID(bare).IsNil())
	assert.Empty(t, Role(bare))
	assert.Empty(t, RequestID(bare))
	assert.WithinDuration(t, time.Now(), Now(bare), time.Second)

	userID := id.UserID(uuid.New())
	at := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	ctx := WithUserID(bare, userID)
	ctx = WithRole(ctx, id.RoleAdmin)
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithTime(ctx, at)

	assert.Equal(t, userID, UserID(ctx))
	assert.Equal(t, id.RoleAdmin, Role(ctx))
	assert.Equal(t, "req-1", RequestID(ctx))
	assert.Equal(t, at, Now(ctx))
}

func TestKeysDoNotCollide(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-2")
	ctx = context.WithValue(ctx, "request_id", "shadow")
	assert.Equal(t, "req-2", RequestID(ctx))
}
