package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChangedBy(t *testing.T) {
	tests := []struct {
		name string
		user *UserContext
		want string
	}{
		{"anonymous", nil, SystemActor},
		{"display name wins", &UserContext{UserID: "1", Email: "a@b.c", DisplayName: "Asha"}, "Asha"},
		{"email fallback", &UserContext{UserID: "1", Email: "a@b.c"}, "a@b.c"},
		{"id fallback", &UserContext{UserID: "1"}, "1"},
		{"empty user", &UserContext{}, SystemActor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			if tt.user != nil {
				ctx = WithUser(ctx, tt.user)
			}
			assert.Equal(t, tt.want, ChangedBy(ctx))
		})
	}
}
