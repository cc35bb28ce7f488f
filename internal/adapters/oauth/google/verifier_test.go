package google

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/idtoken"
)

func TestVerify(t *testing.T) {
	tests := []struct {
		name    string
		claims  map[string]interface{}
		err     error
		want    string
		wantErr bool
	}{
		{
			name:   "verified account",
			claims: map[string]interface{}{"email": "Ada@Example.com", "email_verified": true, "name": "Ada"},
			want:   "Ada",
		},
		{
			name:   "name falls back to the mailbox",
			claims: map[string]interface{}{"email": "ada@example.com"},
			want:   "ada",
		},
		{
			name:    "unverified email",
			claims:  map[string]interface{}{"email": "ada@example.com", "email_verified": false},
			wantErr: true,
		},
		{
			name:    "missing email",
			claims:  map[string]interface{}{"name": "Ada"},
			wantErr: true,
		},
		{
			name:    "invalid token",
			err:     errors.New("idtoken: invalid signature"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &GoogleVerifier{validate: func(_ context.Context, token, audience string) (*idtoken.Payload, error) {
				assert.Equal(t, "credential", token)
				assert.Equal(t, "client-id", audience)
				if tt.err != nil {
					return nil, tt.err
				}
				return &idtoken.Payload{Claims: tt.claims}, nil
			}}

			payload, err := v.Verify(context.Background(), "credential", "client-id")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "ada@example.com", payload.Email)
			assert.Equal(t, tt.want, payload.Name)
		})
	}
}
