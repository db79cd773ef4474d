package osiapp_test

import (
	"testing"

	osiapp "github.com/OsianJL/osiapp-api"
	"github.com/stretchr/testify/assert"
)

func TestConfirmationURL(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		token   string
		want    string
	}{
		{
			name:    "plain base",
			baseURL: "http://localhost:8080",
			token:   "abc123",
			want:    "http://localhost:8080/confirm/abc123",
		},
		{
			name:    "trailing slash",
			baseURL: "https://api.example.com/",
			token:   "abc123",
			want:    "https://api.example.com/confirm/abc123",
		},
		{
			name:    "token is path escaped",
			baseURL: "http://localhost:8080",
			token:   "a/b c",
			want:    "http://localhost:8080/confirm/a%2Fb%20c",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, osiapp.ConfirmationURL(tt.baseURL, tt.token))
		})
	}
}

func TestConfirmationEmail(t *testing.T) {
	email := osiapp.ConfirmationEmail("user@example.com", "http://localhost:8080/confirm/tok")

	assert.Equal(t, []string{"user@example.com"}, email.To)
	assert.NotEmpty(t, email.Subject)
	assert.Contains(t, email.Body, "http://localhost:8080/confirm/tok")
}
