package email

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestOTPBody(t *testing.T) {
	t.Parallel()

	body := OTPBody("user@example.com", "123456", 5*time.Minute, "TaskManager")

	require.Contains(t, body, "123456")
	require.Contains(t, body, "user@example.com")
	require.Contains(t, body, "5 minutes")
	require.Contains(t, body, "TaskManager")
}

func TestWelcomeBody(t *testing.T) {
	t.Parallel()

	body := WelcomeBody("user@example.com", "acme", "TaskManager")

	require.Contains(t, body, "user@example.com")
	require.Contains(t, body, "acme")
	require.Contains(t, body, "TaskManager")
}
