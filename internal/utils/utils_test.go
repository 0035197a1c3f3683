package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"lumenr/internal/constants"
)

func TestValidateEmail(t *testing.T) {
	email, err := ValidateEmail("  User@Lumenr.Test ")
	require.NoError(t, err)
	require.Equal(t, "user@lumenr.test", email)

	_, err = ValidateEmail("не-адрес")
	require.Error(t, err)
	_, err = ValidateEmail("user@")
	require.Error(t, err)
}

func TestIsRoleOrHigher(t *testing.T) {
	require.True(t, IsRoleOrHigher(constants.ROLE_ADMIN, constants.ROLE_PROJECT_MANAGER))
	require.True(t, IsRoleOrHigher(constants.ROLE_PROJECT_MANAGER, constants.ROLE_PROJECT_MANAGER))
	require.False(t, IsRoleOrHigher(constants.ROLE_TEAM_MEMBER, constants.ROLE_PROJECT_MANAGER))
	// Неизвестная роль всегда ниже любой требуемой.
	require.False(t, IsRoleOrHigher("guest", constants.ROLE_TEAM_MEMBER))
}

func TestFormatDateForDisplay(t *testing.T) {
	d := time.Date(2026, time.May, 25, 0, 0, 0, 0, time.UTC)
	require.Equal(t, "25 мая 2026", FormatDateForDisplay(d))
}

func TestTruncatePreview(t *testing.T) {
	require.Equal(t, "короткий", TruncatePreview("короткий", 50))
	require.Equal(t, "длинны...", TruncatePreview("длинный текст превью", 6))
}

func TestBuildInviteLink(t *testing.T) {
	link, err := BuildInviteLink("http://localhost:8080", "user-1")
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8080/register?invited_by=user-1", link)
}

func TestGenerateInviteQR(t *testing.T) {
	png, err := GenerateInviteQR("http://localhost:8080", "user-1")
	require.NoError(t, err)
	// PNG-сигнатура.
	require.True(t, len(png) > 8)
	require.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])
}
