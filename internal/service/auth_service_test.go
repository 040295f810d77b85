package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"equipment-go/internal/dto"
	"equipment-go/internal/models"
	"equipment-go/internal/repository"
	"equipment-go/internal/testutil"
	"equipment-go/internal/utils"
	"equipment-go/pkg/ownerlock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newAuthFixture(t *testing.T) (*AuthService, *utils.JWTManager, *gorm.DB) {
	t.Helper()

	db := testutil.NewDB(t)
	jwtManager := utils.NewJWTManager("test-secret", "HS256", time.Hour)
	return NewAuthService(repository.NewStore(db), jwtManager, testutil.NewHasher(), testutil.NewLogger()), jwtManager, db
}

func TestRegister_IssuesToken(t *testing.T) {
	svc, jwtManager, _ := newAuthFixture(t)

	resp, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Username: "alice",
		Password: "s3cret",
		Email:    "alice@example.com",
	})
	require.NoError(t, err)
	assert.NotZero(t, resp.User.ID)
	assert.Equal(t, "alice", resp.User.Username)
	assert.Equal(t, "alice@example.com", resp.User.Email)

	claims, err := jwtManager.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
	assert.Equal(t, "alice", claims.Username)
}

func TestRegister_ShortUsername(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	for _, username := range []string{"a", "ab"} {
		resp, err := svc.Register(context.Background(), &dto.RegisterRequest{Username: username, Password: "pw"})
		require.NoError(t, err, username)
		assert.Equal(t, username, resp.User.Username)
	}
}

func TestRegister_Failures(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, &dto.RegisterRequest{Username: "alice", Password: "pw"})
	require.NoError(t, err)

	cases := []struct {
		name    string
		req     dto.RegisterRequest
		kind    ErrorKind
		message string
	}{
		{"missing password", dto.RegisterRequest{Username: "bob"}, ErrKindValidation, "Username and password are required"},
		{"missing username", dto.RegisterRequest{Password: "pw"}, ErrKindValidation, "Username and password are required"},
		{"duplicate", dto.RegisterRequest{Username: "alice", Password: "other"}, ErrKindAuth, "Username already exists"},
		{"bad email", dto.RegisterRequest{Username: "carol", Password: "pw", Email: "nope"}, ErrKindValidation, "email must be a valid email address"},
		{"long password", dto.RegisterRequest{Username: "dave", Password: strings.Repeat("p", 100)}, ErrKindValidation, "password must be at most 72 bytes"},
		{"bad username", dto.RegisterRequest{Username: "eve smith", Password: "pw"}, ErrKindValidation, "username may contain only letters, digits and @.+-_ and must be 1-150 characters"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, &tc.req)
			require.Error(t, err)
			assert.Equal(t, tc.kind, KindOf(err))
			assert.Equal(t, tc.message, MessageOf(err))
		})
	}
}

func TestLogin(t *testing.T) {
	svc, _, db := newAuthFixture(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, &dto.RegisterRequest{Username: "alice", Password: "pw"})
	require.NoError(t, err)

	resp, err := svc.Login(ctx, &dto.LoginRequest{Username: "alice", Password: "pw"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)

	for _, req := range []dto.LoginRequest{
		{Username: "alice", Password: "wrong"},
		{Username: "nobody", Password: "pw"},
	} {
		_, err := svc.Login(ctx, &req)
		assert.Equal(t, ErrKindUnauthorized, KindOf(err))
		assert.Equal(t, "Invalid credentials", MessageOf(err))
	}

	// 被停用的账户无法登录
	require.NoError(t, db.Model(&models.User{}).Where("username = ?", "alice").Update("is_active", false).Error)
	_, err = svc.Login(ctx, &dto.LoginRequest{Username: "alice", Password: "pw"})
	assert.Equal(t, ErrKindUnauthorized, KindOf(err))

	active, err := svc.ActiveUser(ctx, resp.User.ID)
	require.NoError(t, err)
	assert.False(t, active)
}

func TestDeleteAccount_RemovesDatasets(t *testing.T) {
	svc, _, db := newAuthFixture(t)
	ctx := context.Background()

	resp, err := svc.Register(ctx, &dto.RegisterRequest{Username: "alice", Password: "pw"})
	require.NoError(t, err)

	datasets := NewDatasetService(repository.NewStore(db), ownerlock.NewLocalLocker(), testutil.NewLogger(), testutil.NewConfig(t))
	_, err = datasets.Upload(ctx, resp.User.ID, "readings.csv", []byte(scenarioCSV))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteAccount(ctx, resp.User.ID))

	var n int64
	require.NoError(t, db.Model(&models.Dataset{}).Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, db.Model(&models.Equipment{}).Count(&n).Error)
	assert.Zero(t, n)

	_, err = svc.GetMe(ctx, resp.User.ID)
	assert.Equal(t, ErrKindNotFound, KindOf(err))

	active, err := svc.ActiveUser(ctx, resp.User.ID)
	require.NoError(t, err)
	assert.False(t, active)

	err = svc.DeleteAccount(ctx, resp.User.ID)
	assert.Equal(t, ErrKindNotFound, KindOf(err))
}
