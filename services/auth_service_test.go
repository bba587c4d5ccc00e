package services

import (
	"fmt"
	"testing"

	"imagehub/auth"
	"imagehub/models"
	"imagehub/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB initializes an isolated in-memory SQLite database for a test.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err, "Failed to connect to test database")

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Image{}))
	return db
}

func newTestAuthService(t *testing.T) (AuthService, *gorm.DB) {
	db := setupTestDB(t)
	return NewAuthService(repositories.NewUserRepository(db), 4), db
}

func registerUser(t *testing.T, svc AuthService, email, password string, role models.Role) *UserResponse {
	t.Helper()
	user, err := svc.Register(&RegisterInput{
		Email:    email,
		Password: password,
		Name:     "user " + email,
		Role:     role,
	})
	require.NoError(t, err)
	return user
}

func TestRegister(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		svc, _ := newTestAuthService(t)

		user, err := svc.Register(&RegisterInput{
			Email:    "alice@example.com",
			Password: "password",
			Name:     "Alice",
		})
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", user.Email)
		assert.Equal(t, models.RoleUser, user.Role, "role defaults to USER")
		assert.NotZero(t, user.ID)
	})

	t.Run("Requested role is honored", func(t *testing.T) {
		svc, _ := newTestAuthService(t)

		user := registerUser(t, svc, "root@example.com", "password", models.RoleAdmin)
		assert.Equal(t, models.RoleAdmin, user.Role)
	})

	t.Run("Duplicate email conflicts and leaves first record intact", func(t *testing.T) {
		svc, db := newTestAuthService(t)

		first := registerUser(t, svc, "dup@example.com", "password", "")

		_, err := svc.Register(&RegisterInput{
			Email:    "dup@example.com",
			Password: "otherpassword",
			Name:     "Impostor",
		})
		require.Error(t, err)
		assert.Equal(t, KindConflict, KindOf(err))

		var stored models.User
		require.NoError(t, db.First(&stored, first.ID).Error)
		assert.Equal(t, "user dup@example.com", stored.Name)
	})

	t.Run("Invalid role rejected", func(t *testing.T) {
		svc, _ := newTestAuthService(t)

		_, err := svc.Register(&RegisterInput{
			Email:    "x@example.com",
			Password: "password",
			Name:     "X",
			Role:     "SUPERUSER",
		})
		require.Error(t, err)
		assert.Equal(t, KindValidation, KindOf(err))
	})
}

func TestLogin(t *testing.T) {
	t.Run("Token embeds subject and role", func(t *testing.T) {
		svc, _ := newTestAuthService(t)
		user := registerUser(t, svc, "mod@example.com", "password", models.RoleModerator)

		result, err := svc.Login("mod@example.com", "password")
		require.NoError(t, err)
		assert.Equal(t, user.ID, result.User.ID)
		assert.Equal(t, models.RoleModerator, result.User.Role)

		claims, err := auth.ParseAndValidateToken(result.AccessToken)
		require.NoError(t, err)
		subject, err := claims.SubjectID()
		require.NoError(t, err)
		assert.Equal(t, user.ID, subject)
		assert.Equal(t, models.RoleModerator, claims.Role)
		assert.Equal(t, "mod@example.com", claims.Email)
	})

	t.Run("Failure cases are indistinguishable", func(t *testing.T) {
		svc, _ := newTestAuthService(t)
		registerUser(t, svc, "bob@example.com", "password", "")

		_, errWrongPass := svc.Login("bob@example.com", "wrong")
		_, errNoUser := svc.Login("ghost@example.com", "password")

		require.Error(t, errWrongPass)
		require.Error(t, errNoUser)
		assert.Equal(t, KindUnauthorized, KindOf(errWrongPass))
		assert.Equal(t, KindUnauthorized, KindOf(errNoUser))
		assert.Equal(t, errWrongPass.Error(), errNoUser.Error())
	})
}

func TestValidateUser(t *testing.T) {
	svc, _ := newTestAuthService(t)
	user := registerUser(t, svc, "val@example.com", "password", "")

	found, err := svc.ValidateUser(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "val@example.com", found.Email)

	_, err = svc.ValidateUser(9999)
	require.Error(t, err)
	assert.Equal(t, KindUnauthorized, KindOf(err))
}

func TestGetAllUsers(t *testing.T) {
	t.Run("Filters AND together and counts images", func(t *testing.T) {
		svc, db := newTestAuthService(t)
		alice := registerUser(t, svc, "alice@corp.com", "password", "")
		registerUser(t, svc, "bob@corp.com", "password", "")
		registerUser(t, svc, "alice@other.net", "password", "")

		for i := 0; i < 3; i++ {
			require.NoError(t, db.Create(&models.Image{
				Name:   fmt.Sprintf("img-%d", i),
				URL:    fmt.Sprintf("http://localhost/uploads/img-%d.png", i),
				UserID: alice.ID,
			}).Error)
		}

		result, err := svc.GetAllUsers(1, 10, repositories.UserFilter{Email: "corp", Name: "alice"})
		require.NoError(t, err)
		require.Len(t, result.Data, 1)
		assert.Equal(t, "alice@corp.com", result.Data[0].Email)
		assert.Equal(t, int64(3), result.Data[0].ImageCount)
		assert.Equal(t, int64(1), result.Total)
		assert.Equal(t, 1, result.TotalPages)
	})

	t.Run("Pagination invariant", func(t *testing.T) {
		svc, _ := newTestAuthService(t)
		for i := 0; i < 7; i++ {
			registerUser(t, svc, fmt.Sprintf("user%d@example.com", i), "password", "")
		}

		for _, limit := range []int{1, 3, 7, 10} {
			result, err := svc.GetAllUsers(1, limit, repositories.UserFilter{})
			require.NoError(t, err)
			expectedPages := int((result.Total + int64(limit) - 1) / int64(limit))
			assert.Equal(t, expectedPages, result.TotalPages, "limit %d", limit)
			assert.LessOrEqual(t, len(result.Data), limit)
		}
	})
}

func TestUpdateUser(t *testing.T) {
	t.Run("Round-trip through listing", func(t *testing.T) {
		svc, _ := newTestAuthService(t)
		user := registerUser(t, svc, "old@example.com", "password", "")

		newEmail := "new@example.com"
		newName := "Renamed"
		newRole := models.RoleModerator
		updated, err := svc.UpdateUser(user.ID, &UpdateUserInput{
			Email: &newEmail,
			Name:  &newName,
			Role:  &newRole,
		})
		require.NoError(t, err)
		assert.Equal(t, newEmail, updated.Email)

		listing, err := svc.GetAllUsers(1, 10, repositories.UserFilter{})
		require.NoError(t, err)
		require.Len(t, listing.Data, 1)
		assert.Equal(t, newEmail, listing.Data[0].Email)
		assert.Equal(t, newName, listing.Data[0].Name)
		assert.Equal(t, newRole, listing.Data[0].Role)
	})

	t.Run("Missing user", func(t *testing.T) {
		svc, _ := newTestAuthService(t)
		name := "nobody"
		_, err := svc.UpdateUser(42, &UpdateUserInput{Name: &name})
		require.Error(t, err)
		assert.Equal(t, KindUnauthorized, KindOf(err))
	})

	t.Run("Email conflict with another account", func(t *testing.T) {
		svc, _ := newTestAuthService(t)
		registerUser(t, svc, "taken@example.com", "password", "")
		user := registerUser(t, svc, "free@example.com", "password", "")

		taken := "taken@example.com"
		_, err := svc.UpdateUser(user.ID, &UpdateUserInput{Email: &taken})
		require.Error(t, err)
		assert.Equal(t, KindConflict, KindOf(err))
	})
}

func TestDeleteUser(t *testing.T) {
	svc, _ := newTestAuthService(t)
	user := registerUser(t, svc, "gone@example.com", "password", "")
	registerUser(t, svc, "stays@example.com", "password", "")

	require.NoError(t, svc.DeleteUser(user.ID))

	listing, err := svc.GetAllUsers(1, 10, repositories.UserFilter{})
	require.NoError(t, err)
	require.Len(t, listing.Data, 1)
	assert.Equal(t, "stays@example.com", listing.Data[0].Email)

	err = svc.DeleteUser(user.ID)
	require.Error(t, err, "deleted users never reappear")
}

func TestChangePassword(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		svc, _ := newTestAuthService(t)
		user := registerUser(t, svc, "rotate@example.com", "oldpassword", "")

		require.NoError(t, svc.ChangePassword(user.ID, "oldpassword", "newpassword"))

		_, err := svc.Login("rotate@example.com", "oldpassword")
		require.Error(t, err)
		_, err = svc.Login("rotate@example.com", "newpassword")
		require.NoError(t, err)
	})

	t.Run("Wrong current password", func(t *testing.T) {
		svc, _ := newTestAuthService(t)
		user := registerUser(t, svc, "guard@example.com", "password", "")

		err := svc.ChangePassword(user.ID, "wrong", "newpassword")
		require.Error(t, err)
		assert.Equal(t, KindUnauthorized, KindOf(err))
	})
}

func TestAdminChangeUserPassword(t *testing.T) {
	t.Run("Admin overwrites without current password", func(t *testing.T) {
		svc, _ := newTestAuthService(t)
		admin := registerUser(t, svc, "admin@example.com", "password", models.RoleAdmin)
		user := registerUser(t, svc, "target@example.com", "password", "")

		require.NoError(t, svc.AdminChangeUserPassword(admin.ID, user.ID, "resetpassword"))

		_, err := svc.Login("target@example.com", "resetpassword")
		require.NoError(t, err)
	})

	t.Run("Non-admin actor rejected", func(t *testing.T) {
		svc, _ := newTestAuthService(t)
		mod := registerUser(t, svc, "mod@example.com", "password", models.RoleModerator)
		user := registerUser(t, svc, "target@example.com", "password", "")

		err := svc.AdminChangeUserPassword(mod.ID, user.ID, "resetpassword")
		require.Error(t, err)
		assert.Equal(t, KindUnauthorized, KindOf(err))

		_, loginErr := svc.Login("target@example.com", "password")
		require.NoError(t, loginErr, "target password unchanged")
	})
}
