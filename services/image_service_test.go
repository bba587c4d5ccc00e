package services

import (
	"fmt"
	"strings"
	"testing"

	"imagehub/models"
	"imagehub/repositories"
	"imagehub/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testBaseURL = "http://localhost:3000"

func newTestImageService(t *testing.T) (ImageService, *storage.DiskStore, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	store, err := storage.NewDiskStore(t.TempDir())
	require.NoError(t, err)
	svc := NewImageService(repositories.NewImageRepository(db), store, testBaseURL, zap.NewNop())
	return svc, store, db
}

func createTestUser(t *testing.T, db *gorm.DB, email string, role models.Role) *models.User {
	t.Helper()
	user := &models.User{Email: email, Password: "x", Name: email, Role: role}
	require.NoError(t, db.Create(user).Error)
	return user
}

func uploadTestImage(t *testing.T, svc ImageService, name string, ownerID uint) *ImageResponse {
	t.Helper()
	image, err := svc.SaveImage(strings.NewReader("payload-"+name), name+".png", &CreateImageInput{Name: name}, ownerID)
	require.NoError(t, err)
	return image
}

func TestSaveImage(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		svc, store, db := newTestImageService(t)
		owner := createTestUser(t, db, "owner@example.com", models.RoleUser)

		image, err := svc.SaveImage(strings.NewReader("binary"), "photo.png", &CreateImageInput{
			Name:        "Photo",
			Description: "A photo",
		}, owner.ID)
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(image.URL, testBaseURL+"/uploads/"), "URL %q", image.URL)
		assert.Equal(t, owner.ID, image.UserID)

		filename := FilenameFromURL(image.URL)
		assert.True(t, store.Exists(filename), "file must exist at creation time")
		assert.True(t, strings.HasSuffix(filename, "photo.png"))

		var row models.Image
		require.NoError(t, db.First(&row, image.ID).Error)
		assert.Equal(t, "A photo", row.Description)
	})

	t.Run("Missing file", func(t *testing.T) {
		svc, _, db := newTestImageService(t)
		owner := createTestUser(t, db, "owner@example.com", models.RoleUser)

		_, err := svc.SaveImage(nil, "", &CreateImageInput{Name: "x"}, owner.ID)
		require.Error(t, err)
		assert.Equal(t, KindValidation, KindOf(err))
	})

	t.Run("Concurrent names never clash", func(t *testing.T) {
		svc, _, db := newTestImageService(t)
		owner := createTestUser(t, db, "owner@example.com", models.RoleUser)

		seen := map[string]bool{}
		for i := 0; i < 20; i++ {
			image := uploadTestImage(t, svc, "same", owner.ID)
			filename := FilenameFromURL(image.URL)
			assert.False(t, seen[filename], "duplicate generated filename %q", filename)
			seen[filename] = true
		}
	})
}

func TestGetAllImages(t *testing.T) {
	t.Run("Role-scoped visibility across two owners", func(t *testing.T) {
		svc, _, db := newTestImageService(t)
		alice := createTestUser(t, db, "alice@example.com", models.RoleUser)
		bob := createTestUser(t, db, "bob@example.com", models.RoleUser)
		admin := createTestUser(t, db, "admin@example.com", models.RoleAdmin)
		mod := createTestUser(t, db, "mod@example.com", models.RoleModerator)

		uploadTestImage(t, svc, "a1", alice.ID)
		uploadTestImage(t, svc, "a2", alice.ID)
		uploadTestImage(t, svc, "b1", bob.ID)

		own, err := svc.GetAllImages(1, 10, alice.ID, models.RoleUser)
		require.NoError(t, err)
		assert.Equal(t, int64(2), own.Total)
		for _, img := range own.Data {
			assert.Equal(t, alice.ID, img.UserID)
		}

		all, err := svc.GetAllImages(1, 10, admin.ID, models.RoleAdmin)
		require.NoError(t, err)
		assert.Equal(t, int64(3), all.Total)

		modView, err := svc.GetAllImages(1, 10, mod.ID, models.RoleModerator)
		require.NoError(t, err)
		assert.Equal(t, int64(3), modView.Total)
	})

	t.Run("Pagination invariant and hasMore", func(t *testing.T) {
		svc, _, db := newTestImageService(t)
		owner := createTestUser(t, db, "owner@example.com", models.RoleUser)
		for i := 0; i < 5; i++ {
			uploadTestImage(t, svc, fmt.Sprintf("img-%d", i), owner.ID)
		}

		for _, limit := range []int{2, 5, 10} {
			page1, err := svc.GetAllImages(1, limit, owner.ID, models.RoleUser)
			require.NoError(t, err)
			expectedPages := int((page1.Total + int64(limit) - 1) / int64(limit))
			assert.Equal(t, expectedPages, page1.TotalPages, "limit %d", limit)
			assert.LessOrEqual(t, len(page1.Data), limit)
			assert.Equal(t, int64(limit) < page1.Total, page1.HasMore, "limit %d", limit)
		}
	})
}

func TestGetImageByID(t *testing.T) {
	svc, _, db := newTestImageService(t)
	alice := createTestUser(t, db, "alice@example.com", models.RoleUser)
	bob := createTestUser(t, db, "bob@example.com", models.RoleUser)
	mod := createTestUser(t, db, "mod@example.com", models.RoleModerator)
	image := uploadTestImage(t, svc, "private", alice.ID)

	t.Run("Owner can read", func(t *testing.T) {
		got, err := svc.GetImageByID(image.ID, alice.ID, models.RoleUser)
		require.NoError(t, err)
		assert.Equal(t, image.ID, got.ID)
	})

	t.Run("Moderator bypasses ownership on reads", func(t *testing.T) {
		_, err := svc.GetImageByID(image.ID, mod.ID, models.RoleModerator)
		require.NoError(t, err)
	})

	t.Run("Stranger rejected", func(t *testing.T) {
		_, err := svc.GetImageByID(image.ID, bob.ID, models.RoleUser)
		require.Error(t, err)
		assert.Equal(t, KindUnauthorized, KindOf(err))
	})

	t.Run("Missing image", func(t *testing.T) {
		_, err := svc.GetImageByID(9999, alice.ID, models.RoleUser)
		require.Error(t, err)
		assert.Equal(t, KindNotFound, KindOf(err))
	})
}

func TestUpdateImage(t *testing.T) {
	svc, _, db := newTestImageService(t)
	alice := createTestUser(t, db, "alice@example.com", models.RoleUser)
	bob := createTestUser(t, db, "bob@example.com", models.RoleUser)
	admin := createTestUser(t, db, "admin@example.com", models.RoleAdmin)
	image := uploadTestImage(t, svc, "original", alice.ID)

	t.Run("Owner updates name and description", func(t *testing.T) {
		name := "renamed"
		desc := "now described"
		updated, err := svc.UpdateImage(image.ID, &UpdateImageInput{Name: &name, Description: &desc}, alice.ID, models.RoleUser)
		require.NoError(t, err)
		assert.Equal(t, "renamed", updated.Name)
		assert.Equal(t, "now described", updated.Description)
	})

	t.Run("Non-owner rejected and record untouched", func(t *testing.T) {
		name := "hijacked"
		_, err := svc.UpdateImage(image.ID, &UpdateImageInput{Name: &name}, bob.ID, models.RoleUser)
		require.Error(t, err)
		assert.Equal(t, KindUnauthorized, KindOf(err))

		var row models.Image
		require.NoError(t, db.First(&row, image.ID).Error)
		assert.NotEqual(t, "hijacked", row.Name)
	})

	t.Run("No elevated-role bypass on writes", func(t *testing.T) {
		name := "admin-edit"
		_, err := svc.UpdateImage(image.ID, &UpdateImageInput{Name: &name}, admin.ID, models.RoleAdmin)
		require.Error(t, err)
		assert.Equal(t, KindUnauthorized, KindOf(err))
	})
}

func TestDeleteImage(t *testing.T) {
	t.Run("Owner deletes file and row", func(t *testing.T) {
		svc, store, db := newTestImageService(t)
		owner := createTestUser(t, db, "owner@example.com", models.RoleUser)
		image := uploadTestImage(t, svc, "doomed", owner.ID)
		filename := FilenameFromURL(image.URL)

		result, err := svc.DeleteImage(image.ID, owner.ID, models.RoleUser)
		require.NoError(t, err)
		assert.Equal(t, image.ID, result.ID)
		assert.Equal(t, image.Name, result.Name)
		assert.Equal(t, filename, result.Filename)
		assert.Equal(t, owner.ID, result.UserID)

		assert.False(t, store.Exists(filename))
		var row models.Image
		err = db.First(&row, image.ID).Error
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})

	t.Run("Non-owner rejected, file and row untouched", func(t *testing.T) {
		svc, store, db := newTestImageService(t)
		owner := createTestUser(t, db, "owner@example.com", models.RoleUser)
		stranger := createTestUser(t, db, "stranger@example.com", models.RoleUser)
		image := uploadTestImage(t, svc, "kept", owner.ID)
		filename := FilenameFromURL(image.URL)

		_, err := svc.DeleteImage(image.ID, stranger.ID, models.RoleUser)
		require.Error(t, err)
		assert.Equal(t, KindUnauthorized, KindOf(err))

		assert.True(t, store.Exists(filename))
		var row models.Image
		require.NoError(t, db.First(&row, image.ID).Error)
	})

	t.Run("Missing file is tolerated", func(t *testing.T) {
		svc, store, db := newTestImageService(t)
		owner := createTestUser(t, db, "owner@example.com", models.RoleUser)
		image := uploadTestImage(t, svc, "ghost", owner.ID)
		filename := FilenameFromURL(image.URL)

		require.NoError(t, store.Remove(filename))

		_, err := svc.DeleteImage(image.ID, owner.ID, models.RoleUser)
		require.NoError(t, err, "deletion succeeds even when the backing file is gone")

		var row models.Image
		err = db.First(&row, image.ID).Error
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})
}
