package mongostore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/kartiksrathod/Eduu/internal/models"
	"github.com/kartiksrathod/Eduu/internal/repository"
)

func newMock(t *testing.T) *mtest.T {
	return mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
}

func TestUserStore(t *testing.T) {
	mt := newMock(t)
	ctx := context.Background()

	mt.Run("find by email", func(mt *mtest.T) {
		s := NewUserStore(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(1, "db.users", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "u1"},
			{Key: "email", Value: "asha@example.com"},
			{Key: "name", Value: "Asha"},
			{Key: "is_admin", Value: true},
			{Key: "verified", Value: true},
		}))

		u, err := s.FindByEmail(ctx, "asha@example.com")
		require.NoError(mt, err)
		assert.Equal(mt, "u1", u.ID)
		assert.True(mt, u.Admin())
		assert.True(mt, u.Verified)
	})

	mt.Run("find missing", func(mt *mtest.T) {
		s := NewUserStore(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "db.users", mtest.FirstBatch))

		_, err := s.FindByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(mt, err, repository.ErrNotFound)
	})

	mt.Run("create", func(mt *mtest.T) {
		s := NewUserStore(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		err := s.Create(ctx, &models.User{ID: "u2", Email: "new@example.com"})
		assert.NoError(mt, err)
	})

	mt.Run("create failure is wrapped", func(mt *mtest.T) {
		s := NewUserStore(mt.Coll)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index: 0, Code: 11000, Message: "duplicate key",
		}))

		err := s.Create(ctx, &models.User{ID: "u2", Email: "new@example.com"})
		require.Error(mt, err)
		assert.Contains(mt, err.Error(), "insert user")
	})

	mt.Run("set admin on missing user", func(mt *mtest.T) {
		s := NewUserStore(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))

		err := s.SetAdmin(ctx, "ghost@example.com", true, time.Now())
		assert.ErrorIs(mt, err, repository.ErrNotFound)
	})

	mt.Run("mark verified", func(mt *mtest.T) {
		s := NewUserStore(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))

		assert.NoError(mt, s.MarkVerified(ctx, "asha@example.com", time.Now()))
	})

	mt.Run("count admins", func(mt *mtest.T) {
		s := NewUserStore(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "db.users", mtest.FirstBatch, bson.D{{Key: "n", Value: int32(3)}}))

		admins := true
		n, err := s.Count(ctx, repository.UserQuery{Admin: &admins})
		require.NoError(mt, err)
		assert.EqualValues(mt, 3, n)
	})
}

func TestResourceStore(t *testing.T) {
	mt := newMock(t)
	ctx := context.Background()

	mt.Run("list", func(mt *mtest.T) {
		s := NewResourceStore(mt.Coll, models.KindPaper)
		first := mtest.CreateCursorResponse(1, "db.papers", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "p2"},
			{Key: "kind", Value: "paper"},
			{Key: "title", Value: "Graphs"},
		})
		next := mtest.CreateCursorResponse(0, "db.papers", mtest.NextBatch, bson.D{
			{Key: "_id", Value: "p1"},
			{Key: "kind", Value: "paper"},
			{Key: "title", Value: "Trees"},
		})
		mt.AddMockResponses(first, next)

		out, err := s.List(ctx, 0, 20)
		require.NoError(mt, err)
		require.Len(mt, out, 2)
		assert.Equal(mt, "p2", out[0].ID)
		assert.Equal(mt, "Trees", out[1].Title)
	})

	mt.Run("get missing", func(mt *mtest.T) {
		s := NewResourceStore(mt.Coll, models.KindNote)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "db.notes", mtest.FirstBatch))

		_, err := s.Get(ctx, "nope")
		assert.ErrorIs(mt, err, repository.ErrNotFound)
	})

	mt.Run("update returns new document", func(mt *mtest.T) {
		s := NewResourceStore(mt.Coll, models.KindPaper)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "_id", Value: "p1"},
			{Key: "kind", Value: "paper"},
			{Key: "title", Value: "Renamed"},
		}}))

		title := "Renamed"
		r, err := s.Update(ctx, "p1", repository.ResourceUpdate{Title: &title, UpdatedAt: time.Now()})
		require.NoError(mt, err)
		assert.Equal(mt, "Renamed", r.Title)
	})

	mt.Run("update missing", func(mt *mtest.T) {
		s := NewResourceStore(mt.Coll, models.KindPaper)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		title := "x"
		_, err := s.Update(ctx, "p9", repository.ResourceUpdate{Title: &title})
		assert.ErrorIs(mt, err, repository.ErrNotFound)
	})

	mt.Run("delete", func(mt *mtest.T) {
		s := NewResourceStore(mt.Coll, models.KindSyllabus)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}),
		)

		assert.NoError(mt, s.Delete(ctx, "s1"))
		assert.ErrorIs(mt, s.Delete(ctx, "s1"), repository.ErrNotFound)
	})

	mt.Run("increment downloads", func(mt *mtest.T) {
		s := NewResourceStore(mt.Coll, models.KindPaper)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))

		assert.NoError(mt, s.IncrementDownloads(ctx, "p1"))
	})

	mt.Run("count since", func(mt *mtest.T) {
		s := NewResourceStore(mt.Coll, models.KindNote)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "db.notes", mtest.FirstBatch, bson.D{{Key: "n", Value: int32(2)}}))

		n, err := s.Count(ctx, repository.ResourceQuery{UploadedBy: "a@b.c", Since: time.Now().Add(-time.Hour)})
		require.NoError(mt, err)
		assert.EqualValues(mt, 2, n)
	})
}

func TestBookmarkStore(t *testing.T) {
	mt := newMock(t)
	ctx := context.Background()

	mt.Run("find tuple", func(mt *mtest.T) {
		s := NewBookmarkStore(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "db.bookmarks", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "b1"},
			{Key: "user_email", Value: "a@b.c"},
			{Key: "resource_type", Value: "note"},
			{Key: "resource_id", Value: "n1"},
			{Key: "category", Value: "General"},
		}))

		b, err := s.Find(ctx, "a@b.c", models.KindNote, "n1")
		require.NoError(mt, err)
		assert.Equal(mt, "b1", b.ID)
		assert.Equal(mt, models.KindNote, b.ResourceType)
	})

	mt.Run("list empty", func(mt *mtest.T) {
		s := NewBookmarkStore(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "db.bookmarks", mtest.FirstBatch))

		out, err := s.ListByOwner(ctx, "a@b.c")
		require.NoError(mt, err)
		assert.NotNil(mt, out)
		assert.Empty(mt, out)
	})

	mt.Run("delete by tuple missing", func(mt *mtest.T) {
		s := NewBookmarkStore(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		err := s.DeleteByTuple(ctx, "a@b.c", models.KindPaper, "p1")
		assert.ErrorIs(mt, err, repository.ErrNotFound)
	})
}

func TestUpdateDocOnlySetsGivenFields(t *testing.T) {
	at := time.Unix(1_700_000_000, 0)
	title := "t"
	tags := []string{"a"}

	doc := updateDoc(repository.ResourceUpdate{Title: &title, Tags: &tags, UpdatedAt: at})
	set := doc["$set"].(bson.M)
	assert.Equal(t, bson.M{"title": "t", "tags": []string{"a"}, "updated_at": at}, set)
}

func TestUserFilterMatchesRoleOrFlag(t *testing.T) {
	admins, students := true, false
	assert.Equal(t, bson.M{}, userFilter(repository.UserQuery{}))
	assert.Equal(t, bson.M{"$or": bson.A{
		bson.M{"is_admin": true},
		bson.M{"role": models.RoleAdmin},
	}}, userFilter(repository.UserQuery{Admin: &admins}))
	assert.Equal(t, bson.M{
		"is_admin": bson.M{"$ne": true},
		"role":     bson.M{"$ne": models.RoleAdmin},
	}, userFilter(repository.UserQuery{Admin: &students}))
}
