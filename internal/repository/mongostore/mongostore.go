// Package mongostore implements the repository contracts on MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/kartiksrathod/Eduu/internal/db"
	"github.com/kartiksrathod/Eduu/internal/models"
	"github.com/kartiksrathod/Eduu/internal/repository"
)

// New wires every store onto database. Close disconnects the client.
func New(client *mongo.Client, database *mongo.Database) repository.Stores {
	resources := repository.ResourceSet{}
	for _, k := range models.Kinds {
		resources[k] = NewResourceStore(database.Collection(k.Collection()), k)
	}
	return repository.Stores{
		Users:     NewUserStore(database.Collection(db.UsersCollection)),
		Resources: resources,
		Bookmarks: NewBookmarkStore(database.Collection(db.BookmarksCollection)),
		Pinger:    pinger{client},
		Close:     client.Disconnect,
	}
}

type pinger struct{ client *mongo.Client }

func (p pinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx, readpref.Primary())
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return repository.ErrNotFound
	}
	return err
}

func matched(res *mongo.UpdateResult, err error) error {
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func deleted(res *mongo.DeleteResult, err error) error {
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

type UserStore struct {
	coll *mongo.Collection
}

func NewUserStore(coll *mongo.Collection) *UserStore {
	return &UserStore{coll: coll}
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.coll.FindOne(ctx, bson.M{"email": email}).Decode(&u); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (s *UserStore) Create(ctx context.Context, u *models.User) error {
	if _, err := s.coll.InsertOne(ctx, u); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *UserStore) DeleteByEmail(ctx context.Context, email string) error {
	return deleted(s.coll.DeleteOne(ctx, bson.M{"email": email}))
}

func (s *UserStore) set(ctx context.Context, email string, fields bson.M) error {
	return matched(s.coll.UpdateOne(ctx, bson.M{"email": email}, bson.M{"$set": fields}))
}

func (s *UserStore) MarkVerified(ctx context.Context, email string, at time.Time) error {
	return s.set(ctx, email, bson.M{"verified": true, "verified_at": at, "updated_at": at})
}

func (s *UserStore) UpdatePassword(ctx context.Context, email, hash string, at time.Time) error {
	return s.set(ctx, email, bson.M{"password": hash, "updated_at": at})
}

func (s *UserStore) UpdatePhoto(ctx context.Context, email, photoURL string, at time.Time) error {
	return s.set(ctx, email, bson.M{"profile_photo": photoURL, "updated_at": at})
}

func (s *UserStore) SetAdmin(ctx context.Context, email string, isAdmin bool, at time.Time) error {
	role := models.RoleStudent
	if isAdmin {
		role = models.RoleAdmin
	}
	return s.set(ctx, email, bson.M{"is_admin": isAdmin, "role": role, "updated_at": at})
}

func (s *UserStore) List(ctx context.Context) ([]models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}

func (s *UserStore) Count(ctx context.Context, q repository.UserQuery) (int64, error) {
	return s.coll.CountDocuments(ctx, userFilter(q))
}

func userFilter(q repository.UserQuery) bson.M {
	switch {
	case q.Admin == nil:
		return bson.M{}
	case *q.Admin:
		return bson.M{"$or": bson.A{
			bson.M{"is_admin": true},
			bson.M{"role": models.RoleAdmin},
		}}
	default:
		return bson.M{
			"is_admin": bson.M{"$ne": true},
			"role":     bson.M{"$ne": models.RoleAdmin},
		}
	}
}

type ResourceStore struct {
	coll *mongo.Collection
	kind models.Kind
}

func NewResourceStore(coll *mongo.Collection, kind models.Kind) *ResourceStore {
	return &ResourceStore{coll: coll, kind: kind}
}

func (s *ResourceStore) Insert(ctx context.Context, r *models.Resource) error {
	if _, err := s.coll.InsertOne(ctx, r); err != nil {
		return fmt.Errorf("insert %s: %w", s.kind, err)
	}
	return nil
}

func (s *ResourceStore) Get(ctx context.Context, id string) (*models.Resource, error) {
	var r models.Resource
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		return nil, notFound(err)
	}
	return &r, nil
}

func (s *ResourceStore) List(ctx context.Context, skip, limit int64) ([]models.Resource, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)
	cursor, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", s.kind, err)
	}
	out := []models.Resource{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.kind, err)
	}
	return out, nil
}

func (s *ResourceStore) Count(ctx context.Context, q repository.ResourceQuery) (int64, error) {
	filter := bson.M{}
	if q.UploadedBy != "" {
		filter["uploaded_by"] = q.UploadedBy
	}
	if !q.Since.IsZero() {
		filter["created_at"] = bson.M{"$gte": q.Since}
	}
	return s.coll.CountDocuments(ctx, filter)
}

func updateDoc(u repository.ResourceUpdate) bson.M {
	set := bson.M{"updated_at": u.UpdatedAt}
	str := func(field string, v *string) {
		if v != nil {
			set[field] = *v
		}
	}
	str("title", u.Title)
	str("description", u.Description)
	str("abstract", u.Abstract)
	str("content", u.Content)
	str("course_code", u.CourseCode)
	str("branch", u.Branch)
	str("year", u.Year)
	if u.Authors != nil {
		set["authors"] = *u.Authors
	}
	if u.Tags != nil {
		set["tags"] = *u.Tags
	}
	if u.File != nil {
		set["file"] = *u.File
	}
	return bson.M{"$set": set}
}

func (s *ResourceStore) Update(ctx context.Context, id string, u repository.ResourceUpdate) (*models.Resource, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var r models.Resource
	if err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, updateDoc(u), opts).Decode(&r); err != nil {
		return nil, notFound(err)
	}
	return &r, nil
}

func (s *ResourceStore) Delete(ctx context.Context, id string) error {
	return deleted(s.coll.DeleteOne(ctx, bson.M{"_id": id}))
}

func (s *ResourceStore) IncrementDownloads(ctx context.Context, id string) error {
	return matched(s.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"download_count": 1}}))
}

type BookmarkStore struct {
	coll *mongo.Collection
}

func NewBookmarkStore(coll *mongo.Collection) *BookmarkStore {
	return &BookmarkStore{coll: coll}
}

func tuple(email string, kind models.Kind, resourceID string) bson.M {
	return bson.M{"user_email": email, "resource_type": kind, "resource_id": resourceID}
}

func (s *BookmarkStore) ListByOwner(ctx context.Context, email string) ([]models.Bookmark, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.coll.Find(ctx, bson.M{"user_email": email}, opts)
	if err != nil {
		return nil, fmt.Errorf("find bookmarks: %w", err)
	}
	out := []models.Bookmark{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode bookmarks: %w", err)
	}
	return out, nil
}

func (s *BookmarkStore) Find(ctx context.Context, email string, kind models.Kind, resourceID string) (*models.Bookmark, error) {
	var b models.Bookmark
	if err := s.coll.FindOne(ctx, tuple(email, kind, resourceID)).Decode(&b); err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

func (s *BookmarkStore) FindByID(ctx context.Context, id string) (*models.Bookmark, error) {
	var b models.Bookmark
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&b); err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

func (s *BookmarkStore) Insert(ctx context.Context, b *models.Bookmark) error {
	if _, err := s.coll.InsertOne(ctx, b); err != nil {
		return fmt.Errorf("insert bookmark: %w", err)
	}
	return nil
}

func (s *BookmarkStore) DeleteByTuple(ctx context.Context, email string, kind models.Kind, resourceID string) error {
	return deleted(s.coll.DeleteOne(ctx, tuple(email, kind, resourceID)))
}

func (s *BookmarkStore) DeleteByID(ctx context.Context, id string) error {
	return deleted(s.coll.DeleteOne(ctx, bson.M{"_id": id}))
}

func (s *BookmarkStore) Count(ctx context.Context, email string) (int64, error) {
	filter := bson.M{}
	if email != "" {
		filter["user_email"] = email
	}
	return s.coll.CountDocuments(ctx, filter)
}
