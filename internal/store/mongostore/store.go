// Package mongostore stores attachment records in MongoDB, one document per
// attachment keyed by its id.
package mongostore

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/cleanmedia/internal/media"
)

// CollectionName is the default collection holding attachments.
const CollectionName = "attachments"

var ErrQueryFailed = errors.New("attachment query failed")

// Collection is the subset of *mongo.Collection used by Store.
type Collection interface {
	FindOne(ctx context.Context, filter any, opts ...options.Lister[options.FindOneOptions]) *mongo.SingleResult
	Find(ctx context.Context, filter any, opts ...options.Lister[options.FindOptions]) (*mongo.Cursor, error)
	UpdateOne(ctx context.Context, filter any, update any, opts ...options.Lister[options.UpdateOneOptions]) (*mongo.UpdateResult, error)
	ReplaceOne(ctx context.Context, filter any, replacement any, opts ...options.Lister[options.ReplaceOptions]) (*mongo.UpdateResult, error)
}

// Store implements the attachment store on a MongoDB collection.
type Store struct {
	coll Collection
}

// New creates a Store over coll.
func New(coll Collection) *Store {
	return &Store{coll: coll}
}

// NewFromDatabase uses the attachments collection of db.
func NewFromDatabase(db *mongo.Database) *Store {
	return New(db.Collection(CollectionName))
}

func byID(id int64) bson.D {
	return bson.D{{Key: "_id", Value: id}}
}

func (s *Store) find(ctx context.Context, id int64, field string) (media.Attachment, error) {
	var doc media.Attachment
	opts := options.FindOne().SetProjection(bson.D{{Key: field, Value: 1}})
	if err := s.coll.FindOne(ctx, byID(id), opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return media.Attachment{}, media.ErrNotFound
		}
		return media.Attachment{}, errors.Join(ErrQueryFailed, err)
	}
	return doc, nil
}

func (s *Store) set(ctx context.Context, id int64, field string, value any) error {
	update := bson.D{{Key: "$set", Value: bson.D{{Key: field, Value: value}}}}
	if value == nil {
		update = bson.D{{Key: "$unset", Value: bson.D{{Key: field, Value: ""}}}}
	}
	res, err := s.coll.UpdateOne(ctx, byID(id), update)
	if err != nil {
		return errors.Join(ErrQueryFailed, err)
	}
	if res.MatchedCount == 0 {
		return media.ErrNotFound
	}
	return nil
}

func (s *Store) Metadata(ctx context.Context, id int64) (media.Metadata, error) {
	doc, err := s.find(ctx, id, "metadata")
	if err != nil {
		return media.Metadata{}, err
	}
	if doc.Metadata == nil {
		return media.Metadata{}, media.ErrNotFound
	}
	return *doc.Metadata, nil
}

func (s *Store) SetMetadata(ctx context.Context, id int64, meta media.Metadata) error {
	return s.set(ctx, id, "metadata", meta)
}

func (s *Store) AttachedFile(ctx context.Context, id int64) (string, error) {
	doc, err := s.find(ctx, id, "attached_file")
	if err != nil {
		return "", err
	}
	if doc.AttachedFile == "" {
		return "", media.ErrNotFound
	}
	return doc.AttachedFile, nil
}

func (s *Store) SetAttachedFile(ctx context.Context, id int64, file string) error {
	return s.set(ctx, id, "attached_file", file)
}

func (s *Store) BackupSizes(ctx context.Context, id int64) (media.BackupSizes, error) {
	doc, err := s.find(ctx, id, "backup_sizes")
	if err != nil {
		return nil, err
	}
	return doc.BackupSizes, nil
}

func (s *Store) SetBackupSizes(ctx context.Context, id int64, sizes media.BackupSizes) error {
	if sizes == nil {
		return s.set(ctx, id, "backup_sizes", nil)
	}
	return s.set(ctx, id, "backup_sizes", sizes)
}

// Attachments lists all attachment ids in ascending order.
func (s *Store) Attachments(ctx context.Context) ([]int64, error) {
	opts := options.Find().
		SetProjection(bson.D{{Key: "_id", Value: 1}}).
		SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}

	var docs []struct {
		ID int64 `bson:"_id"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}

	ids := make([]int64, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	return ids, nil
}

// Save replaces the attachment document, inserting it when missing.
func (s *Store) Save(ctx context.Context, a media.Attachment) error {
	if a.ID <= 0 {
		return media.ErrInvalidID
	}
	if _, err := s.coll.ReplaceOne(ctx, byID(a.ID), a, options.Replace().SetUpsert(true)); err != nil {
		return errors.Join(ErrQueryFailed, err)
	}
	return nil
}
