package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"civicpulse-be/models"
)

// MongoStore is the durable Store implementation. Upvotes use a server-side
// $inc so concurrent increments never lose an update; the insertion sequence
// comes from a counters collection. Commits are serialized through commitMu
// so events reach subscribers in commit order, matching the in-memory store's
// delivery contract.
type MongoStore struct {
	*hub

	issues   *mongo.Collection
	counters *mongo.Collection

	commitMu sync.Mutex
}

var _ Store = (*MongoStore)(nil)

// NewMongoStore wires the store to the given database. Collections used:
// "issues" and "counters".
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		hub:      newHub(),
		issues:   db.Collection("issues"),
		counters: db.Collection("counters"),
	}
}

func (s *MongoStore) nextSeq(ctx context.Context) (uint64, error) {
	var doc struct {
		Value uint64 `bson:"value"`
	}
	err := s.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": "issueSeq"},
		bson.M{"$inc": bson.M{"value": 1}},
		options.FindOneAndUpdate().
			SetUpsert(true).
			SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return 0, err
	}
	return doc.Value, nil
}

func (s *MongoStore) Create(ctx context.Context, draft models.IssueDraft) (*models.Issue, error) {
	if err := models.ValidateDraft(draft); err != nil {
		return nil, err
	}

	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	seq, err := s.nextSeq(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	issue := &models.Issue{
		ID:          uuid.NewString(),
		Title:       draft.Title,
		Description: draft.Description,
		Category:    draft.Category,
		Status:      models.Reported,
		Location:    draft.Location,
		ImageURL:    draft.ImageURL,
		Upvotes:     0,
		ReportedBy:  draft.ReportedBy,
		ReportedAt:  now,
		UpdatedAt:   now,
		Seq:         seq,
	}

	if _, err := s.issues.InsertOne(ctx, issue); err != nil {
		return nil, err
	}

	out, evRecord := *issue, *issue
	s.publish(Event{Kind: Created, ID: issue.ID, Issue: &evRecord})
	return &out, nil
}

func (s *MongoStore) Upvote(ctx context.Context, id string) (*models.Issue, error) {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	var issue models.Issue
	err := s.issues.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"upvotes": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&issue)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}

	s.publish(Event{Kind: Upvoted, ID: issue.ID, Upvotes: issue.Upvotes})
	return &issue, nil
}

func (s *MongoStore) UpdateStatus(ctx context.Context, id string, upd StatusUpdate) (*models.Issue, error) {
	if !upd.Status.Valid() {
		return nil, ErrInvalidStatus
	}

	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	set := bson.M{
		"status":    upd.Status,
		"updatedAt": time.Now(),
	}
	if upd.Notes != "" {
		set["resolutionNotes"] = upd.Notes
	}
	if upd.AssignedTo != "" {
		set["assignedTo"] = upd.AssignedTo
	}

	var issue models.Issue
	err := s.issues.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&issue)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}

	evRecord := issue
	s.publish(Event{Kind: Updated, ID: issue.ID, Issue: &evRecord})
	return &issue, nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (*models.Issue, error) {
	var issue models.Issue
	err := s.issues.FindOne(ctx, bson.M{"_id": id}).Decode(&issue)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &issue, nil
}

func (s *MongoStore) Snapshot(ctx context.Context) ([]models.Issue, error) {
	findOptions := options.Find().
		SetSort(bson.D{{Key: "reportedAt", Value: -1}, {Key: "seq", Value: -1}})

	cursor, err := s.issues.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var issues []models.Issue
	if err := cursor.All(ctx, &issues); err != nil {
		return nil, err
	}
	return issues, nil
}
