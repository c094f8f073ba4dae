// internal/profile/mongo.go

package profile

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/moodlyapp/moodly-backend/internal/common/geo"
)

// MongoStore is the MongoDB-backed profile store. Same canonical entity,
// same Store contract, different query language.
type MongoStore struct {
	profiles *mongo.Collection
	moods    *mongo.Collection
}

var _ Store = (*MongoStore)(nil)

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		profiles: db.Collection("profiles"),
		moods:    db.Collection("mood_history"),
	}
}

// EnsureIndexes creates the 2dsphere and ordering indexes the candidate
// query depends on. Call once at startup.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.profiles.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "location", Value: "2dsphere"}}},
		{Keys: bson.D{{Key: "last_seen", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to ensure profile indexes: %w", err)
	}

	_, err = s.moods.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "set_at", Value: -1}}},
		{Keys: bson.D{{Key: "set_at", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to ensure mood history indexes: %w", err)
	}
	return nil
}

// geoJSON is the GeoJSON point shape the 2dsphere index wants;
// coordinates are [lng, lat].
type geoJSON struct {
	Type        string    `bson:"type"`
	Coordinates []float64 `bson:"coordinates"`
}

func toGeoJSON(p *geo.Point) *geoJSON {
	if p == nil {
		return nil
	}
	return &geoJSON{Type: "Point", Coordinates: []float64{p.Lng, p.Lat}}
}

func fromGeoJSON(g *geoJSON) *geo.Point {
	if g == nil || len(g.Coordinates) != 2 {
		return nil
	}
	return &geo.Point{Lat: g.Coordinates[1], Lng: g.Coordinates[0]}
}

type profileDoc struct {
	UserID       int64      `bson:"_id"`
	DisplayName  string     `bson:"display_name"`
	Bio          string     `bson:"bio"`
	Gender       string     `bson:"gender"`
	InterestedIn []string   `bson:"interested_in"`
	DateOfBirth  time.Time  `bson:"date_of_birth"`
	Location     *geoJSON   `bson:"location,omitempty"`
	LocatedAt    *time.Time `bson:"located_at,omitempty"`
	Mood         string     `bson:"current_mood"`
	MoodSetAt    *time.Time `bson:"mood_set_at,omitempty"`
	MoodTTLHours int        `bson:"mood_ttl_hours"`
	SearchRadius int        `bson:"search_radius_m"`
	AgeMin       int        `bson:"age_min"`
	AgeMax       int        `bson:"age_max"`
	PhotoURL     string     `bson:"photo_url"`
	GhostMode    bool       `bson:"ghost_mode"`
	IsActive     bool       `bson:"is_active"`
	IsBanned     bool       `bson:"is_banned"`
	LastSeen     time.Time  `bson:"last_seen"`
	CreatedAt    time.Time  `bson:"created_at"`
	UpdatedAt    time.Time  `bson:"updated_at"`
}

func (d *profileDoc) toProfile() *Profile {
	return &Profile{
		UserID:             d.UserID,
		DisplayName:        d.DisplayName,
		Bio:                d.Bio,
		Gender:             d.Gender,
		InterestedIn:       d.InterestedIn,
		DateOfBirth:        d.DateOfBirth,
		Location:           fromGeoJSON(d.Location),
		LocatedAt:          d.LocatedAt,
		Mood:               d.Mood,
		MoodSetAt:          d.MoodSetAt,
		MoodTTLHours:       d.MoodTTLHours,
		SearchRadiusMeters: d.SearchRadius,
		AgeMin:             d.AgeMin,
		AgeMax:             d.AgeMax,
		PhotoURL:           d.PhotoURL,
		GhostMode:          d.GhostMode,
		IsActive:           d.IsActive,
		IsBanned:           d.IsBanned,
		LastSeen:           d.LastSeen,
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
	}
}

func (s *MongoStore) Create(ctx context.Context, p *Profile) error {
	now := time.Now()
	doc := profileDoc{
		UserID:       p.UserID,
		DisplayName:  p.DisplayName,
		Bio:          p.Bio,
		Gender:       p.Gender,
		InterestedIn: p.InterestedIn,
		DateOfBirth:  p.DateOfBirth,
		Mood:         "",
		MoodTTLHours: p.MoodTTLHours,
		SearchRadius: p.SearchRadiusMeters,
		AgeMin:       p.AgeMin,
		AgeMax:       p.AgeMax,
		IsActive:     true,
		LastSeen:     now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if doc.InterestedIn == nil {
		doc.InterestedIn = []string{}
	}

	_, err := s.profiles.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return ErrProfileExists
	}
	if err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, userID int64) (*Profile, error) {
	var doc profileDoc
	err := s.profiles.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return doc.toProfile(), nil
}

func (s *MongoStore) GetMany(ctx context.Context, userIDs []int64) ([]*Profile, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	cursor, err := s.profiles.Find(ctx, bson.M{"_id": bson.M{"$in": userIDs}})
	if err != nil {
		return nil, fmt.Errorf("failed to get profiles: %w", err)
	}
	return decodeProfiles(ctx, cursor)
}

func (s *MongoStore) Update(ctx context.Context, p *Profile) error {
	update := bson.M{"$set": bson.M{
		"display_name":    p.DisplayName,
		"bio":             p.Bio,
		"gender":          p.Gender,
		"interested_in":   p.InterestedIn,
		"search_radius_m": p.SearchRadiusMeters,
		"age_min":         p.AgeMin,
		"age_max":         p.AgeMax,
		"mood_ttl_hours":  p.MoodTTLHours,
		"updated_at":      time.Now(),
	}}

	result, err := s.profiles.UpdateByID(ctx, p.UserID, update)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func (s *MongoStore) UpdateLocation(ctx context.Context, userID int64, loc geo.Point, at time.Time) error {
	update := bson.M{"$set": bson.M{
		"location":   toGeoJSON(&loc),
		"located_at": at,
		"last_seen":  at,
		"updated_at": time.Now(),
	}}

	result, err := s.profiles.UpdateByID(ctx, userID, update)
	if err != nil {
		return fmt.Errorf("failed to update location: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func (s *MongoStore) SetMood(ctx context.Context, userID int64, mood string, loc *geo.Point, at time.Time) error {
	var update bson.M
	if mood == "" {
		update = bson.M{
			"$set":   bson.M{"current_mood": "", "updated_at": time.Now()},
			"$unset": bson.M{"mood_set_at": ""},
		}
	} else {
		update = bson.M{"$set": bson.M{
			"current_mood": mood,
			"mood_set_at":  at,
			"last_seen":    at,
			"updated_at":   time.Now(),
		}}
	}

	result, err := s.profiles.UpdateByID(ctx, userID, update)
	if err != nil {
		return fmt.Errorf("failed to set mood: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrProfileNotFound
	}

	if mood != "" {
		entry := bson.M{
			"user_id": userID,
			"mood":    mood,
			"set_at":  at,
		}
		if loc != nil {
			entry["location"] = toGeoJSON(loc)
		}
		if _, err := s.moods.InsertOne(ctx, entry); err != nil {
			return fmt.Errorf("failed to append mood history: %w", err)
		}
	}
	return nil
}

func (s *MongoStore) MoodHistory(ctx context.Context, userID int64, limit int) ([]*MoodEntry, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "set_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := s.moods.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list mood history: %w", err)
	}

	type moodDoc struct {
		ID       primitive.ObjectID `bson:"_id"`
		UserID   int64              `bson:"user_id"`
		Mood     string             `bson:"mood"`
		Location *geoJSON           `bson:"location,omitempty"`
		SetAt    time.Time          `bson:"set_at"`
	}

	var docs []moodDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode mood history: %w", err)
	}

	entries := make([]*MoodEntry, 0, len(docs))
	for _, d := range docs {
		entries = append(entries, &MoodEntry{
			ID:       d.ID.Hex(),
			UserID:   d.UserID,
			Mood:     d.Mood,
			Location: fromGeoJSON(d.Location),
			SetAt:    d.SetAt,
		})
	}
	return entries, nil
}

func (s *MongoStore) PruneMoodHistory(ctx context.Context, before time.Time) (int64, error) {
	result, err := s.moods.DeleteMany(ctx, bson.M{"set_at": bson.M{"$lt": before}})
	if err != nil {
		return 0, fmt.Errorf("failed to prune mood history: %w", err)
	}
	return result.DeletedCount, nil
}

func (s *MongoStore) SetPhotoURL(ctx context.Context, userID int64, url string) error {
	return s.setField(ctx, userID, "photo_url", url)
}

func (s *MongoStore) SetGhostMode(ctx context.Context, userID int64, on bool) error {
	return s.setField(ctx, userID, "ghost_mode", on)
}

func (s *MongoStore) SetActive(ctx context.Context, userID int64, active bool) error {
	return s.setField(ctx, userID, "is_active", active)
}

func (s *MongoStore) SetBanned(ctx context.Context, userID int64, banned bool) error {
	return s.setField(ctx, userID, "is_banned", banned)
}

func (s *MongoStore) setField(ctx context.Context, userID int64, field string, value interface{}) error {
	update := bson.M{"$set": bson.M{field: value, "updated_at": time.Now()}}

	result, err := s.profiles.UpdateByID(ctx, userID, update)
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", field, err)
	}
	if result.MatchedCount == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func (s *MongoStore) TouchLastSeen(ctx context.Context, userID int64, at time.Time) error {
	filter := bson.M{"_id": userID, "last_seen": bson.M{"$lt": at}}
	_, err := s.profiles.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"last_seen": at}})
	if err != nil {
		return fmt.Errorf("failed to touch last seen: %w", err)
	}
	return nil
}

func (s *MongoStore) FindCandidates(ctx context.Context, f CandidateFilter) ([]*Profile, error) {
	// $geoWithin instead of $nearSphere: the contract orders by
	// last_seen, and $nearSphere would force a distance sort.
	radiusRadians := float64(f.RadiusMeters) / geo.EarthRadiusMeters

	filter := bson.M{
		"_id":        bson.M{"$ne": f.ExcludeUserID},
		"is_active":  true,
		"is_banned":  false,
		"ghost_mode": false,
		"location": bson.M{"$geoWithin": bson.M{
			"$centerSphere": bson.A{bson.A{f.Center.Lng, f.Center.Lat}, radiusRadians},
		}},
		"date_of_birth": bson.M{"$gt": f.BornAfter, "$lte": f.BornOnOrBefore},
	}

	if f.Mood != "" {
		filter["current_mood"] = f.Mood
		filter["$expr"] = bson.M{"$gte": bson.A{
			"$mood_set_at",
			bson.M{"$dateSubtract": bson.M{
				"startDate": f.Now,
				"unit":      "hour",
				"amount":    "$mood_ttl_hours",
			}},
		}}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "last_seen", Value: -1}}).
		SetLimit(int64(f.Limit))

	cursor, err := s.profiles.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}
	return decodeProfiles(ctx, cursor)
}

func decodeProfiles(ctx context.Context, cursor *mongo.Cursor) ([]*Profile, error) {
	var docs []profileDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode profiles: %w", err)
	}

	profiles := make([]*Profile, 0, len(docs))
	for i := range docs {
		profiles = append(profiles, docs[i].toProfile())
	}
	return profiles, nil
}
