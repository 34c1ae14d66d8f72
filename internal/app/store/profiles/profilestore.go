package profilestore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/campushub/internal/app/system/normalize"
	"github.com/dalemusser/campushub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound = errors.New("profile not found")
	// ErrExists is returned by Create when the identity already has a profile.
	ErrExists    = errors.New("profile already exists for this identity")
	ErrBadRole   = errors.New(`role must be "admin"|"participant"|"organizer"|"volunteer"`)
	ErrBadStatus = errors.New(`status must be "active"|"disabled"`)
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("profiles")}
}

func prepare(p models.Profile, now time.Time) (models.Profile, error) {
	p.FullName = normalize.Name(p.FullName)
	p.FullNameCI = text.Fold(p.FullName)
	p.Email = normalize.Email(p.Email)
	p.Role = normalize.Role(p.Role)
	if p.Role == "" {
		p.Role = models.RoleParticipant
	}
	if !models.IsValidRole(p.Role) {
		return models.Profile{}, ErrBadRole
	}
	p.Status = normalize.Status(p.Status)
	if p.Status == "" {
		p.Status = models.StatusActive
	}
	if p.Status != models.StatusActive && p.Status != models.StatusDisabled {
		return models.Profile{}, ErrBadStatus
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	return p, nil
}

// Create inserts the profile for p.ID. Role defaults to participant and
// status to active.
func (s *Store) Create(ctx context.Context, p models.Profile) (models.Profile, error) {
	p, err := prepare(p, time.Now().UTC())
	if err != nil {
		return models.Profile{}, err
	}
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Profile{}, ErrExists
		}
		return models.Profile{}, err
	}
	return p, nil
}

// EnsureDefault creates p only if no profile exists for p.ID. An existing
// profile is left untouched. Reports whether a document was inserted.
func (s *Store) EnsureDefault(ctx context.Context, p models.Profile) (bool, error) {
	p, err := prepare(p, time.Now().UTC())
	if err != nil {
		return false, err
	}
	raw, err := bson.Marshal(p)
	if err != nil {
		return false, err
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return false, err
	}
	delete(doc, "_id") // supplied by the filter on insert
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": p.ID},
		bson.M{"$setOnInsert": doc},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		// Two concurrent upserts can race on _id; the loser sees a dup.
		if wafflemongo.IsDup(err) {
			return false, nil
		}
		return false, err
	}
	return res.UpsertedCount == 1, nil
}

// Find returns the profile for identityID, or (nil, nil) if there is none.
func (s *Store) Find(ctx context.Context, identityID string) (*models.Profile, error) {
	var p models.Profile
	err := s.c.FindOne(ctx, bson.M{"_id": identityID}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByID is Find with ErrNotFound for a missing profile.
func (s *Store) GetByID(ctx context.Context, identityID string) (models.Profile, error) {
	p, err := s.Find(ctx, identityID)
	if err != nil {
		return models.Profile{}, err
	}
	if p == nil {
		return models.Profile{}, ErrNotFound
	}
	return *p, nil
}

// SelfUpdate holds the fields an owner may change. Nil fields are left as is.
type SelfUpdate struct {
	FullName      *string                   `json:"full_name,omitempty" validate:"omitempty,notblank,max=120" label:"Full name"`
	Bio           *string                   `json:"bio,omitempty" validate:"omitempty,max=1000" label:"Bio"`
	Notifications *models.NotificationPrefs `json:"notifications,omitempty"`
	Privacy       *models.PrivacyPrefs      `json:"privacy,omitempty"`
}

// Empty reports whether u changes nothing.
func (u SelfUpdate) Empty() bool {
	return u.FullName == nil && u.Bio == nil && u.Notifications == nil && u.Privacy == nil
}

// UpdateSelf applies u and returns the updated profile.
func (s *Store) UpdateSelf(ctx context.Context, identityID string, u SelfUpdate) (models.Profile, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if u.FullName != nil {
		name := normalize.Name(*u.FullName)
		set["full_name"] = name
		set["full_name_ci"] = text.Fold(name)
	}
	if u.Bio != nil {
		set["bio"] = *u.Bio
	}
	if u.Notifications != nil {
		set["notifications"] = u.Notifications
	}
	if u.Privacy != nil {
		set["privacy"] = u.Privacy
	}
	return s.findOneAndSet(ctx, identityID, set)
}

// SetRole changes the role. Admin-only at the handler layer.
func (s *Store) SetRole(ctx context.Context, identityID, role string) (models.Profile, error) {
	role = normalize.Role(role)
	if !models.IsValidRole(role) {
		return models.Profile{}, ErrBadRole
	}
	return s.findOneAndSet(ctx, identityID, bson.M{"role": role, "updated_at": time.Now().UTC()})
}

// SetStatus enables or disables a profile.
func (s *Store) SetStatus(ctx context.Context, identityID, status string) (models.Profile, error) {
	status = normalize.Status(status)
	if status != models.StatusActive && status != models.StatusDisabled {
		return models.Profile{}, ErrBadStatus
	}
	return s.findOneAndSet(ctx, identityID, bson.M{"status": status, "updated_at": time.Now().UTC()})
}

func (s *Store) findOneAndSet(ctx context.Context, identityID string, set bson.M) (models.Profile, error) {
	var out models.Profile
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": identityID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Profile{}, ErrNotFound
	}
	if err != nil {
		return models.Profile{}, err
	}
	return out, nil
}

// List returns every profile ordered by name.
func (s *Store) List(ctx context.Context) ([]models.Profile, error) {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{
		{Key: "full_name_ci", Value: 1},
		{Key: "_id", Value: 1},
	}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Profile{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CountByRole returns the number of profiles per role.
func (s *Store) CountByRole(ctx context.Context) (map[string]int64, error) {
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$role"},
			{Key: "n", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []struct {
		Role string `bson:"_id"`
		N    int64  `bson:"n"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Role] = r.N
	}
	return out, nil
}
