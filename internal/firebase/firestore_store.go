package firebase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"cloud.google.com/go/firestore"
	"github.com/memberhub/backend/internal/profiles"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const DefaultUsersCollection = "Users"

var errMissingFirestoreClient = errors.New("firebase: firestore client required")

// FirestoreStore keeps one profile document per uid in a Firestore collection.
type FirestoreStore struct {
	collection *firestore.CollectionRef
	logger     *zap.Logger
}

var _ profiles.Store = (*FirestoreStore)(nil)

// NewFirestoreStore binds the store to the named collection.
func NewFirestoreStore(client *firestore.Client, collection string, logger *zap.Logger) (*FirestoreStore, error) {
	if client == nil {
		return nil, errMissingFirestoreClient
	}
	name := strings.TrimSpace(collection)
	if name == "" {
		name = DefaultUsersCollection
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FirestoreStore{collection: client.Collection(name), logger: logger}, nil
}

func (s *FirestoreStore) Get(ctx context.Context, uid string) (profiles.Profile, error) {
	snapshot, err := s.collection.Doc(uid).Get(ctx)
	if isNotFound(err) {
		return profiles.Profile{}, profiles.ErrNotFound
	}
	if err != nil {
		return profiles.Profile{}, fmt.Errorf("firestore: get %s: %w", uid, err)
	}
	return profileFromSnapshot(snapshot)
}

func (s *FirestoreStore) Exists(ctx context.Context, uid string) (bool, error) {
	snapshot, err := s.collection.Doc(uid).Get(ctx)
	if isNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("firestore: exists %s: %w", uid, err)
	}
	return snapshot.Exists(), nil
}

// Set writes the whole document, replacing any existing one.
func (s *FirestoreStore) Set(ctx context.Context, uid string, profile profiles.Profile) error {
	key, err := profiles.ValidateUID(uid)
	if err != nil {
		return err
	}
	if _, err := s.collection.Doc(key).Set(ctx, profile); err != nil {
		return fmt.Errorf("firestore: set %s: %w", key, err)
	}
	s.logger.Debug("profile stored", zap.String("uid", key))
	return nil
}

// Update merges the supplied fields; Firestore rejects updates of missing documents.
func (s *FirestoreStore) Update(ctx context.Context, uid string, update profiles.Update) error {
	changes := updatesFromFields(update.Fields())
	if len(changes) == 0 {
		return nil
	}
	_, err := s.collection.Doc(uid).Update(ctx, changes)
	if isNotFound(err) {
		return profiles.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("firestore: update %s: %w", uid, err)
	}
	return nil
}

// Delete removes the document; deleting a missing document succeeds.
func (s *FirestoreStore) Delete(ctx context.Context, uid string) error {
	if _, err := s.collection.Doc(uid).Delete(ctx); err != nil {
		return fmt.Errorf("firestore: delete %s: %w", uid, err)
	}
	return nil
}

func (s *FirestoreStore) List(ctx context.Context) ([]profiles.Profile, error) {
	documents := s.collection.Documents(ctx)
	defer documents.Stop()

	var result []profiles.Profile
	for {
		snapshot, err := documents.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("firestore: list: %w", err)
		}
		profile, err := profileFromSnapshot(snapshot)
		if err != nil {
			return nil, err
		}
		result = append(result, profile)
	}
	return result, nil
}

func profileFromSnapshot(snapshot *firestore.DocumentSnapshot) (profiles.Profile, error) {
	var profile profiles.Profile
	if err := snapshot.DataTo(&profile); err != nil {
		return profiles.Profile{}, fmt.Errorf("firestore: decode %s: %w", snapshot.Ref.ID, err)
	}
	profile.UID = snapshot.Ref.ID
	return profile, nil
}

// updatesFromFields renders field changes in a stable order.
func updatesFromFields(fields map[string]interface{}) []firestore.Update {
	paths := make([]string, 0, len(fields))
	for path := range fields {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	updates := make([]firestore.Update, 0, len(paths))
	for _, path := range paths {
		updates = append(updates, firestore.Update{Path: path, Value: fields[path]})
	}
	return updates
}

func isNotFound(err error) bool {
	return err != nil && status.Code(err) == codes.NotFound
}
