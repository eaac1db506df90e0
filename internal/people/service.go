// Package people implements the matching API operations: registering
// familiar people with a profile image and face embedding, listing them,
// scanning an embedding for the best match, and updating or deleting people.
//
// The service holds no state between calls. Records live in a
// database.PeopleWriter, images in a blob.Store; both are injected.
package people

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/kozaktomas/face-recall/internal/apperr"
	"github.com/kozaktomas/face-recall/internal/blob"
	"github.com/kozaktomas/face-recall/internal/constants"
	"github.com/kozaktomas/face-recall/internal/database"
	"github.com/kozaktomas/face-recall/internal/facematch"
	"go.uber.org/zap"
)

// Options tunes matching and validation.
type Options struct {
	// Threshold is the minimum cosine similarity reported as a match.
	Threshold float64
	// EmbeddingDim, when > 0, is the exact length every embedding must have.
	EmbeddingDim int
}

// Service implements the people operations.
type Service struct {
	store  database.PeopleWriter
	images blob.Store
	opts   Options
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires a service. A nil logger discards logs.
func NewService(store database.PeopleWriter, images blob.Store, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  store,
		images: images,
		opts:   opts,
		logger: logger,
		now:    time.Now,
	}
}

// WithOptions returns a copy of the service that uses opts.
func (s *Service) WithOptions(opts Options) *Service {
	c := *s
	c.opts = opts
	return &c
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{Threshold: constants.DefaultMatchThreshold}
}

// ScanResult is the outcome of Scan. Score and Person are set only on a match.
type ScanResult struct {
	Matched bool                           `json:"matched"`
	Score   *float64                       `json:"score,omitempty"`
	Person  *database.PersonWithEmbeddings `json:"person,omitempty"`
}

// UpdateResult carries the new image URL when an image was uploaded.
type UpdateResult struct {
	ImageURL *string `json:"image_url"`
}

// uploadImage stores an image under the pair's namespace and returns its key
// and public URL.
func (s *Service) uploadImage(ctx context.Context, pairID string, img *ImageFile) (string, string, error) {
	contentType, err := blob.DetectImage(img.Content)
	if err != nil {
		if errors.Is(err, blob.ErrNotImage) {
			return "", "", apperr.Validation(err.Error(), "filename", img.Filename)
		}
		return "", "", apperr.Storage(err, "failed to read image")
	}

	key := blob.ObjectKey(pairID, img.Filename, s.now())
	if err := s.images.Put(ctx, key, contentType, img.Content, img.Size); err != nil {
		return "", "", apperr.Storage(err, "failed to upload image", "key", key)
	}

	s.logger.Debug("image uploaded", zap.String("key", key), zap.String("content_type", contentType))
	return key, s.images.PublicURL(key), nil
}

// discardImage removes an upload whose record was never written. Failures
// are only logged; the original error is what the caller sees.
func (s *Service) discardImage(ctx context.Context, key string) {
	if err := s.images.Delete(context.WithoutCancel(ctx), key); err != nil {
		s.logger.Warn("failed to remove orphaned image", zap.String("key", key), zap.Error(err))
		return
	}
	s.logger.Debug("orphaned image removed", zap.String("key", key))
}

// AddPerson uploads the image, inserts the person and, when supplied, its
// first embedding. The returned person has the store-assigned ID.
func (s *Service) AddPerson(ctx context.Context, req AddPersonRequest) (*database.Person, error) {
	np, embedding, err := req.validate(s.opts.EmbeddingDim)
	if err != nil {
		return nil, err
	}

	key, url, err := s.uploadImage(ctx, np.PairID, req.Image)
	if err != nil {
		return nil, err
	}
	np.ImageURL = url

	person, err := s.store.CreatePerson(ctx, np)
	if err != nil {
		s.discardImage(ctx, key)
		return nil, apperr.Storage(err, "failed to save person", "pair_id", np.PairID)
	}

	if embedding != nil {
		if _, err := s.store.AddEmbedding(ctx, person.ID, embedding); err != nil {
			s.logger.Error("person saved without embedding",
				zap.String("person_id", person.ID),
				zap.Error(err),
			)
			return nil, apperr.Storage(err, "failed to save embedding", "person_id", person.ID)
		}
	}

	s.logger.Info("person added",
		zap.String("pair_id", person.PairID),
		zap.String("person_id", person.ID),
		zap.Bool("with_embedding", embedding != nil),
	)
	return person, nil
}

// GetPeople lists all people of a pair with their embeddings.
func (s *Service) GetPeople(ctx context.Context, pairID string) ([]database.PersonWithEmbeddings, error) {
	if strings.TrimSpace(pairID) == "" {
		return nil, apperr.Validation("pair_id is required")
	}

	people, err := s.store.ListPeople(ctx, pairID)
	if err != nil {
		return nil, apperr.Storage(err, "failed to load people", "pair_id", pairID)
	}
	return people, nil
}

// Scan finds the stored person whose embedding is most similar to the
// query. Every stored embedding of the pair is compared.
func (s *Service) Scan(ctx context.Context, req ScanRequest) (*ScanResult, error) {
	query, err := req.validate(s.opts.EmbeddingDim)
	if err != nil {
		return nil, err
	}

	people, err := s.store.ListPeople(ctx, req.PairID)
	if err != nil {
		return nil, apperr.Storage(err, "failed to load people", "pair_id", req.PairID)
	}

	result, err := facematch.BestMatch(query, people, s.opts.Threshold)
	if err != nil {
		if errors.Is(err, database.ErrDimensionMismatch) {
			return nil, apperr.Validation(err.Error(), "pair_id", req.PairID)
		}
		return nil, apperr.Storage(err, "failed to compare embeddings")
	}
	if result.Skipped > 0 {
		s.logger.Warn("stored embeddings skipped, length differs from query",
			zap.String("pair_id", req.PairID),
			zap.Int("skipped", result.Skipped),
			zap.Int("query_dim", len(query)),
		)
	}

	if !result.Matched {
		s.logger.Debug("scan without match", zap.String("pair_id", req.PairID), zap.Int("people", len(people)))
		return &ScanResult{Matched: false}, nil
	}

	s.logger.Debug("scan matched",
		zap.String("pair_id", req.PairID),
		zap.String("person_id", result.Person.ID),
		zap.Float64("score", result.Score),
	)
	score := result.Score
	return &ScanResult{Matched: true, Score: &score, Person: result.Person}, nil
}

// UpdatePerson changes the supplied fields and, when an image is given,
// replaces the profile image. Fields that were not sent keep their value.
func (s *Service) UpdatePerson(ctx context.Context, req UpdatePersonRequest) (*UpdateResult, error) {
	update, err := req.validate()
	if err != nil {
		return nil, err
	}

	result := &UpdateResult{}
	var uploadedKey string
	if req.Image != nil {
		pairID, err := s.store.GetPairID(ctx, req.PersonID)
		if errors.Is(err, database.ErrPersonNotFound) {
			return nil, apperr.NotFound("Person not found", "person_id", req.PersonID)
		}
		if err != nil {
			return nil, apperr.Storage(err, "failed to look up person", "person_id", req.PersonID)
		}

		key, url, err := s.uploadImage(ctx, pairID, req.Image)
		if err != nil {
			return nil, err
		}
		uploadedKey = key
		update.ImageURL = &url
		result.ImageURL = &url
	}

	err = s.store.UpdatePerson(ctx, req.PersonID, update)
	if err != nil && uploadedKey != "" {
		s.discardImage(ctx, uploadedKey)
	}
	if errors.Is(err, database.ErrPersonNotFound) {
		return nil, apperr.NotFound("Person not found", "person_id", req.PersonID)
	}
	if err != nil {
		return nil, apperr.Storage(err, "failed to update person", "person_id", req.PersonID)
	}

	s.logger.Info("person updated",
		zap.String("person_id", req.PersonID),
		zap.Bool("new_image", result.ImageURL != nil),
	)
	return result, nil
}

// DeletePerson removes a person's embeddings and then the person. The two
// deletes are not atomic: if the second fails the embeddings stay deleted.
func (s *Service) DeletePerson(ctx context.Context, req DeletePersonRequest) error {
	if strings.TrimSpace(req.PersonID) == "" {
		return apperr.Validation("person_id required")
	}

	embeddings, err := s.store.DeleteEmbeddings(ctx, req.PersonID)
	if err != nil {
		return apperr.Storage(err, "failed to delete embeddings", "person_id", req.PersonID)
	}

	deleted, err := s.store.DeletePerson(ctx, req.PersonID)
	if err != nil {
		s.logger.Warn("embeddings deleted but person remains",
			zap.String("person_id", req.PersonID),
			zap.Int64("embeddings", embeddings),
			zap.Error(err),
		)
		return apperr.Storage(err, "failed to delete person", "person_id", req.PersonID)
	}

	s.logger.Info("person deleted",
		zap.String("person_id", req.PersonID),
		zap.Int64("embeddings", embeddings),
		zap.Bool("existed", deleted > 0),
	)
	return nil
}
