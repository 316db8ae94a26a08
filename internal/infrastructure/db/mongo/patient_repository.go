package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pm/patient-system/internal/core/domain"
)

const (
	patientsCollection = "patients"

	// Index names match the Postgres constraint names.
	patientEmailIndex = "patients_email_key"
	patientCodeIndex  = "patients_patient_code_key"

	duplicateKeyCode = 11000
)

type PatientRepository struct {
	col *mongo.Collection
}

func NewPatientRepository(db *mongo.Database) *PatientRepository {
	return &PatientRepository{col: db.Collection(patientsCollection)}
}

type patientDocument struct {
	ID             string    `bson:"_id"`
	Code           string    `bson:"patient_code"`
	Name           string    `bson:"name"`
	Email          string    `bson:"email"`
	Address        string    `bson:"address"`
	BirthDate      time.Time `bson:"birth_date"`
	RegisteredDate time.Time `bson:"registered_date"`
}

func toDocument(p *domain.Patient) patientDocument {
	return patientDocument{
		ID:             p.ID,
		Code:           p.Code,
		Name:           p.Name,
		Email:          p.Email,
		Address:        p.Address,
		BirthDate:      p.BirthDate.UTC(),
		RegisteredDate: p.RegisteredDate.UTC(),
	}
}

func (d patientDocument) toDomain() *domain.Patient {
	return &domain.Patient{
		ID:             d.ID,
		Code:           d.Code,
		Name:           d.Name,
		Email:          d.Email,
		Address:        d.Address,
		BirthDate:      d.BirthDate.UTC(),
		RegisteredDate: d.RegisteredDate.UTC(),
	}
}

// FindAll returns every patient ordered by code.
func (r *PatientRepository) FindAll(ctx context.Context) ([]*domain.Patient, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "patient_code", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find patients: %w", err)
	}
	defer cur.Close(ctx)

	var docs []patientDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode patients: %w", err)
	}

	out := make([]*domain.Patient, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *PatientRepository) FindByID(ctx context.Context, id string) (*domain.Patient, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var doc patientDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrPatientNotFound
		}
		return nil, fmt.Errorf("find patient: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *PatientRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, bson.M{"email": email})
}

func (r *PatientRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	return r.exists(ctx, bson.M{"_id": id})
}

func (r *PatientRepository) exists(ctx context.Context, filter bson.M) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	err := r.col.FindOne(ctx, filter, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return false, nil
	default:
		return false, fmt.Errorf("lookup patient: %w", err)
	}
}

// Create inserts a new patient document. The unique email index turns a
// concurrent duplicate into domain.ErrEmailAlreadyExists.
func (r *PatientRepository) Create(ctx context.Context, p *domain.Patient) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, toDocument(p)); err != nil {
		if duplicateIndex(err) == patientEmailIndex {
			return domain.ErrEmailAlreadyExists
		}
		return fmt.Errorf("insert patient: %w", err)
	}
	return nil
}

func (r *PatientRepository) Update(ctx context.Context, p *domain.Patient) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": p.ID}, toDocument(p))
	if err != nil {
		if duplicateIndex(err) == patientEmailIndex {
			return domain.ErrEmailAlreadyExists
		}
		return fmt.Errorf("replace patient: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrPatientNotFound
	}
	return nil
}

func (r *PatientRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete patient: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrPatientNotFound
	}
	return nil
}

// EnsureIndexes creates necessary indexes on the patients collection.
func (r *PatientRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetName(patientEmailIndex).SetUnique(true)},
		{Keys: bson.D{{Key: "patient_code", Value: 1}}, Options: options.Index().SetName(patientCodeIndex).SetUnique(true)},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

// duplicateIndex returns the name of the unique index a duplicate key error
// was raised on, or "" for any other error.
func duplicateIndex(err error) string {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == duplicateKeyCode {
				return indexFromMessage(e.Message)
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == duplicateKeyCode {
		return indexFromMessage(ce.Message)
	}
	return ""
}

// indexFromMessage reads the index name out of a server message such as
// "E11000 duplicate key error collection: db.patients index: patients_email_key dup key: {...}".
func indexFromMessage(msg string) string {
	_, rest, ok := strings.Cut(msg, "index: ")
	if !ok {
		return ""
	}
	name, _, _ := strings.Cut(rest, " ")
	return name
}
