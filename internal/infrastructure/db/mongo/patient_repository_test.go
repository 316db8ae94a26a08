package mongo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/pm/patient-system/internal/core/domain"
)

func patientDoc(id, code, email string) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "patient_code", Value: code},
		{Key: "name", Value: "Jane Doe"},
		{Key: "email", Value: email},
		{Key: "address", Value: "12 Main Street"},
		{Key: "birth_date", Value: time.Date(1990, 4, 2, 0, 0, 0, 0, time.UTC)},
		{Key: "registered_date", Value: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
	}
}

func newPatient() *domain.Patient {
	return &domain.Patient{
		ID:             "p-1",
		Code:           "P000001",
		Name:           "Jane Doe",
		Email:          "jane@example.com",
		Address:        "12 Main Street",
		BirthDate:      time.Date(1990, 4, 2, 0, 0, 0, 0, time.UTC),
		RegisteredDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	}
}

func duplicateKey(index string) bson.D {
	return mtest.CreateWriteErrorsResponse(mtest.WriteError{
		Index:   0,
		Code:    11000,
		Message: "E11000 duplicate key error collection: patients_test.patients index: " + index + ` dup key: { x: "y" }`,
	})
}

func TestPatientRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ns := "patients_test.patients"

	mt.Run("create", func(mt *mtest.T) {
		repo := NewPatientRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		require.NoError(mt, repo.Create(context.Background(), newPatient()))
	})

	mt.Run("create duplicate email", func(mt *mtest.T) {
		repo := NewPatientRepository(mt.DB)
		mt.AddMockResponses(duplicateKey(patientEmailIndex))

		err := repo.Create(context.Background(), newPatient())
		assert.ErrorIs(mt, err, domain.ErrEmailAlreadyExists)
	})

	mt.Run("create duplicate code is not an email conflict", func(mt *mtest.T) {
		repo := NewPatientRepository(mt.DB)
		mt.AddMockResponses(duplicateKey(patientCodeIndex))

		err := repo.Create(context.Background(), newPatient())
		require.Error(mt, err)
		assert.False(mt, errors.Is(err, domain.ErrEmailAlreadyExists))
		assert.Equal(mt, domain.KindInternal, domain.KindOf(err))
	})

	mt.Run("find by id", func(mt *mtest.T) {
		repo := NewPatientRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, patientDoc("p-1", "P000001", "jane@example.com")))

		got, err := repo.FindByID(context.Background(), "p-1")
		require.NoError(mt, err)
		want := newPatient()
		assert.Equal(mt, want.Code, got.Code)
		assert.Equal(mt, want.Email, got.Email)
		assert.True(mt, want.BirthDate.Equal(got.BirthDate))
		assert.True(mt, want.RegisteredDate.Equal(got.RegisteredDate))
	})

	mt.Run("find by id missing", func(mt *mtest.T) {
		repo := NewPatientRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := repo.FindByID(context.Background(), "nope")
		assert.ErrorIs(mt, err, domain.ErrPatientNotFound)
	})

	mt.Run("find all", func(mt *mtest.T) {
		repo := NewPatientRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			patientDoc("p-1", "P000001", "jane@example.com"),
			patientDoc("p-2", "P000002", "john@example.com"),
		))

		got, err := repo.FindAll(context.Background())
		require.NoError(mt, err)
		require.Len(mt, got, 2)
		assert.Equal(mt, "P000002", got[1].Code)
	})

	mt.Run("exists by email", func(mt *mtest.T) {
		repo := NewPatientRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "_id", Value: "p-1"}}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch),
		)

		found, err := repo.ExistsByEmail(context.Background(), "jane@example.com")
		require.NoError(mt, err)
		assert.True(mt, found)

		found, err = repo.ExistsByEmail(context.Background(), "ghost@example.com")
		require.NoError(mt, err)
		assert.False(mt, found)
	})

	mt.Run("exists by id server error", func(mt *mtest.T) {
		repo := NewPatientRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Message: "bad query"}))

		_, err := repo.ExistsByID(context.Background(), "p-1")
		require.Error(mt, err)
		assert.False(mt, errors.Is(err, domain.ErrPatientNotFound))
	})

	mt.Run("update", func(mt *mtest.T) {
		repo := NewPatientRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))

		require.NoError(mt, repo.Update(context.Background(), newPatient()))
	})

	mt.Run("update missing", func(mt *mtest.T) {
		repo := NewPatientRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))

		assert.ErrorIs(mt, repo.Update(context.Background(), newPatient()), domain.ErrPatientNotFound)
	})

	mt.Run("update email taken", func(mt *mtest.T) {
		repo := NewPatientRepository(mt.DB)
		mt.AddMockResponses(duplicateKey(patientEmailIndex))

		assert.ErrorIs(mt, repo.Update(context.Background(), newPatient()), domain.ErrEmailAlreadyExists)
	})

	mt.Run("update duplicate id is not an email conflict", func(mt *mtest.T) {
		repo := NewPatientRepository(mt.DB)
		mt.AddMockResponses(duplicateKey("_id_"))

		err := repo.Update(context.Background(), newPatient())
		require.Error(mt, err)
		assert.False(mt, errors.Is(err, domain.ErrEmailAlreadyExists))
	})

	mt.Run("delete", func(mt *mtest.T) {
		repo := NewPatientRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}),
		)

		require.NoError(mt, repo.Delete(context.Background(), "p-1"))
		assert.ErrorIs(mt, repo.Delete(context.Background(), "p-1"), domain.ErrPatientNotFound)
	})

	mt.Run("ensure indexes", func(mt *mtest.T) {
		repo := NewPatientRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		require.NoError(mt, repo.EnsureIndexes(context.Background()))
	})
}

func TestCodeSequence(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("next", func(mt *mtest.T) {
		seq := NewCodeSequence(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{{Key: "_id", Value: patientCodeCounter}, {Key: "seq", Value: int64(1)}}}),
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{{Key: "_id", Value: patientCodeCounter}, {Key: "seq", Value: int64(2)}}}),
		)

		first, err := seq.Next(context.Background())
		require.NoError(mt, err)
		second, err := seq.Next(context.Background())
		require.NoError(mt, err)

		assert.Equal(mt, int64(1), first)
		assert.Equal(mt, int64(2), second)
		assert.Equal(mt, "P000002", domain.FormatPatientCode(domain.PatientCodePrefix, domain.PatientCodeWidth, second))
	})

	mt.Run("server error", func(mt *mtest.T) {
		seq := NewCodeSequence(mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 91, Message: "shutdown in progress"}))

		_, err := seq.Next(context.Background())
		require.Error(mt, err)
	})
}
