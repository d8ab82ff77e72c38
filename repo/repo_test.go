package repo

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

type fakeTx struct {
	err error
}

func (f *fakeTx) Rollback() error { return f.err }

func TestRollbackCleanKeepsCause(t *testing.T) {
	cause := errors.New("insert failed")
	err := rollback(&fakeTx{}, cause)
	assert.Equal(t, cause, err)
	assert.NotErrorIs(t, err, ErrRollbackFailed)
}

func TestRollbackAlreadyDoneKeepsCause(t *testing.T) {
	cause := errors.New("insert failed")
	err := rollback(&fakeTx{err: sql.ErrTxDone}, cause)
	assert.Equal(t, cause, err)
}

func TestRollbackFailureIsEscalated(t *testing.T) {
	cause := errors.New("insert failed")
	err := rollback(&fakeTx{err: errors.New("connection gone")}, cause)
	assert.ErrorIs(t, err, ErrRollbackFailed)
	assert.ErrorIs(t, err, cause)
}

func TestRollbackFailureWithoutCause(t *testing.T) {
	err := rollback(&fakeTx{err: errors.New("connection gone")}, nil)
	assert.ErrorIs(t, err, ErrRollbackFailed)
}

func TestRollbackNoCauseCleanIsNil(t *testing.T) {
	assert.NoError(t, rollback(&fakeTx{}, nil))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(&pq.Error{Code: "23505"}))
	assert.True(t, IsUniqueViolation(errors.Join(errors.New("wrapped"), &pq.Error{Code: "23505"})))
	assert.False(t, IsUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("plain")))
	assert.False(t, IsUniqueViolation(nil))
}

func TestIsForeignKeyViolation(t *testing.T) {
	assert.True(t, IsForeignKeyViolation(&pq.Error{Code: "23503"}))
	assert.False(t, IsForeignKeyViolation(&pq.Error{Code: "23505"}))
	assert.False(t, IsForeignKeyViolation(nil))
}
