package serr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	cause := errors.New("boom")
	se := NotFound(cause, "Tutor %d not found", 7)

	assert.Equal(t, KindNotFound, se.Kind)
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
	assert.Equal(t, "Tutor 7 not found", se.Msg)
	assert.ErrorIs(t, se, cause)
	assert.NotEmpty(t, se.StackTrace)
}

func TestIs_Wrapped(t *testing.T) {
	err := fmt.Errorf("book: %w", Conflict(nil, "already booked"))

	assert.True(t, Is(err, KindConflict))
	assert.False(t, Is(err, KindNotFound))
	assert.False(t, Is(errors.New("plain"), KindConflict))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindRefresh, KindOf(Refresh(nil, "expired")))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
}

func TestKind_Status(t *testing.T) {
	tbl := map[Kind]int{
		KindBadRequest:     http.StatusBadRequest,
		KindUnauthorized:   http.StatusUnauthorized,
		KindForbidden:      http.StatusForbidden,
		KindNotFound:       http.StatusNotFound,
		KindNotAllowed:     http.StatusMethodNotAllowed,
		KindConflict:       http.StatusConflict,
		KindReconciliation: http.StatusInternalServerError,
		KindRefresh:        http.StatusInternalServerError,
		KindInternal:       http.StatusInternalServerError,
	}

	for k, status := range tbl {
		assert.Equal(t, status, k.Status(), k.String())
	}
}

func TestWith(t *testing.T) {
	se := Forbidden(nil, "Not a superuser").With("user_id", "3")
	assert.Equal(t, "3", se.Env["user_id"])
}

func TestMessage(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NotFound(nil, "User %d not found", 3))
	assert.Equal(t, "User 3 not found", Message(err))
	assert.Empty(t, Message(errors.New("plain")))
}
