package history

import (
	"context"
	"errors"
	"testing"

	"github.com/fjod/cartsync/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_FirstPage(t *testing.T) {
	backend := &mockBackend{orders: orders(25)}
	h := New(backend, auth.Static("token"))

	page, err := h.Load(context.Background(), 1)

	require.NoError(t, err)
	assert.Len(t, page.Orders, DefaultPerPage)
	st := h.State()
	assert.Equal(t, 1, st.Page)
	assert.Equal(t, 3, st.TotalPages)
	assert.Equal(t, 25, st.Total)
	assert.Equal(t, int64(25), st.Orders[0].ID)
	assert.False(t, st.Loading)
	assert.Empty(t, st.LastError)
}

func TestLoad_ClampsPage(t *testing.T) {
	backend := &mockBackend{orders: orders(3)}
	h := New(backend, auth.Static("token"))

	_, err := h.Load(context.Background(), -2)

	require.NoError(t, err)
	assert.Equal(t, []int{1}, backend.listCalls)
}

func TestLoad_NotFoundIsEmpty(t *testing.T) {
	backend := &mockBackend{err: statusErr(404)}
	h := New(backend, auth.Static("token"), WithPerPage(5))

	page, err := h.Load(context.Background(), 3)

	require.NoError(t, err)
	assert.Empty(t, page.Orders)
	st := h.State()
	assert.Equal(t, 1, st.Page)
	assert.Equal(t, 1, st.TotalPages)
	assert.Empty(t, st.LastError)
}

func TestLoad_FailureKeepsList(t *testing.T) {
	backend := &mockBackend{orders: orders(12)}
	h := New(backend, auth.Static("token"))
	_, err := h.Load(context.Background(), 1)
	require.NoError(t, err)
	before := h.State().Orders

	backend.err = statusErr(500)
	_, err = h.Load(context.Background(), 2)

	require.Error(t, err)
	assert.ErrorIs(t, err, statusErr(500))
	st := h.State()
	assert.Equal(t, before, st.Orders)
	assert.Equal(t, 1, st.Page)
	assert.Equal(t, MsgLoadFailed, st.LastError)
	assert.False(t, st.Loading)

	h.ClearError()
	assert.Empty(t, h.State().LastError)
}

func TestLoad_SessionExpired(t *testing.T) {
	backend := &mockBackend{orders: orders(2)}
	h := New(backend, auth.Static(""))

	_, err := h.Load(context.Background(), 1)

	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, MsgSessionExpired, h.State().LastError)
	assert.Empty(t, backend.listCalls)
}

func TestPaging(t *testing.T) {
	backend := &mockBackend{orders: orders(25)}
	h := New(backend, auth.Static("token"))
	ctx := context.Background()

	page, err := h.Previous(ctx)
	require.NoError(t, err)
	assert.Nil(t, page)
	assert.Empty(t, backend.listCalls)

	_, err = h.Load(ctx, 1)
	require.NoError(t, err)
	_, err = h.Next(ctx)
	require.NoError(t, err)
	_, err = h.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, h.State().Page)
	assert.Len(t, h.State().Orders, 5)

	page, err = h.Next(ctx)
	require.NoError(t, err)
	assert.Nil(t, page)

	_, err = h.Previous(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, h.State().Page)
	assert.Equal(t, []int{1, 2, 3, 2}, backend.listCalls)
}

func TestOpen(t *testing.T) {
	backend := &mockBackend{orders: orders(3)}
	h := New(backend, auth.Static("token"))

	order, err := h.Open(context.Background(), 2)

	require.NoError(t, err)
	assert.Equal(t, int64(2), order.ID)
	st := h.State()
	require.NotNil(t, st.Selected)
	assert.Equal(t, "order 2", st.Selected.Description)
	assert.False(t, st.LoadingDetail)

	h.CloseDetail()
	assert.Nil(t, h.State().Selected)
}

func TestOpen_Errors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		id      int64
		message string
		is      error
	}{
		{"not found", nil, 99, MsgOrderNotFound, ErrOrderNotFound},
		{"server error", statusErr(502), 1, MsgOrderFailed, statusErr(502)},
		{"network", errors.New("refused"), 1, MsgOrderFailed, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &mockBackend{orders: orders(3), err: tt.err}
			h := New(backend, auth.Static("token"))

			_, err := h.Open(context.Background(), tt.id)

			require.Error(t, err)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
			st := h.State()
			assert.Equal(t, tt.message, st.LastError)
			assert.Nil(t, st.Selected)
			assert.False(t, st.LoadingDetail)
		})
	}
}

func TestOnChange(t *testing.T) {
	var states []State
	backend := &mockBackend{orders: orders(1)}
	h := New(backend, auth.Static("token"), WithOnChange(func(st State) {
		states = append(states, st)
	}))

	_, err := h.Load(context.Background(), 1)

	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.True(t, states[0].Loading)
	assert.False(t, states[1].Loading)
	assert.Len(t, states[1].Orders, 1)
}
