package auctioncache

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetParsesSnapshot(t *testing.T) {
	rdc, mock := redismock.NewClientMock()
	start := time.Date(2025, 7, 27, 16, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)

	mock.ExpectHGetAll("auc:auc-1").SetVal(map[string]string{
		"title": "Vintage guitar",
		"d":     "1960s hollow body",
		"st":    "ACTIVE",
		"sa":    "1753632000",
		"ea":    "1753639200",
		"ip":    "100",
		"cp":    "150",
		"sid":   "seller-1",
		"wid":   "user-1",
		"bc":    "3",
		"cat":   "GENERAL",
		"img":   `["a.jpg","b.jpg"]`,
		"ca":    "1753632000",
		"ua":    "1753635600",
	})

	a, err := Get(context.Background(), rdc, "auc-1")
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, "auc-1", a.ID)
	assert.Equal(t, "1960s hollow body", a.Description)
	assert.Equal(t, "ACTIVE", a.Status)
	assert.Equal(t, 150.0, a.CurrentPrice)
	assert.Equal(t, 100.0, a.InitialPrice)
	assert.Equal(t, "user-1", a.WinnerID)
	assert.Equal(t, 3, a.BidCount)
	assert.Equal(t, start, a.StartsAt)
	assert.Equal(t, end, a.EndsAt)
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, a.Images)
	assert.Equal(t, start, a.CreatedAt)
	assert.Equal(t, start.Add(time.Hour), a.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCacheMiss(t *testing.T) {
	rdc, mock := redismock.NewClientMock()
	mock.ExpectHGetAll("auc:missing").SetVal(map[string]string{})

	a, err := Get(context.Background(), rdc, "missing")
	require.NoError(t, err)
	assert.Nil(t, a)
	assert.NoError(t, mock.ExpectationsWereMet())
}
