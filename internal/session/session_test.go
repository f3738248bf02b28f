package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/agriscope/agriscope/internal/index"
	"github.com/agriscope/agriscope/internal/sensor"
)

func TestRegistry_CreateAndGet(t *testing.T) {
	r := NewRegistry(time.Hour)
	defer r.Close()

	s := r.Create()
	assert.Len(t, s.ID, 32)
	assert.Equal(t, sensor.Sentinel2, s.Sensor)
	assert.Equal(t, index.NDVI, s.Index)
	assert.InDelta(t, 100.0, s.MaxCloud, 1e-9)

	got, err := r.Get(s.ID)
	assert.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
}

func TestRegistry_GetUnknown(t *testing.T) {
	r := NewRegistry(time.Hour)
	defer r.Close()

	_, err := r.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistry_Update(t *testing.T) {
	r := NewRegistry(time.Hour)
	defer r.Close()

	s := r.Create()
	err := r.Update(s.ID, func(s *Session) {
		s.Sensor = sensor.MODIS
		s.Index = index.EVI
	})
	assert.NoError(t, err)

	got, err := r.Get(s.ID)
	assert.NoError(t, err)
	assert.Equal(t, sensor.MODIS, got.Sensor)
	assert.Equal(t, index.EVI, got.Index)
}

func TestRegistry_GetReturnsSnapshot(t *testing.T) {
	r := NewRegistry(time.Hour)
	defer r.Close()

	s := r.Create()
	before, err := r.Get(s.ID)
	assert.NoError(t, err)

	err = r.Update(s.ID, func(s *Session) {
		s.Sensor = sensor.MODIS
	})
	assert.NoError(t, err)

	// Writes after Get must not show up in an already-returned session.
	assert.Equal(t, sensor.Sentinel2, before.Sensor)

	after, err := r.Get(s.ID)
	assert.NoError(t, err)
	assert.Equal(t, sensor.MODIS, after.Sensor)
}

func TestRegistry_ExpiredSessionIsGone(t *testing.T) {
	r := NewRegistry(time.Millisecond)
	defer r.Close()

	s := r.Create()
	time.Sleep(5 * time.Millisecond)

	_, err := r.Get(s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_Delete(t *testing.T) {
	r := NewRegistry(time.Hour)
	defer r.Close()

	s := r.Create()
	r.Delete(s.ID)
	_, err := r.Get(s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistry_Expire(t *testing.T) {
	r := NewRegistry(time.Millisecond)
	defer r.Close()

	r.Create()
	r.Create()
	time.Sleep(5 * time.Millisecond)
	r.expire()
	assert.Equal(t, 0, r.Len())
}
