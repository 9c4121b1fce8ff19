package directory

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tero/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testHospitals() []models.Hospital {
	return []models.Hospital{
		{
			ID:            "h-2",
			Name:          "City General",
			City:          "Pune",
			Location:      models.Location{Latitude: 18.52, Longitude: 73.85},
			Specialties:   []string{"General Medicine", "Trauma"},
			AvailableBeds: 4,
			WaitTime:      30,
		},
		{
			ID:            "h-1",
			Name:          "Heart Centre",
			City:          "pune",
			Location:      models.Location{Latitude: 18.53, Longitude: 73.86},
			Specialties:   []string{"Cardiology"},
			AvailableBeds: 1,
			WaitTime:      10,
		},
		{
			ID:   "h-3",
			Name: "Lakeside Clinic",
			City: "Nagpur",
		},
	}
}

func TestSQLiteStoreSeedAndList(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	n, err := store.Seed(ctx, testHospitals())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	all, err := store.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "h-1", all[0].ID, "listed by id")
	assert.Equal(t, []string{"Cardiology"}, all[0].Specialties)
	assert.Equal(t, []string{}, all[2].Specialties)
	assert.False(t, all[0].UpdatedAt.IsZero())

	pune, err := store.List(ctx, "PUNE")
	require.NoError(t, err)
	assert.Len(t, pune, 2)

	none, err := store.List(ctx, "Atlantis")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSQLiteStoreSeedKeepsLiveCapacity(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.Seed(ctx, testHospitals())
	require.NoError(t, err)
	_, err = store.UpdateCapacity(ctx, "h-2", 9, 5)
	require.NoError(t, err)

	n, err := store.Seed(ctx, testHospitals())
	require.NoError(t, err)
	assert.Zero(t, n)

	h, err := store.Get(ctx, "h-2")
	require.NoError(t, err)
	assert.Equal(t, 9, h.AvailableBeds)
	assert.Equal(t, 5.0, h.WaitTime)
}

func TestSQLiteStoreGetMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrHospitalNotFound)
}

func TestSQLiteStoreUpsert(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	h := testHospitals()[0]
	require.NoError(t, store.Upsert(ctx, h))

	h.Name = "City General Hospital"
	h.Specialties = append(h.Specialties, "Burns")
	require.NoError(t, store.Upsert(ctx, h))

	got, err := store.Get(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, "City General Hospital", got.Name)
	assert.Equal(t, []string{"General Medicine", "Trauma", "Burns"}, got.Specialties)

	assert.ErrorIs(t, store.Upsert(ctx, models.Hospital{ID: "x"}), ErrInvalidHospital)
	assert.ErrorIs(t, store.Upsert(ctx, models.Hospital{ID: "x", Name: "X", AvailableBeds: -1}), ErrInvalidCapacity)
}

func TestSQLiteStoreUpdateCapacity(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	_, err := store.Seed(ctx, testHospitals())
	require.NoError(t, err)

	h, err := store.UpdateCapacity(ctx, "h-1", 12, 45.5)
	require.NoError(t, err)
	assert.Equal(t, 12, h.AvailableBeds)
	assert.Equal(t, 45.5, h.WaitTime)

	_, err = store.UpdateCapacity(ctx, "missing", 1, 1)
	assert.ErrorIs(t, err, ErrHospitalNotFound)

	_, err = store.UpdateCapacity(ctx, "h-1", -1, 0)
	assert.ErrorIs(t, err, ErrInvalidCapacity)
}

func TestSQLiteStoreReserveBed(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	_, err := store.Seed(ctx, testHospitals())
	require.NoError(t, err)

	h, err := store.ReserveBed(ctx, "h-1")
	require.NoError(t, err)
	assert.Equal(t, 0, h.AvailableBeds)

	_, err = store.ReserveBed(ctx, "h-1")
	assert.ErrorIs(t, err, ErrNoBedsAvailable)

	_, err = store.ReserveBed(ctx, "missing")
	assert.ErrorIs(t, err, ErrHospitalNotFound)
}

func TestSQLiteStoreConcurrentReservations(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	_, err := store.Seed(ctx, testHospitals())
	require.NoError(t, err)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		reserved int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.ReserveBed(ctx, "h-2"); err == nil {
				mu.Lock()
				reserved++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 4, reserved)
	h, err := store.Get(ctx, "h-2")
	require.NoError(t, err)
	assert.Equal(t, 0, h.AvailableBeds)
}

func TestSQLiteStoreCities(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	_, err := store.Seed(ctx, testHospitals())
	require.NoError(t, err)

	cities, err := store.Cities(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Nagpur", "Pune", "pune"}, cities)
}

func TestOpenSQLiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tero.db")

	store, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, store.Upsert(context.Background(), testHospitals()[0]))
	require.NoError(t, store.Close())

	reopened, err := OpenSQLite(path)
	require.NoError(t, err)
	defer reopened.Close()

	h, err := reopened.Get(context.Background(), "h-2")
	require.NoError(t, err)
	assert.Equal(t, "City General", h.Name)
}
