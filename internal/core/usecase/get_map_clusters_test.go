package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lemonchikHere/donminiapp/internal/core/domain"
)

func price(v float64) *float64 { return &v }

// Три точки в одной точке центра Донецка и одна в Киеве: на любой
// точности первые три попадают в одну ячейку, киевская - в другую.
func mapPointsFixture() []domain.MapPoint {
	donetsk := func(p *float64) domain.MapPoint {
		return domain.MapPoint{ID: listingCard("пин").ID, Latitude: 48.0159, Longitude: 37.8029, PriceUSD: p}
	}
	return []domain.MapPoint{
		donetsk(price(40000)),
		donetsk(price(60000)),
		donetsk(nil),
		{ID: listingCard("пин").ID, Latitude: 50.4501, Longitude: 30.5234, PriceUSD: nil},
	}
}

func TestGetMapClusters_GroupsAndAverages(t *testing.T) {
	env := newTestEnv()
	env.backend.mapPoints = mapPointsFixture()
	uc := NewGetMapClustersUseCase(env.global, env.backend)

	clusters, err := uc.Execute(context.Background(), 6)
	require.NoError(t, err)
	require.Len(t, clusters, 2)

	var dense, single *domain.MapCluster
	for i := range clusters {
		switch clusters[i].Count {
		case 3:
			dense = &clusters[i]
		case 1:
			single = &clusters[i]
		}
	}
	require.NotNil(t, dense)
	require.NotNil(t, single)

	assert.InDelta(t, 48.0159, dense.Latitude, 1e-9)
	assert.InDelta(t, 37.8029, dense.Longitude, 1e-9)
	assert.InDelta(t, 50000, dense.AvgPrice, 1e-9, "points without a price stay out of the average")
	assert.Zero(t, single.AvgPrice, "cluster of unpriced points has no average")
	assert.NotEmpty(t, dense.Cell)
	assert.NotEqual(t, dense.Cell, single.Cell)
}

func TestGetMapClusters_PointsCachedAcrossZoomLevels(t *testing.T) {
	env := newTestEnv()
	env.backend.mapPoints = mapPointsFixture()
	uc := NewGetMapClustersUseCase(env.global, env.backend)

	_, err := uc.Execute(context.Background(), 6)
	require.NoError(t, err)

	// Смена зума перегруппирует точки, но за ними в сеть не ходит.
	clusters, err := uc.Execute(context.Background(), 4)
	require.NoError(t, err)
	assert.Len(t, clusters, 2)

	env.backend.mu.Lock()
	assert.Equal(t, 1, env.backend.mapCalls)
	env.backend.mu.Unlock()
}

func TestGetMapClusters_InvalidPrecisionFallsBack(t *testing.T) {
	env := newTestEnv()
	env.backend.mapPoints = mapPointsFixture()
	uc := NewGetMapClustersUseCase(env.global, env.backend)

	for _, precision := range []uint{0, 13} {
		clusters, err := uc.Execute(context.Background(), precision)
		require.NoError(t, err)
		assert.Len(t, clusters, 2)
	}
}

func TestGetMapClusters_ConcurrentMissesCollapse(t *testing.T) {
	env := newTestEnv()
	env.backend.mapPoints = mapPointsFixture()
	gate := make(chan struct{})
	started := make(chan struct{}, 1)
	env.backend.mapGate = gate
	env.backend.mapStarted = started
	uc := NewGetMapClustersUseCase(env.global, env.backend)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			clusters, err := uc.Execute(context.Background(), 6)
			assert.NoError(t, err)
			assert.Len(t, clusters, 2)
		}()
	}

	// Первый промах повис в сетевом вызове, остальные успевают встать
	// в очередь singleflight, и только потом гейт открывается.
	<-started
	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()

	env.backend.mu.Lock()
	assert.Equal(t, 1, env.backend.mapCalls, "concurrent misses must share one request")
	env.backend.mu.Unlock()
}

func TestGetMapClusters_TransportError(t *testing.T) {
	env := newTestEnv()
	env.backend.mapErr = fmt.Errorf("%w: refused", domain.ErrTransport)

	_, err := NewGetMapClustersUseCase(env.global, env.backend).Execute(context.Background(), 6)

	assert.True(t, errors.Is(err, domain.ErrTransport))
}
