package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/mmcloughlin/geohash"
	"golang.org/x/sync/singleflight"

	"github.com/lemonchikHere/donminiapp/internal/contextkeys"
	"github.com/lemonchikHere/donminiapp/internal/core/domain"
	"github.com/lemonchikHere/donminiapp/internal/core/port"
)

// Точность геохеша по умолчанию: ячейка около 1.2x0.6 км, достаточно
// для обзорной карты города.
const defaultGeohashPrecision = 6

type GetMapClustersUseCase struct {
	global  port.CachePort
	backend port.BackendAPIPort
	flight  singleflight.Group
}

func NewGetMapClustersUseCase(global port.CachePort, backend port.BackendAPIPort) *GetMapClustersUseCase {
	return &GetMapClustersUseCase{global: global, backend: backend}
}

// Execute отдает пины карты, сгруппированные по ячейкам геохеша. Точки
// одни на всех пользователей, поэтому живут в глобальном кеше, а
// одновременные промахи схлопываются в один запрос к бэкенду.
// Группировка пересчитывается на каждый вызов: она дешевая, а precision
// у карты меняется при зуме.
func (uc *GetMapClustersUseCase) Execute(ctx context.Context, precision uint) ([]domain.MapCluster, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case": "GetMapClusters",
	})

	// 12 знаков - максимум для строкового геохеша.
	if precision < 1 || precision > 12 {
		precision = defaultGeohashPrecision
	}

	points, err := uc.points(ctx)
	if err != nil {
		logger.Error("Failed to fetch map points", err, nil)
		return nil, fmt.Errorf("get map clusters: %w", err)
	}

	clusters := clusterByGeohash(points, precision)
	logger.Info("Map clusters built", port.Fields{
		"points":    len(points),
		"clusters":  len(clusters),
		"precision": precision,
	})
	return clusters, nil
}

func (uc *GetMapClustersUseCase) points(ctx context.Context) ([]domain.MapPoint, error) {
	if raw, ok := uc.global.Get(domain.CacheKeyMapListings); ok {
		if points, ok := raw.([]domain.MapPoint); ok {
			return points, nil
		}
	}

	raw, err, _ := uc.flight.Do(domain.CacheKeyMapListings, func() (interface{}, error) {
		points, err := uc.backend.GetMapPoints(ctx)
		if err != nil {
			return nil, err
		}
		uc.global.Set(domain.CacheKeyMapListings, points, 0)
		return points, nil
	})
	if err != nil {
		return nil, err
	}
	return raw.([]domain.MapPoint), nil
}

// clusterByGeohash группирует точки по ячейкам, центр кластера - среднее
// координат его членов. Порядок результата детерминирован.
func clusterByGeohash(points []domain.MapPoint, precision uint) []domain.MapCluster {
	type agg struct {
		count          int
		sumLat, sumLng float64
		sumPrice       float64
		priced         int
	}

	cells := make(map[string]*agg)
	for _, p := range points {
		cell := geohash.EncodeWithPrecision(p.Latitude, p.Longitude, precision)
		a, ok := cells[cell]
		if !ok {
			a = &agg{}
			cells[cell] = a
		}
		a.count++
		a.sumLat += p.Latitude
		a.sumLng += p.Longitude
		if p.PriceUSD != nil {
			a.sumPrice += *p.PriceUSD
			a.priced++
		}
	}

	clusters := make([]domain.MapCluster, 0, len(cells))
	for cell, a := range cells {
		c := domain.MapCluster{
			Cell:      cell,
			Count:     a.count,
			Latitude:  a.sumLat / float64(a.count),
			Longitude: a.sumLng / float64(a.count),
		}
		if a.priced > 0 {
			c.AvgPrice = a.sumPrice / float64(a.priced)
		}
		clusters = append(clusters, c)
	}
	sort.Slice(clusters, func(i, j int) bool { return clusters[i].Cell < clusters[j].Cell })
	return clusters
}
