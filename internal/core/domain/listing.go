package domain

import (
	"time"

	"github.com/google/uuid"
)

// PropertyListing - карточка объекта в выдаче.
// IsFavorite - единственное поле, которое движок меняет локально.
type PropertyListing struct {
	ID              uuid.UUID
	Title           string
	PriceUSD        *float64
	Rooms           *int
	AreaSqm         *float64
	Address         string
	Description     string
	PhotoURLs       []string
	SourceLink      string
	SimilarityScore *float64
	IsFavorite      bool
}

// ResultPage - одна страница выдачи, как она пришла от бэкенда.
type ResultPage struct {
	QueryKey  string
	Offset    int
	Items     []PropertyListing
	Total     int
	FetchedAt time.Time
}

// SearchState - снимок накопленной выдачи для UI.
type SearchState struct {
	Results  []PropertyListing
	Total    int
	Offset   int
	Complete bool // offset >= total, loadMore больше ничего не сделает
	Active   bool // в сессии был сабмит поиска
}

// PendingMutation - маркер незавершенной мутации избранного.
// На один объект одновременно может существовать максимум одна.
type PendingMutation struct {
	EntityID    uuid.UUID
	TargetState bool
	StartedAt   time.Time
}

// MapPoint - точка на карте (минимум данных для пина).
type MapPoint struct {
	ID        uuid.UUID
	Latitude  float64
	Longitude float64
	PriceUSD  *float64
	Title     string
}

// MapCluster - группа соседних пинов в одной geohash-ячейке.
type MapCluster struct {
	Cell      string
	Count     int
	Latitude  float64
	Longitude float64
	AvgPrice  float64
}
