// Package api はhbnbのAPIサーバー実装を提供します。
package api

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/stsysd/hbnb/config"
	"github.com/stsysd/hbnb/store"
)

// Server はAPIサーバーの構造体です。
type Server struct {
	router  *http.ServeMux
	handler http.Handler
	store   store.Store
	config  *config.Config
	logger  *log.Logger
}

// NewServer は新しいAPIサーバーインスタンスを生成します。
func NewServer(store store.Store, config *config.Config, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		router: http.NewServeMux(),
		store:  store,
		config: config,
		logger: logger,
	}
	s.routes()

	// 外側から順に: ログ、末尾スラッシュの除去、セッション
	s.handler = s.loggingMiddleware(trimSlashMiddleware(s.sessionMiddleware(s.router)))
	return s
}

// routes はAPIエンドポイントのルーティングを設定します。
func (s *Server) routes() {
	// Index endpoints
	s.router.HandleFunc("GET /api/v1/status", s.handleStatus)
	s.router.HandleFunc("GET /api/v1/stats", s.handleStats)

	// State endpoints
	s.router.HandleFunc("GET /api/v1/states", s.handleListStates)
	s.router.HandleFunc("POST /api/v1/states", s.handleCreateState)
	s.router.HandleFunc("GET /api/v1/states/{state_id}", s.handleGetState)
	s.router.HandleFunc("PUT /api/v1/states/{state_id}", s.handleUpdateState)
	s.router.HandleFunc("DELETE /api/v1/states/{state_id}", s.handleDeleteState)

	// City endpoints
	s.router.HandleFunc("GET /api/v1/states/{state_id}/cities", s.handleListCities)
	s.router.HandleFunc("POST /api/v1/states/{state_id}/cities", s.handleCreateCity)
	s.router.HandleFunc("GET /api/v1/cities/{city_id}", s.handleGetCity)
	s.router.HandleFunc("PUT /api/v1/cities/{city_id}", s.handleUpdateCity)
	s.router.HandleFunc("DELETE /api/v1/cities/{city_id}", s.handleDeleteCity)

	// Amenity endpoints
	s.router.HandleFunc("GET /api/v1/amenities", s.handleListAmenities)
	s.router.HandleFunc("POST /api/v1/amenities", s.handleCreateAmenity)
	s.router.HandleFunc("GET /api/v1/amenities/{amenity_id}", s.handleGetAmenity)
	s.router.HandleFunc("PUT /api/v1/amenities/{amenity_id}", s.handleUpdateAmenity)
	s.router.HandleFunc("DELETE /api/v1/amenities/{amenity_id}", s.handleDeleteAmenity)

	// User endpoints
	s.router.HandleFunc("GET /api/v1/users", s.handleListUsers)
	s.router.HandleFunc("POST /api/v1/users", s.handleCreateUser)
	s.router.HandleFunc("GET /api/v1/users/{user_id}", s.handleGetUser)
	s.router.HandleFunc("PUT /api/v1/users/{user_id}", s.handleUpdateUser)
	s.router.HandleFunc("DELETE /api/v1/users/{user_id}", s.handleDeleteUser)

	// Place endpoints
	s.router.HandleFunc("GET /api/v1/cities/{city_id}/places", s.handleListPlaces)
	s.router.HandleFunc("POST /api/v1/cities/{city_id}/places", s.handleCreatePlace)
	s.router.HandleFunc("GET /api/v1/places/{place_id}", s.handleGetPlace)
	s.router.HandleFunc("PUT /api/v1/places/{place_id}", s.handleUpdatePlace)
	s.router.HandleFunc("DELETE /api/v1/places/{place_id}", s.handleDeletePlace)
	s.router.HandleFunc("POST /api/v1/places_search", s.handleSearchPlaces)

	// Review endpoints
	s.router.HandleFunc("GET /api/v1/places/{place_id}/reviews", s.handleListReviews)
	s.router.HandleFunc("POST /api/v1/places/{place_id}/reviews", s.handleCreateReview)
	s.router.HandleFunc("GET /api/v1/reviews/{review_id}", s.handleGetReview)
	s.router.HandleFunc("PUT /api/v1/reviews/{review_id}", s.handleUpdateReview)
	s.router.HandleFunc("DELETE /api/v1/reviews/{review_id}", s.handleDeleteReview)

	// Place amenity endpoints
	s.router.HandleFunc("GET /api/v1/places/{place_id}/amenities", s.handleListPlaceAmenities)
	s.router.HandleFunc("POST /api/v1/places/{place_id}/amenities/{amenity_id}", s.handleLinkPlaceAmenity)
	s.router.HandleFunc("DELETE /api/v1/places/{place_id}/amenities/{amenity_id}", s.handleUnlinkPlaceAmenity)

	// 未定義のAPIパスはJSONで404を返す
	s.router.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		s.writeJSONError(w, "Not found", http.StatusNotFound)
	})
}

// ServeHTTP はServer構造体をhttp.Handlerとして実装します。
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Run はサーバーを指定されたアドレスで起動します。
func (s *Server) Run(addr string) error {
	s.logger.Info("Starting server", "addr", addr)
	return http.ListenAndServe(addr, s)
}
