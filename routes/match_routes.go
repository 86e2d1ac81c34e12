package routes

import (
	"lymbo_server/controllers"
	"lymbo_server/services"

	"github.com/gorilla/mux"
)

// RegisterMatchRoutes sets up routes for like/match operations under /api.
func RegisterMatchRoutes(r *mux.Router, matchService *services.MatchService) {
	controller := controllers.NewMatchController(matchService)

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/likes", controller.Like).Methods("POST")
	api.HandleFunc("/likes/received", controller.GetReceivedLikes).Methods("GET")
	api.HandleFunc("/likes/sent", controller.GetSentLikes).Methods("GET")
	api.HandleFunc("/matches", controller.GetMatches).Methods("GET")
	api.HandleFunc("/matches/unmatch", controller.Unmatch).Methods("POST")
}
