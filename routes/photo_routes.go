package routes

import (
	"lymbo_server/cache"
	"lymbo_server/controllers"
	"lymbo_server/services"

	"github.com/gorilla/mux"
)

// RegisterPhotoRoutes sets up routes for photo delivery and S3 presigning.
func RegisterPhotoRoutes(r *mux.Router, imageCache *cache.ImageCache, s3Service *services.S3Service) {
	controller := controllers.NewPhotoController(imageCache, s3Service)

	api := r.PathPrefix("/api/photos").Subrouter()
	api.HandleFunc("", controller.GetPhoto).Methods("GET")
	api.HandleFunc("/invalidate", controller.InvalidatePhoto).Methods("POST")
	api.HandleFunc("/prefetch", controller.PrefetchPhotos).Methods("POST")

	// Kept at the root for compatibility with the mobile client.
	r.HandleFunc("/generate-presigned-url", controller.GeneratePresignedURL).Methods("POST")
	r.HandleFunc("/get-presigned-read-url", controller.GetPresignedReadURL).Methods("POST")
}
