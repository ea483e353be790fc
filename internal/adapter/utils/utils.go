package utils

import (
	"net/http"
	"strings"
	"sync"

	_ "github.com/akolanti/StudyRAG/cmd/api/docs"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggo/http-swagger"
)

var (
	once          sync.Once
	router        *chi.Mux
	routerOptions = RouterOptions{AllowedOrigins: []string{"*"}}
)

// RouterOptions only take effect when set before the first GetRouter call.
type RouterOptions struct {
	AllowedOrigins []string
}

type RouterClient struct {
	Router *chi.Mux
}

func GetNewUUID() string {
	return uuid.New().String()
}

func GetChiURLParam(request *http.Request, key string) string {
	return chi.URLParam(request, key)
}

// ConfigureRouter reports false when the router already exists.
func ConfigureRouter(opts RouterOptions) bool {
	if router != nil {
		return false
	}
	if len(opts.AllowedOrigins) > 0 {
		routerOptions = opts
	}
	return true
}

func GetRouter() RouterClient {
	once.Do(func() {
		router = chi.NewRouter()
		// the browser front end is served from another origin during development
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: routerOptions.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Trace-Id"},
			ExposedHeaders: []string{"X-Trace-Id"},
			MaxAge:         300,
		}))
		InitSwagger(router)
		//register prometheus
		router.Handle("/metrics", promhttp.Handler())
	})

	return RouterClient{Router: router}
}

func InitSwagger(r *chi.Mux) {
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/swagger/index.html", http.StatusMovedPermanently)
	})
	r.Get("/swagger/*", httpSwagger.WrapHandler)
}

// MountStatic serves dir read-only under prefix. Directory listings are refused.
func MountStatic(r chi.Router, prefix string, dir string) {
	prefix = "/" + strings.Trim(prefix, "/") + "/"
	fileServer := http.StripPrefix(prefix, http.FileServer(http.Dir(dir)))
	r.Get(prefix+"*", func(w http.ResponseWriter, req *http.Request) {
		if strings.HasSuffix(req.URL.Path, "/") {
			http.NotFound(w, req)
			return
		}
		fileServer.ServeHTTP(w, req)
	})
}
