package customHttpClient

import (
	"net/http"
	"sync"

	"github.com/akolanti/StudyRAG/internal/config"
)

var customTransport = &http.Transport{
	Proxy:               http.ProxyFromEnvironment,
	MaxIdleConns:        config.MaxIdleConns,
	MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
	IdleConnTimeout:     config.IdleConnTimeout,
}

var once sync.Once
var client *http.Client

// GetHttpClient returns the pooled client shared by the embedding and completion SDKs.
// Per-call deadlines come from the request context, so the client sets no Timeout.
func GetHttpClient() *http.Client {
	once.Do(func() {
		client = &http.Client{Transport: customTransport}
	})
	return client
}

// CloseIdle drops pooled connections on shutdown.
func CloseIdle() {
	customTransport.CloseIdleConnections()
}
