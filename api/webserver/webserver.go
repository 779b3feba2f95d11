package webserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"path"
	"strconv"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/turt2live/pack-repo/api"
	"github.com/turt2live/pack-repo/api/custom"
	"github.com/turt2live/pack-repo/api/r0"
	"github.com/turt2live/pack-repo/common/config"
	"github.com/turt2live/pack-repo/limits"
)

type route struct {
	methods []string
	handler handler
}

var srv *http.Server
var waitGroup = &sync.WaitGroup{}
var reload = false

// BuildRoutes returns the full handler chain for the public listener,
// without rate limiting or Sentry.
func BuildRoutes() http.Handler {
	rtr := mux.NewRouter()
	counter := &requestCounter{}

	optionsHandler := handler{api.EmptyResponseHandler, "options_request", counter}
	uploadHandler := handler{r0.UploadBundle, "upload", counter}
	listHandler := handler{r0.ListBundles, "list", counter}
	downloadHandler := handler{r0.DownloadBundleFile, "download", counter}
	healthzHandler := handler{custom.GetHealthz, "healthz", counter}
	versionHandler := handler{custom.GetVersion, "version", counter}

	// Matches the folders the manifest advertises, whatever slashes the
	// config was written with.
	prefix := path.Join("/", config.Get().Storage.PublicPrefix)
	if prefix == "/" {
		prefix = ""
	}

	routes := map[string]route{
		"/upload":                 {[]string{"POST"}, uploadHandler},
		"/list":                   {[]string{"GET", "HEAD"}, listHandler},
		prefix + "/{name}/{file}": {[]string{"GET", "HEAD"}, downloadHandler},
		"/healthz":                {[]string{"GET"}, healthzHandler},
		"/version":                {[]string{"GET"}, versionHandler},
	}

	for routePath, route := range routes {
		logrus.Debug("Registering route: ", route.methods, " ", routePath)
		rtr.Handle(routePath, route.handler).Methods(route.methods...)
		rtr.Handle(routePath, optionsHandler).Methods("OPTIONS")

		// This is a hack to a ensure that trailing slashes also match the routes correctly
		rtr.Handle(routePath+"/", route.handler).Methods(route.methods...)
		rtr.Handle(routePath+"/", optionsHandler).Methods("OPTIONS")
	}

	rtr.NotFoundHandler = handler{api.NotFoundHandler, "not_found", counter}
	rtr.MethodNotAllowedHandler = handler{api.MethodNotAllowedHandler, "method_not_allowed", counter}

	return rtr
}

func Init() *sync.WaitGroup {
	address := net.JoinHostPort(config.Get().General.BindAddress, strconv.Itoa(config.Get().General.Port))

	handler := limits.Wrap(config.Get().RateLimit, BuildRoutes())
	if config.Get().RateLimit.Enabled {
		logrus.Info("Enabling rate limit")
	}

	// Note: we bind Sentry here to ensure we capture *everything*
	sentryHandler := sentryhttp.New(sentryhttp.Options{Repanic: false})
	srv = &http.Server{Addr: address, Handler: sentryHandler.Handle(handler)}
	reload = false

	go func() {
		//goland:noinspection HttpUrlsUsage
		logrus.WithField("address", address).Info("Started up. Listening at http://" + address)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			sentry.CaptureException(err)
			logrus.Fatal(err)
		}

		// Only notify the main thread that we're done if we're actually done
		srv = nil
		if !reload {
			waitGroup.Done()
		}
	}()

	return waitGroup
}

func Reload() {
	reload = true

	// Stop the server first
	Stop()

	// Reload the web server, ignoring the wait group (because we don't care to wait here)
	Init()
}

func Stop() {
	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			panic(err)
		}
	}
}
