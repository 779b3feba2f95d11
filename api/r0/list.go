package r0

import (
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/turt2live/pack-repo/api"
	"github.com/turt2live/pack-repo/common/rcontext"
	"github.com/turt2live/pack-repo/controllers/manifest_controller"
)

func ListBundles(r *http.Request, rctx rcontext.RequestContext) interface{} {
	b, err := manifest_controller.Get().Read(rctx)
	if err != nil {
		rctx.Log.Error("Error reading manifest: ", err)
		sentry.CaptureException(err)
		return api.ErrorFor(err)
	}
	return &api.DoNotCacheResponse{Payload: &api.RawJsonResponse{Body: b}}
}
