package custom

import (
	"net/http"

	"github.com/turt2live/pack-repo/api"
	"github.com/turt2live/pack-repo/common/rcontext"
	"github.com/turt2live/pack-repo/common/version"
)

func GetVersion(r *http.Request, rctx rcontext.RequestContext) interface{} {
	info := version.Current()
	return &api.DoNotCacheResponse{
		Payload: &info,
	}
}
