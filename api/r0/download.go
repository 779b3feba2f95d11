package r0

import (
	"io"
	"net/http"
	"os"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/turt2live/pack-repo/api"
	"github.com/turt2live/pack-repo/common"
	"github.com/turt2live/pack-repo/common/rcontext"
	"github.com/turt2live/pack-repo/storage"
	"github.com/turt2live/pack-repo/types"
)

// DownloadBundleResponse streams one file of a bundle. The route handler
// serves it with range support.
type DownloadBundleResponse struct {
	ContentType string
	Filename    string
	SizeBytes   int64
	ModTime     time.Time
	Data        io.ReadSeekCloser
}

func DownloadBundleFile(r *http.Request, rctx rcontext.RequestContext) interface{} {
	params := mux.Vars(r)
	name := params["name"]
	file := params["file"]

	rctx = rctx.LogWithFields(logrus.Fields{
		"bundle": name,
		"file":   file,
	})

	f, info, err := storage.GetBundleStore().OpenBundleFile(name, file)
	if err != nil {
		if err == common.ErrBundleNotFound {
			return api.NotFoundError()
		}
		rctx.Log.Error("Error opening bundle file: ", err)
		return api.StorageUnavailable()
	}

	contentType, err := detectContentType(f, file)
	if err != nil {
		_ = f.Close()
		rctx.Log.Error("Error reading bundle file: ", err)
		return api.StorageUnavailable()
	}

	return &DownloadBundleResponse{
		ContentType: contentType,
		Filename:    name + "_" + file,
		SizeBytes:   info.Size(),
		ModTime:     info.ModTime(),
		Data:        f,
	}
}

func detectContentType(f *os.File, file string) (string, error) {
	if file == types.PackageFileName {
		return "application/octet-stream", nil
	}

	m, err := mimetype.DetectReader(f)
	if err != nil {
		return "", err
	}
	if _, err = f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return m.String(), nil
}
