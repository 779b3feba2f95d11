package r0

import (
	"io"
	"mime/multipart"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/turt2live/pack-repo/api"
	"github.com/turt2live/pack-repo/common"
	"github.com/turt2live/pack-repo/common/rcontext"
	"github.com/turt2live/pack-repo/controllers/upload_controller"
	"github.com/turt2live/pack-repo/types"
	"github.com/turt2live/pack-repo/util"
)

// Parts beyond this are spooled to temporary files by the multipart reader.
const maxMultipartMemory = 32 << 20

type UploadBundleResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Name    string `json:"name"`
	Folder  string `json:"folder"`
}

func UploadBundle(r *http.Request, rctx rcontext.RequestContext) interface{} {
	ingestor := upload_controller.Get()

	if ingestor.IsRequestTooLarge(util.ContentLengthOf(r)) {
		return api.RequestTooLarge()
	}
	if !util.IsMultipart(r) {
		return api.BadRequest("Expected a multipart/form-data body")
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		rctx.Log.Warn("Error parsing upload: ", err)
		return api.BadRequest("Error parsing multipart body")
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			rctx.Log.Warn("Error removing multipart temp files: ", err)
		}
	}()

	upload := &types.BundleUpload{
		Name:      firstValue(r.MultipartForm, "name"),
		Package:   firstFile(r.MultipartForm, "package", "file"),
		Thumbnail: firstFile(r.MultipartForm, "thumbnail"),
	}

	stored, err := ingestor.Ingest(rctx, upload)
	if err != nil {
		if common.IsClientError(err) {
			rctx.Log.Info("Rejected upload: ", err)
		} else {
			rctx.Log.Error("Error storing bundle: ", err)
			sentry.CaptureException(err)
		}
		return api.ErrorFor(err)
	}

	rctx.Log.Info("Uploaded bundle ", stored.Name)
	return &UploadBundleResponse{
		Success: true,
		Message: "Uploaded successfully",
		Name:    stored.Name,
		Folder:  stored.Folder,
	}
}

func firstValue(form *multipart.Form, key string) string {
	if v := form.Value[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

func firstFile(form *multipart.Form, keys ...string) *types.UploadedFile {
	for _, k := range keys {
		if fhs := form.File[k]; len(fhs) > 0 {
			fh := fhs[0]
			return &types.UploadedFile{
				Filename: fh.Filename,
				Size:     fh.Size,
				Open: func() (io.ReadCloser, error) {
					return fh.Open()
				},
			}
		}
	}
	return nil
}
