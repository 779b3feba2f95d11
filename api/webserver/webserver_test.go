package webserver

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/suite"
	"github.com/turt2live/pack-repo/api/r0"
	"github.com/turt2live/pack-repo/common/assets"
	"github.com/turt2live/pack-repo/common/config"
	"github.com/turt2live/pack-repo/controllers/manifest_controller"
	"github.com/turt2live/pack-repo/controllers/upload_controller"
	"github.com/turt2live/pack-repo/storage"
	"github.com/turt2live/pack-repo/test/test_internals"
	"github.com/turt2live/pack-repo/types"
)

type errorBody struct {
	Code    string `json:"errcode"`
	Message string `json:"error"`
}

type WebserverSuite struct {
	suite.Suite
	handler http.Handler
}

func (s *WebserverSuite) SetupTest() {
	conf := test_internals.TestConfig(s.T())
	conf.Thumbnails.DefaultPath = filepath.Join(s.T().TempDir(), "default.png")
	s.Require().NoError(assets.WriteDefaultThumbnail(conf.Thumbnails.DefaultPath))
	config.Set(conf)

	upload_controller.Reload()
	manifest_controller.Reload()
	storage.ReloadBundleStore()

	s.handler = BuildRoutes()
}

func (s *WebserverSuite) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *WebserverSuite) upload(fields map[string]string, files ...test_internals.FilePart) *httptest.ResponseRecorder {
	body, contentType := test_internals.MakeMultipartBody(s.T(), fields, files...)
	req := httptest.NewRequest("POST", "/upload", body)
	req.Header.Set("Content-Type", contentType)
	return s.do(req)
}

func (s *WebserverSuite) assertError(rec *httptest.ResponseRecorder, status int, code string) {
	s.Equal(status, rec.Code)
	s.Equal("application/json", rec.Header().Get("Content-Type"))
	res := &errorBody{}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), res))
	s.Equal(code, res.Code)
	s.NotEmpty(res.Message)
}

func (s *WebserverSuite) list() []*types.ManifestEntry {
	rec := s.do(httptest.NewRequest("GET", "/list", nil))
	s.Require().Equal(http.StatusOK, rec.Code)
	entries := make([]*types.ManifestEntry, 0)
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &entries))
	return entries
}

func (s *WebserverSuite) TestUploadListDownload() {
	thumb := test_internals.MustMakeTestImage(s.T(), 32, 32, imaging.PNG)
	rec := s.upload(map[string]string{"name": "Cool Pack"},
		test_internals.FilePart{Field: "package", Filename: "cool.pck", Content: []byte("package-bytes")},
		test_internals.FilePart{Field: "thumbnail", Filename: "cool.png", Content: thumb},
	)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	res := &r0.UploadBundleResponse{}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), res))
	s.True(res.Success)
	s.Equal("Uploaded successfully", res.Message)
	s.Equal("Cool_Pack", res.Name)
	s.Equal("/packs/Cool_Pack/", res.Folder)

	entries := s.list()
	s.Require().Len(entries, 1)
	s.Equal(&types.ManifestEntry{
		Name:      "Cool_Pack",
		Package:   "/packs/Cool_Pack/package.pck",
		Thumbnail: "/packs/Cool_Pack/thumbnail.png",
	}, entries[0])

	rec = s.do(httptest.NewRequest("GET", entries[0].Package, nil))
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("package-bytes", rec.Body.String())
	s.Equal("application/octet-stream", rec.Header().Get("Content-Type"))

	rec = s.do(httptest.NewRequest("GET", entries[0].Thumbnail, nil))
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("image/png", rec.Header().Get("Content-Type"))
	s.Equal(thumb, rec.Body.Bytes())
}

func (s *WebserverSuite) TestPublicPrefixWithoutLeadingSlash() {
	for _, prefix := range []string{"packs", "packs/", "/files/", "/"} {
		config.Get().Storage.PublicPrefix = prefix
		upload_controller.Reload()
		manifest_controller.Reload()
		s.handler = BuildRoutes()

		rec := s.upload(map[string]string{"name": "alpha"},
			test_internals.FilePart{Field: "package", Filename: "a.pck", Content: []byte("abc")},
		)
		s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

		entries := s.list()
		s.Require().Len(entries, 1)
		rec = s.do(httptest.NewRequest("GET", entries[0].Package, nil))
		s.Equal(http.StatusOK, rec.Code, "prefix %q advertised %s", prefix, entries[0].Package)
		s.Equal("abc", rec.Body.String())
	}
}

func (s *WebserverSuite) TestDownloadRangeAndHead() {
	rec := s.upload(map[string]string{"name": "alpha"},
		test_internals.FilePart{Field: "package", Filename: "a.pck", Content: []byte("0123456789")},
	)
	s.Require().Equal(http.StatusOK, rec.Code)

	req := httptest.NewRequest("GET", "/packs/alpha/package.pck", nil)
	req.Header.Set("Range", "bytes=2-5")
	rec = s.do(req)
	s.Equal(http.StatusPartialContent, rec.Code)
	s.Equal("2345", rec.Body.String())

	rec = s.do(httptest.NewRequest("HEAD", "/packs/alpha/package.pck", nil))
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("10", rec.Header().Get("Content-Length"))
	s.Empty(rec.Body.Bytes())
}

func (s *WebserverSuite) TestUploadFileAlias() {
	rec := s.upload(map[string]string{"name": "alpha"},
		test_internals.FilePart{Field: "file", Filename: "a.pck", Content: []byte("pkg")},
	)
	s.Equal(http.StatusOK, rec.Code, rec.Body.String())
}

func (s *WebserverSuite) TestUploadDefaultThumbnail() {
	rec := s.upload(map[string]string{"name": "alpha"},
		test_internals.FilePart{Field: "package", Filename: "a.pck", Content: []byte("pkg")},
	)
	s.Require().Equal(http.StatusOK, rec.Code)

	expected, err := ioutil.ReadFile(config.Get().Thumbnails.DefaultPath)
	s.Require().NoError(err)
	rec = s.do(httptest.NewRequest("GET", "/packs/alpha/thumbnail.png", nil))
	s.Equal(http.StatusOK, rec.Code)
	s.Equal(expected, rec.Body.Bytes())
}

func (s *WebserverSuite) TestUploadRejections() {
	s.assertError(s.upload(map[string]string{},
		test_internals.FilePart{Field: "package", Filename: "a.pck", Content: []byte("pkg")},
	), http.StatusBadRequest, "P_MISSING_FIELD")

	s.assertError(s.upload(map[string]string{"name": "alpha"}),
		http.StatusBadRequest, "P_MISSING_FIELD")

	s.assertError(s.upload(map[string]string{"name": "alpha"},
		test_internals.FilePart{Field: "package", Filename: "a.zip", Content: []byte("pkg")},
	), http.StatusBadRequest, "P_INVALID_FILE_TYPE")

	s.assertError(s.upload(map[string]string{"name": "../../etc"},
		test_internals.FilePart{Field: "package", Filename: "a.pck", Content: []byte("pkg")},
	), http.StatusBadRequest, "P_INVALID_NAME")

	s.assertError(s.upload(map[string]string{"name": "alpha"},
		test_internals.FilePart{Field: "package", Filename: "a.pck", Content: []byte("pkg")},
		test_internals.FilePart{Field: "thumbnail", Filename: "t.png", Content: []byte("not an image")},
	), http.StatusBadRequest, "P_INVALID_FILE_TYPE")

	s.Empty(s.list(), "rejected uploads must not appear in the listing")
}

func (s *WebserverSuite) TestUploadTooLarge() {
	conf := config.Get()
	conf.Uploads.MaxSizeBytes = 8
	upload_controller.Reload()

	s.assertError(s.upload(map[string]string{"name": "alpha"},
		test_internals.FilePart{Field: "package", Filename: "a.pck", Content: []byte("0123456789")},
	), http.StatusRequestEntityTooLarge, "P_TOO_LARGE")
}

func (s *WebserverSuite) TestUploadNotMultipart() {
	req := httptest.NewRequest("POST", "/upload", strings.NewReader(`{"name":"alpha"}`))
	req.Header.Set("Content-Type", "application/json")
	s.assertError(s.do(req), http.StatusBadRequest, "P_BAD_REQUEST")
}

func (s *WebserverSuite) TestEmptyList() {
	rec := s.do(httptest.NewRequest("GET", "/list", nil))
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("[]", rec.Body.String())
	s.Equal("application/json", rec.Header().Get("Content-Type"))
}

func (s *WebserverSuite) TestNotFound() {
	s.assertError(s.do(httptest.NewRequest("GET", "/packs/missing/package.pck", nil)), http.StatusNotFound, "P_NOT_FOUND")
	s.assertError(s.do(httptest.NewRequest("GET", "/packs/alpha/secrets.txt", nil)), http.StatusNotFound, "P_NOT_FOUND")
	s.assertError(s.do(httptest.NewRequest("GET", "/nothing/here/at/all", nil)), http.StatusNotFound, "P_NOT_FOUND")
}

func (s *WebserverSuite) TestMethodNotAllowed() {
	s.assertError(s.do(httptest.NewRequest("GET", "/upload", nil)), http.StatusMethodNotAllowed, "P_METHOD_NOT_ALLOWED")
	s.assertError(s.do(httptest.NewRequest("DELETE", "/list", nil)), http.StatusMethodNotAllowed, "P_METHOD_NOT_ALLOWED")
}

func (s *WebserverSuite) TestOptions() {
	rec := s.do(httptest.NewRequest("OPTIONS", "/upload", nil))
	s.Equal(http.StatusNoContent, rec.Code)
	s.Equal("*", rec.Header().Get("Access-Control-Allow-Origin"))
	s.Contains(rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func (s *WebserverSuite) TestHealthzAndVersion() {
	rec := s.do(httptest.NewRequest("GET", "/healthz", nil))
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"ok":true`)

	rec = s.do(httptest.NewRequest("GET", "/version", nil))
	s.Equal(http.StatusOK, rec.Code)
	body := map[string]string{}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.NotEmpty(body["version"])
	s.NotEmpty(body["git_commit"])
}

func (s *WebserverSuite) TestReuploadKeepsSingleEntry() {
	for _, content := range []string{"first", "second"} {
		rec := s.upload(map[string]string{"name": "alpha"},
			test_internals.FilePart{Field: "package", Filename: "a.pck", Content: []byte(content)},
		)
		s.Require().Equal(http.StatusOK, rec.Code)
	}

	s.Len(s.list(), 1)
	rec := s.do(httptest.NewRequest("GET", "/packs/alpha/package.pck", nil))
	s.True(bytes.Equal([]byte("second"), rec.Body.Bytes()))
}

func TestWebserverSuite(t *testing.T) {
	suite.Run(t, new(WebserverSuite))
}
