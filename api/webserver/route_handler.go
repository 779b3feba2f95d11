package webserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/alioygur/is"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sebest/xff"
	"github.com/sirupsen/logrus"
	"github.com/turt2live/pack-repo/api"
	"github.com/turt2live/pack-repo/api/r0"
	"github.com/turt2live/pack-repo/common"
	"github.com/turt2live/pack-repo/common/config"
	"github.com/turt2live/pack-repo/common/rcontext"
	"github.com/turt2live/pack-repo/metrics"
	"github.com/turt2live/pack-repo/util"
)

type handler struct {
	h          func(r *http.Request, ctx rcontext.RequestContext) interface{}
	action     string
	reqCounter *requestCounter
}

func (h handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var raddr string
	if config.Get().General.TrustAnyForward {
		raddr = r.Header.Get("X-Forwarded-For")
	} else {
		raddr = xff.GetRemoteAddr(r)
	}
	if raddr == "" {
		raddr = r.RemoteAddr
	}

	host, _, err := net.SplitHostPort(raddr)
	if err != nil {
		host = raddr
	}
	r.RemoteAddr = host

	requestId := h.reqCounter.GetNextId()
	contextLog := logrus.WithFields(logrus.Fields{
		"method":        r.Method,
		"resource":      r.URL.Path,
		"contentType":   r.Header.Get("Content-Type"),
		"contentLength": r.ContentLength,
		"queryString":   util.GetLogSafeQueryString(r),
		"requestId":     requestId,
		"remoteAddr":    r.RemoteAddr,
	})
	contextLog.Info("Received request")

	// Send CORS and other basic headers
	w.Header().Set("Access-Control-Allow-Headers", "Origin, X-Requested-With, Content-Type, Accept, Range")
	w.Header().Set("Access-Control-Allow-Methods", "GET, HEAD, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Server", "pack-repo")

	ctx := context.WithValue(r.Context(), common.ContextAction, h.action)
	ctx = context.WithValue(ctx, common.ContextRequestId, requestId)
	r = r.WithContext(ctx)
	rctx := rcontext.ForRequest(r, contextLog)
	r = r.WithContext(rctx)

	metrics.HttpRequests.With(prometheus.Labels{
		"action": h.action,
		"method": r.Method,
	}).Inc()
	defer func() {
		metrics.HttpResponseTime.With(prometheus.Labels{
			"action": h.action,
			"method": r.Method,
		}).Observe(time.Since(start).Seconds())
	}()

	res := h.h(r, rctx)
	if res == nil {
		res = &api.EmptyResponse{}
	}

	cacheControl := ""
	switch result := res.(type) {
	case *api.DoNotCacheResponse:
		res = result.Payload
		cacheControl = "no-cache, no-store"
	}

	contextLog.Info(fmt.Sprintf("Replying with result: %T %+v", res, res))

	statusCode := http.StatusOK
	switch result := res.(type) {
	case *api.ErrorResponse:
		statusCode = statusCodeFor(result)
	case *api.EmptyResponse:
		if r.Method == http.MethodOptions {
			h.countResponse(r, http.StatusNoContent)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	case *api.RawJsonResponse:
		h.countResponse(r, http.StatusOK)
		if cacheControl != "" {
			w.Header().Set("Cache-Control", cacheControl)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Length", strconv.Itoa(len(result.Body)))
		w.WriteHeader(http.StatusOK)
		if r.Method != http.MethodHead {
			_, _ = io.Copy(w, bytes.NewReader(result.Body))
		}
		return
	case *r0.DownloadBundleResponse:
		defer result.Data.Close()
		h.countResponse(r, http.StatusOK)

		w.Header().Set("Cache-Control", "public, max-age=300")
		w.Header().Set("Content-Type", result.ContentType)
		if is.ASCII(result.Filename) {
			w.Header().Set("Content-Disposition", "inline; filename="+url.QueryEscape(result.Filename))
		} else {
			w.Header().Set("Content-Disposition", "inline; filename*=utf-8''"+url.QueryEscape(result.Filename))
		}
		http.ServeContent(w, r, result.Filename, result.ModTime, result.Data)
		return // Prevent sending conflicting responses
	}

	h.countResponse(r, statusCode)

	// Order is important: Set headers before sending responses
	if cacheControl != "" {
		w.Header().Set("Cache-Control", cacheControl)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	encoder := json.NewEncoder(w)
	if err = encoder.Encode(res); err != nil {
		contextLog.Warn("Error writing response: ", err)
	}
}

func (h handler) countResponse(r *http.Request, statusCode int) {
	metrics.HttpResponses.With(prometheus.Labels{
		"action":     h.action,
		"method":     r.Method,
		"statusCode": strconv.Itoa(statusCode),
	}).Inc()
}

func statusCodeFor(res *api.ErrorResponse) int {
	switch res.InternalCode {
	case common.ErrCodeMissingField, common.ErrCodeInvalidFileType, common.ErrCodeInvalidName, common.ErrCodeBadRequest:
		return http.StatusBadRequest
	case common.ErrCodeTooLarge:
		return http.StatusRequestEntityTooLarge
	case common.ErrCodeNotFound:
		return http.StatusNotFound
	case common.ErrCodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case common.ErrCodeRateLimitExceeded:
		return http.StatusTooManyRequests
	default: // Treat as unknown (a generic server error)
		return http.StatusInternalServerError
	}
}
