package http

import (
	"bytes"
	"io"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-qti/internal/delivery"
	"github.com/mind-engage/mindengage-qti/internal/qti/loader"
)

// POST /items (body: assessmentItem XML)
func UploadItemHandler(svc *delivery.Service, maxBytes int64, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		src, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBytes))
		if err != nil {
			http.Error(w, "body too large or unreadable", http.StatusRequestEntityTooLarge)
			return
		}
		if len(bytes.TrimSpace(src)) == 0 {
			http.Error(w, "item XML required", http.StatusBadRequest)
			return
		}
		it, err := svc.UploadItem(r.Context(), src)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, it)
	}
}

// POST /items/package (multipart: file=package.zip)
func ImportPackageHandler(svc *delivery.Service, maxBytes int64, log *zap.Logger) http.HandlerFunc {
	type imported struct {
		Href string         `json:"href"`
		Item *delivery.Item `json:"item,omitempty"`
		Err  string         `json:"error,omitempty"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		f, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "file required", http.StatusBadRequest)
			return
		}
		defer f.Close()

		// spool to disk to get ReaderAt+size for unzip
		tmp, err := os.CreateTemp("", "qti-upload-*")
		if err != nil {
			writeError(w, log, err)
			return
		}
		defer os.Remove(tmp.Name())
		defer tmp.Close()
		size, err := io.Copy(tmp, f)
		if err != nil {
			http.Error(w, "upload failed", http.StatusBadRequest)
			return
		}

		pkg, err := loader.OpenPackage(tmp, size)
		if err != nil {
			http.Error(w, "package: "+err.Error(), http.StatusBadRequest)
			return
		}
		out := []imported{}
		for _, href := range pkg.Items() {
			res := imported{Href: href}
			src, err := readAll(pkg, href)
			if err == nil {
				var it delivery.Item
				if it, err = svc.UploadItem(r.Context(), src); err == nil {
					res.Item = &it
				}
			}
			if err != nil {
				res.Err = err.Error()
			}
			out = append(out, res)
		}
		log.Info("package imported", zap.String("filename", hdr.Filename), zap.Int("items", len(out)))
		writeJSON(w, http.StatusCreated, map[string]any{"filename": hdr.Filename, "items": out})
	}
}

func readAll(pkg *loader.Package, href string) ([]byte, error) {
	rc, err := pkg.Open(href)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// GET /items?limit=&offset=
func ListItemsHandler(svc *delivery.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListItems(r.Context(), delivery.ListOpts{
			Limit:  parseIntDefault(r.URL.Query().Get("limit"), 50),
			Offset: parseIntDefault(r.URL.Query().Get("offset"), 0),
		})
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// GET /items/{itemID}
func GetItemHandler(svc *delivery.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		it, err := svc.GetItem(r.Context(), chi.URLParam(r, "itemID"))
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, it)
	}
}

// GET /items/{itemID}/diagnostics
func ItemDiagnosticsHandler(svc *delivery.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		it, err := svc.GetItem(r.Context(), chi.URLParam(r, "itemID"))
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"valid": it.Valid, "diagnostics": it.Diagnostics})
	}
}

// GET /items/{itemID}/source
func ItemSourceHandler(svc *delivery.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rc, err := svc.ItemSource(r.Context(), chi.URLParam(r, "itemID"))
		if err != nil {
			writeError(w, log, err)
			return
		}
		defer rc.Close()
		w.Header().Set("Content-Type", "application/xml")
		_, _ = io.Copy(w, rc)
	}
}
