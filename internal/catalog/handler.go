package catalog

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/avolkov/vitrine/internal/photos"
	"github.com/avolkov/vitrine/internal/server"
	"github.com/avolkov/vitrine/pkg/models"
)

// maxBodyBytes bounds upload request bodies: the photo ceiling plus headroom
// for multipart framing.
const maxBodyBytes = photos.MaxUploadBytes + 1<<20

// Handler exposes the product API.
type Handler struct {
	repo   ProductRepository
	photos *photos.Manager
	logger *zap.Logger
}

// NewHandler creates a product Handler.
func NewHandler(repo ProductRepository, photoMgr *photos.Manager, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, photos: photoMgr, logger: logger}
}

// RegisterRoutes registers the product routes on the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /products", h.handleList)
	mux.HandleFunc("POST /products", h.handleCreate)
	mux.HandleFunc("GET /products/{id}", h.handleGet)
	mux.HandleFunc("PUT /products/{id}", h.handleUpdate)
	mux.HandleFunc("DELETE /products/{id}", h.handleDelete)
	mux.HandleFunc("POST /products/{id}/photo", h.handleAttachPhoto)
	mux.HandleFunc("DELETE /products/{id}/photo", h.handleDetachPhoto)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	spec := ParseQuerySpec(r.URL.Query())

	items, total, err := h.repo.List(r.Context(), spec)
	if err != nil {
		h.logger.Error("list products failed", zap.Error(err))
		server.InternalError(w, "failed to list products", r.URL.Path)
		return
	}

	writeJSON(w, http.StatusOK, NewPage(spec, items, total))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var in models.CreateProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		server.BadRequest(w, "invalid request body", r.URL.Path)
		return
	}
	if err := in.Validate(); err != nil {
		server.BadRequest(w, err.Error(), r.URL.Path)
		return
	}

	p, err := h.repo.Create(r.Context(), in)
	if err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			server.Conflict(w, "sku already in use", r.URL.Path)
			return
		}
		h.logger.Error("create product failed", zap.Error(err))
		server.InternalError(w, "failed to create product", r.URL.Path)
		return
	}

	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	p, err := h.repo.Get(r.Context(), id)
	if err != nil {
		h.writeRepoError(w, r, err, "get product")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	var in models.UpdateProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		server.BadRequest(w, "invalid request body", r.URL.Path)
		return
	}
	if err := in.Validate(); err != nil {
		server.BadRequest(w, err.Error(), r.URL.Path)
		return
	}

	p, err := h.repo.Update(r.Context(), id, in)
	if err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			server.Conflict(w, "sku already in use", r.URL.Path)
			return
		}
		h.writeRepoError(w, r, err, "update product")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	// Fetch first so the stored photo can be cleaned up after the row is gone.
	p, err := h.repo.Get(r.Context(), id)
	if err != nil {
		h.writeRepoError(w, r, err, "delete product")
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		h.writeRepoError(w, r, err, "delete product")
		return
	}
	h.photos.Cleanup(p)

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAttachPhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			server.PayloadTooLarge(w, "photo exceeds the 10 MiB limit", r.URL.Path)
			return
		}
		server.BadRequest(w, "multipart field 'file' is required", r.URL.Path)
		return
	}
	defer file.Close()

	p, err := h.photos.Attach(r.Context(), id, file,
		header.Filename, header.Header.Get("Content-Type"), header.Size)
	if err != nil {
		switch {
		case errors.Is(err, photos.ErrTooLarge):
			server.PayloadTooLarge(w, "photo exceeds the 10 MiB limit", r.URL.Path)
		case errors.Is(err, photos.ErrNotImage):
			server.UnsupportedMediaType(w, "only image uploads are allowed", r.URL.Path)
		case errors.Is(err, ErrNotFound):
			server.NotFound(w, "product not found", r.URL.Path)
		default:
			h.logger.Error("attach photo failed", zap.Int64("product", id), zap.Error(err))
			server.InternalError(w, "failed to store photo", r.URL.Path)
		}
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) handleDetachPhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	p, err := h.photos.Detach(r.Context(), id)
	if err != nil {
		h.writeRepoError(w, r, err, "detach photo")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// productID parses the {id} path segment, writing a 400 problem on failure.
func productID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		server.BadRequest(w, "product id must be an integer", r.URL.Path)
		return 0, false
	}
	return id, true
}

func (h *Handler) writeRepoError(w http.ResponseWriter, r *http.Request, err error, op string) {
	if errors.Is(err, ErrNotFound) {
		server.NotFound(w, "product not found", r.URL.Path)
		return
	}
	h.logger.Error(op+" failed", zap.Error(err))
	server.InternalError(w, op+" failed", r.URL.Path)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
