package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vncsmyrnk/evaluation/internal/core/domain"
	"github.com/vncsmyrnk/evaluation/internal/core/ports"
)

const maxUploadSize = 10 << 20

func (h *Handler) ListImages(w http.ResponseWriter, r *http.Request) {
	pg, err := page(r, domain.SortableImageFields)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	images, err := h.svc.Images.Images(r.Context(), principalFrom(r.Context()), ports.ListImagesInput{
		Survey: r.URL.Query().Get("survey"),
		Page:   pg,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, images)
}

// UploadImage reads a multipart form with the file under "file" and the
// optional "survey", "question" and repeated "tags" fields.
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		h.writeError(w, r, domain.Errorf(domain.ErrValidation, "Invalid upload."))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, r, domain.Errorf(domain.ErrValidation, "Missing file."))
		return
	}
	defer file.Close()

	input := ports.UploadImageInput{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
		Tags:        r.MultipartForm.Value["tags"],
	}
	if v := r.FormValue("survey"); v != "" {
		input.Survey = &v
	}
	if v := r.FormValue("question"); v != "" {
		input.Question = &v
	}

	img, err := h.svc.Images.UploadImage(r.Context(), principalFrom(r.Context()), input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, img)
}

func (h *Handler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Images.DeleteImage(r.Context(), principalFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	noContent(w)
}
