package api

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/kalambet/botanic/internal/collection"
	"github.com/kalambet/botanic/internal/media"
	"github.com/kalambet/botanic/internal/workflow"
)

const maxUploadSize = 10 << 20 // 10MB

type identifyResponse struct {
	Image     string            `json:"image"`
	Candidate candidateResponse `json:"candidate"`
	Saved     *collection.Plant `json:"saved,omitempty"`
}

type candidateResponse struct {
	Name   string `json:"name"`
	Family string `json:"family"`
	Care   string `json:"care"`
}

func handleIdentify(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid multipart body: %v", err)
			return
		}
		defer r.MultipartForm.RemoveAll()

		file, header, err := r.FormFile("image")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "image file is required")
			return
		}
		defer file.Close()

		uri, err := media.Import(deps.DataDir, header.Filename, file)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to store image: %v", err)
			return
		}

		decide := workflow.Never
		if r.URL.Query().Get("save") == "true" {
			decide = workflow.Always
		}

		res, err := identifyImported(r.Context(), deps, uri, decide)
		if errors.Is(err, workflow.ErrPermissionDenied) {
			if path, perr := media.PathFromURI(uri); perr == nil {
				os.Remove(path)
			}
		}
		if err != nil {
			code, errType := identifyStatus(err)
			httpError(w, code, errType, "%v", err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// identifyImported runs one identification cycle on an image already in the
// data directory.
func identifyImported(ctx context.Context, deps AppDeps, uri string, decide workflow.Decision) (identifyResponse, error) {
	path, err := media.PathFromURI(uri)
	if err != nil {
		return identifyResponse{}, err
	}
	return identifyPicked(ctx, deps, media.NewFilePicker(path, "", deps.DataDir), decide)
}

func identifyPicked(ctx context.Context, deps AppDeps, picker media.Picker, decide workflow.Decision) (identifyResponse, error) {
	perms := deps.Permissions
	if perms == nil {
		perms = media.Policy{}
	}
	res, err := workflow.RunOnce(ctx, workflow.SessionDeps{
		Permissions: perms,
		Picker:      picker,
		Store:       deps.Store,
		Pipeline:    deps.Pipeline,
	}, media.Gallery, decide)
	if err != nil {
		return identifyResponse{}, err
	}
	return identifyResponse{
		Image: res.Image,
		Candidate: candidateResponse{
			Name:   res.Candidate.Name,
			Family: res.Candidate.Family,
			Care:   res.Candidate.Care,
		},
		Saved: res.Saved,
	}, nil
}

func identifyStatus(err error) (int, string) {
	switch {
	case errors.Is(err, workflow.ErrPermissionDenied):
		return http.StatusForbidden, "permission_error"
	case errors.Is(err, workflow.ErrNoCandidates):
		return http.StatusUnprocessableEntity, "no_plant_found"
	case errors.Is(err, workflow.ErrIdentification):
		return http.StatusBadGateway, "api_error"
	case errors.Is(err, media.ErrCancelled):
		return http.StatusBadRequest, "invalid_request_error"
	default:
		return http.StatusInternalServerError, "api_error"
	}
}
