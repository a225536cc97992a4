package handlers

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"

	"github.com/akolanti/DocChat/internal/adapter"
	"github.com/akolanti/DocChat/internal/adapter/utils"
	"github.com/akolanti/DocChat/internal/config"
	"github.com/akolanti/DocChat/internal/data/blobStore"
	"github.com/akolanti/DocChat/internal/domain/commonModels"
	"github.com/akolanti/DocChat/internal/domain/jobModel"
	"github.com/akolanti/DocChat/internal/domain/ragErrors"
)

const multipartMemory = 10 << 20

// PostIngestHandler handles the uploading of documents for ingestion.
// @Summary      Upload a document for ingestion
// @Description  Receives a pdf, docx or txt file via multipart/form-data, stores it and queues an ingestion job.
// @Tags         Ingestion
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        document         formData  file    true   "The PDF, DOCX or TXT file to upload"
// @Param        collection_name  formData  string  false  "Target vector collection"
// @Success      202  {object}  api.InitJobResponse  "Accepted - poll status_url"
// @Failure      400  {object}  api.ErrorResponse    "Missing file, unsupported format or file too large"
// @Failure      409  {object}  api.ErrorResponse    "A document with this name already exists in the collection"
// @Failure      500  {object}  api.ErrorResponse    "Storage error"
// @Router       /api/documents/ingest [post]
func (h *Handler) PostIngestHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	log := h.logger.With("traceId", r.Context().Value(config.TRACE_ID_KEY))

	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		log.Warn("Bad upload", "error", err)
		if isRequestTooLarge(err) {
			WriteErrorResponse(w, http.StatusBadRequest, "", "File too large")
			return
		}
		WriteErrorResponse(w, http.StatusBadRequest, "", "Malformed multipart form")
		return
	}

	fileReader, fileMetadata, err := r.FormFile("document")
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "", "Could not retrieve file")
		return
	}
	defer fileReader.Close()

	fileName := filepath.Base(fileMetadata.Filename)
	if fileMetadata.Size > h.maxFileSize {
		WriteErrorResponse(w, http.StatusBadRequest, fileName, "File too large")
		return
	}
	if commonModels.DocTypeFromPath(fileName) == commonModels.ERR {
		writeServiceError(w, r, fileName, ragErrors.ErrUnsupportedFormat)
		return
	}

	collection := r.FormValue("collection_name")
	if collection == "" {
		collection = h.defaultCollection
	}
	if err := h.ensureNewDocument(r.Context(), collection, fileName); err != nil {
		writeServiceError(w, r, fileName, err)
		return
	}

	key := blobStore.NewKey(fileName)
	blobCtx, cancel := context.WithTimeout(r.Context(), config.BlobTimeout)
	defer cancel()
	if err := h.blobs.Put(blobCtx, key, fileReader, fileMetadata.Size, fileMetadata.Header.Get("Content-Type")); err != nil {
		log.Error("Storing upload failed", "file", fileName, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, fileName, "Storage error")
		return
	}

	queued, err := h.jobs.Submit(r.Context(), jobModel.JobPayload{
		FileName:   fileName,
		BlobKey:    key,
		UploadedBy: userFromContext(r.Context()),
		Collection: collection,
	})
	if err != nil {
		if delErr := h.blobs.Delete(context.WithoutCancel(r.Context()), key); delErr != nil {
			log.Warn("Removing orphaned upload failed", "key", key, "error", delErr)
		}
		writeServiceError(w, r, fileName, err)
		return
	}
	writeJsonResponse(w, http.StatusAccepted, adapter.ToInitJobResponse(queued.Id))
}

// GetStatusHandler godoc
// @Summary      Get ingest job status
// @Description  Retrieves the current state of an ingest job. COMPLETE_INDEX_PENDING means the document is stored and its vectors will become searchable once the reconciler publishes them.
// @Tags         Job Status
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Job ID"
// @Success      200  {object}  api.JobResponse
// @Failure      404  {object}  api.ErrorResponse  "Job not found"
// @Router       /api/status/{id} [get]
func (h *Handler) GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	idString := utils.GetChiURLParam(r, "id")
	result, isFound := h.jobs.Status(r.Context(), idString)
	if !isFound || result.JobPayload.UploadedBy != userFromContext(r.Context()) {
		WriteErrorResponse(w, http.StatusNotFound, idString, "Job not found")
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToAPIResponse(result))
}

// GetDocumentHandler godoc
// @Summary      Get an ingested document
// @Tags         Documents
// @Produce      json
// @Security     BearerAuth
// @Param        documentId  path      string  true  "Document ID"
// @Success      200         {object}  api.DocumentResponse
// @Failure      404         {object}  api.ErrorResponse
// @Router       /api/documents/{documentId} [get]
func (h *Handler) GetDocumentHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	documentId := utils.GetChiURLParam(r, "documentId")
	doc, err := h.documents.GetDocument(r.Context(), documentId)
	if err == nil && doc.UploadedBy != userFromContext(r.Context()) {
		err = ragErrors.NotFound("document", documentId)
	}
	if err != nil {
		writeServiceError(w, r, documentId, err)
		return
	}
	count, err := h.documents.CountChunks(r.Context(), documentId)
	if err != nil {
		writeServiceError(w, r, documentId, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToDocumentResponse(doc, count))
}

// ListDocumentsHandler godoc
// @Summary      List the caller's documents
// @Tags         Documents
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  commonModels.Document
// @Router       /api/documents [get]
func (h *Handler) ListDocumentsHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	docs, err := h.documents.ListDocuments(r.Context(), userFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, "", err)
		return
	}
	if docs == nil {
		docs = []commonModels.Document{}
	}
	writeJsonResponse(w, http.StatusOK, docs)
}

// DeleteDocumentHandler godoc
// @Summary      Delete an ingested document
// @Description  Removes the document, its chunks and its vectors. Vectors that cannot be removed right away are left to the reconciler.
// @Tags         Documents
// @Security     BearerAuth
// @Param        documentId  path  string  true  "Document ID"
// @Success      204
// @Failure      404  {object}  api.ErrorResponse
// @Router       /api/documents/{documentId} [delete]
func (h *Handler) DeleteDocumentHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	documentId := utils.GetChiURLParam(r, "documentId")
	doc, err := h.documents.GetDocument(r.Context(), documentId)
	if err == nil && doc.UploadedBy != userFromContext(r.Context()) {
		err = ragErrors.NotFound("document", documentId)
	}
	if err == nil {
		err = h.remover.DeleteDocument(r.Context(), doc)
	}
	if err != nil {
		writeServiceError(w, r, documentId, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ensureNewDocument(ctx context.Context, collection, fileName string) error {
	_, err := h.documents.FindDocument(ctx, userFromContext(ctx), collection, fileName)
	switch {
	case err == nil:
		return ragErrors.AlreadyExists("document", fileName)
	case errors.Is(err, ragErrors.ErrNotFound):
		return nil
	default:
		return err
	}
}

// isRequestTooLarge reports a body that hit the MaxBytesReader limit.
func isRequestTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
