package api

import (
	"context"
	"encoding/base64"
	"log/slog"

	"docchat/indexer"
	"docchat/lead"
	"docchat/types"
	"docchat/upload"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type UploadHandler struct {
	assembler *upload.Assembler
	indexer   *indexer.Indexer
	extractor *lead.Extractor
	forwarder *lead.Forwarder
	logger    *slog.Logger
}

func NewUploadHandler(assembler *upload.Assembler, ix *indexer.Indexer, extractor *lead.Extractor, forwarder *lead.Forwarder) *UploadHandler {
	return &UploadHandler{
		assembler: assembler,
		indexer:   ix,
		extractor: extractor,
		forwarder: forwarder,
		logger:    slog.Default().With("component", "upload-handler"),
	}
}

// HandleUpload accepts one chunk of a session's document. The final chunk
// triggers indexing and the lead side pipeline synchronously; readiness
// stays observable through the status probe either way.
func (h *UploadHandler) HandleUpload(c *fiber.Ctx) error {
	var params types.UploadParams
	if c.BodyParser(&params) != nil {
		return ErrBadRequest()
	}

	if errors := types.Validate(&params); len(errors) > 0 {
		return NewValidationError(errors)
	}

	data, err := base64.StdEncoding.DecodeString(params.DataBase64)
	if err != nil {
		return NewError(fiber.StatusBadRequest, "dataBase64 is not valid base64")
	}

	complete, doc, err := h.assembler.Append(params.SessionID, params.FileName, params.ChunkIndex, params.TotalChunks, data)
	if err != nil {
		return NewError(fiber.StatusBadRequest, err.Error())
	}
	if !complete {
		return c.JSON(types.UploadResponse{Message: "chunk received"})
	}

	requestID := uuid.NewString()
	h.logger.Info("upload complete, starting processing",
		"request", requestID, "session", params.SessionID, "file", params.FileName, "bytes", len(doc))

	report, text, err := h.indexer.Index(context.Background(), params.SessionID, doc)
	if err != nil {
		return err
	}

	resp := types.UploadResponse{
		Message:  "upload, indexing and lead extraction complete",
		Complete: true,
		Indexed:  report.Indexed,
		Failed:   report.Failed,
	}

	extraction := h.extractor.Extract(context.Background(), text)
	resp.Extraction = &extraction.Lead

	result, err := h.forwarder.Forward(context.Background(), extraction.Lead)
	if err != nil {
		// Forwarding failure never undoes a successful indexing run.
		h.logger.Error("lead forwarding failed", "request", requestID, "err", err)
	} else {
		resp.Lead = &result
	}

	return c.JSON(resp)
}
