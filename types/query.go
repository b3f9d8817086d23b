package types

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

type Validater interface {
	Validate() map[string]string
}

var validate = validator.New()

type UploadParams struct {
	SessionID   string `json:"sessionId" validate:"required"`
	FileName    string `json:"fileName" validate:"required"`
	ChunkIndex  int    `json:"chunkIndex" validate:"min=0,ltfield=TotalChunks"`
	TotalChunks int    `json:"totalChunks" validate:"required,min=1"`
	DataBase64  string `json:"dataBase64" validate:"required"`
}

type StatusParams struct {
	SessionID string `json:"sessionId" validate:"required"`
}

type ChatParams struct {
	Messages  []Message `json:"messages" validate:"required,min=1,dive"`
	SessionID string    `json:"sessionId" validate:"required"`
}

func Validate(v Validater) map[string]string {
	return v.Validate()
}

func (params *UploadParams) Validate() map[string]string {
	return fieldErrors(validate.Struct(params))
}

func (params *StatusParams) Validate() map[string]string {
	return fieldErrors(validate.Struct(params))
}

func (params *ChatParams) Validate() map[string]string {
	return fieldErrors(validate.Struct(params))
}

func fieldErrors(err error) map[string]string {
	if err == nil {
		return nil
	}
	errs := err.(validator.ValidationErrors)
	errors := make(map[string]string)
	for _, e := range errs {
		errors[e.Field()] = fmt.Sprintf("failed on '%s' tag", e.Tag())
	}
	return errors
}
