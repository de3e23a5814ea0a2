package api

import (
	"errors"
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

type enqueueRequest struct {
	ItemID   string `json:"itemId"`
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

func (req *enqueueRequest) Validate() error {
	return validation.ValidateStruct(req,
		validation.Field(&req.ItemID, validation.Required, is.UUID),
		validation.Field(&req.URL, is.URL),
		validation.Field(&req.Filename, validation.By(plainFileName)),
	)
}

type limitRequest struct {
	Limit int `json:"limit"`
}

func (req *limitRequest) Validate() error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Limit, validation.Required, validation.Min(1)),
	)
}

type moveRequest struct {
	Position *int `json:"position"`
}

func (req *moveRequest) Validate() error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Position, validation.NotNil, validation.Min(0)),
	)
}

type limitResponse struct {
	Limit int `json:"limit"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// plainFileName rejects names that would escape the podcast folder
func plainFileName(value interface{}) error {
	name, _ := value.(string)
	if name == "" {
		return nil
	}
	if name != filepath.Base(name) || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return errors.New("must be a plain file name")
	}
	return nil
}
