package services

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/yungbote/licensing-crm-backend/internal/platform/apierr"
	pkgerrors "github.com/yungbote/licensing-crm-backend/internal/pkg/errors"
)

func badRequest(code string, err error) error {
	if err == nil {
		err = pkgerrors.ErrInvalidArgument
	}
	return apierr.New(http.StatusBadRequest, code, err)
}

func notFound(code string, what string) error {
	return apierr.New(http.StatusNotFound, code, fmt.Errorf("%s: %w", what, pkgerrors.ErrNotFound))
}

func conflict(code string, err error) error {
	return apierr.New(http.StatusConflict, code, err)
}

func internal(code string, err error) error {
	return apierr.New(http.StatusInternalServerError, code, err)
}

// IsNotFound reports whether err is a not-found failure from any layer.
func IsNotFound(err error) bool {
	var ae *apierr.Error
	if errors.As(err, &ae) {
		return ae.Status == http.StatusNotFound
	}
	return errors.Is(err, pkgerrors.ErrNotFound)
}

var validate = validator.New()

func validEmail(s string) bool {
	return s != "" && validate.Var(s, "email") == nil
}

func isAPIErr(err error) bool {
	var ae *apierr.Error
	return errors.As(err, &ae)
}

func apiNotConfigured(integration string) error {
	return apierr.New(http.StatusServiceUnavailable, integration+"_not_configured", fmt.Errorf("%s: %w", integration, pkgerrors.ErrNotConfigured))
}

func apiBadGateway(code string, err error) error {
	return apierr.New(http.StatusBadGateway, code, err)
}
