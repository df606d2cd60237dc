package token

import apperrors "github.com/jrsteele09/go-upload-web/internal/errors"

var errUnavailable = apperrors.Wrapf(apperrors.ErrStorageUnavailable, "token store")
