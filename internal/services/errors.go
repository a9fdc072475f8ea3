package services

import "errors"

var (
	ErrValidation          = errors.New("validation failed")
	ErrUserNotFound        = errors.New("user not found")
	ErrReportNotFound      = errors.New("waste report not found")
	ErrUpload              = errors.New("image upload failed")
	ErrClassifier          = errors.New("image classifier unavailable")
	ErrClassificationParse = errors.New("classifier returned an unreadable analysis")
	ErrMismatch            = errors.New("proof photo does not match the report")
	ErrAlreadyCollected    = errors.New("waste report already collected")
	ErrNotNearby           = errors.New("collector is not at the report location")
)
