package service

import "errors"

var ErrTenderNotFound = errors.New("tender not found")
