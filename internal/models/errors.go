package models

import "errors"

var (
	ErrDetector         = errors.New("detector failure")
	ErrActuatorDispatch = errors.New("actuator dispatch failed")
	ErrCameraLink       = errors.New("camera link failure")
	ErrDuplicateZone    = errors.New("zone already exists")
	ErrPersistence      = errors.New("zone persistence failed")
)
