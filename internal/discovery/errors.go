package discovery

import "errors"

var (
	ErrOrganismNotFound = errors.New("organism not found in registry")
	ErrOrganismOffline  = errors.New("organism is offline")
)
