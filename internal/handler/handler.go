package handler

import (
	"github.com/alemhar/fielder/internal/storage"
	"github.com/alemhar/fielder/pkg/config"
)

var (
	cfg       *config.Config
	fileStore storage.Store
)

// Init wires the handler package with configuration and the attachment store.
// Must be called before any route is served.
func Init(c *config.Config, store storage.Store) {
	cfg = c
	fileStore = store
}
