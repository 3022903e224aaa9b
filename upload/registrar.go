package upload

import (
	"sync"

	"github.com/bitrise-io/go-utils/v2/log"

	"github.com/editorstack/go-uploader/upload/network"
)

// Registrar commits the results of successful uploads into the owning content
// block's persisted data. A descriptor without a URL is rejected even though
// the transfer itself reported success.
type Registrar struct {
	logger log.Logger

	mu     sync.Mutex
	assets []network.Asset
}

// NewRegistrar ...
func NewRegistrar(logger log.Logger) *Registrar {
	return &Registrar{logger: logger}
}

// Commit validates and stores the asset descriptor of a finished upload.
func (r *Registrar) Commit(asset network.Asset) (network.Asset, error) {
	if asset.URL == "" {
		return network.Asset{}, &network.ProtocolError{Message: "asset descriptor has no URL"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.assets = append(r.assets, asset)
	r.logger.Debugf("Committed asset %s", asset.URL)
	return asset, nil
}

// Remove drops the asset with the given URL from the committed set. It
// reports whether an asset was removed.
func (r *Registrar) Remove(url string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, asset := range r.assets {
		if asset.URL == url {
			r.assets = append(r.assets[:i], r.assets[i+1:]...)
			return true
		}
	}
	return false
}

// SetCaption attaches user-supplied text to a committed asset. The caption is
// independent of the transfer and survives save/load cycles with the asset.
func (r *Registrar) SetCaption(url, caption string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.assets {
		if r.assets[i].URL == url {
			r.assets[i].Caption = caption
			return true
		}
	}
	return false
}

// Assets returns a copy of the committed asset descriptors.
func (r *Registrar) Assets() []network.Asset {
	r.mu.Lock()
	defer r.mu.Unlock()

	assets := make([]network.Asset, len(r.assets))
	copy(assets, r.assets)
	return assets
}
