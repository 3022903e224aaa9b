package upload

// Notifier receives editor busy/free signals around network activity so
// co-located autosave and version-polling logic can pause during transfers.
// Busy fires before the first request of a batch (or delete), Free fires when
// it finishes, success or failure.
type Notifier interface {
	Busy()
	Free()
}

// NopNotifier ...
type NopNotifier struct{}

// Busy ...
func (NopNotifier) Busy() {}

// Free ...
func (NopNotifier) Free() {}
