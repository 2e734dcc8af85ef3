package cache

// ScopedKeyer prefixes every key of an inner Keyer. The server uses it to
// keep several dashboards apart on one Redis instance:
//
//	keyer := cache.NewScopedKeyer(nil, "qadash:staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or the default keyer when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// ArtifactKey returns the prefixed inner artifact key.
func (k *ScopedKeyer) ArtifactKey(datasetHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(datasetHash, opts)
}

// SummaryKey returns the prefixed inner summary key.
func (k *ScopedKeyer) SummaryKey(datasetHash string) string {
	return k.prefix + k.inner.SummaryKey(datasetHash)
}
