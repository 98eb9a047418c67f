package cache

// ScopedKeyer prefixes every key of an inner Keyer. A shared Redis cache is
// scoped by build version, so artifacts rendered by one topoview release are
// never served to another.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner (the default keyer when nil) with prefix.
func NewScopedKeyer(inner Keyer, prefix string) *ScopedKeyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// VersionKeyer scopes keys as "topoview:<version>:".
func VersionKeyer(version string) *ScopedKeyer {
	return NewScopedKeyer(nil, "topoview:"+version+":")
}

// Prefix is the string every key starts with, usable as a SCAN pattern.
func (k *ScopedKeyer) Prefix() string { return k.prefix }

func (k *ScopedKeyer) ModelKey(modelHash string) string {
	return k.prefix + k.inner.ModelKey(modelHash)
}

func (k *ScopedKeyer) LayoutKey(modelHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(modelHash, opts)
}

func (k *ScopedKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(layoutHash, opts)
}

var _ Keyer = (*ScopedKeyer)(nil)
