package store

// View is the capability a UI layer supplies for each view instance.
// The store binds subscriptions to a view's lifecycle through it and never
// depends on a specific UI framework.
//
// Implementations must be comparable, typically a pointer. When a new
// instance registers under an id already in use, the newest instance owns
// that id and the older instance's unmount no longer releases it.
type View interface {
	// ID identifies the view instance. It must be stable for the lifetime
	// of one mount.
	ID() string

	// OnMount registers fn to run when the view mounts. If the view is
	// already mounted, fn runs immediately.
	OnMount(fn func())

	// OnUnmount registers fn to run when the view unmounts. If the view is
	// already unmounted, fn runs immediately.
	OnUnmount(fn func())

	// ForceRerender asks the UI layer to re-render the view.
	ForceRerender()
}
