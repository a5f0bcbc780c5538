package instance

// Module is a subsystem that hooks into the global initialization and into
// every instance's setup/teardown, mirroring the reference VM's split
// between NewVM's one-time bootstrap and per-VM state: InitOnce runs once
// per process for each module name, the first time an InitEx call lists a
// module of that name (globalInit records the names under initMu);
// InitInstance/CleanupInstance run
// once per Instance, in InitEx/Close, in registration order (cleanup runs
// in the reverse order per spec.md §4.G).
type Module interface {
	// Name is the key globalInit records once a module's InitOnce has run;
	// modules sharing a name share one InitOnce run.
	Name() string

	// InitOnce performs process-wide, one-time setup (e.g. registering a
	// native object class, seeding a lookup table). Called once per process
	// for a given Name regardless of how many instances are created; if any
	// InitOnce of an InitEx call fails, none of that call's pending modules
	// is recorded and the next InitEx runs their InitOnce again.
	InitOnce() error

	// InitInstance wires the module into a freshly created instance,
	// e.g. binding a native built-in object into the instance's document
	// VarMgr. Returning an error aborts InitEx; every module already
	// initialized for this instance has its CleanupInstance called in
	// reverse order before the error is returned.
	InitInstance(inst *Instance) error

	// CleanupInstance reverses InitInstance's effect. Called during
	// Close, and during InitEx's own rollback if a later module's
	// InitInstance fails.
	CleanupInstance(inst *Instance)
}
