package patch

// Report summarizes one Generate call: how many entries fell into each
// directive kind, and how many payload bytes were avoided (reused from
// the old archive via COPY/REFRESH) versus introduced (shipped as NEW
// or PATCH blob bytes) in the patch itself (spec.md §4.4 "Report").
type Report struct {
	CopyCount    int
	RefreshCount int
	PatchCount   int
	NewCount     int

	// DirectiveBytes is the approximate serialized size of the
	// directive stream, excluding the old/new archive images
	// themselves.
	DirectiveBytes int64

	// BytesAvoided is the sum of old-archive compressed sizes that
	// COPY and REFRESH directives reused instead of shipping again.
	BytesAvoided int64

	// BytesIntroduced is the sum of blob bytes PATCH and NEW
	// directives actually carry in the patch.
	BytesIntroduced int64
}

// EntryCount returns the total number of directives describing an
// archive entry (everything but BEGIN).
func (r *Report) EntryCount() int {
	return r.CopyCount + r.RefreshCount + r.PatchCount + r.NewCount
}
