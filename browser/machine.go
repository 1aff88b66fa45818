package browser

// PageState is the fetch lifecycle every listing-backed page shares.
type PageState string

const (
	PageIdle       PageState = "idle"
	PageLoading    PageState = "loading"
	PageRefetching PageState = "refetching"
	PageSuccess    PageState = "success"
	PageError      PageState = "error"
)

// PageEvent drives the page machine.
type PageEvent string

const (
	PageFetch    PageEvent = "FETCH"
	PageRefetch  PageEvent = "REFETCH"
	PageResolved PageEvent = "RESOLVED"
	PageFailed   PageEvent = "FAILED"
	PageTryAgain PageEvent = "TRY_AGAIN"
)

// NextPage is the page machine's pure transition table. A refetch keeps
// stale data on screen while the new listing loads; a failed refetch falls
// back to the error page like a failed initial fetch.
func NextPage(state PageState, event PageEvent) (PageState, bool) {
	switch state {
	case PageIdle:
		if event == PageFetch {
			return PageLoading, true
		}
	case PageLoading, PageRefetching:
		switch event {
		case PageResolved:
			return PageSuccess, true
		case PageFailed:
			return PageError, true
		}
	case PageSuccess:
		if event == PageRefetch {
			return PageRefetching, true
		}
	case PageError:
		if event == PageTryAgain {
			return PageLoading, true
		}
	}
	return state, false
}

// ModalState is the submit lifecycle of a create/edit modal.
type ModalState string

const (
	ModalIdle       ModalState = "idle"
	ModalProcessing ModalState = "processing"
	ModalSuccess    ModalState = "success"
	ModalError      ModalState = "error"
)

// ModalEvent drives the modal machine.
type ModalEvent string

const (
	ModalSubmit   ModalEvent = "SUBMIT"
	ModalResolved ModalEvent = "RESOLVED"
	ModalFailed   ModalEvent = "FAILED"
	ModalReset    ModalEvent = "RESET"
)

// NextModal is the modal machine's pure transition table. Success and
// error both reset to idle so the modal can be reused; error additionally
// accepts a resubmit.
func NextModal(state ModalState, event ModalEvent) (ModalState, bool) {
	switch state {
	case ModalIdle:
		if event == ModalSubmit {
			return ModalProcessing, true
		}
	case ModalProcessing:
		switch event {
		case ModalResolved:
			return ModalSuccess, true
		case ModalFailed:
			return ModalError, true
		}
	case ModalSuccess:
		if event == ModalReset {
			return ModalIdle, true
		}
	case ModalError:
		switch event {
		case ModalReset:
			return ModalIdle, true
		case ModalSubmit:
			return ModalProcessing, true
		}
	}
	return state, false
}
