package model

// Toast variant constants.
const (
	ToastVariantDefault     = "default"
	ToastVariantDestructive = "destructive"
)

// Toast is a transient user-facing notification emitted after an
// operation completes.
type Toast struct {
	Title       string
	Description string
	Variant     string
}

// SuccessToast builds a standard success toast.
func SuccessToast(description string) Toast {
	return Toast{
		Title:       "Success",
		Description: description,
		Variant:     ToastVariantDefault,
	}
}

// ErrorToast builds a destructive error toast. The description is the
// error text shown to the user verbatim.
func ErrorToast(description string) Toast {
	return Toast{
		Title:       "Error",
		Description: description,
		Variant:     ToastVariantDestructive,
	}
}
